package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conntest-lab/conntest/pkg/cli"
	"github.com/conntest-lab/conntest/pkg/openwrt"
)

func newVPNCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vpn",
		Short: "VPN servers on the AP",
	}
	cmd.AddCommand(newVPNPPTPCmd(), newVPNL2TPCmd())
	return cmd
}

func newVPNPPTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pptp",
		Short: "PPTP VPN server",
	}

	var (
		localIP string
		vpnUser string
		vpnPass string
	)
	setup := &cobra.Command{
		Use:   "setup",
		Short: "Set up the PPTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAP(func(ap *openwrt.AP) error {
				if err := ap.Network.SetupVPNPPTPServer(localIP, vpnUser, vpnPass); err != nil {
					return err
				}
				fmt.Println(cli.Green("PPTP server up"))
				return nil
			})
		},
	}
	setup.Flags().StringVar(&localIP, "local-ip", "192.168.1.1", "PPTP local address")
	setup.Flags().StringVar(&vpnUser, "vpn-user", "vpnuser", "PPP username")
	setup.Flags().StringVar(&vpnPass, "vpn-password", "password", "PPP password")

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Remove the PPTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAP(func(ap *openwrt.AP) error {
				if err := ap.Network.RemoveVPNPPTPServer(); err != nil {
					return err
				}
				fmt.Println(cli.Green("PPTP server removed"))
				return nil
			})
		},
	}

	cmd.AddCommand(setup, remove)
	return cmd
}

func newVPNL2TPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "l2tp",
		Short: "L2TP/IPSec VPN server",
	}

	var (
		hostname   string
		address    string
		vpnUser    string
		vpnPass    string
		psk        string
		serverName string
		country    string
		org        string
	)
	setup := &cobra.Command{
		Use:   "setup",
		Short: "Set up the L2TP/IPSec server",
		Long: `Configure strongswan, xl2tpd, PPP secrets, and firewall rules for an
L2TP/IPSec VPN server, and generate its certificates. The client PKCS#12
bundle is published at http://<ap>/downloads/clientPkcs.p12.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAP(func(ap *openwrt.AP) error {
				err := ap.Network.SetupVPNL2TPServer(
					hostname, address, vpnUser, vpnPass, psk, serverName, country, org)
				if err != nil {
					return err
				}
				fmt.Println(cli.Green("L2TP server up"))
				return nil
			})
		},
	}
	setup.Flags().StringVar(&hostname, "hostname", "vpn.example.com", "VPN server domain name")
	setup.Flags().StringVar(&address, "address", "192.168.1.1", "VPN server address")
	setup.Flags().StringVar(&vpnUser, "vpn-user", "vpnuser", "PPP username")
	setup.Flags().StringVar(&vpnPass, "vpn-password", "password", "PPP password")
	setup.Flags().StringVar(&psk, "psk", "", "pre-shared key (RSA certs when empty)")
	setup.Flags().StringVar(&serverName, "server-name", "l2tp-server", "server name in ipsec config")
	setup.Flags().StringVar(&country, "country", "US", "certificate country code")
	setup.Flags().StringVar(&org, "org", "conntest", "certificate organization")

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Remove the L2TP/IPSec server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAP(func(ap *openwrt.AP) error {
				if err := ap.Network.RemoveVPNL2TPServer(); err != nil {
					return err
				}
				fmt.Println(cli.Green("L2TP server removed"))
				return nil
			})
		},
	}

	cmd.AddCommand(setup, remove)
	return cmd
}
