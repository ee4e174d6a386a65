package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conntest-lab/conntest/pkg/cli"
	"github.com/conntest-lab/conntest/pkg/openwrt"
)

func newDNSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dns",
		Short: "Local DNS server with DNS-over-TLS front",
	}

	var domain string
	setup := &cobra.Command{
		Use:   "setup",
		Short: "Set up the local DNS server",
		Long: `Configure dnsmasq as an authoritative server for a test domain and
start an stunnel DNS-over-TLS front on port 853.

  wrtap -H 192.168.1.1 dns setup --domain test.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAP(func(ap *openwrt.AP) error {
				if err := ap.Network.SetupDNSServer(domain); err != nil {
					return err
				}
				fmt.Println(cli.Green("DNS server up for " + domain))
				return nil
			})
		},
	}
	setup.Flags().StringVar(&domain, "domain", "test.example.com", "domain the server answers for")

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Remove the local DNS server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAP(func(ap *openwrt.AP) error {
				if err := ap.Network.RemoveDNSServer(); err != nil {
					return err
				}
				fmt.Println(cli.Green("DNS server removed"))
				return nil
			})
		},
	}

	cmd.AddCommand(setup, remove)
	return cmd
}
