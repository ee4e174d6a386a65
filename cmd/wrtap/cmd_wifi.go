package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conntest-lab/conntest/pkg/cli"
	"github.com/conntest-lab/conntest/pkg/openwrt"
)

func newWifiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wifi",
		Short: "Radio control and status",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show radio and interface status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAP(showWifiStatus)
		},
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Bring the radios up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAP(func(ap *openwrt.AP) error {
				if err := ap.StartAP(); err != nil {
					return err
				}
				fmt.Println(cli.Green("radios up"))
				return nil
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Take the radios down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAP(func(ap *openwrt.AP) error {
				if err := ap.StopAP(); err != nil {
					return err
				}
				fmt.Println(cli.Yellow("radios down"))
				return nil
			})
		},
	}

	cmd.AddCommand(status, up, down)
	return cmd
}

func showWifiStatus(ap *openwrt.AP) error {
	t := cli.NewTable("RADIO", "STATE", "SSID", "IFNAME", "BSSID")
	for _, radio := range openwrt.DefaultRadios {
		up, err := ap.WifiUp(radio)
		if err != nil {
			return err
		}
		ifnames, err := ap.IfnamesForSSIDs(radio)
		if err != nil {
			return err
		}
		if len(ifnames) == 0 {
			t.Row(radio, cli.UpDown(up), "-", "-", "-")
			continue
		}
		for ssid, ifname := range ifnames {
			bssid, err := ap.BSSID(ifname)
			if err != nil {
				return err
			}
			t.Row(radio, cli.UpDown(up), ssid, ifname, bssid)
		}
	}
	t.Flush()
	return nil
}
