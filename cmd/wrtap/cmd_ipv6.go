package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conntest-lab/conntest/pkg/cli"
	"github.com/conntest-lab/conntest/pkg/openwrt"
)

// featurePair wires a setup/remove operation pair into two subcommands.
func featurePair(use, short, setupVerb, removeVerb string,
	setup, remove func(*openwrt.AP) error) *cobra.Command {

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   setupVerb,
			Short: "Apply the change",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withAP(func(ap *openwrt.AP) error {
					if err := setup(ap); err != nil {
						return err
					}
					fmt.Println(cli.Green(use + " " + setupVerb + " done"))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   removeVerb,
			Short: "Undo the change",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withAP(func(ap *openwrt.AP) error {
					if err := remove(ap); err != nil {
						return err
					}
					fmt.Println(cli.Green(use + " " + removeVerb + " done"))
					return nil
				})
			},
		},
	)
	return cmd
}

func newIPv6Cmd() *cobra.Command {
	return featurePair("ipv6", "IPv6 on LAN and WAN", "disable", "enable",
		func(ap *openwrt.AP) error { return ap.Network.DisableIPv6() },
		func(ap *openwrt.AP) error { return ap.Network.EnableIPv6() })
}

func newBridgeCmd() *cobra.Command {
	return featurePair("bridge", "IPv6 bridge (DHCPv6/RA/NDP relay)", "setup", "remove",
		func(ap *openwrt.AP) error { return ap.Network.SetupIPv6Bridge() },
		func(ap *openwrt.AP) error { return ap.Network.RemoveIPv6Bridge() })
}

func newPreferCmd() *cobra.Command {
	return featurePair("prefer", "DHCP IPv6-only-preferred option (108)", "setup", "remove",
		func(ap *openwrt.AP) error { return ap.Network.EnableIPv6PreferOption() },
		func(ap *openwrt.AP) error { return ap.Network.RemoveIPv6PreferOption() })
}
