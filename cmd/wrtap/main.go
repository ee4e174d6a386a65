// wrtap — OpenWrt lab AP administration
//
// wrtap drives the network features a connectivity testbed configures on
// its OpenWrt access points, using the same controllers the test harness
// uses. Every connection reconciles leftover state from crashed runs first.
//
// Usage:
//
//	wrtap cleanup                    Reconcile leftover dirty state
//	wrtap dns setup|remove           DNS server with DNS-over-TLS front
//	wrtap vpn pptp setup|remove      PPTP VPN server
//	wrtap vpn l2tp setup|remove      L2TP/IPSec VPN server
//	wrtap ipv6 disable|enable        IPv6 on LAN and WAN
//	wrtap bridge setup|remove        IPv6 bridge (DHCPv6/RA/NDP relay)
//	wrtap prefer setup|remove        DHCP IPv6-only-preferred option
//	wrtap wifi status|up|down        Radio control
//	wrtap settings                   Persistent defaults
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conntest-lab/conntest/pkg/util"
	"github.com/conntest-lab/conntest/pkg/version"
)

var (
	testbedPath string
	apName      string
	host        string
	port        int
	user        string
	password    string
	verbose     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "wrtap",
	Short:             "OpenWrt lab AP administration",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `wrtap configures the network features a connectivity testbed uses on
its OpenWrt access points. Connecting always reconciles dirty state a
crashed run left behind.

  wrtap -H 192.168.1.1 dns setup --domain test.example.com
  wrtap --testbed rack3.yaml --ap ap-main cleanup`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("info")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&testbedPath, "testbed", "t", "", "testbed file")
	rootCmd.PersistentFlags().StringVarP(&apName, "ap", "a", "", "access point name in the testbed")
	rootCmd.PersistentFlags().StringVarP(&host, "host", "H", "", "AP host (overrides testbed)")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 22, "AP SSH port")
	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", "root", "AP SSH user")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "P", "", "AP SSH password (prompted when unset)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newCleanupCmd(),
		newDNSCmd(),
		newVPNCmd(),
		newIPv6Cmd(),
		newBridgeCmd(),
		newPreferCmd(),
		newWifiCmd(),
		newSettingsCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wrtap %s\n", version.Info())
		},
	}
}
