package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conntest-lab/conntest/pkg/cli"
	"github.com/conntest-lab/conntest/pkg/openwrt"
)

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Reconcile leftover dirty state on the AP",
		Long: `Connect to the AP and roll back configuration changes a crashed run
left behind. Connecting performs the rollback implicitly; this command
exists to run it on its own and report the result.

  wrtap -H 192.168.1.1 cleanup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAP(func(ap *openwrt.AP) error {
				// Construction already reconciled; anything dirty now
				// means an inverse failed part-way.
				if dirty := ap.Network.Dirty(); len(dirty) > 0 {
					return fmt.Errorf("changes still dirty after reconcile: %v", dirty)
				}
				fmt.Println(cli.Green("AP is clean"))
				return nil
			})
		},
	}
}
