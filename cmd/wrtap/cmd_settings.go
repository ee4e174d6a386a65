package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conntest-lab/conntest/pkg/cli"
	"github.com/conntest-lab/conntest/pkg/settings"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage persistent settings",
		Long: `Manage persistent settings stored in ~/.conntest/settings.json.

Settings provide defaults for context flags:
  - default_testbed: Used when -t is not specified
  - default_ap:      Used when -a is not specified

Examples:
  wrtap settings show
  wrtap settings set testbed /labs/rack3/testbed.yaml
  wrtap settings set ap ap-main
  wrtap settings clear`,
	}
	cmd.AddCommand(newSettingsShowCmd(), newSettingsSetCmd(), newSettingsClearCmd())
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load()
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}

			fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

			t := cli.NewTable("SETTING", "VALUE")
			printSetting := func(name, value string) {
				if value == "" {
					value = "(not set)"
				}
				t.Row(name, value)
			}
			printSetting("default_testbed", s.DefaultTestbed)
			printSetting("default_ap", s.DefaultAP)
			t.Flush()
			return nil
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <setting> <value>",
		Short: "Set a setting value",
		Long: `Set a persistent setting value.

Available settings:
  testbed - Default testbed file (-t flag default)
  ap      - Default access point name (-a flag default)`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			setting, value := args[0], args[1]

			s, err := settings.Load()
			if err != nil {
				s = &settings.Settings{}
			}

			switch setting {
			case "testbed", "default_testbed":
				s.SetTestbed(value)
				fmt.Printf("Default testbed set to: %s\n", value)
			case "ap", "default_ap":
				s.SetAP(value)
				fmt.Printf("Default access point set to: %s\n", value)
			default:
				return fmt.Errorf("unknown setting: %s (valid: testbed, ap)", setting)
			}

			if err := s.Save(); err != nil {
				return fmt.Errorf("saving settings: %w", err)
			}
			return nil
		},
	}
}

func newSettingsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset all settings to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &settings.Settings{}
			if err := s.Save(); err != nil {
				return fmt.Errorf("saving settings: %w", err)
			}
			fmt.Println("Settings cleared")
			return nil
		},
	}
}
