package commands

import (
	"fmt"

	"github.com/itohio/aquanode/pkg/board"
	"github.com/itohio/aquanode/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newDefaultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print or write the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()

			out, _ := cmd.Flags().GetString("out")
			if out != "" {
				if err := cfg.Save(out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
				return nil
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringP("out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List available serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := board.Ports()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p.Name)
			}
			return nil
		},
	}
}
