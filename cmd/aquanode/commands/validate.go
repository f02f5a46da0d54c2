package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file",
		Long: `Loads the configuration, reports every invariant it violates and warns
about fields still holding placeholder values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, field := range cfg.Placeholders() {
				fmt.Fprintf(out, "warning: %s still holds a placeholder value\n", field)
			}

			if err := cfg.Validate(); err != nil {
				errs := multierr.Errors(err)
				for _, e := range errs {
					fmt.Fprintf(out, "error: %v\n", e)
				}
				return errors.New(pluralize(len(errs), "configuration error"))
			}

			fmt.Fprintln(out, "configuration ok")
			return nil
		},
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
