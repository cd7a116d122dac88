package cmd

import (
	"fmt"
	"log/slog"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// TestCmds returns the quality gates: unit tests, lint and integration
// tests against attached adapters.
func TestCmds() []*cobra.Command {
	return []*cobra.Command{
		suite("test", "Run unit tests", test.Test),
		suite("lint", "Run linting", test.Lint),
		suite("integration-test", "Run integration tests; needs an attached adapter", test.Integ),
	}
}

func suite(use, short string, run func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Debug("running suite", "suite", use)
			err := run()
			if err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}
			return nil
		},
	}
}
