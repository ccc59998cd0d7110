package cli

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/brianndofor/trialrev/internal/config"
	"github.com/brianndofor/trialrev/internal/provider"
	"github.com/spf13/cobra"
)

func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check model provider and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			fmt.Fprintln(cmd.OutOrStdout(), "trialrev doctor")
			fmt.Fprintln(cmd.OutOrStdout(), "- config: ok")
			fmt.Fprintf(cmd.OutOrStdout(), "- roles: %d registered\n", len(app.Registry.Names()))

			if app.Config.Model.Provider == config.ProviderClaude {
				if _, err := exec.LookPath(app.Config.Model.Command); err != nil {
					return fmt.Errorf("provider not found: %s", app.Config.Model.Command)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "- provider command: ok")
			}

			c, err := provider.New(app.Config.Model)
			if err != nil {
				return err
			}
			if hc, ok := c.(provider.HealthChecker); ok {
				if err := hc.HealthCheck(ctx); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "- provider %s: failed\n%v\n", app.Config.Model.Provider, err)
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "- provider %s: ok\n", app.Config.Model.Provider)
			fmt.Fprintln(cmd.OutOrStdout(), "doctor checks passed")
			return nil
		},
	}
	return cmd
}
