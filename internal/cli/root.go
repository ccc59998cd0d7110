package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "trialrev",
		Short:         "Multi-perspective clinical trial protocol review",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := initApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cmd.SetContext(withApp(cmd.Context(), app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app, err := getApp(cmd.Context()); err == nil {
				return app.Store.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Override config path")

	root.AddCommand(NewDoctorCmd())
	root.AddCommand(NewSegmentCmd())
	root.AddCommand(NewSectionsCmd())
	root.AddCommand(NewReviewCmd())
	root.AddCommand(NewRisksCmd())
	root.AddCommand(NewScoreCmd())
	root.AddCommand(NewGenerateCmd())
	root.AddCommand(NewExtractCmd())
	root.AddCommand(NewShowCmd())
	root.AddCommand(NewRolesCmd())
	root.AddCommand(NewConfigCmd())

	return root
}
