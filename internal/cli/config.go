package cli

import (
	"github.com/spf13/cobra"

	"github.com/brianndofor/trialrev/internal/config"
)

type configView struct {
	Sources   []config.Source `json:"sources"`
	Config    config.Config   `json:"config"`
	APIKeySet bool            `json:"api_key_set"`
	Roles     []string        `json:"roles"`
}

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print merged configuration and the files it came from",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			configPath, _ := cmd.Flags().GetString("config")
			return printJSON(cmd.OutOrStdout(), configView{
				Sources:   config.Sources(configPath),
				Config:    app.Config,
				APIKeySet: app.Config.Model.APIKey != "",
				Roles:     app.Registry.Names(),
			})
		},
	}
	return cmd
}
