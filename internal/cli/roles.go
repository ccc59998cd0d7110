package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List reviewer roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			defaults := map[string]bool{}
			for _, name := range app.Config.Review.Roles {
				defaults[name] = true
			}
			for _, name := range app.Registry.Names() {
				mark := " "
				if defaults[name] {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-20s %s\n", mark, name, app.roleLabel(name))
			}
			return nil
		},
	}
}
