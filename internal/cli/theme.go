package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/waypoint/internal/ui"
)

func newThemeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle]",
		Short:     "Show or change the persisted color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{ui.ThemeDark, ui.ThemeLight, "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), app.prefs.Theme())
				return nil
			}
			var err error
			switch args[0] {
			case "toggle":
				_, err = app.prefs.ToggleTheme()
			case ui.ThemeDark, ui.ThemeLight:
				err = app.prefs.SetTheme(args[0])
			default:
				return fmt.Errorf("unknown theme %q: want dark, light or toggle", args[0])
			}
			if err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), app.theme(), "theme: "+app.prefs.Theme())
			return nil
		},
	}
}
