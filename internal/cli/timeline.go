package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/waypoint/internal/collection"
	"github.com/Makepad-fr/waypoint/internal/render"
	"github.com/Makepad-fr/waypoint/internal/syncer"
	"github.com/Makepad-fr/waypoint/internal/tui"
)

func newTimelineCmd(app *App) *cobra.Command {
	var task bool
	var snapshot string
	cmd := &cobra.Command{
		Use:         "timeline <request-id>",
		Short:       "Edit and reorder the checkpoints of a request (or of a task with --task)",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{fullscreen: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("timeline", args[0])
			if err != nil {
				return err
			}
			ch, err := app.channel()
			if err != nil {
				return err
			}
			opts := []syncer.Option{syncer.WithLogger(app.logger)}
			if snapshot != "" {
				items, err := collection.LoadSnapshot(snapshot, app.logger)
				if err != nil {
					return err
				}
				opts = append(opts, syncer.WithItems(items))
			}
			in := syncer.NewTimeline(ch, id, opts...)
			title := fmt.Sprintf("Request #%d", id)
			if task {
				in = syncer.NewTaskPanel(ch, id, opts...)
				title = fmt.Sprintf("Task #%d", id)
			}
			return tui.RunTimeline(ctxOf(cmd), in, tui.Options{Title: title, Theme: app.prefs.Theme(), Prefs: app.prefs})
		},
	}
	cmd.Flags().BoolVar(&task, "task", false, "the id is a kanban task; edit its checkpoints")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "JSON file to show until the tracker answers")
	return cmd
}

func newBoardCmd(app *App) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:         "board <project-id>",
		Short:       "Kanban board of a project; drag cards between columns",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{fullscreen: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("board", args[0])
			if err != nil {
				return err
			}
			ch, err := app.channel()
			if err != nil {
				return err
			}
			in := syncer.NewBoard(ch, id, syncer.WithLogger(app.logger))
			title := fmt.Sprintf("Project #%d", id)
			if !once {
				return tui.RunBoard(ctxOf(cmd), in, tui.Options{Title: title, Theme: app.prefs.Theme(), Prefs: app.prefs})
			}
			if _, err := in.Load(ctxOf(cmd)); err != nil {
				return err
			}
			v := render.Board(title, in.Store.Items(), render.BoardState{State: render.State{Width: 100}})
			fmt.Fprintln(cmd.OutOrStdout(), v.String(app.theme()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "print", false, "print the board once instead of starting the TUI")
	return cmd
}
