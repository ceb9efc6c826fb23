package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/waypoint/internal/collection"
	"github.com/Makepad-fr/waypoint/internal/drag"
	"github.com/Makepad-fr/waypoint/internal/editor"
	"github.com/Makepad-fr/waypoint/internal/model"
	"github.com/Makepad-fr/waypoint/internal/syncer"
	"github.com/Makepad-fr/waypoint/internal/ui"
)

// target selects the checkpoint list the subcommands work on.
type target struct {
	request int64
	task    int64
}

func (t target) validate() error {
	switch {
	case t.request > 0 && t.task > 0:
		return errors.New("use either --request or --task, not both")
	case t.request <= 0 && t.task <= 0:
		return errors.New("one of --request or --task is required")
	}
	return nil
}

func newCheckpointsCmd(app *App) *cobra.Command {
	var tg target
	cmd := &cobra.Command{
		Use:     "checkpoints",
		Aliases: []string{"cp"},
		Short:   "Scriptable checkpoint commands (items are addressed by 1-based index)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := tg.validate(); err != nil {
				return err
			}
			return app.load(cmd)
		},
	}
	cmd.PersistentFlags().Int64Var(&tg.request, "request", 0, "client request id")
	cmd.PersistentFlags().Int64Var(&tg.task, "task", 0, "kanban task id")

	var group bool
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := app.open(cmd, tg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), listPanel(app.theme(), in, group))
			return nil
		},
	}
	ls.Flags().BoolVar(&group, "group", false, "group output by pending/done")

	var comment string
	add := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a checkpoint at the end",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := app.open(cmd, tg)
			if err != nil {
				return err
			}
			in.Editor.Open(nil, true)
			a, err := in.Editor.Submit(editor.Fields{Title: strings.Join(args, " "), Comment: comment})
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			if _, err := in.Do(ctxOf(cmd), a); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), app.theme(), "added")
			return nil
		},
	}
	add.Flags().StringVar(&comment, "comment", "", "checkpoint comment")

	done := &cobra.Command{
		Use:   "done <index>",
		Short: "Toggle done for the checkpoint at index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := app.open(cmd, tg)
			if err != nil {
				return err
			}
			it, err := at(in, args[0])
			if err != nil {
				return err
			}
			if _, err := in.Do(ctxOf(cmd), in.Vocabulary().Toggle(it.ID, !it.IsDone)); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), app.theme(), "toggled")
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <index>",
		Short: "Remove the checkpoint at index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := app.open(cmd, tg)
			if err != nil {
				return err
			}
			it, err := at(in, args[0])
			if err != nil {
				return err
			}
			if _, err := in.Do(ctxOf(cmd), in.Vocabulary().Delete(it.ID)); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), app.theme(), "removed")
			return nil
		},
	}

	mv := &cobra.Command{
		Use:   "mv <from-index> <onto-index>",
		Short: "Drop one checkpoint onto another, as a drag would",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := app.open(cmd, tg)
			if err != nil {
				return err
			}
			src, err := at(in, args[0])
			if err != nil {
				return err
			}
			dst, err := at(in, args[1])
			if err != nil {
				return err
			}
			if err := in.Drag.Begin(drag.Source{ID: src.ID, Order: in.Store.IDs()}); err != nil {
				return err
			}
			intent, err := in.Drag.Drop(drag.Target{ItemID: dst.ID})
			in.Drag.End()
			if errors.Is(err, drag.ErrNoDrop) {
				ui.OK(cmd.OutOrStdout(), app.theme(), "unchanged")
				return nil
			}
			if err != nil {
				return err
			}
			if _, err := in.Do(ctxOf(cmd), in.IntentAction(intent)); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), app.theme(), "moved")
			return nil
		},
	}

	export := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the checkpoints to a JSON snapshot (usable with timeline --snapshot)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := app.open(cmd, tg)
			if err != nil {
				return err
			}
			if err := collection.SaveSnapshot(args[0], in.Store.Items()); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), app.theme(), fmt.Sprintf("exported %d checkpoints", in.Store.Len()))
			return nil
		},
	}

	cmd.AddCommand(ls, add, done, rm, mv, export)
	return cmd
}

// open binds the instance for tg and loads it; the load also picks up the
// CSRF cookie the mutations need.
func (app *App) open(cmd *cobra.Command, tg target) (*syncer.Instance, error) {
	ch, err := app.channel()
	if err != nil {
		return nil, err
	}
	var in *syncer.Instance
	if tg.task > 0 {
		in = syncer.NewTaskPanel(ch, tg.task, syncer.WithLogger(app.logger))
	} else {
		in = syncer.NewTimeline(ch, tg.request, syncer.WithLogger(app.logger))
	}
	if _, err := in.Load(ctxOf(cmd)); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return in, nil
}

// at resolves a 1-based index against the sorted list.
func at(in *syncer.Instance, arg string) (model.Item, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return model.Item{}, fmt.Errorf("not a number: %s", arg)
	}
	items := in.Store.Items()
	if n < 1 || n > len(items) {
		return model.Item{}, fmt.Errorf("index out of range: have %d, got %d (run `waypoint checkpoints ls` to see valid indexes)", len(items), n)
	}
	return items[n-1], nil
}

func listPanel(t ui.Theme, in *syncer.Instance, group bool) string {
	items := in.Store.Items()
	d, p := in.Store.Stats()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Checkpoints"),
		t.Success.Render(t.SymDone), d,
		t.Pending.Render(t.SymPending), p,
		t.Accent.Render("Total"), len(items),
	)
	lines := []string{header, t.Muted.Render(ui.ProgressBar(d, d+p, 28)), ""}
	if group {
		lines = append(lines, groupLines(t, items)...)
	} else {
		lines = append(lines, flatLines(t, items, 1)...)
	}
	return ui.Panel(t, lines)
}

func flatLines(t ui.Theme, items []model.Item, first int) []string {
	if len(items) == 0 {
		return []string{t.Muted.Render("no checkpoints")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		title := it.Title
		if it.IsDone {
			title = t.Done.Render(title)
		}
		line := fmt.Sprintf("%s %s %s", t.Muted.Render(fmt.Sprintf("%2d.", first+i)), t.Box(it.IsDone), title)
		if it.Comment != "" {
			line += "  " + t.Muted.Render(it.Comment)
		}
		out = append(out, line)
	}
	return out
}

// groupLines keeps each item's list index so it stays addressable.
func groupLines(t ui.Theme, items []model.Item) []string {
	var pend, done []string
	for i, it := range items {
		l := flatLines(t, []model.Item{it}, i+1)
		if it.IsDone {
			done = append(done, l...)
		} else {
			pend = append(pend, l...)
		}
	}
	section := func(title string, ls []string) []string {
		out := []string{t.Accent.Render(title)}
		if len(ls) == 0 {
			return append(out, t.Muted.Render("(none)"))
		}
		return append(out, ls...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}
