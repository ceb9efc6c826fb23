package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/waypoint/internal/model"
	"github.com/Makepad-fr/waypoint/internal/syncer"
	"github.com/Makepad-fr/waypoint/internal/ui"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Kanban task side panel: details, checkpoints and chat",
	}

	show := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its checkpoints and latest chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			ch, err := app.channel()
			if err != nil {
				return err
			}
			in := syncer.NewTaskPanel(ch, id, syncer.WithLogger(app.logger))
			o, err := in.Load(ctxOf(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), taskPanel(app.theme(), o.Result.Task, in.Store.Items(), o.Result.Chat))
			return nil
		},
	}

	say := &cobra.Command{
		Use:   "say <task-id> <text...>",
		Short: "Post a chat message on a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			ch, err := app.channel()
			if err != nil {
				return err
			}
			in := syncer.NewTaskPanel(ch, id, syncer.WithLogger(app.logger))
			if _, err := in.Load(ctxOf(cmd)); err != nil {
				return err
			}
			o, err := in.Do(ctxOf(cmd), in.Vocabulary().Chat(strings.Join(args[1:], " ")))
			if err != nil {
				return err
			}
			msg := "sent"
			if m := o.Result.Message; m != nil {
				msg = fmt.Sprintf("sent as %s", m.Author)
			}
			ui.OK(cmd.OutOrStdout(), app.theme(), msg)
			return nil
		},
	}

	cmd.AddCommand(show, say)
	return cmd
}

func taskPanel(t ui.Theme, task *model.TaskDetail, items []model.Item, chat []model.ChatMessage) string {
	var lines []string
	if task != nil {
		lines = append(lines,
			t.Title.Render(fmt.Sprintf("#%d %s", task.ID, task.Title)),
			t.Muted.Render(fmt.Sprintf("%s · %s · %d pts", task.StatusLabel, task.TaskTypeLabel, task.StoryPoints)),
		)
		if task.Assignee != nil {
			lines = append(lines, "assignee: "+*task.Assignee)
		}
		if task.DueDate != nil {
			lines = append(lines, "due: "+*task.DueDate)
		}
		if task.Description != "" {
			lines = append(lines, "", task.Description)
		}
		lines = append(lines, "")
	}
	lines = append(lines, t.Accent.Render("Checkpoints"))
	lines = append(lines, flatLines(t, items, 1)...)
	lines = append(lines, "", t.Accent.Render("Chat"))
	if len(chat) == 0 {
		lines = append(lines, t.Muted.Render("(no messages)"))
	}
	for _, m := range chat {
		lines = append(lines, fmt.Sprintf("%s %s  %s",
			t.Muted.Render(m.CreatedAt.Local().Format("02 Jan 15:04")), t.Accent.Render(m.Author), m.Text))
	}
	return ui.Panel(t, lines)
}
