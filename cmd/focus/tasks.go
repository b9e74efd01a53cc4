package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/tasks"
	"github.com/nhle/focus/internal/views"
)

// withSession opens a session for a CLI command and closes it, waiting
// for pending writes, once fn returns.
func withSession(cmd *cobra.Command, flags *globalFlags, fn func(s *session) error) error {
	s, err := openSession(cmd.Context(), flags, false)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func parsePriority(arg string) (model.Priority, error) {
	p, ok := model.ParsePriority(arg)
	if !ok {
		return "", fmt.Errorf("invalid priority %q: use low, medium or high", arg)
	}
	return p, nil
}

func checkCategory(s *session, id string) error {
	if _, ok := s.settings.Category(id); !ok {
		return fmt.Errorf("unknown category %q", id)
	}
	return nil
}

func notFound(id int64) error {
	return fmt.Errorf("task %d not found", id)
}

func addCmd(flags *globalFlags) *cobra.Command {
	var (
		category string
		due      string
		priority string
		today    bool
		parent   int64
	)

	cmd := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a task or, with --parent, a subtask",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("task text is empty")
			}
			return withSession(cmd, flags, func(s *session) error {
				if parent != 0 {
					id, ok := s.tasks.AddSubtask(parent, text)
					if !ok {
						return fmt.Errorf("task %d cannot take subtasks", parent)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added subtask %d to %d\n", id, parent)
					return nil
				}

				opts := tasks.AddOptions{Today: today}
				if category != "" {
					if err := checkCategory(s, category); err != nil {
						return err
					}
					opts.Category = &category
				}
				if due != "" {
					d, err := model.ParseDate(due)
					if err != nil {
						return err
					}
					opts.DueDate = &d
				}
				if priority != "" {
					p, err := parsePriority(priority)
					if err != nil {
						return err
					}
					opts.Priority = &p
				}
				id, ok := s.tasks.AddTask(text, opts)
				if !ok {
					return fmt.Errorf("task not added")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %d\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Category id")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Priority: low, medium or high")
	cmd.Flags().BoolVarP(&today, "today", "t", false, "Put the task on today's list")
	cmd.Flags().Int64Var(&parent, "parent", 0, "Add as a subtask of this task id")
	return cmd
}

func listCmd(flags *globalFlags) *cobra.Command {
	var (
		category  string
		todayOnly bool
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks grouped into today and later",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				showCompleted := s.settings.Current().ShowCompleted
				if cmd.Flags().Changed("all") {
					showCompleted = all
				}
				q := views.Query{Category: category, HideCompleted: !showCompleted}
				v := views.Build(s.tasks.Snapshot(), s.tasks.Today(), q)
				if todayOnly {
					v.Later = views.Section{}
				}
				p := newPrinter(cmd.OutOrStdout(), s)
				p.View(v, s.tasks.Today())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Only show this category")
	cmd.Flags().BoolVarP(&todayOnly, "today", "t", false, "Only show today's list")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks")
	return cmd
}

func doneCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Toggle a task between open and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, flags, func(s *session) error {
				if !s.tasks.Toggle(id) {
					return notFound(id)
				}
				t, _ := s.tasks.Get(id)
				out := cmd.OutOrStdout()
				if t.Completed {
					fmt.Fprintf(out, "Completed %d: %s\n", id, t.Text)
				} else {
					fmt.Fprintf(out, "Reopened %d: %s\n", id, t.Text)
				}
				if n, ok := s.stats.PendingMilestone(); ok {
					fmt.Fprintf(out, "%d tasks completed!\n", n)
					s.stats.AcknowledgeMilestone()
				}
				return nil
			})
		},
	}
}

func editCmd(flags *globalFlags) *cobra.Command {
	var (
		text          string
		category      string
		due           string
		priority      string
		clearCategory bool
		clearDue      bool
		clearPriority bool
	)

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a task's text, category, due date or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f := cmd.Flags()
			return withSession(cmd, flags, func(s *session) error {
				t, ok := s.tasks.Get(id)
				if !ok {
					return notFound(id)
				}

				var patch tasks.TaskPatch
				switch {
				case clearCategory:
					patch.Category = tasks.Clear[string]()
				case f.Changed("category"):
					if err := checkCategory(s, category); err != nil {
						return err
					}
					patch.Category = tasks.Set(category)
				}
				switch {
				case clearDue:
					patch.DueDate = tasks.Clear[model.Date]()
				case f.Changed("due"):
					d, err := model.ParseDate(due)
					if err != nil {
						return err
					}
					patch.DueDate = tasks.Set(d)
				}
				switch {
				case clearPriority:
					patch.Priority = tasks.Clear[model.Priority]()
				case f.Changed("priority"):
					p, err := parsePriority(priority)
					if err != nil {
						return err
					}
					patch.Priority = tasks.Set(p)
				}

				if !patch.IsEmpty() && t.IsSubtask() {
					return fmt.Errorf("subtasks only have text")
				}

				changed := false
				if f.Changed("text") {
					if !s.tasks.UpdateText(id, text) {
						return fmt.Errorf("text must not be empty")
					}
					changed = true
				}
				if !patch.IsEmpty() {
					s.tasks.UpdateFields(id, patch)
					changed = true
				}
				if !changed {
					return fmt.Errorf("nothing to change")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %d\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "New text")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category id")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Priority: low, medium or high")
	cmd.Flags().BoolVar(&clearCategory, "clear-category", false, "Remove the category")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	cmd.Flags().BoolVar(&clearPriority, "clear-priority", false, "Remove the priority")
	cmd.MarkFlagsMutuallyExclusive("category", "clear-category")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	cmd.MarkFlagsMutuallyExclusive("priority", "clear-priority")
	return cmd
}

func rmCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task and its subtasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, flags, func(s *session) error {
				if !s.tasks.Delete(id) {
					return notFound(id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d\n", id)
				return nil
			})
		},
	}
}

func todayCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "today ID",
		Short: "Add a task to or remove it from today's list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, flags, func(s *session) error {
				if !s.tasks.ToggleToday(id) {
					return notFound(id)
				}
				t, _ := s.tasks.Get(id)
				if t.TodayOn(s.tasks.Today()) {
					fmt.Fprintf(cmd.OutOrStdout(), "%d is on today's list\n", id)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%d moved to later\n", id)
				}
				return nil
			})
		},
	}
}

func moveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "move ID OVER_ID",
		Short: "Move a task to the position of another task in the same list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			over, err := parseID(args[1])
			if err != nil {
				return err
			}
			return withSession(cmd, flags, func(s *session) error {
				if !s.tasks.Reorder(id, over) {
					return fmt.Errorf("cannot move %d over %d", id, over)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %d\n", id)
				return nil
			})
		},
	}
}

func clearCmd(flags *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete completed tasks, or every task with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				var n int
				if all {
					n = s.tasks.ClearAll()
				} else {
					n = s.tasks.ClearCompleted()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d tasks\n", n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete every task")
	return cmd
}
