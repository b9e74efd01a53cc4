package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/theme"
	"github.com/nhle/focus/internal/ui/statsview"
)

func statsCmd(flags *globalFlags) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion totals, streaks and the last seven days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				out := cmd.OutOrStdout()
				if reset {
					s.stats.Reset()
					fmt.Fprintln(out, "Stats reset")
					return nil
				}

				theme.Apply(s.settings.Current().Theme)
				st := s.stats.Snapshot()
				fmt.Fprintf(out, "Completed    %d\n", st.TotalCompleted)
				fmt.Fprintf(out, "Today        %d\n", s.stats.CompletedToday())
				fmt.Fprintf(out, "Streak       %d (best %d)\n", st.Streak, st.BestStreak)
				if next, ok := statsview.NextMilestone(st.TotalCompleted); ok {
					fmt.Fprintf(out, "Next         %d (%d to go)\n", next, next-st.TotalCompleted)
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, statsview.Chart(s.stats.Last7Days()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Clear all stats")
	return cmd
}

func categoriesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "List, add or remove categories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				theme.Apply(s.settings.Current().Theme)
				for _, c := range s.settings.Categories() {
					kind := "custom"
					if model.IsDefaultCategory(c.ID) {
						kind = "built in"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s  %s  %s\n",
						c.ID, theme.CategoryStyle(c.Color).Render(c.Name), c.Color, kind)
				}
				return nil
			})
		},
	}

	var color string
	add := &cobra.Command{
		Use:   "add NAME...",
		Short: "Create a custom category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if color != "" && !model.ValidColor(color) {
				return fmt.Errorf("invalid color %q: use #RRGGBB", color)
			}
			name := strings.Join(args, " ")
			return withSession(cmd, flags, func(s *session) error {
				c, ok := s.settings.AddCategory(name, color)
				if !ok {
					return fmt.Errorf("category %q already exists or has no usable name", name)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added category %s\n", c.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&color, "color", "", "Color as #RRGGBB")

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Remove a custom category and clear it from tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if model.IsDefaultCategory(id) {
				return fmt.Errorf("%s is built in and cannot be removed", id)
			}
			return withSession(cmd, flags, func(s *session) error {
				if !s.settings.RemoveCategory(id) {
					return fmt.Errorf("unknown category %q", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed category %s\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}

func themeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [NAME]",
		Short: "Show the available themes or switch to one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && !theme.Exists(args[0]) {
				return fmt.Errorf("unknown theme %q: choose one of %s", args[0], strings.Join(theme.Names(), ", "))
			}
			return withSession(cmd, flags, func(s *session) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					s.settings.SetTheme(args[0])
					fmt.Fprintf(out, "Theme set to %s\n", args[0])
					return nil
				}
				current := s.settings.Current().Theme
				for _, name := range theme.Names() {
					marker := "  "
					if name == current {
						marker = "* "
					}
					fmt.Fprintln(out, marker+name)
				}
				return nil
			})
		},
	}
}
