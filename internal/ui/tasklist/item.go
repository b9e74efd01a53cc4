package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/theme"
	"github.com/nhle/focus/internal/views"
)

// RowItem wraps a views.Row so it can be used in a bubbles/list.
type RowItem struct {
	Row views.Row
}

// FilterValue returns the string used for fuzzy filtering.
func (i RowItem) FilterValue() string { return i.Row.Task.Text }

// renderContext is shared by reference between the Model and its
// delegate so SetRows updates are visible when rendering.
type renderContext struct {
	today      model.Date
	categories map[string]model.Category
	counts     map[int64][2]int
}

// ItemDelegate implements list.ItemDelegate for task rows.
type ItemDelegate struct {
	ctx *renderContext
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ri, ok := item.(RowItem)
	if !ok {
		return
	}
	if ri.Row.Header {
		fmt.Fprint(w, theme.SectionStyle.Render(ri.Row.Section))
		return
	}
	fmt.Fprint(w, d.renderTask(ri.Row, index == m.Index()))
}

func (d ItemDelegate) renderTask(row views.Row, selected bool) string {
	t := row.Task

	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	indent := strings.Repeat("  ", row.Depth)
	text := t.Text
	if t.Completed {
		text = theme.CompletedStyle.Render(text)
	}

	var badges []string
	if t.TodayOn(d.ctx.today) {
		badges = append(badges, theme.TodayStyle.Render("*"))
	}
	if t.Priority != nil {
		badges = append(badges, theme.PriorityStyle(*t.Priority).Render(priorityLabel(*t.Priority)))
	}
	if t.Category != nil {
		c, ok := d.ctx.categories[*t.Category]
		name := *t.Category
		if ok {
			name = c.Name
		}
		badges = append(badges, theme.CategoryStyle(c.Color).Render(name))
	}
	if n, ok := d.ctx.counts[t.ID]; ok && n[0]+n[1] > 0 {
		badges = append(badges, theme.HelpStyle.Render(fmt.Sprintf("%d/%d", n[1], n[0]+n[1])))
	}
	if t.DueDate != nil {
		due := dueLabel(*t.DueDate, d.ctx.today)
		if t.IsOverdue(d.ctx.today) {
			badges = append(badges, theme.OverdueStyle.Render(due+" overdue"))
		} else {
			badges = append(badges, theme.HelpStyle.Render(due))
		}
	}

	line := indent + check + " " + text
	if len(badges) > 0 {
		line += "  " + strings.Join(badges, " ")
	}

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	if t.Completed {
		return theme.ListItemStyle.Foreground(theme.Current.Muted).Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "!!!"
	case model.PriorityMedium:
		return "!!"
	case model.PriorityLow:
		return "!"
	default:
		return ""
	}
}

// dueLabel renders a due date relative to today.
func dueLabel(due, today model.Date) string {
	switch due {
	case today:
		return "due today"
	case today.AddDays(1):
		return "due tomorrow"
	case today.AddDays(-1):
		return "due yesterday"
	}
	t := due.Time(time.UTC)
	if t.Year() == today.Time(time.UTC).Year() {
		return "due " + t.Format("Jan 02")
	}
	return "due " + t.Format("Jan 02 2006")
}

// placeholder renders the empty state.
func placeholder(width, height int, text string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.Current.Muted).
		Render(text)
}
