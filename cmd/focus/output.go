package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/theme"
	"github.com/nhle/focus/internal/views"
)

// printer writes task lists for the non-interactive commands. Styles
// degrade to plain text when the output is not a terminal.
type printer struct {
	w          io.Writer
	categories map[string]model.Category
}

func newPrinter(w io.Writer, s *session) *printer {
	theme.Apply(s.settings.Current().Theme)
	p := &printer{w: w, categories: make(map[string]model.Category)}
	for _, c := range s.settings.Categories() {
		p.categories[c.ID] = c
	}
	return p
}

// View prints each non-empty section followed by a summary line.
func (p *printer) View(v views.View, today model.Date) {
	rows := views.Flatten(v)
	if len(rows) == 0 {
		fmt.Fprintln(p.w, theme.HelpStyle.Render("No tasks."))
		return
	}
	for _, r := range rows {
		if r.Header {
			fmt.Fprintln(p.w, theme.SectionStyle.Render(r.Section))
			continue
		}
		fmt.Fprintln(p.w, p.line(r, today))
	}
	fmt.Fprintf(p.w, "\n%d left, %d done\n", v.Remaining, v.Completed)
}

func (p *printer) line(r views.Row, today model.Date) string {
	t := r.Task
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	var b strings.Builder
	b.WriteString(strings.Repeat("  ", r.Depth+1))
	fmt.Fprintf(&b, "%s %d  ", check, t.ID)
	if t.Completed {
		b.WriteString(theme.CompletedStyle.Render(t.Text))
	} else {
		b.WriteString(t.Text)
	}

	if t.Priority != nil {
		b.WriteString(" ")
		b.WriteString(theme.PriorityStyle(*t.Priority).Render(string(*t.Priority)))
	}
	if t.Category != nil {
		name := *t.Category
		c, ok := p.categories[name]
		if ok {
			name = c.Name
		}
		b.WriteString(" ")
		b.WriteString(theme.CategoryStyle(c.Color).Render(name))
	}
	if t.DueDate != nil {
		due := "due " + t.DueDate.String()
		if t.IsOverdue(today) {
			b.WriteString(" " + theme.OverdueStyle.Render(due+" overdue"))
		} else {
			b.WriteString(" " + theme.HelpStyle.Render(due))
		}
	}
	return b.String()
}
