package command

import (
	"fmt"
	"strings"

	"github.com/nhle/focus/internal/theme"
)

// Kind identifies a palette command.
type Kind int

const (
	ClearCompleted Kind = iota + 1
	ClearAll
	Theme
	Filter
	ResetStats
	Reload
	Sound
	Quit
)

// Command is a parsed palette line.
type Command struct {
	Kind Kind
	// Arg is the theme name, the category id ("" clears the filter) or
	// "on"/"off" for Sound.
	Arg string
}

var usage = []string{
	"clear completed",
	"clear all",
	"theme <name>",
	"filter [category]",
	"reset stats",
	"sound on|off",
	"reload",
	"quit",
}

// Usage lists the accepted commands for the help view.
func Usage() []string { return usage }

// Suggestions returns full command lines for input completion.
func Suggestions() []string {
	out := []string{"clear completed", "clear all", "filter", "reset stats", "reload", "sound on", "sound off", "quit"}
	for _, name := range theme.Names() {
		out = append(out, "theme "+name)
	}
	return out
}

// Parse turns a palette line into a Command.
func Parse(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	name, args := fields[0], fields[1:]
	switch name {
	case "clear":
		if len(args) == 1 && args[0] == "completed" {
			return Command{Kind: ClearCompleted}, nil
		}
		if len(args) == 1 && args[0] == "all" {
			return Command{Kind: ClearAll}, nil
		}
		return Command{}, fmt.Errorf("usage: clear completed | clear all")

	case "theme":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: theme <%s>", strings.Join(theme.Names(), "|"))
		}
		if !theme.Exists(args[0]) {
			return Command{}, fmt.Errorf("unknown theme %q", args[0])
		}
		return Command{Kind: Theme, Arg: args[0]}, nil

	case "filter":
		if len(args) > 1 {
			return Command{}, fmt.Errorf("usage: filter [category]")
		}
		c := Command{Kind: Filter}
		if len(args) == 1 {
			c.Arg = args[0]
		}
		return c, nil

	case "reset":
		if len(args) == 1 && args[0] == "stats" {
			return Command{Kind: ResetStats}, nil
		}
		return Command{}, fmt.Errorf("usage: reset stats")

	case "sound":
		if len(args) == 1 && (args[0] == "on" || args[0] == "off") {
			return Command{Kind: Sound, Arg: args[0]}, nil
		}
		return Command{}, fmt.Errorf("usage: sound on|off")

	case "reload", "refresh":
		return Command{Kind: Reload}, nil

	case "quit", "q":
		return Command{Kind: Quit}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", name)
}
