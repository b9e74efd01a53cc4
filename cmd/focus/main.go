package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nhle/focus/internal/model"
)

var Version = "dev"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	backend    string
	logLevel   string
}

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "focus",
		Short:         "A personal task tracker with subtasks, a daily focus list and streaks",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", model.DefaultConfigPath(), "Path to the config file")
	pf.StringVar(&flags.backend, "backend", "", "Storage backend: local or remote (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (overrides config)")

	rootCmd.AddCommand(addCmd(flags))
	rootCmd.AddCommand(listCmd(flags))
	rootCmd.AddCommand(doneCmd(flags))
	rootCmd.AddCommand(editCmd(flags))
	rootCmd.AddCommand(rmCmd(flags))
	rootCmd.AddCommand(todayCmd(flags))
	rootCmd.AddCommand(moveCmd(flags))
	rootCmd.AddCommand(clearCmd(flags))
	rootCmd.AddCommand(statsCmd(flags))
	rootCmd.AddCommand(categoriesCmd(flags))
	rootCmd.AddCommand(themeCmd(flags))
	rootCmd.AddCommand(loginCmd(flags))
	rootCmd.AddCommand(logoutCmd(flags))

	return rootCmd
}
