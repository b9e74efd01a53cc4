package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/focus/internal/credential"
	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/store/remote"
)

func loginCmd(flags *globalFlags) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token for the remote backend",
		Long: "Store a Supabase user access token in the system keyring.\n" +
			"Without --token the token is read from standard input.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading token: %w", err)
				}
				token = line
			}
			token = strings.TrimSpace(token)

			owner, err := remote.OwnerFromToken(token)
			if err != nil {
				return err
			}
			vault, err := credential.Open(model.DefaultDataDir())
			if err != nil {
				return err
			}
			if err := vault.SetAccessToken(token); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", owner)
			if cfg, err := loadConfig(flags); err == nil && cfg.Storage.Backend != model.BackendRemote {
				fmt.Fprintln(os.Stderr, "note: the configured backend is local; use --backend remote or set storage.backend")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token (JWT)")
	return cmd
}

func logoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vault, err := credential.Open(model.DefaultDataDir())
			if err != nil {
				return err
			}
			if err := vault.DeleteAccessToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
