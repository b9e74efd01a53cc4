// Package remote persists tasks, stats and settings in a hosted Supabase
// project. Rows are scoped by owner_id and every request carries the
// user's access token so row-level security applies.
package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/supabase-community/supabase-go"
)

// Table names.
const (
	tasksTable    = "tasks"
	statsTable    = "stats"
	settingsTable = "settings"
)

// Store implements store.Store on top of the Supabase REST API.
type Store struct {
	client *supabase.Client
}

// New connects to the project at url with the anon key. token is the
// user's access token; it becomes the bearer of every request.
func New(url, key, token string) (*Store, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}

	opts := &supabase.ClientOptions{}
	if token != "" {
		opts.Headers = map[string]string{
			"Authorization": "Bearer " + token,
		}
	}

	client, err := supabase.NewClient(strings.TrimRight(url, "/"), key, opts)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return &Store{client: client}, nil
}

// query is a built postgrest request.
type query interface {
	Execute() ([]byte, int64, error)
}

// execute runs q and returns when it answers or ctx is done. postgrest
// requests take no context, so a request abandoned on timeout finishes in
// the background and its result is dropped.
func execute(ctx context.Context, q query) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		body []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, _, err := q.Execute()
		done <- result{body: body, err: err}
	}()

	select {
	case r := <-done:
		return r.body, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close is a no-op; the client holds no open connections of its own.
func (s *Store) Close() error { return nil }

// OwnerFromToken returns the user id (the "sub" claim) of an access
// token. The signature is not checked here; the server does that.
func OwnerFromToken(token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return "", fmt.Errorf("missing access token")
	}

	parsed, _, err := new(jwt.Parser).ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("invalid access token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid access token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("missing sub in access token")
	}
	return sub, nil
}
