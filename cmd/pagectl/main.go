// pagectl edits one landing page through the pages API.
//
// It loads the page, applies every --set and --color on top of the stored
// values and commits all of the resulting changes in a single request:
//
//	pagectl --user user-1 --set status=active --color pewnosc 6f1c...
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/editbuffer"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
	"github.com/MarcinMove37ai/hps-app-sub002/internal/publish"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {

	var (
		apiURL string
		userID string
		role   string
		sets   []string
		color  string
		dryRun bool
	)

	defaultAPI := os.Getenv("PAGES_API_URL")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:5000"
	}

	flagSet := pflag.NewFlagSet("pagectl", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVar(&apiURL, "api", defaultAPI, "base URL of the pages API (env PAGES_API_URL)")
	flagSet.StringVarP(&userID, "user", "u", os.Getenv("PAGES_USER_ID"), "caller id sent as X-User-Id")
	flagSet.StringVarP(&role, "role", "r", string(models.RoleUser), "caller role: USER, ADMIN or GOD")
	flagSet.StringArrayVarP(&sets, "set", "s", nil, "field=value to change, repeatable")
	flagSet.StringVarP(&color, "color", "c", "", "color scheme: "+strings.Join(models.ColorSchemes, ", "))
	flagSet.BoolVarP(&dryRun, "dry-run", "n", false, "show the changes without committing them")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if flagSet.NArg() != 1 {
		return fmt.Errorf("expected exactly one page id, got %d", flagSet.NArg())
	}

	pageID := flagSet.Arg(0)
	user := models.User{ID: userID, Role: models.Role(strings.ToUpper(role))}
	if !user.IsAuthenticated() {
		return errors.New("--user and a valid --role are required")
	}

	committer := editbuffer.NewHTTPCommitter(apiURL, user)
	page, err := committer.FetchPage(ctx, pageID)
	if err != nil {
		return err
	}

	buffer := editbuffer.FromPage(committer, page)
	for _, set := range sets {
		field, value, ok := strings.Cut(set, "=")
		if !ok || field == "" {
			return fmt.Errorf("invalid --set %q, want field=value", set)
		}
		buffer.SetField(field, value)
	}

	if flagSet.Changed("color") {
		buffer.SetColor(color)
	}

	if !buffer.IsDirty() {
		fmt.Fprintln(out, "Nothing to change.")
		return nil
	}

	pending := buffer.Pending()
	fields := make([]string, 0, len(pending))
	for field := range pending {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	fmt.Fprintf(out, "%d pending change(s) on page %s:\n", buffer.DirtyCount(), pageID)
	for _, field := range fields {
		fmt.Fprintf(out, "  %s: %q -> %q\n", field, page.Value(field), pending[field])
	}

	if dryRun {
		return nil
	}

	if _, err := buffer.Commit(ctx, pageID); err != nil {
		var validationErr *publish.ValidationError
		if errors.As(err, &validationErr) {
			for _, fe := range validationErr.Errors {
				fmt.Fprintf(out, "  rejected %s\n", fe)
			}
		}
		return err
	}

	fmt.Fprintln(out, "Committed.")
	return nil
}
