// ABOUTME: Submission journal CLI commands
// ABOUTME: Commands for listing journaled correction requests and re-sending failed ones
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/harperreed/contatos/db"
	"github.com/harperreed/contatos/session"
)

// PendingCommand lists journaled submissions, unsent ones by default.
func PendingCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("pending", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status (pending, sent, failed); default lists unsent")
	limit := fs.Int("limit", 50, "Maximum number of submissions to show")
	_ = fs.Parse(args)

	var subs []db.Submission
	var err error
	switch *status {
	case "":
		subs, err = env.Session.Pending(*limit)
	case db.StatusPending, db.StatusSent, db.StatusFailed:
		subs, err = env.Session.Submissions(*status, *limit)
	default:
		return fmt.Errorf("invalid status %q (use pending, sent or failed)", *status)
	}
	if err != nil {
		return fmt.Errorf("failed to list submissions: %w", err)
	}

	if len(subs) == 0 {
		_, _ = fmt.Fprintln(env.Out, "No submissions found")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tMEMBER\tWORKSHEET\tATTEMPTS\tCREATED\tERROR")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t---------\t--------\t-------\t-----")
	for _, sub := range subs {
		errMsg := "-"
		if sub.ErrorMessage != nil {
			if r := []rune(*sub.ErrorMessage); len(r) > 60 {
				errMsg = string(r[:57]) + "..."
			} else {
				errMsg = *sub.ErrorMessage
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			sub.ID, sub.Status, orDash(sub.MemberName), sub.WorksheetTitle,
			sub.Attempts, sub.CreatedAt.Format("2006-01-02 15:04"), errMsg)
	}
	_ = w.Flush()
	return nil
}

// RetryCommand re-sends a journaled submission.
func RetryCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("retry", flag.ExitOnError)
	force := fs.Bool("force", false, "Also re-send a pending submission (check the sheet first)")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: retry [--force] <submission-id>")
	}

	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid submission ID: %w", err)
	}

	retry := env.Session.Retry
	if *force {
		retry = env.Session.ForceRetry
	}
	res, err := retry(ctx, id)
	if errors.Is(err, session.ErrUnconfirmed) {
		return fmt.Errorf("%w; check the sheet, then run 'contatos retry --force %s' if the row is missing", err, id)
	}
	if err != nil {
		return err
	}

	printResult(env, "Submission re-sent", res)
	return nil
}
