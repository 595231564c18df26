// ABOUTME: Member lookup and correction CLI commands
// ABOUTME: Human-friendly commands for finding a member and submitting a correction
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/harperreed/contatos/db"
	"github.com/harperreed/contatos/models"
	"github.com/harperreed/contatos/roster"
	"github.com/harperreed/contatos/session"
)

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// printTableNotes reports missing optional columns and skipped rows.
func printTableNotes(env *Env) {
	st := env.Session.Status()
	if len(st.MissingOptional) > 0 {
		_, _ = fmt.Fprintf(env.Out, "\nNote: the member table has no %s column\n", strings.Join(st.MissingLabels(), " or "))
	}
	if st.DateWarning != nil {
		_, _ = fmt.Fprintf(env.Out, "Warning: %v\n", st.DateWarning)
	}
}

// dateArg returns the --date flag or the first positional argument.
func dateArg(fs *flag.FlagSet, date string) string {
	if date == "" && fs.NArg() > 0 {
		return fs.Arg(0)
	}
	return date
}

// LookupCommand lists members born on a date.
func LookupCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	date := fs.String("date", "", "Birth date, e.g. 12/05/1990 (required)")
	_ = fs.Parse(args)

	dateText := dateArg(fs, *date)
	if dateText == "" {
		return fmt.Errorf("--date is required")
	}

	if err := env.LoadMembers(ctx); err != nil {
		return err
	}

	found, err := env.Session.LookupText(dateText)
	if err != nil {
		return err
	}

	if len(found) == 0 {
		_, _ = fmt.Fprintf(env.Out, "No member found with birth date %s\n", dateText)
		printTableNotes(env)
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tBIRTH DATE\tEMAIL\tPHONE")
	_, _ = fmt.Fprintln(w, "----\t----------\t-----\t-----")
	for _, m := range found {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.DisplayName(), m.BirthDate.Display(), orDash(m.Email), orDash(m.Phone))
	}
	_ = w.Flush()

	printTableNotes(env)
	if len(found) > 1 {
		_, _ = fmt.Fprintf(env.Out, "\n%d members share this date; pass --name to submit for one of them\n", len(found))
	}

	return nil
}

// SubmitCommand records a correction request for one member.
func SubmitCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	date := fs.String("date", "", "Birth date (required)")
	name := fs.String("name", "", "Member name, required when several share the date")
	phone := fs.String("phone", "", "New phone/WhatsApp (marks the phone for correction)")
	email := fs.String("email", "", "New email (marks the email for correction)")
	setorial := fs.String("setorial", "", "Setorial: "+strings.Join(env.Config.Setoriais, ", ")+" (required)")
	_ = fs.Parse(args)

	dateText := dateArg(fs, *date)
	if dateText == "" {
		return fmt.Errorf("--date is required")
	}
	if *setorial == "" {
		return fmt.Errorf("--setorial is required")
	}
	canonical, ok := env.Config.Setorial(*setorial)
	if !ok {
		return fmt.Errorf("unknown setorial %q (choose one of: %s)", *setorial, strings.Join(env.Config.Setoriais, ", "))
	}

	if err := env.LoadMembers(ctx); err != nil {
		return err
	}

	member, err := env.Session.Select(dateText, *name)
	if err != nil {
		return err
	}

	req := models.CorrectionRequest{
		CorrectPhone: strings.TrimSpace(*phone) != "",
		NewPhone:     *phone,
		CorrectEmail: strings.TrimSpace(*email) != "",
		NewEmail:     *email,
		Setorial:     canonical,
	}

	res, err := env.Session.Submit(ctx, env.Config.SheetURL, member, req)
	if err != nil {
		if res != nil && res.SubmissionID != uuid.Nil {
			_, _ = fmt.Fprintf(env.Out, "Saved as %s; run 'contatos retry %s' to send it again\n", res.SubmissionID, res.SubmissionID)
		}
		return err
	}

	printResult(env, "Correction submitted", res)
	return nil
}

func printResult(env *Env, heading string, res *session.Result) {
	_, _ = fmt.Fprintf(env.Out, "✓ %s for %s\n", heading, orDash(res.Row[models.ColFullName]))
	_, _ = fmt.Fprintf(env.Out, "  Spreadsheet: %s\n", res.Target.DocumentTitle)
	_, _ = fmt.Fprintf(env.Out, "  Worksheet:   %s\n", res.Target.Worksheet.Title)
	if res.SubmissionID != uuid.Nil {
		_, _ = fmt.Fprintf(env.Out, "  ID:          %s\n", res.SubmissionID)
	}
	if notice := res.Target.Notice(); notice != "" {
		_, _ = fmt.Fprintf(env.Out, "  Note:        %s\n", notice)
	}
	if env.DryRun {
		_, _ = fmt.Fprintln(env.Out, "  (dry run: nothing was sent)")
	}
}

// TargetCommand shows where submissions are written.
func TargetCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("target", flag.ExitOnError)
	_ = fs.Parse(args)

	target, err := env.Session.Target(ctx, env.Config.SheetURL)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "URL:\t%s\n", target.URL)
	_, _ = fmt.Fprintf(w, "Document:\t%s (%s)\n", target.DocumentTitle, target.Worksheet.DocumentID)
	_, _ = fmt.Fprintf(w, "Worksheet:\t%s (gid %d)\n", target.Worksheet.Title, target.Worksheet.ID)
	if notice := target.Notice(); notice != "" {
		_, _ = fmt.Fprintf(w, "Note:\t%s\n", notice)
	}
	if g, ok := env.Service.(interface{ ClientEmail() string }); ok && g.ClientEmail() != "" {
		_, _ = fmt.Fprintf(w, "Service account:\t%s\n", g.ClientEmail())
	}
	return w.Flush()
}

// StatusCommand loads the member table and reports how it was read.
func StatusCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	_ = fs.Parse(args)

	previous, err := db.LastRosterLoad(env.DB)
	if err != nil {
		return fmt.Errorf("failed to read load history: %w", err)
	}

	loadErr := env.LoadMembers(ctx)
	var schemaErr *roster.SchemaResolutionError
	if loadErr != nil && !errors.As(loadErr, &schemaErr) {
		return loadErr
	}

	st := env.Session.Status()
	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Session:\t%s\n", st.SessionID)
	_, _ = fmt.Fprintf(w, "Member file:\t%s\n", orDash(st.Source))
	if st.Loaded {
		_, _ = fmt.Fprintf(w, "Rows:\t%d (%d indexed, %d with invalid dates)\n", st.Rows, st.Indexed, st.InvalidDates)
		if dates := env.Session.Loaded().Index.Dates(); len(dates) > 0 {
			_, _ = fmt.Fprintf(w, "Birth dates:\t%d distinct, %s to %s\n", len(dates), dates[0].Display(), dates[len(dates)-1].Display())
		}
		for _, f := range roster.Fields {
			header, ok := st.Columns[f]
			if !ok {
				header = "(missing)"
			}
			_, _ = fmt.Fprintf(w, "Column %s:\t%s\n", f.Label(), header)
		}
	}
	if st.LastError != nil {
		_, _ = fmt.Fprintf(w, "Error:\t%v\n", st.LastError)
	}

	if previous != nil {
		_, _ = fmt.Fprintf(w, "Previous load:\t%s (%s, %d rows)\n", previous.LoadedAt.Format("2006-01-02 15:04"), previous.Status, previous.RowCount)
	}

	return w.Flush()
}
