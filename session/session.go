// ABOUTME: Explicit per-user session state: loaded member index, target resolver and submitter
// ABOUTME: Journals every submission so failed ones can be retried without re-entering data
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harperreed/contatos/db"
	"github.com/harperreed/contatos/logging"
	"github.com/harperreed/contatos/models"
	"github.com/harperreed/contatos/roster"
	"github.com/harperreed/contatos/sheets"
)

var (
	// ErrNotLoaded is returned by lookups before a member table was loaded.
	ErrNotLoaded = errors.New("no member table loaded")
	// ErrNoJournal is returned by Retry when the session has no journal.
	ErrNoJournal = errors.New("submission journal not configured")
	// ErrSubmissionNotFound is returned by Retry for an unknown id.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrAlreadySent is returned by Retry for a submission already appended.
	ErrAlreadySent = errors.New("submission already sent")
	// ErrUnconfirmed is returned by Retry for a pending submission: it is
	// being sent, or its outcome was never recorded and the row may already
	// be on the sheet.
	ErrUnconfirmed = errors.New("submission outcome not confirmed")
	// ErrNoMatch is returned by Select when no member has the birth date.
	ErrNoMatch = errors.New("no member found")
	// ErrAmbiguous is returned by Select when a name is needed to choose.
	ErrAmbiguous = errors.New("more than one member matches")
)

// Options configures a Session. Service is required.
type Options struct {
	Service sheets.Service
	Aliases roster.Aliases
	// Journal is optional; without it submissions are not recorded.
	Journal *sql.DB
	Logger  *zerolog.Logger
	Now     func() time.Time
}

// Session owns the state one user works against. It is safe for concurrent
// use: lookups share a read lock while a reload swaps the index wholesale.
type Session struct {
	ID string

	logger    zerolog.Logger
	aliases   roster.Aliases
	resolver  *sheets.TargetResolver
	submitter *sheets.Submitter
	journal   *sql.DB

	mu      sync.RWMutex
	source  string
	loaded  *roster.Loaded
	loadErr error
}

// New creates a session with a fresh ULID.
func New(opts Options) *Session {
	base := opts.Logger
	if base == nil {
		base = logging.Default()
	}
	id := logging.NewSessionID()

	submitter := sheets.NewSubmitter(opts.Service)
	if opts.Now != nil {
		submitter.Now = opts.Now
	}

	return &Session{
		ID:        id,
		logger:    logging.ForSession(base, id),
		aliases:   opts.Aliases,
		resolver:  sheets.NewTargetResolver(opts.Service),
		submitter: submitter,
		journal:   opts.Journal,
	}
}

// Context attaches the session logger to ctx.
func (s *Session) Context(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, &s.logger)
}

// Logger returns the session logger.
func (s *Session) Logger() *zerolog.Logger {
	return &s.logger
}

// Load reads and indexes the member table at path, replacing the previous
// one. On failure the previous index stays in place and the error is
// returned.
func (s *Session) Load(ctx context.Context, path string) (*roster.Loaded, error) {
	loaded, err := roster.Load(path, s.aliases)

	s.mu.Lock()
	s.source = path
	s.loadErr = err
	if err == nil {
		s.loaded = loaded
	}
	s.mu.Unlock()

	s.recordLoad(path, loaded, err)

	if err != nil {
		s.logger.Error().Err(err).Str("source", path).Msg("member table load failed")
		return nil, err
	}

	w := loaded.Report.Warning()
	level := zerolog.InfoLevel
	if w != nil {
		level = zerolog.WarnLevel
	}
	event := s.logger.WithLevel(level)
	if w != nil {
		event = event.Int("skipped", w.Skipped).Str("column", w.Column)
	}
	event.Str("source", path).
		Int("rows", loaded.Report.Rows).
		Int("indexed", loaded.Report.Indexed).
		Msg("member table loaded")

	return loaded, nil
}

func (s *Session) recordLoad(path string, loaded *roster.Loaded, loadErr error) {
	if s.journal == nil {
		return
	}

	rec := &db.RosterLoad{Source: path}
	if loadErr != nil {
		msg := loadErr.Error()
		rec.ErrorMessage = &msg
	} else {
		rec.RowCount = loaded.Report.Rows
		rec.IndexedCount = loaded.Report.Indexed
		rec.InvalidDates = loaded.Report.InvalidDates
		rec.LoadedAt = loaded.LoadedAt
	}

	if err := db.RecordRosterLoad(s.journal, rec); err != nil {
		s.logger.Warn().Err(err).Msg("failed to journal roster load")
	}
}

// Loaded returns the current member table, or nil.
func (s *Session) Loaded() *roster.Loaded {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Lookup returns the members born on date, in table order.
func (s *Session) Lookup(date models.Date) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loaded == nil {
		return nil, ErrNotLoaded
	}
	return s.loaded.Index.Find(date), nil
}

// LookupText parses text as a date and looks it up.
func (s *Session) LookupText(text string) ([]models.Member, error) {
	date, err := roster.ParseDate(text)
	if err != nil {
		return nil, err
	}
	return s.Lookup(date)
}

// Select finds the single member born on dateText. When several share the
// date, name picks one of them.
func (s *Session) Select(dateText, name string) (models.Member, error) {
	found, err := s.LookupText(dateText)
	if err != nil {
		return models.Member{}, err
	}
	if len(found) == 0 {
		return models.Member{}, fmt.Errorf("%w with birth date %s", ErrNoMatch, strings.TrimSpace(dateText))
	}

	if strings.TrimSpace(name) != "" {
		m, ok := roster.MatchName(found, name)
		if !ok {
			return models.Member{}, fmt.Errorf("%w named %q with birth date %s", ErrNoMatch, name, strings.TrimSpace(dateText))
		}
		return m, nil
	}

	if len(found) > 1 {
		names := make([]string, len(found))
		for i, m := range found {
			names[i] = m.DisplayName()
		}
		return models.Member{}, fmt.Errorf("%w (%s); choose one by name", ErrAmbiguous, strings.Join(names, ", "))
	}
	return found[0], nil
}

// Target resolves the destination worksheet for url.
func (s *Session) Target(ctx context.Context, url string) (*sheets.Target, error) {
	return s.resolver.Resolve(s.Context(ctx), url)
}

// Result describes a successful submission.
type Result struct {
	// SubmissionID is uuid.Nil when the session has no journal.
	SubmissionID uuid.UUID
	Target       *sheets.Target
	Row          models.SubmissionRow
}

// Submit resolves url, builds the row for member and req and appends it.
// When a journal is configured the row is recorded before the append and
// marked sent or failed after it; a failed submission's id is returned
// alongside the error so it can be retried.
func (s *Session) Submit(ctx context.Context, url string, member models.Member, req models.CorrectionRequest) (*Result, error) {
	ctx = s.Context(ctx)

	row, err := s.submitter.Build(member, req)
	if err != nil {
		return nil, err
	}

	target, err := s.resolver.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}

	result := &Result{Target: target, Row: row}

	var sub *db.Submission
	if s.journal != nil {
		sub = &db.Submission{
			SheetURL:       target.URL,
			DocumentID:     target.Worksheet.DocumentID,
			WorksheetID:    target.Worksheet.ID,
			WorksheetTitle: target.Worksheet.Title,
			MemberName:     member.FullName,
			Row:            row,
		}
		if err := db.CreateSubmission(s.journal, sub); err != nil {
			return nil, fmt.Errorf("failed to journal submission: %w", err)
		}
		result.SubmissionID = sub.ID
	}

	err = s.submitter.Append(ctx, target, row)
	s.markOutcome(sub, err)
	if err != nil {
		return result, err
	}

	return result, nil
}

// Retry appends a journaled submission whose last attempt failed. The
// submission is claimed in the journal first, so concurrent retries of one
// id append it at most once.
func (s *Session) Retry(ctx context.Context, id uuid.UUID) (*Result, error) {
	return s.resend(ctx, id, false)
}

// ForceRetry also re-sends a pending submission. Use it only after checking
// the sheet, since the row may already have been appended.
func (s *Session) ForceRetry(ctx context.Context, id uuid.UUID) (*Result, error) {
	return s.resend(ctx, id, true)
}

func (s *Session) resend(ctx context.Context, id uuid.UUID, force bool) (*Result, error) {
	if s.journal == nil {
		return nil, ErrNoJournal
	}
	ctx = s.Context(ctx)

	sub, err := s.claim(id, force)
	if err != nil {
		return nil, err
	}

	result := &Result{SubmissionID: sub.ID, Row: sub.Row}

	target, err := s.resolver.Resolve(ctx, sub.SheetURL)
	if err != nil {
		s.markOutcome(sub, err)
		return result, err
	}
	result.Target = target
	if target.Worksheet.ID != sub.WorksheetID {
		s.logger.Warn().
			Str("submission", id.String()).
			Str("journaled", sub.WorksheetTitle).
			Str("resolved", target.Worksheet.Title).
			Msg("retry resolved a different worksheet")
	}

	err = s.submitter.Append(ctx, target, sub.Row)
	s.markOutcome(sub, err)
	if err != nil {
		return result, err
	}
	return result, nil
}

// claim reads the submission and takes it for one more attempt.
func (s *Session) claim(id uuid.UUID, force bool) (*db.Submission, error) {
	sub, err := db.GetSubmission(s.journal, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
	}

	switch {
	case sub.Status == db.StatusSent:
		return nil, fmt.Errorf("%w: %s", ErrAlreadySent, id)
	case sub.Status == db.StatusPending && !force:
		return nil, fmt.Errorf("%w: %s", ErrUnconfirmed, id)
	}

	claimed, err := db.ClaimSubmission(s.journal, sub)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Another caller changed the row between the read and the claim.
		return nil, fmt.Errorf("%w: %s", ErrUnconfirmed, id)
	}
	return sub, nil
}

func (s *Session) markOutcome(sub *db.Submission, appendErr error) {
	if sub == nil {
		return
	}

	var err error
	if appendErr != nil {
		err = db.MarkSubmissionFailed(s.journal, sub.ID, appendErr.Error())
	} else {
		err = db.MarkSubmissionSent(s.journal, sub.ID)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("submission", sub.ID.String()).Msg("failed to update submission journal")
	}
}

// Pending lists journaled submissions that were not sent.
func (s *Session) Pending(limit int) ([]db.Submission, error) {
	if s.journal == nil {
		return nil, ErrNoJournal
	}

	failed, err := db.ListSubmissions(s.journal, db.StatusFailed, limit)
	if err != nil {
		return nil, err
	}
	pending, err := db.ListSubmissions(s.journal, db.StatusPending, limit)
	if err != nil {
		return nil, err
	}
	return append(failed, pending...), nil
}

// Submissions lists journaled submissions with the given status, or all of
// them when status is empty.
func (s *Session) Submissions(status string, limit int) ([]db.Submission, error) {
	if s.journal == nil {
		return nil, ErrNoJournal
	}
	return db.ListSubmissions(s.journal, status, limit)
}

// Status summarizes the session for display.
type Status struct {
	SessionID       string
	Source          string
	Loaded          bool
	LoadedAt        time.Time
	Rows            int
	Indexed         int
	InvalidDates    int
	Columns         map[roster.Field]string
	MissingOptional []roster.Field
	// DateWarning is nil when every row had a usable birth date.
	DateWarning *roster.DateNormalizationWarning
	LastError   error
}

// MissingLabels returns the user-facing names of the absent optional columns.
func (st Status) MissingLabels() []string {
	labels := make([]string, len(st.MissingOptional))
	for i, f := range st.MissingOptional {
		labels[i] = f.Label()
	}
	return labels
}

// Status returns the current session summary.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{SessionID: s.ID, Source: s.source, LastError: s.loadErr}
	if s.loaded == nil {
		return st
	}

	st.Loaded = true
	st.LoadedAt = s.loaded.LoadedAt
	st.Rows = s.loaded.Report.Rows
	st.Indexed = s.loaded.Report.Indexed
	st.InvalidDates = s.loaded.Report.InvalidDates
	st.MissingOptional = s.loaded.Resolution.MissingOptional
	st.DateWarning = s.loaded.Report.Warning()
	st.Columns = make(map[roster.Field]string)
	for _, f := range roster.Fields {
		if col, ok := s.loaded.Resolution.Column(f); ok {
			st.Columns[f] = col.Header
		}
	}
	return st
}
