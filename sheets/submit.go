// ABOUTME: Builds submission rows and appends them to the destination worksheet
// ABOUTME: Guarantees the fixed header exists before the first append on each worksheet
package sheets

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/contatos/logging"
	"github.com/harperreed/contatos/models"
)

// TimestampLayout is sortable as text.
const TimestampLayout = "2006-01-02 15:04:05"

// Values written to the correction flag columns.
const (
	FlagYes = "Sim"
	FlagNo  = "Não"
)

// Header is the fixed first row of the destination worksheet.
var Header = models.SubmissionRow{
	models.ColTimestamp:    "timestamp",
	models.ColBirthDate:    "data_nascimento",
	models.ColFullName:     "nome_do_filiado",
	models.ColCurrentEmail: "email_atual",
	models.ColCurrentPhone: "celular_whatsapp_atual",
	models.ColCorrectPhone: "corrigir_telefone_whatsapp",
	models.ColNewPhone:     "novo_celular_whatsapp",
	models.ColCorrectEmail: "corrigir_email",
	models.ColNewEmail:     "novo_email",
	models.ColSetorial:     "setorial",
}

// BuildRow renders a member and request as a submission row. New values are
// blank whenever their flag is false, whatever the request carries.
func BuildRow(member models.Member, req models.CorrectionRequest, now time.Time) models.SubmissionRow {
	var row models.SubmissionRow

	row[models.ColTimestamp] = now.Format(TimestampLayout)
	row[models.ColBirthDate] = member.BirthDate.Display()
	row[models.ColFullName] = strings.TrimSpace(member.FullName)
	row[models.ColCurrentEmail] = strings.TrimSpace(member.Email)
	row[models.ColCurrentPhone] = strings.TrimSpace(member.Phone)
	row[models.ColCorrectPhone] = yesNo(req.CorrectPhone)
	row[models.ColCorrectEmail] = yesNo(req.CorrectEmail)
	if req.CorrectPhone {
		row[models.ColNewPhone] = strings.TrimSpace(req.NewPhone)
	}
	if req.CorrectEmail {
		row[models.ColNewEmail] = strings.TrimSpace(req.NewEmail)
	}
	row[models.ColSetorial] = strings.TrimSpace(req.Setorial)

	return row
}

func yesNo(b bool) string {
	if b {
		return FlagYes
	}
	return FlagNo
}

type worksheetKey struct {
	documentID string
	id         int64
}

// Submitter appends submission rows. It is safe for concurrent use; calls
// are serialized.
type Submitter struct {
	svc Service
	// Now is the clock used for row timestamps.
	Now func() time.Time

	mu            sync.Mutex
	headerChecked map[worksheetKey]bool
}

// NewSubmitter creates a Submitter using the local clock.
func NewSubmitter(svc Service) *Submitter {
	return &Submitter{
		svc:           svc,
		Now:           time.Now,
		headerChecked: make(map[worksheetKey]bool),
	}
}

// EnsureHeader writes Header at row 1 if that row is blank. A worksheet is
// checked at most once per Submitter after a successful check.
func (s *Submitter) EnsureHeader(ctx context.Context, ws Worksheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureHeader(ctx, ws)
}

func (s *Submitter) ensureHeader(ctx context.Context, ws Worksheet) error {
	key := worksheetKey{documentID: ws.DocumentID, id: ws.ID}
	if s.headerChecked[key] {
		return nil
	}

	first, err := s.svc.ReadRow(ctx, ws, 1)
	if err != nil {
		return &SubmissionError{Stage: StageHeaderCheck, Worksheet: ws.Title, Err: err}
	}

	if isBlankRow(first) {
		if err := s.svc.WriteRow(ctx, ws, 1, Header.Values()); err != nil {
			return &SubmissionError{Stage: StageHeaderWrite, Worksheet: ws.Title, Err: err}
		}
		logging.FromContext(ctx).Info().Str("worksheet", ws.Title).Msg("wrote submission header")
	}

	s.headerChecked[key] = true
	return nil
}

// Build validates the request and builds its row using the Submitter clock.
func (s *Submitter) Build(member models.Member, req models.CorrectionRequest) (models.SubmissionRow, error) {
	if err := req.Validate(); err != nil {
		return models.SubmissionRow{}, &SubmissionError{Stage: StageValidate, Err: err}
	}

	now := s.Now
	if now == nil {
		now = time.Now
	}
	return BuildRow(member, req, now()), nil
}

// Submit validates the request, builds the row and appends it. The row is
// returned even on failure so callers can keep it for a retry.
func (s *Submitter) Submit(ctx context.Context, target *Target, member models.Member, req models.CorrectionRequest) (models.SubmissionRow, error) {
	row, err := s.Build(member, req)
	if err != nil {
		return row, err
	}
	return row, s.Append(ctx, target, row)
}

// Append ensures the header and appends a prebuilt row.
func (s *Submitter) Append(ctx context.Context, target *Target, row models.SubmissionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws := target.Worksheet
	if err := s.ensureHeader(ctx, ws); err != nil {
		return err
	}

	if err := s.svc.AppendRow(ctx, ws, row.Values()); err != nil {
		return &SubmissionError{Stage: StageAppend, Worksheet: ws.Title, Err: err}
	}

	logging.FromContext(ctx).Info().
		Str("worksheet", ws.Title).
		Str("member", row[models.ColFullName]).
		Msg("submission appended")
	return nil
}
