package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harperreed/contatos/db"
	"github.com/harperreed/contatos/models"
	"github.com/harperreed/contatos/roster"
	"github.com/harperreed/contatos/session"
	"github.com/harperreed/contatos/sheets"
)

// Response is the JSON envelope of every /api reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Code:    status,
		Message: message,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var subErr *sheets.SubmissionError
	switch {
	case errors.Is(err, roster.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.As(err, &subErr) && subErr.Stage == sheets.StageValidate:
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoMatch), errors.Is(err, session.ErrSubmissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrAmbiguous), errors.Is(err, session.ErrAlreadySent), errors.Is(err, session.ErrUnconfirmed):
		return http.StatusConflict
	case errors.Is(err, session.ErrNotLoaded), errors.Is(err, session.ErrNoJournal):
		return http.StatusServiceUnavailable
	case errors.Is(err, sheets.ErrSheetResolution), errors.Is(err, sheets.ErrSubmission):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type memberJSON struct {
	BirthDate string `json:"birth_date"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func toMemberJSON(m models.Member) memberJSON {
	return memberJSON{
		BirthDate: m.BirthDate.Display(),
		Name:      m.DisplayName(),
		Email:     m.Email,
		Phone:     m.Phone,
	}
}

type resultJSON struct {
	SubmissionID string            `json:"submission_id,omitempty"`
	Document     string            `json:"document"`
	Worksheet    string            `json:"worksheet"`
	Notice       string            `json:"notice,omitempty"`
	Row          map[string]string `json:"row"`
}

func toResultJSON(res *session.Result) resultJSON {
	out := resultJSON{
		Document:  res.Target.DocumentTitle,
		Worksheet: res.Target.Worksheet.Title,
		Notice:    res.Target.Notice(),
		Row:       make(map[string]string, len(res.Row)),
	}
	for i, v := range res.Row {
		out.Row[sheets.Header[i]] = v
	}
	if res.SubmissionID != uuid.Nil {
		out.SubmissionID = res.SubmissionID.String()
	}
	return out
}

type submissionJSON struct {
	ID           string `json:"id"`
	Member       string `json:"member"`
	Worksheet    string `json:"worksheet"`
	Status       string `json:"status"`
	Attempts     int    `json:"attempts"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// ==================== Form ====================

func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, "index-content", gin.H{
		"Title":  "Atualização de contato",
		"Status": s.sess.Status(),
		"Date":   c.Query("date"),
	})
}

func (s *Server) handleLookup(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	found, err := s.sess.LookupText(date)
	if err != nil {
		s.renderTemplate(c, statusFor(err), "index-content", gin.H{
			"Title":  "Atualização de contato",
			"Status": s.sess.Status(),
			"Date":   date,
			"Error":  err.Error(),
		})
		return
	}

	st := s.sess.Status()
	s.renderTemplate(c, http.StatusOK, "lookup-content", gin.H{
		"Title":         "Cadastro encontrado",
		"Date":          date,
		"Members":       found,
		"MissingFields": st.MissingLabels(),
		"Status":        st,
	})
}

// checked reads an HTML checkbox value.
func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "sim", "yes":
		return true
	}
	return false
}

func (s *Server) handleSubmit(c *gin.Context) {
	date := c.PostForm("date")
	req := models.CorrectionRequest{
		CorrectPhone: checked(c.PostForm("correct_phone")),
		NewPhone:     c.PostForm("new_phone"),
		CorrectEmail: checked(c.PostForm("correct_email")),
		NewEmail:     c.PostForm("new_email"),
		Setorial:     c.PostForm("setorial"),
	}

	data := gin.H{"Title": "Resultado", "Date": date}
	res, err := s.submit(c, date, c.PostForm("name"), req)
	if err != nil {
		data["Error"] = err.Error()
		if res != nil && res.SubmissionID != uuid.Nil {
			data["SubmissionID"] = res.SubmissionID.String()
		}
		s.renderTemplate(c, statusFor(err), "result-content", data)
		return
	}

	data["Result"] = toResultJSON(res)
	s.renderTemplate(c, http.StatusOK, "result-content", data)
}

func (s *Server) submit(c *gin.Context, date, name string, req models.CorrectionRequest) (*session.Result, error) {
	if req.Setorial != "" {
		canonical, ok := s.cfg.Setorial(req.Setorial)
		if !ok {
			return nil, &sheets.SubmissionError{
				Stage: sheets.StageValidate,
				Err:   errors.New("unknown setorial " + req.Setorial),
			}
		}
		req.Setorial = canonical
	}

	member, err := s.sess.Select(date, name)
	if err != nil {
		return nil, err
	}
	return s.sess.Submit(c.Request.Context(), s.cfg.SheetURL, member, req)
}

func (s *Server) handleHealth(c *gin.Context) {
	st := s.sess.Status()
	status := http.StatusOK
	if !st.Loaded {
		status = http.StatusServiceUnavailable
	}

	body := gin.H{
		"session":       st.SessionID,
		"loaded":        st.Loaded,
		"source":        st.Source,
		"rows":          st.Rows,
		"indexed":       st.Indexed,
		"invalid_dates": st.InvalidDates,
	}
	if st.LastError != nil {
		body["last_error"] = st.LastError.Error()
	}
	if target, err := s.sess.Target(c.Request.Context(), s.cfg.SheetURL); err == nil {
		body["document"] = target.DocumentTitle
		body["worksheet"] = target.Worksheet.Title
	} else {
		body["target_error"] = err.Error()
	}
	c.JSON(status, body)
}

// ==================== API ====================

func (s *Server) apiMembers(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = c.Query("birth_date")
	}
	if strings.TrimSpace(date) == "" {
		errorResponse(c, http.StatusBadRequest, "date is required")
		return
	}

	found, err := s.sess.LookupText(date)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	out := make([]memberJSON, len(found))
	for i, m := range found {
		out[i] = toMemberJSON(m)
	}
	success(c, gin.H{"date": date, "members": out})
}

type submitRequest struct {
	BirthDate    string `json:"birth_date" binding:"required"`
	Name         string `json:"name"`
	CorrectPhone bool   `json:"correct_phone"`
	NewPhone     string `json:"new_phone"`
	CorrectEmail bool   `json:"correct_email"`
	NewEmail     string `json:"new_email"`
	Setorial     string `json:"setorial"`
}

func (s *Server) apiSubmit(c *gin.Context) {
	var body submitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	res, err := s.submit(c, body.BirthDate, body.Name, models.CorrectionRequest{
		CorrectPhone: body.CorrectPhone,
		NewPhone:     body.NewPhone,
		CorrectEmail: body.CorrectEmail,
		NewEmail:     body.NewEmail,
		Setorial:     body.Setorial,
	})
	if err != nil {
		resp := Response{Code: statusFor(err), Message: err.Error()}
		if res != nil && res.SubmissionID != uuid.Nil {
			resp.Data = gin.H{"submission_id": res.SubmissionID.String()}
		}
		c.JSON(resp.Code, resp)
		return
	}

	success(c, toResultJSON(res))
}

func (s *Server) apiListSubmissions(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", db.StatusPending, db.StatusSent, db.StatusFailed:
	default:
		errorResponse(c, http.StatusBadRequest, "invalid status "+status)
		return
	}

	subs, err := s.sess.Submissions(status, 50)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	out := make([]submissionJSON, len(subs))
	for i, sub := range subs {
		out[i] = submissionJSON{
			ID:        sub.ID.String(),
			Member:    sub.MemberName,
			Worksheet: sub.WorksheetTitle,
			Status:    sub.Status,
			Attempts:  sub.Attempts,
			CreatedAt: sub.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if sub.ErrorMessage != nil {
			out[i].ErrorMessage = *sub.ErrorMessage
		}
	}
	success(c, out)
}

func (s *Server) apiRetry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid submission id")
		return
	}

	res, err := s.sess.Retry(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}
	success(c, toResultJSON(res))
}

func (s *Server) apiTarget(c *gin.Context) {
	target, err := s.sess.Target(c.Request.Context(), s.cfg.SheetURL)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}
	success(c, gin.H{
		"document_id":  target.Worksheet.DocumentID,
		"document":     target.DocumentTitle,
		"worksheet_id": target.Worksheet.ID,
		"worksheet":    target.Worksheet.Title,
		"fallback":     target.Fallback.String(),
		"notice":       target.Notice(),
	})
}
