// Package api serves the syllabus library, draft generation and report export over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/yko79135/lessonplangenerator/internal/curriculum"
	"github.com/yko79135/lessonplangenerator/internal/extract"
	"github.com/yko79135/lessonplangenerator/internal/gdocs"
	"github.com/yko79135/lessonplangenerator/internal/lessonplan"
	"github.com/yko79135/lessonplangenerator/internal/planner"
	"github.com/yko79135/lessonplangenerator/internal/platform/cache"
	"github.com/yko79135/lessonplangenerator/internal/render"
	"github.com/yko79135/lessonplangenerator/internal/store"
	"github.com/yko79135/lessonplangenerator/internal/syllabus"
)

const (
	maxUploadBytes = 20 << 20
	readyTimeout   = 2 * time.Second
)

// DocUploader uploads report text as a Google Doc and returns its URL.
type DocUploader interface {
	Upload(ctx context.Context, creds gdocs.Credentials, req gdocs.UploadRequest) (string, error)
}

// ReadyCheck is one dependency probed by /readyz.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// GoogleConfig holds the configured Google credential sources.
type GoogleConfig struct {
	OAuthUserJSON      string
	ServiceAccountJSON string
	FolderID           string
}

// Config holds the server dependencies. Library and Renderer are required.
type Config struct {
	Library     *planner.Library
	Curriculum  planner.CurriculumSource
	Renderer    *render.Renderer
	Cache       cache.Cache        // OAuth state and session tokens (default in-memory)
	OAuth       *gdocs.OAuthClient // nil disables /oauth/*
	Uploader    DocUploader        // nil disables /reports/gdoc
	Google      GoogleConfig
	TeacherName string
	Ready       []ReadyCheck
}

// Server is the HTTP API.
type Server struct {
	library     *planner.Library
	curriculum  planner.CurriculumSource
	renderer    *render.Renderer
	cache       cache.Cache
	oauth       *gdocs.OAuthClient
	uploader    DocUploader
	google      GoogleConfig
	teacherName string
	ready       []ReadyCheck
}

// NewServer creates the API server.
func NewServer(cfg Config) *Server {
	c := cfg.Cache
	if c == nil {
		c = cache.NewMemory()
	}
	r := cfg.Renderer
	if r == nil {
		r = render.New(render.Options{})
	}
	return &Server{
		library:     cfg.Library,
		curriculum:  cfg.Curriculum,
		renderer:    r,
		cache:       c,
		oauth:       cfg.OAuth,
		uploader:    cfg.Uploader,
		google:      cfg.Google,
		teacherName: cfg.TeacherName,
		ready:       cfg.Ready,
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /syllabi", s.handleListSyllabi)
	mux.HandleFunc("POST /syllabi", s.handleUploadSyllabus)
	mux.HandleFunc("DELETE /syllabi/{id}", s.handleDeleteSyllabus)
	mux.HandleFunc("GET /syllabi/{id}/weeks", s.handleWeeks)
	mux.HandleFunc("POST /syllabi/{id}/draft", s.handleDraft)

	mux.HandleFunc("POST /reports/gdoc", s.handleUploadDoc)
	mux.HandleFunc("POST /reports/{format}", s.handleRenderReport)

	mux.HandleFunc("GET /oauth/start", s.handleOAuthStart)
	mux.HandleFunc("GET /oauth/callback", s.handleOAuthCallback)

	mux.HandleFunc("GET /ws/draft", s.handleDraftSocket)
	return withLogging(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := map[string]string{}
	for _, c := range s.ready {
		if err := c.Check(ctx); err != nil {
			failed[c.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		slog.Warn("readiness check failed", "failed", failed)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type syllabusSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Label      string    `json:"label"`
	UploadedAt time.Time `json:"uploaded_at"`
	WeekCount  int       `json:"week_count"`
}

func summarize(rec store.Record) syllabusSummary {
	return syllabusSummary{
		ID:         rec.ID,
		Name:       rec.Name,
		Label:      rec.Label(),
		UploadedAt: rec.UploadedAt,
		WeekCount:  len(rec.Weeks),
	}
}

func (s *Server) handleListSyllabi(w http.ResponseWriter, r *http.Request) {
	recs, err := s.library.List(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]syllabusSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, summarize(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"syllabi": out})
}

func (s *Server) handleUploadSyllabus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("file is required"))
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("only PDF syllabi are supported"))
		return
	}
	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("reading upload: %w", err))
		return
	}
	if len(content) > maxUploadBytes {
		writeErr(w, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds %d MB", maxUploadBytes>>20))
		return
	}

	rec, err := s.library.Add(r.Context(), header.Filename, content)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"syllabus":    summarize(rec),
		"weeks":       weekViews(rec.Weeks),
		"outline_map": rec.OutlineMap,
	})
}

func (s *Server) handleDeleteSyllabus(w http.ResponseWriter, r *http.Request) {
	if err := s.library.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type weekView struct {
	syllabus.WeekInfo
	Label   string   `json:"label"`
	Classes []string `json:"classes"`
}

func weekViews(weeks []syllabus.WeekInfo) []weekView {
	out := make([]weekView, 0, len(weeks))
	for _, wk := range weeks {
		out = append(out, weekView{WeekInfo: wk, Label: wk.Label(), Classes: lessonplan.ClassCandidates(wk)})
	}
	return out
}

func (s *Server) handleWeeks(w http.ResponseWriter, r *http.Request) {
	rec, err := s.library.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"syllabus":    summarize(*rec),
		"weeks":       weekViews(rec.Weeks),
		"outline_map": rec.OutlineMap,
	})
}

type draftRequest struct {
	WeekNo        int    `json:"week_no"`
	ClassName     string `json:"class_name"`
	Note          string `json:"note"`
	IncludePrayer *bool  `json:"include_prayer"`
	TeacherName   string `json:"teacher_name"`
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.WeekNo <= 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("week_no must be positive"))
		return
	}

	opts := planner.DraftOptions{
		WeekNo:      req.WeekNo,
		ClassName:   req.ClassName,
		Note:        req.Note,
		NoPrayer:    req.IncludePrayer != nil && !*req.IncludePrayer,
		TeacherName: firstNonEmpty(req.TeacherName, s.teacherName),
		UserID:      sessionID(r),
	}
	d, err := s.library.Draft(r.Context(), r.PathValue("id"), s.curriculumRows(), opts)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) curriculumRows() []curriculum.Row {
	if s.curriculum == nil {
		return nil
	}
	return s.curriculum.Rows()
}

// reportRequest is the edited form: report fields plus the row text.
type reportRequest struct {
	lessonplan.Fields
	DraftText  string `json:"draft_text"`
	WeekNo     int    `json:"week_no"`
	SyllabusID string `json:"syllabus_id"`
}

func (req reportRequest) fields() lessonplan.Fields {
	f := req.Fields
	if strings.TrimSpace(f.EditedDraft) == "" {
		f.EditedDraft = req.DraftText
	}
	return f
}

func (s *Server) handleRenderReport(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(r.PathValue("format"))
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	f := req.fields()
	if err := f.Validate(); err != nil {
		writeErr(w, statusFor(err), err)
		return
	}

	out, err := s.renderer.Render(format, f)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}

	s.library.LogEvent(planner.Event{
		SyllabusID: req.SyllabusID,
		UserID:     sessionID(r),
		EventType:  planner.EventReportRendered,
		Data:       map[string]any{"format": string(format), "week_no": req.WeekNo},
	})

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, render.Filename(req.WeekNo, format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

type docRequest struct {
	reportRequest
	Title           string `json:"title"`
	FolderID        string `json:"folder_id"`
	CredentialsJSON string `json:"credentials_json"`
}

func (s *Server) handleUploadDoc(w http.ResponseWriter, r *http.Request) {
	if s.uploader == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("google docs upload is not configured"))
		return
	}
	var req docRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	f := req.fields()
	if err := f.Validate(); err != nil {
		writeErr(w, statusFor(err), err)
		return
	}

	creds, err := gdocs.CredentialSource{
		Override:           req.CredentialsJSON,
		Session:            s.sessionToken(r),
		UserJSON:           s.google.OAuthUserJSON,
		ServiceAccountJSON: s.google.ServiceAccountJSON,
	}.Resolve()
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSpace(fmt.Sprintf("%s %s %s", f.WeekLabel, f.ClassName, "수업 보고서"))
	}
	url, err := s.uploader.Upload(r.Context(), creds, gdocs.UploadRequest{
		Title:    title,
		Body:     lessonplan.ComposeText(f, firstNonEmpty(f.EditedDraft, lessonplan.FormatRows(f.Rows()))),
		FolderID: firstNonEmpty(req.FolderID, s.google.FolderID),
	})
	if err != nil {
		slog.Error("google doc upload failed", "error", err)
		writeErr(w, statusFor(err), err)
		return
	}

	s.library.LogEvent(planner.Event{
		SyllabusID: req.SyllabusID,
		UserID:     sessionID(r),
		EventType:  planner.EventReportUploaded,
		Data:       map[string]any{"url": url, "week_no": req.WeekNo},
	})
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *lessonplan.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, planner.ErrWeekNotFound):
		return http.StatusNotFound
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, extract.ErrNotPDF), errors.Is(err, render.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, extract.ErrNoExtractableText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gdocs.ErrNoCredentials), errors.Is(err, gdocs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, gdocs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, gdocs.ErrFolderNotFound):
		return http.StatusNotFound
	case errors.Is(err, gdocs.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, render.ErrNoFont):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	body := map[string]any{"message": err.Error()}
	var verr *lessonplan.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	if code >= http.StatusInternalServerError {
		slog.Error("request failed", "status", code, "error", err)
	}
	writeJSON(w, code, map[string]any{"error": body})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
