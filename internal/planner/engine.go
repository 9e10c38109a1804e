package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yko79135/lessonplangenerator/internal/chat"
	"github.com/yko79135/lessonplangenerator/internal/curriculum"
	"github.com/yko79135/lessonplangenerator/internal/extract"
	"github.com/yko79135/lessonplangenerator/internal/lessonplan"
	"github.com/yko79135/lessonplangenerator/internal/platform/cache"
	"github.com/yko79135/lessonplangenerator/internal/store"
)

const (
	replyTechnicalIssue = "처리 중 문제가 발생했습니다. 잠시 후 다시 시도해 주세요."
	replyNoSelection    = "선택된 실라버스가 없습니다. PDF를 보내거나 /list 후 /use <번호>로 선택하세요."
)

// CurriculumSource supplies curriculum rows for topic suggestions.
type CurriculumSource interface {
	Rows() []curriculum.Row
}

// EngineConfig holds dependencies for the chat engine.
type EngineConfig struct {
	Library     *Library
	Curriculum  CurriculumSource
	Sessions    cache.Cache // per-user selected syllabus (default in-memory)
	TeacherName string
}

// Engine turns chat messages into library operations and draft replies.
type Engine struct {
	library     *Library
	curriculum  CurriculumSource
	sessions    cache.Cache
	teacherName string
}

// NewEngine creates a new chat engine.
func NewEngine(cfg EngineConfig) *Engine {
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = cache.NewMemory()
	}
	return &Engine{
		library:     cfg.Library,
		curriculum:  cfg.Curriculum,
		sessions:    sessions,
		teacherName: cfg.TeacherName,
	}
}

// ProcessMessage handles an incoming message and returns the reply text.
func (e *Engine) ProcessMessage(ctx context.Context, msg chat.InboundMessage) (string, error) {
	slog.Info("processing message",
		"channel", msg.Channel,
		"user_id", msg.UserID,
		"text_len", len(msg.Text),
		"document", msg.DocumentName,
	)

	if msg.HasDocument() {
		return e.handleDocument(ctx, msg)
	}
	if strings.HasPrefix(msg.Text, "/") {
		return e.handleCommand(ctx, msg)
	}
	return "실라버스 PDF를 보내거나 /start 로 사용 방법을 확인하세요.", nil
}

func (e *Engine) handleDocument(ctx context.Context, msg chat.InboundMessage) (string, error) {
	if !isPDF(msg) {
		return "PDF 파일만 업로드할 수 있습니다.", nil
	}
	if len(msg.Document) == 0 {
		return "파일을 내려받지 못했습니다. 20MB 이하의 PDF인지 확인해 주세요.", nil
	}

	rec, err := e.library.Add(ctx, msg.DocumentName, msg.Document)
	if errors.Is(err, extract.ErrNoExtractableText) {
		return "PDF에서 텍스트를 찾지 못했습니다. 스캔본이 아닌 텍스트 PDF를 보내 주세요.", nil
	}
	if err != nil {
		slog.Error("adding syllabus from chat failed", "user_id", msg.UserID, "error", err)
		return "PDF를 읽지 못했습니다: " + err.Error(), nil
	}
	e.selectSyllabus(ctx, msg.UserID, rec.ID)

	return fmt.Sprintf("%s 저장 완료 (%d주차).\n/weeks 로 주차를 확인하고 /plan <주차> [반] 으로 초안을 만드세요.",
		rec.Name, len(rec.Weeks)), nil
}

func isPDF(msg chat.InboundMessage) bool {
	return msg.DocumentMIME == "application/pdf" ||
		strings.EqualFold(filepath.Ext(msg.DocumentName), ".pdf")
}

func (e *Engine) handleCommand(ctx context.Context, msg chat.InboundMessage) (string, error) {
	fields := strings.Fields(msg.Text)
	// Group chats address commands as /cmd@botname.
	cmd := strings.SplitN(fields[0], "@", 2)[0]
	args := fields[1:]

	switch cmd {
	case "/start", "/help":
		return e.handleStart(msg), nil
	case "/list":
		return e.handleList(ctx, msg)
	case "/use":
		return e.handleUse(ctx, msg, args)
	case "/weeks":
		return e.handleWeeks(ctx, msg)
	case "/plan":
		return e.handlePlan(ctx, msg, args)
	default:
		return fmt.Sprintf("알 수 없는 명령입니다: %s\n/start 로 사용 방법을 확인하세요.", cmd), nil
	}
}

func (e *Engine) handleStart(msg chat.InboundMessage) string {
	name := msg.FirstName
	if name == "" {
		name = msg.Username
	}
	if name == "" {
		name = "선생님"
	}

	return fmt.Sprintf(`안녕하세요 %s!

주간 수업계획 도우미입니다.

1. 실라버스 PDF를 이 대화창에 보내 주세요.
2. /weeks 로 주차 목록을 확인합니다.
3. /plan <주차> [반] 으로 수업계획 초안을 받습니다.

/list 로 저장된 실라버스를 보고 /use <번호> 로 바꿀 수 있습니다.`, name)
}

func (e *Engine) handleList(ctx context.Context, msg chat.InboundMessage) (string, error) {
	recs, err := e.library.List(ctx)
	if err != nil {
		slog.Error("listing syllabi failed", "error", err)
		return replyTechnicalIssue, nil
	}
	if len(recs) == 0 {
		return "저장된 실라버스가 없습니다. PDF를 보내 주세요.", nil
	}

	current := e.selectedID(ctx, msg.UserID)
	var b strings.Builder
	b.WriteString("저장된 실라버스:\n")
	for i, r := range recs {
		marker := " "
		if r.ID == current {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s%d. %s\n", marker, i+1, r.Label())
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (e *Engine) handleUse(ctx context.Context, msg chat.InboundMessage, args []string) (string, error) {
	if len(args) == 0 {
		return "사용법: /use <번호>", nil
	}
	recs, err := e.library.List(ctx)
	if err != nil {
		slog.Error("listing syllabi failed", "error", err)
		return replyTechnicalIssue, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(recs) {
		return fmt.Sprintf("1부터 %d 사이의 번호를 입력하세요.", len(recs)), nil
	}
	rec := recs[n-1]
	e.selectSyllabus(ctx, msg.UserID, rec.ID)
	return fmt.Sprintf("%s 를 선택했습니다.", rec.Name), nil
}

func (e *Engine) handleWeeks(ctx context.Context, msg chat.InboundMessage) (string, error) {
	rec, reply := e.currentRecord(ctx, msg.UserID)
	if rec == nil {
		return reply, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s 주차 목록:\n", rec.Name)
	for _, w := range rec.Weeks {
		fmt.Fprintf(&b, "- %s [%s]\n", w.Label(), strings.Join(lessonplan.ClassCandidates(w), ", "))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (e *Engine) handlePlan(ctx context.Context, msg chat.InboundMessage, args []string) (string, error) {
	if len(args) == 0 {
		return "사용법: /plan <주차> [반] [메모]", nil
	}
	weekNo, err := strconv.Atoi(strings.TrimSuffix(args[0], "주"))
	if err != nil {
		return "주차는 숫자로 입력하세요. 예: /plan 3 11A", nil
	}
	rec, reply := e.currentRecord(ctx, msg.UserID)
	if rec == nil {
		return reply, nil
	}

	opts := DraftOptions{
		WeekNo:      weekNo,
		TeacherName: e.teacherName,
		UserID:      msg.UserID,
	}
	if len(args) > 1 {
		opts.ClassName = args[1]
	}
	if len(args) > 2 {
		opts.Note = strings.Join(args[2:], " ")
	}

	var rows []curriculum.Row
	if e.curriculum != nil {
		rows = e.curriculum.Rows()
	}
	d, err := e.library.Draft(ctx, rec.ID, rows, opts)
	if errors.Is(err, ErrWeekNotFound) {
		return fmt.Sprintf("%d주차를 찾을 수 없습니다. /weeks 로 확인하세요.", weekNo), nil
	}
	if err != nil {
		slog.Error("building draft failed", "syllabus_id", rec.ID, "week", weekNo, "error", err)
		return replyTechnicalIssue, nil
	}

	return lessonplan.ComposeText(d.Fields, d.DraftText), nil
}

// currentRecord resolves the user's selected syllabus, falling back to the most
// recent upload. A nil record comes with the reply to send instead.
func (e *Engine) currentRecord(ctx context.Context, userID string) (*store.Record, string) {
	if id := e.selectedID(ctx, userID); id != "" {
		rec, err := e.library.Get(ctx, id)
		if err == nil {
			return rec, ""
		}
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("loading selected syllabus failed", "syllabus_id", id, "error", err)
			return nil, replyTechnicalIssue
		}
	}

	recs, err := e.library.List(ctx)
	if err != nil {
		slog.Error("listing syllabi failed", "error", err)
		return nil, replyTechnicalIssue
	}
	if len(recs) == 0 {
		return nil, replyNoSelection
	}
	latest := recs[len(recs)-1]
	rec, err := e.library.Get(ctx, latest.ID)
	if err != nil {
		return nil, replyTechnicalIssue
	}
	return rec, ""
}

func sessionKey(userID string) string {
	return "session:" + userID
}

func (e *Engine) selectedID(ctx context.Context, userID string) string {
	b, err := e.sessions.Get(ctx, sessionKey(userID))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("reading session failed", "user_id", userID, "error", err)
		}
		return ""
	}
	return string(b)
}

func (e *Engine) selectSyllabus(ctx context.Context, userID, id string) {
	if err := e.sessions.Set(ctx, sessionKey(userID), []byte(id), 0); err != nil {
		slog.Warn("saving session failed", "user_id", userID, "error", err)
	}
}
