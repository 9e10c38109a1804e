package api

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/yko79135/lessonplangenerator/internal/lessonplan"
)

type rowsRequest struct {
	Text string `json:"text"`
}

type rowsResponse struct {
	Rows []lessonplan.LessonRow `json:"rows"`
	Text string                 `json:"text"`
}

// handleDraftSocket normalises edited row text as the teacher types: each
// {"text"} message is answered with the parsed rows and their canonical text.
func (s *Server) handleDraftSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(64 << 10)

	ctx := r.Context()
	for {
		var req rowsRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if websocket.CloseStatus(err) == -1 {
				slog.Debug("draft socket read failed", "error", err)
			}
			return
		}

		rows := lessonplan.NormalizeRows(lessonplan.ParseRows(req.Text))
		if err := wsjson.Write(ctx, conn, rowsResponse{Rows: rows, Text: lessonplan.FormatRows(rows)}); err != nil {
			slog.Debug("draft socket write failed", "error", err)
			return
		}
	}
}
