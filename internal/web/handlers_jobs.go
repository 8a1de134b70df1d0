package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/JonMunkholm/deptdata/internal/core"
	"github.com/JonMunkholm/deptdata/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames.
	maxMessageSize = 512
)

// JobResultResponse is the body of GET /api/jobs/{jobID}.
type JobResultResponse struct {
	JobID    string                `json:"job_id"`
	FileName string                `json:"file_name"`
	Status   core.JobPhase         `json:"status"`
	Stats    *core.ProcessingStats `json:"stats,omitempty"`
	Error    *ErrorResponse        `json:"error,omitempty"`
}

// handleJobResult waits for the job to finish. A failed job still answers
// 200; the failure is described in the error field.
func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	result, err := s.service.JobResult(r.Context(), jobID)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	resp := JobResultResponse{JobID: result.JobID, FileName: result.FileName}
	if result.Error != nil {
		msg := core.MapError(result.Error)
		resp.Status = core.PhaseFailed
		resp.Error = &ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
	} else {
		stats := result.Stats
		resp.Status = core.PhaseComplete
		resp.Stats = &stats
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleJobProgress streams job progress as Server-Sent Events. Events are
// numbered by percent so a reconnecting client skips what it has seen.
func (s *Server) handleJobProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	progressCh, err := s.service.SubscribeProgress(jobID)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	lastSeen := -1
	if id := r.Header.Get("Last-Event-ID"); id != "" {
		if n, err := strconv.Atoi(id); err == nil {
			lastSeen = n
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)

	for {
		select {
		case <-r.Context().Done():
			return
		case progress, ok := <-progressCh:
			if !ok {
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				_ = rc.Flush()
				return
			}
			if !progress.Done() && progress.Percent <= lastSeen {
				continue
			}
			lastSeen = progress.Percent

			data, err := json.Marshal(progress)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", progress.Percent, data)
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// upgrader builds the WebSocket upgrader. With no configured origins the
// default same-origin check applies.
func (s *Server) upgrader() websocket.Upgrader {
	up := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if origins := s.cfg.Security.AllowedOrigins; len(origins) > 0 {
		up.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
		}
	}
	return up
}

// handleJobWebSocket pushes each progress snapshot as a JSON text message
// and closes normally when the job finishes.
func (s *Server) handleJobWebSocket(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	// Subscribe before upgrading so an unknown job gets a plain 404.
	progressCh, err := s.service.SubscribeProgress(jobID)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logging.FromContext(r.Context()).Warn("websocket upgrade failed", "job_id", jobID, "error", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go readPump(conn, closed)
	writePump(conn, progressCh, closed)
}

// readPump discards client messages but keeps pong deadlines moving. It
// closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, progressCh <-chan core.JobProgress, peerGone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-peerGone:
			return
		case progress, ok := <-progressCh:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
				return
			}
			if err := conn.WriteJSON(progress); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
