package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobboard/internal/api/dto"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/jobdetail"
	"github.com/cuongbtq/jobboard/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// LiveJob handles GET /jobs/:job_id/live
// Runs one mounted view for the lifetime of the websocket and pushes a page
// frame whenever the view or its state changes
func (h *JobHandler) LiveJob(c *gin.Context) {
	jobID := c.Param("job_id")
	user := CurrentUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v, st := h.newView(user, jobID)
	defer v.Unmount()

	updates, unsubscribe := st.Subscribe()
	defer unsubscribe()

	session := &liveSession{
		handler:  h,
		conn:     conn,
		view:     v,
		rerender: make(chan struct{}, 1),
		errs:     make(chan string, 4),
	}

	fetchCtx, fetchCancel := context.WithTimeout(ctx, h.fetchTimeout)
	defer fetchCancel()
	settled := v.Mount(fetchCtx)

	go session.readLoop(ctx, cancel)

	h.logger.Debug("Live session opened",
		slog.String("job_id", jobID),
		slog.String("user_id", user.ID),
	)

	session.writeLoop(ctx, updates, settled)

	h.logger.Debug("Live session closed",
		slog.String("job_id", jobID),
		slog.String("user_id", user.ID),
	)
}

type liveSession struct {
	handler  *JobHandler
	conn     *websocket.Conn
	view     *jobdetail.View
	rerender chan struct{}
	errs     chan string
}

func (s *liveSession) requestRender() {
	select {
	case s.rerender <- struct{}{}:
	default:
	}
}

func (s *liveSession) reportError(msg string) {
	select {
	case s.errs <- msg:
	default:
	}
}

// readLoop handles browser events; it owns all reads on the connection
func (s *liveSession) readLoop(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.handler.logger.Warn("Live session read failed",
					slog.String("job_id", s.view.JobID()),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var event dto.LiveEvent
		if err := json.Unmarshal(data, &event); err != nil {
			s.reportError("malformed event")
			continue
		}

		switch event.Action {
		case dto.LiveActionImageLoaded:
			s.view.OnImageLoad()
			s.requestRender()
		case dto.LiveActionToggleFavourite:
			if err := s.view.ToggleFavourite(ctx); err != nil {
				if errors.Is(err, domain.ErrNotAuthenticated) {
					s.reportError("sign in to save jobs")
				} else {
					s.reportError("We couldn't update your favourites. Please try again.")
				}
			}
		default:
			s.reportError("unknown action")
		}
	}
}

// writeLoop owns all writes on the connection
func (s *liveSession) writeLoop(ctx context.Context, updates <-chan store.State, settled <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if !s.writePage() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case <-settled:
			settled = nil
			if !s.writePage() {
				return
			}

		case _, ok := <-updates:
			if !ok {
				return
			}
			if !s.writePage() {
				return
			}

		case <-s.rerender:
			if !s.writePage() {
				return
			}

		case msg := <-s.errs:
			if !s.write(dto.LiveFrame{Type: dto.LiveFrameError, Error: msg}) {
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *liveSession) writePage() bool {
	page, err := s.view.Render()
	if err != nil {
		s.handler.logger.Error("Failed to render live page",
			slog.String("job_id", s.view.JobID()),
			slog.String("error", err.Error()),
		)
		return s.write(dto.LiveFrame{Type: dto.LiveFrameError, Error: "Failed to render job details"})
	}
	return s.write(dto.LiveFrame{Type: dto.LiveFramePage, Page: &page})
}

func (s *liveSession) write(frame dto.LiveFrame) bool {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(frame); err != nil {
		s.handler.logger.Debug("Live session write failed",
			slog.String("job_id", s.view.JobID()),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}
