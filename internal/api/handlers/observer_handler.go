package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/scribeapp/scribe/internal/observer"
	"github.com/scribeapp/scribe/internal/services"
	"github.com/scribeapp/scribe/internal/utils"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsConn serializes writes; gorilla allows one concurrent writer only.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.conn.WriteJSON(v)
}

type ObserverHandler struct {
	observers *observer.Manager
	uploads   services.UploadService
	log       *logrus.Logger
}

func NewObserverHandler(observers *observer.Manager, uploads services.UploadService, log *logrus.Logger) *ObserverHandler {
	return &ObserverHandler{observers: observers, uploads: uploads, log: log}
}

// Attach starts (or resumes) observing the transcription job behind a file
// and returns the current snapshot.
func (h *ObserverHandler) Attach(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rec, err := h.uploads.GetRecordByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	// the observer outlives the request; it must not inherit its deadline
	o := h.observers.Attach(context.Background(), userID, *rec)
	c.JSON(http.StatusOK, o.Snapshot())
}

// Snapshot returns the current view of an already attached observer.
func (h *ObserverHandler) Snapshot(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	o, found := h.observers.Get(userID, c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": errorBody{
			Code:    utils.CodeNotFound,
			Message: "no observer attached for this file",
		}})
		return
	}
	c.JSON(http.StatusOK, o.Snapshot())
}

// Detach stops observing. Both the poll and progress timers are cancelled
// before the response is written.
func (h *ObserverHandler) Detach(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	h.observers.Detach(userID, c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "detached"})
}

// Stream upgrades to a websocket, attaches an observer, and forwards every
// snapshot update. Closing the socket detaches the view.
func (h *ObserverHandler) Stream(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	fileID := c.Param("id")

	rec, err := h.uploads.GetRecordByID(c.Request.Context(), userID, fileID)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	ws := &wsConn{conn: conn}
	defer conn.Close()

	o := h.observers.Attach(context.Background(), userID, *rec)
	if err := ws.writeJSON(o.Snapshot()); err != nil {
		return
	}

	// reader loop only watches for the peer closing
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer h.observers.Detach(userID, fileID)
	for {
		select {
		case <-closed:
			return
		case <-o.Done():
			// flush the terminal snapshot before closing
			_ = ws.writeJSON(o.Snapshot())
			return
		case snap := <-o.Updates():
			if err := ws.writeJSON(snap); err != nil {
				return
			}
		}
	}
}
