package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scribeapp/scribe/internal/chat"
	"github.com/scribeapp/scribe/internal/models"
	"github.com/scribeapp/scribe/internal/services"
)

type ChatHandler struct {
	chats   *chat.Manager
	uploads services.UploadService
}

func NewChatHandler(chats *chat.Manager, uploads services.UploadService) *ChatHandler {
	return &ChatHandler{chats: chats, uploads: uploads}
}

func (h *ChatHandler) reconcilerFor(c *gin.Context, userID, fileID string) (*chat.Reconciler, bool) {
	rec, err := h.uploads.GetRecordByID(c.Request.Context(), userID, fileID)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	kind, _ := rec.Kind()
	return h.chats.Get(userID, fileID, kind, rec.TextID), true
}

// History loads the stored conversation for a file and returns the rendered
// turns, history first, then anything sent this session.
func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	r, ok := h.reconcilerFor(c, userID, c.Param("id"))
	if !ok {
		return
	}

	turns, err := r.LoadHistory(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if turns == nil {
		turns = []models.ChatTurn{}
	}
	c.JSON(http.StatusOK, gin.H{"turns": turns})
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask sends a question about the transcript and returns the resolved bot
// turn. A blank question is accepted and does nothing.
func (h *ChatHandler) Ask(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	r, ok := h.reconcilerFor(c, userID, c.Param("id"))
	if !ok {
		return
	}

	turn, err := r.SendMessage(c.Request.Context(), req.Question)
	if err != nil {
		writeError(c, err)
		return
	}
	if turn == nil {
		c.JSON(http.StatusOK, gin.H{"turns": r.Turns()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": turn, "turns": r.Turns()})
}
