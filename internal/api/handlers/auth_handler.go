package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/scribeapp/scribe/internal/chat"
	"github.com/scribeapp/scribe/internal/observer"
	"github.com/scribeapp/scribe/internal/services"
)

type AuthHandler struct {
	sessions  services.SessionService
	observers *observer.Manager
	chats     *chat.Manager
	log       *logrus.Logger
}

func NewAuthHandler(sessions services.SessionService, observers *observer.Manager, chats *chat.Manager, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, observers: observers, chats: chats, log: log}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type googleLoginRequest struct {
	Token string `json:"token" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type sessionResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// Login signs in with email and password. On failure the error is keyed to
// the form field it belongs to, so the caller can highlight the right input.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeFieldError(c, err, string(services.ClassifyProviderError(err)))
		return
	}
	c.JSON(http.StatusOK, sessionResponse{UserID: user.ID, Email: user.Email, Token: h.sessions.Token()})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.sessions.CreateUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeFieldError(c, err, string(services.ClassifyProviderError(err)))
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{UserID: user.ID, Email: user.Email, Token: h.sessions.Token()})
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	user, err := h.sessions.LoginWithGoogle(c.Request.Context(), req.Token)
	if err != nil {
		writeFieldError(c, err, string(services.ClassifyProviderError(err)))
		return
	}
	c.JSON(http.StatusOK, sessionResponse{UserID: user.ID, Email: user.Email, Token: h.sessions.Token()})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	if err := h.sessions.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeFieldError(c, err, string(services.ClassifyProviderError(err)))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset email sent"})
}

// Logout ends the session and tears down every live observer and chat the
// user owns. Success is reported only after teardown completes.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	h.observers.DetachUser(userID)
	h.chats.DropUser(userID)

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.sessions.DeleteSelf(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	h.observers.DetachUser(userID)
	h.chats.DropUser(userID)

	h.log.WithField("user_id", userID).Info("account deleted")
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}
