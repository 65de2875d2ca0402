package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scribeapp/scribe/internal/api/handlers"
	"github.com/scribeapp/scribe/internal/api/middleware"
)

type Deps struct {
	Auth          *handlers.AuthHandler
	Uploads       *handlers.UploadHandler
	Observers     *handlers.ObserverHandler
	Chat          *handlers.ChatHandler
	Profile       *handlers.ProfileHandler
	Subscriptions *handlers.SubscriptionHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/login", d.Auth.Login)
		auth.POST("/signup", d.Auth.Signup)
		auth.POST("/google", d.Auth.GoogleLogin)
		auth.POST("/forgot-password", d.Auth.ForgotPassword)
	}

	api := r.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		api.POST("/auth/logout", d.Auth.Logout)
		api.DELETE("/auth/account", d.Auth.DeleteAccount)

		api.GET("/files", d.Uploads.ListAll)
		api.GET("/files/:kind", d.Uploads.List)
		api.GET("/file/:id", d.Uploads.Get)
		api.PATCH("/file/:id", d.Uploads.Update)
		api.DELETE("/files/:kind/:id", d.Uploads.Delete)
		api.POST("/upload", d.Uploads.Upload)

		api.POST("/transcriptions/:id/observer", d.Observers.Attach)
		api.GET("/transcriptions/:id/observer", d.Observers.Snapshot)
		api.DELETE("/transcriptions/:id/observer", d.Observers.Detach)
		api.GET("/transcriptions/:id/stream", d.Observers.Stream)

		api.GET("/chat/:id/history", d.Chat.History)
		api.POST("/chat/:id/ask", d.Chat.Ask)

		api.GET("/profile", d.Profile.Me)
		api.PUT("/profile", d.Profile.Update)

		api.GET("/subscription", d.Subscriptions.Get)
		api.POST("/subscription/upgrade", d.Subscriptions.Upgrade)
	}
}
