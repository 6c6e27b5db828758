package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"findocgpt/models"
	"findocgpt/services"
)

// SetupChatRoutes binds the chat pipeline to the HTTP surface. All
// behavior lives in the services; handlers only translate JSON.
func SetupChatRoutes(router *gin.Engine, chatbot *services.ChatBot, chatLog *services.ChatLogStore) {
	api := router.Group("/api")

	api.POST("/chat", func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_input",
				"message":    "No message provided",
			})
			return
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		// logging must never fail the request
		_ = chatLog.EnsureSession(c.Request.Context(), sessionID)

		response := chatbot.ProcessMessage(c.Request.Context(), req.Message)
		chatLog.LogExchange(c.Request.Context(), sessionID, req.Message, response)

		c.Header("X-Session-ID", sessionID)
		c.JSON(http.StatusOK, response)
	})

	api.GET("/chat/history/:session_id", func(c *gin.Context) {
		history, err := chatLog.History(c.Request.Context(), c.Param("session_id"), 50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "history_unavailable",
				"message":    "Failed to load chat history",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": c.Param("session_id"), "messages": history})
	})

	api.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Financial Chatbot is running"})
	})
}
