package approuters

import (
	"github.com/arnold-1324/twitterClone-sub000/internal/configuration"
	"github.com/gin-gonic/gin"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/sn/api/chat")
	chatRoute.Use(container.Auth.Middleware())
	{
		chatRoute.POST("/messages", container.ChatHandler.SendMessage)
		chatRoute.GET("/conversations", container.ChatHandler.ListConversations)
		chatRoute.GET("/conversations/:conversationId/messages", container.ChatHandler.ListMessages)
		chatRoute.POST("/conversations/:conversationId/seen", container.ChatHandler.MarkSeen)
		chatRoute.PATCH("/messages/:messageId", container.ChatHandler.EditMessage)
		chatRoute.DELETE("/messages/:messageId", container.ChatHandler.DeleteMessage)
		chatRoute.POST("/messages/:messageId/reactions", container.ChatHandler.React)
		chatRoute.POST("/messages/:messageId/votes", container.ChatHandler.VotePoll)
		chatRoute.POST("/messages/:messageId/close", container.ChatHandler.ClosePoll)
	}

	// The one hard-delete path stays behind an explicit admin role.
	adminRoute := router.Group("/sn/api/admin")
	adminRoute.Use(container.Auth.Middleware(), container.Auth.RequireRole("admin"))
	{
		adminRoute.DELETE("/conversations/:conversationId", container.ChatHandler.PurgeConversation)
	}
}
