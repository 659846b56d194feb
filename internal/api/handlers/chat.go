package handlers

import (
	"realtime-threads/internal/service"
	"realtime-threads/pkg/response"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ListUsers godoc
// @Summary List chat users
// @Description Every user except the caller, for the chat sidebar
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ChatUserResponse
// @Router /chat/users [get]
func (h *ChatHandler) ListUsers(c *gin.Context) {
	users, err := h.chatService.ListChatUsers(c.Request.Context(), currentUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	response.OK(c, users)
}

// GetConversation godoc
// @Summary Direct message history
// @Description The latest messages between the caller and another user, oldest first
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param otherUserId path int true "Other user ID"
// @Param limit query int false "Page size (default 50, max 200)"
// @Success 200 {array} models.DirectMessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /chat/{otherUserId}/messages [get]
func (h *ChatHandler) GetConversation(c *gin.Context) {
	otherUserID, ok := pathID(c, "otherUserId")
	if !ok {
		return
	}

	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	messages, err := h.chatService.GetConversation(c.Request.Context(), currentUserID(c), otherUserID, limit)
	if err != nil {
		serviceError(c, err)
		return
	}
	response.OK(c, messages)
}
