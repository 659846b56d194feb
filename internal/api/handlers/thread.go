package handlers

import (
	"net/http"

	"realtime-threads/internal/models"
	"realtime-threads/internal/service"
	"realtime-threads/pkg/response"

	"github.com/gin-gonic/gin"
)

type ThreadHandler struct {
	threadService service.ThreadService
}

func NewThreadHandler(threadService service.ThreadService) *ThreadHandler {
	return &ThreadHandler{threadService: threadService}
}

// ListCategories godoc
// @Summary List thread categories
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.CategoryResponse
// @Router /threads/categories [get]
func (h *ThreadHandler) ListCategories(c *gin.Context) {
	categories, err := h.threadService.ListCategories(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	response.OK(c, categories)
}

// ListThreads godoc
// @Summary List threads
// @Description One page of threads, optionally filtered by category and a title/body search
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 20, max 50)"
// @Param category query string false "Category slug"
// @Param q query string false "Search text"
// @Param sort query string false "newest or oldest"
// @Success 200 {array} models.ThreadSummaryResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /threads [get]
func (h *ThreadHandler) ListThreads(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	pageSize, ok := queryInt(c, "pageSize")
	if !ok {
		return
	}

	filter := service.NewThreadFilter(page, pageSize, c.Query("category"), c.Query("q"), c.Query("sort"))
	threads, err := h.threadService.ListThreads(c.Request.Context(), filter)
	if err != nil {
		serviceError(c, err)
		return
	}
	response.OK(c, threads)
}

// CreateThread godoc
// @Summary Create a thread
// @Tags threads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateThreadRequest true "Thread"
// @Success 201 {object} models.ThreadResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /threads [post]
func (h *ThreadHandler) CreateThread(c *gin.Context) {
	var req models.CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "", err.Error())
		return
	}

	thread, err := h.threadService.CreateThread(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Created(c, thread)
}

// GetThread godoc
// @Summary Get a thread
// @Description Thread with like and reply counts for the caller
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param threadId path int true "Thread ID"
// @Success 200 {object} models.ThreadStatsResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{threadId} [get]
func (h *ThreadHandler) GetThread(c *gin.Context) {
	threadID, ok := pathID(c, "threadId")
	if !ok {
		return
	}

	thread, err := h.threadService.GetThread(c.Request.Context(), threadID, currentUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	response.OK(c, thread)
}

// ListReplies godoc
// @Summary List replies
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param threadId path int true "Thread ID"
// @Success 200 {array} models.ReplyResponse
// @Router /threads/{threadId}/replies [get]
func (h *ThreadHandler) ListReplies(c *gin.Context) {
	threadID, ok := pathID(c, "threadId")
	if !ok {
		return
	}

	replies, err := h.threadService.ListReplies(c.Request.Context(), threadID)
	if err != nil {
		serviceError(c, err)
		return
	}
	response.OK(c, replies)
}

// CreateReply godoc
// @Summary Reply to a thread
// @Description Notifies the thread author unless they wrote the reply
// @Tags threads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param threadId path int true "Thread ID"
// @Param request body models.CreateReplyRequest true "Reply"
// @Success 201 {object} models.ReplyResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{threadId}/replies [post]
func (h *ThreadHandler) CreateReply(c *gin.Context) {
	threadID, ok := pathID(c, "threadId")
	if !ok {
		return
	}

	var req models.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "", err.Error())
		return
	}

	reply, err := h.threadService.CreateReply(c.Request.Context(), threadID, currentUserID(c), req.Body)
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Created(c, reply)
}

// DeleteReply godoc
// @Summary Delete a reply
// @Description Only the reply's author may delete it
// @Tags threads
// @Security BearerAuth
// @Param replyId path int true "Reply ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/replies/{replyId} [delete]
func (h *ThreadHandler) DeleteReply(c *gin.Context) {
	replyID, ok := pathID(c, "replyId")
	if !ok {
		return
	}
	if err := h.threadService.DeleteReply(c.Request.Context(), replyID, currentUserID(c)); err != nil {
		serviceError(c, err)
		return
	}
	response.NoContent(c)
}

// Like godoc
// @Summary Like a thread
// @Description Idempotent; only the first like notifies the author
// @Tags threads
// @Security BearerAuth
// @Param threadId path int true "Thread ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{threadId}/likes [post]
func (h *ThreadHandler) Like(c *gin.Context) {
	threadID, ok := pathID(c, "threadId")
	if !ok {
		return
	}
	if err := h.threadService.Like(c.Request.Context(), threadID, currentUserID(c)); err != nil {
		serviceError(c, err)
		return
	}
	response.NoContent(c)
}

// Unlike godoc
// @Summary Remove a like
// @Tags threads
// @Security BearerAuth
// @Param threadId path int true "Thread ID"
// @Success 204
// @Router /threads/{threadId}/likes [delete]
func (h *ThreadHandler) Unlike(c *gin.Context) {
	threadID, ok := pathID(c, "threadId")
	if !ok {
		return
	}
	if err := h.threadService.Unlike(c.Request.Context(), threadID, currentUserID(c)); err != nil {
		serviceError(c, err)
		return
	}
	response.NoContent(c)
}
