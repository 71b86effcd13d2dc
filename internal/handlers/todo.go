package handlers

import (
	"errors"
	"net/http"

	"ostadtodo/internal/auth"
	dom "ostadtodo/internal/domain"
	"ostadtodo/internal/dto"
	"ostadtodo/internal/service"

	"github.com/gin-gonic/gin"
)

type TodoHandler struct {
	svc *service.TodoService
}

func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// Create godoc
// @Summary      Create a task in a date bucket
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateTodoRequest  true  "Task body"
// @Success      201   {object}  dto.TodoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := dom.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.svc.Create(c.Request.Context(), auth.UserIDFromContext(c), date, req.Text)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todoToResponse(t))
}

// ListByDate godoc
// @Summary      List the tasks of one date
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        date  path      string  true  "Date (YYYY-MM-DD)"
// @Success      200   {array}   dto.TodoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos/{date} [get]
func (h *TodoHandler) ListByDate(c *gin.Context) {
	date, err := dom.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := h.svc.List(c.Request.Context(), auth.UserIDFromContext(c), date)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, todosToResponses(list))
}

// SetCompleted godoc
// @Summary      Set the completion flag of a task
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "Task ID"
// @Param        body  body      dto.SetCompletedRequest  true  "Completion flag"
// @Success      200   {object}  dto.TodoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /todos/{id} [put]
func (h *TodoHandler) SetCompleted(c *gin.Context) {
	var req dto.SetCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.SetCompleted(c.Request.Context(), auth.UserIDFromContext(c), c.Param("id"), *req.Completed)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t))
}

// UpdateText godoc
// @Summary      Replace the text of a task
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Task ID"
// @Param        body  body      dto.UpdateTextRequest  true  "New text"
// @Success      200   {object}  dto.TodoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /todos/{id}/text [put]
func (h *TodoHandler) UpdateText(c *gin.Context) {
	var req dto.UpdateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.UpdateText(c.Request.Context(), auth.UserIDFromContext(c), c.Param("id"), req.Text)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         todos
// @Security     BearerAuth
// @Param        id   path  string  true  "Task ID"
// @Success      204
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserIDFromContext(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "text must be 1-500 characters"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func todoToResponse(t dom.Task) dto.TodoResponse {
	return dto.TodoResponse{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		Date:      t.Date.String(),
	}
}

func todosToResponses(list []dom.Task) []dto.TodoResponse {
	out := make([]dto.TodoResponse, len(list))
	for i := range list {
		out[i] = todoToResponse(list[i])
	}
	return out
}
