package dto

type CreateTodoRequest struct {
	Text string `json:"text" binding:"required,max=500"`
	Date string `json:"date" binding:"required"` // YYYY-MM-DD
}

// SetCompletedRequest is the body of PUT /todos/{id}.
// Completed is a pointer so that an explicit false is distinguishable from a missing field.
type SetCompletedRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// UpdateTextRequest is the body of PUT /todos/{id}/text.
type UpdateTextRequest struct {
	Text string `json:"text" binding:"required,max=500"`
}

type TodoResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Date      string `json:"date"`
}
