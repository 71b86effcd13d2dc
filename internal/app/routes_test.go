package app_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"ostadtodo/internal/dto"
	"ostadtodo/internal/testutil/testserver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiClient struct {
	t     *testing.T
	base  string
	token string
}

func (c *apiClient) do(method, path string, body interface{}) (int, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, out
}

func login(t *testing.T, c *apiClient, username, password string) {
	t.Helper()
	status, _ := c.do(http.MethodPost, "/register", dto.RegisterRequest{Username: username, Password: password})
	require.Equal(t, http.StatusCreated, status)

	status, body := c.do(http.MethodPost, "/login", dto.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, status)
	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Token)
	c.token = resp.Token
}

func TestHealthAndDocs(t *testing.T) {
	srv := testserver.New(t)
	c := &apiClient{t: t, base: srv.URL}

	status, body := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true,"env":"test"}`, string(body))

	status, body = c.do(http.MethodGet, "/swagger-doc.json", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"/todos/{id}/text"`)
}

func TestAuthFlow(t *testing.T) {
	srv := testserver.New(t)
	c := &apiClient{t: t, base: srv.URL}

	status, _ := c.do(http.MethodGet, "/todos/2024-01-01", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	login(t, c, "ostad", "s3cret")

	status, _ = c.do(http.MethodPost, "/register", dto.RegisterRequest{Username: "ostad", Password: "x"})
	assert.Equal(t, http.StatusConflict, status)

	anon := &apiClient{t: t, base: srv.URL}
	status, _ = anon.do(http.MethodPost, "/login", dto.LoginRequest{Username: "ostad", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = anon.do(http.MethodPost, "/login", map[string]string{"username": "ostad"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := c.do(http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"username":"ostad"`)

	status, _ = c.do(http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, 0, srv.Sessions.Len())

	status, _ = c.do(http.MethodGet, "/todos/2024-01-01", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTodoContract(t *testing.T) {
	srv := testserver.New(t)
	c := &apiClient{t: t, base: srv.URL}
	login(t, c, "ostad", "s3cret")

	listKey := "todo:list:1:2024-01-01"
	status, body := c.do(http.MethodGet, "/todos/2024-01-01", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
	assert.True(t, srv.Redis.Exists(listKey), "list is cached after a read")

	status, body = c.do(http.MethodPost, "/todos", dto.CreateTodoRequest{Text: "Grade exams", Date: "2024-01-01"})
	require.Equal(t, http.StatusCreated, status)
	var created dto.TodoResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Grade exams", created.Text)
	assert.False(t, created.Completed)
	assert.Equal(t, "2024-01-01", created.Date)

	status, body = c.do(http.MethodPut, "/todos/"+created.ID, map[string]bool{"completed": true})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"completed":true`)

	status, body = c.do(http.MethodPut, "/todos/"+created.ID+"/text", dto.UpdateTextRequest{Text: "Grade finals"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"text":"Grade finals"`)

	status, body = c.do(http.MethodGet, "/todos/2024-01-01", nil)
	require.Equal(t, http.StatusOK, status)
	var list []dto.TodoResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, dto.TodoResponse{ID: created.ID, Text: "Grade finals", Completed: true, Date: "2024-01-01"}, list[0])
	assert.True(t, srv.Redis.Exists(listKey))

	status, _ = c.do(http.MethodDelete, "/todos/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = c.do(http.MethodDelete, "/todos/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 0, srv.Todos.Len())
	assert.False(t, srv.Redis.Exists(listKey), "delete drops the cached list")
	status, body = c.do(http.MethodGet, "/todos/2024-01-01", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestTodoValidationAndIsolation(t *testing.T) {
	srv := testserver.New(t)
	owner := &apiClient{t: t, base: srv.URL}
	login(t, owner, "owner", "pw")
	other := &apiClient{t: t, base: srv.URL}
	login(t, other, "other", "pw")

	status, _ := owner.do(http.MethodGet, "/todos/01-01-2024", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = owner.do(http.MethodPost, "/todos", dto.CreateTodoRequest{Text: "x", Date: "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = owner.do(http.MethodPost, "/todos", dto.CreateTodoRequest{Text: "   ", Date: "2024-01-01"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = owner.do(http.MethodPut, "/todos/1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := owner.do(http.MethodPost, "/todos", dto.CreateTodoRequest{Text: "mine", Date: "2024-01-01"})
	require.Equal(t, http.StatusCreated, status)
	var created dto.TodoResponse
	require.NoError(t, json.Unmarshal(body, &created))

	status, _ = other.do(http.MethodPut, "/todos/"+created.ID, map[string]bool{"completed": true})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = other.do(http.MethodDelete, "/todos/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, body = other.do(http.MethodGet, "/todos/2024-01-01", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}
