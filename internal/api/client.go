package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hqvu/teamtask/internal/models"
)

// TokenSource supplies the bearer token attached to every request. The
// session owns the token; the client only reads it.
type TokenSource interface {
	Token() string
}

// Error is a non-2xx response carrying the server's message verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// Client talks JSON to the project-management REST backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	logger     *slog.Logger
}

// NewClient constructs a REST client. A nil httpClient gets a sane timeout;
// a nil logger falls back to slog.Default.
func NewClient(baseURL string, tokens TokenSource, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		logger:     logger,
	}
}

// LoginResult is the payload of POST /auth/login.
type LoginResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Login authenticates with email and password. It is the only call issued
// without a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload := map[string]string{"email": email, "password": password}
	var out LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects returns every project visible to the caller.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := c.getCollection(ctx, "/projects", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProjectStatus sets a project's status.
func (c *Client) UpdateProjectStatus(ctx context.Context, projectID int64, status string) error {
	path := fmt.Sprintf("/projects/%d", projectID)
	return c.doJSON(ctx, http.MethodPatch, path, map[string]string{"status": status}, nil)
}

// ListMembers returns a project's members.
func (c *Client) ListMembers(ctx context.Context, projectID int64) ([]models.Member, error) {
	var out []models.Member
	path := fmt.Sprintf("/projects/%d/members", projectID)
	if err := c.getCollection(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InviteMember adds a user to a project by email.
func (c *Client) InviteMember(ctx context.Context, projectID int64, email string) error {
	path := fmt.Sprintf("/projects/%d/members", projectID)
	return c.doJSON(ctx, http.MethodPost, path, map[string]string{"email": email}, nil)
}

// RemoveMember removes a user from a project.
func (c *Client) RemoveMember(ctx context.Context, projectID, userID int64) error {
	path := fmt.Sprintf("/projects/%d/members/%d", projectID, userID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// TaskFilters narrows ListTasks; empty fields are omitted from the query.
type TaskFilters struct {
	Priority string
	Status   string
}

// TaskPayload is the body for task create and update calls. AssigneeID is a
// pointer so "unassigned" is sent as JSON null, never as an empty string.
type TaskPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    string     `json:"priority"`
	AssigneeID  *int64     `json:"assignee_id"`
	ParentID    *int64     `json:"parent_id,omitempty"`
}

// ListTasks returns the project's root tasks with server-provided nesting.
func (c *Client) ListTasks(ctx context.Context, projectID int64, filters TaskFilters) ([]models.Task, error) {
	query := url.Values{}
	if filters.Priority != "" {
		query.Set("priority", filters.Priority)
	}
	if filters.Status != "" {
		query.Set("status", filters.Status)
	}
	path := fmt.Sprintf("/projects/%d/tasks", projectID)
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out []models.Task
	if err := c.getCollection(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTask creates a task; a non-nil ParentID in the payload nests it.
func (c *Client) CreateTask(ctx context.Context, projectID int64, payload TaskPayload) (*models.Task, error) {
	var out models.Task
	path := fmt.Sprintf("/projects/%d/tasks", projectID)
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask patches a task's fields.
func (c *Client) UpdateTask(ctx context.Context, projectID, taskID int64, payload TaskPayload) (*models.Task, error) {
	var out models.Task
	path := fmt.Sprintf("/projects/%d/tasks/%d", projectID, taskID)
	if err := c.doJSON(ctx, http.MethodPatch, path, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTaskStatus patches only the status field.
func (c *Client) UpdateTaskStatus(ctx context.Context, projectID, taskID int64, status string) (*models.Task, error) {
	var out models.Task
	path := fmt.Sprintf("/projects/%d/tasks/%d", projectID, taskID)
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]string{"status": status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTask deletes a task; the server cascades to descendants.
func (c *Client) DeleteTask(ctx context.Context, projectID, taskID int64) error {
	path := fmt.Sprintf("/projects/%d/tasks/%d", projectID, taskID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// ListComments returns a task's comment log, oldest first.
func (c *Client) ListComments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	var out []models.Comment
	path := fmt.Sprintf("/tasks/%d/comments", taskID)
	if err := c.getCollection(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PostComment creates a comment via multipart form. content may be empty
// when a file is attached; parentID marks the comment as a reply.
func (c *Client) PostComment(ctx context.Context, taskID int64, content string, parentID *int64, file *Upload) (*models.Comment, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("content", content); err != nil {
		return nil, fmt.Errorf("build comment form: %w", err)
	}
	if parentID != nil {
		if err := writer.WriteField("parentId", strconv.FormatInt(*parentID, 10)); err != nil {
			return nil, fmt.Errorf("build comment form: %w", err)
		}
	}
	if file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename=%q`, file.FileName))
		header.Set("Content-Type", file.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("build comment form: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, fmt.Errorf("build comment form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build comment form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/tasks/%d/comments", c.baseURL, taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		c.logger.Warn("comment post rejected", "task_id", taskID, "error", err)
		return nil, err
	}

	var out models.Comment
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode comment response: %w", err)
	}
	return &out, nil
}

// DeleteComment soft-deletes a comment.
func (c *Client) DeleteComment(ctx context.Context, taskID, commentID int64) error {
	path := fmt.Sprintf("/tasks/%d/comments/%d", taskID, commentID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// ListNotifications returns the caller's notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	if err := c.getCollection(ctx, "/notifications", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/notifications/%d/read", id), nil, nil)
}

// MarkAllNotificationsRead marks everything read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPatch, "/notifications/read-all", nil, nil)
}

// DeleteNotification removes a notification.
func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/notifications/%d", id), nil, nil)
}

// doJSON issues a request with an optional JSON body and decodes the
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		c.logger.Warn("request failed", "method", method, "path", path, "error", err)
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// getCollection fetches a JSON array. A payload that is not the expected
// shape degrades to an empty collection instead of failing the caller.
func (c *Client) getCollection(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		c.logger.Warn("request failed", "method", http.MethodGet, "path", path, "error", err)
		return err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("unexpected response shape, treating as empty", "path", path, "error", err)
		return nil
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// checkStatus converts a non-2xx response into *Error, using the server's
// {message} body when present.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &Error{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Message = strings.TrimSpace(body.Message)
	}
	return apiErr
}
