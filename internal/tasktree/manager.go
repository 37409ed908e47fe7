// Package tasktree maintains the server-sourced task forest for one
// project. Every mutation goes to the server and the whole forest is
// refetched; the client never patches the tree in place, so local state can
// not drift from the server's.
package tasktree

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/hqvu/teamtask/internal/api"
	"github.com/hqvu/teamtask/internal/models"
	"github.com/hqvu/teamtask/internal/session"
)

// API is the slice of the REST client the manager needs.
type API interface {
	ListTasks(ctx context.Context, projectID int64, filters api.TaskFilters) ([]models.Task, error)
	CreateTask(ctx context.Context, projectID int64, payload api.TaskPayload) (*models.Task, error)
	UpdateTask(ctx context.Context, projectID, taskID int64, payload api.TaskPayload) (*models.Task, error)
	UpdateTaskStatus(ctx context.Context, projectID, taskID int64, status string) (*models.Task, error)
	DeleteTask(ctx context.Context, projectID, taskID int64) error
}

// Snapshot persists the last successfully loaded forest so the next run
// can render something before its first fetch completes.
type Snapshot interface {
	SaveTasks(projectID int64, tasks []models.Task) error
	LoadTasks(projectID int64) ([]models.Task, bool, error)
}

var (
	// ErrNotManager is returned when a non-ADMIN/PM user tries a full
	// edit, create, or delete.
	ErrNotManager = errors.New("only an admin or project manager can do that")

	// ErrNotAssignee is returned when a user who is neither a manager nor
	// the task's assignee tries to change its status.
	ErrNotAssignee = errors.New("you are not assigned to this task")

	// ErrUnknownTask is returned for operations on an id that is not in
	// the loaded forest.
	ErrUnknownTask = errors.New("unknown task")
)

// Manager holds the authoritative task forest for one project.
type Manager struct {
	api     API
	session *session.Session
	snap    Snapshot
	logger  *slog.Logger

	projectID int64

	mu      sync.Mutex
	filters api.TaskFilters
	tasks   []models.Task
	loaded  bool
}

// NewManager creates a manager for one project. snap may be nil.
func NewManager(a API, sess *session.Session, projectID int64, snap Snapshot, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		api:       a,
		session:   sess,
		snap:      snap,
		projectID: projectID,
		logger:    logger,
	}
}

// Seed fills the forest from the snapshot cache, if the cache has one and
// no live load has happened yet. Cached data is display-only until the
// first Load replaces it.
func (m *Manager) Seed() {
	if m.snap == nil {
		return
	}
	tasks, ok, err := m.snap.LoadTasks(m.projectID)
	if err != nil {
		m.logger.Warn("task snapshot unavailable", "project_id", m.projectID, "error", err)
		return
	}
	if !ok {
		return
	}
	m.mu.Lock()
	if !m.loaded && m.tasks == nil {
		m.tasks = tasks
	}
	m.mu.Unlock()
}

// Load replaces the entire forest with the server's response for the
// current filters. On any failure, including a malformed tree, the
// previous forest is kept.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	filters := m.filters
	m.mu.Unlock()

	fetched, err := m.api.ListTasks(ctx, m.projectID, filters)
	if err != nil {
		return err
	}
	normalized, err := Normalize(fetched)
	if err != nil {
		m.logger.Error("rejecting task payload", "project_id", m.projectID, "error", err)
		return err
	}

	m.mu.Lock()
	m.tasks = normalized
	m.loaded = true
	m.mu.Unlock()

	if m.snap != nil {
		if err := m.snap.SaveTasks(m.projectID, normalized); err != nil {
			m.logger.Warn("task snapshot not saved", "project_id", m.projectID, "error", err)
		}
	}
	return nil
}

// Tasks returns the current forest. Callers treat it as read-only.
func (m *Manager) Tasks() []models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks
}

// Loaded reports whether a live server load has completed.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// SetFilters changes the filter combination used by the next Load.
func (m *Manager) SetFilters(filters api.TaskFilters) {
	m.mu.Lock()
	m.filters = filters
	m.mu.Unlock()
}

// Filters returns the active filter combination.
func (m *Manager) Filters() api.TaskFilters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filters
}

// Find returns the task with the given id from the loaded forest, or nil.
func (m *Manager) Find(taskID int64) *models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Find(m.tasks, taskID)
}

// Create posts a new task (a child when parentID is non-nil) and reloads.
func (m *Manager) Create(ctx context.Context, parentID *int64, payload api.TaskPayload) error {
	if !m.session.CanManageTasks() {
		return ErrNotManager
	}
	payload.ParentID = parentID
	if _, err := m.api.CreateTask(ctx, m.projectID, payload); err != nil {
		return err
	}
	return m.Load(ctx)
}

// Update patches a task's fields and reloads.
func (m *Manager) Update(ctx context.Context, taskID int64, payload api.TaskPayload) error {
	if !m.session.CanManageTasks() {
		return ErrNotManager
	}
	if _, err := m.api.UpdateTask(ctx, m.projectID, taskID, payload); err != nil {
		return err
	}
	return m.Load(ctx)
}

// SetStatus patches only the status and reloads. Status changes have their
// own rule: the task's assignee may move their own task. Two users racing
// on the same task resolve last-write-wins on the server; the client does
// not detect the race.
func (m *Manager) SetStatus(ctx context.Context, taskID int64, status string) error {
	task := m.Find(taskID)
	if task == nil {
		return ErrUnknownTask
	}
	if !m.session.CanSetStatus(*task) {
		return ErrNotAssignee
	}
	if _, err := m.api.UpdateTaskStatus(ctx, m.projectID, taskID, status); err != nil {
		return err
	}
	return m.Load(ctx)
}

// Delete removes a task; the server cascades to descendants and the reload
// reflects the cascade.
func (m *Manager) Delete(ctx context.Context, taskID int64) error {
	if !m.session.CanManageTasks() {
		return ErrNotManager
	}
	if err := m.api.DeleteTask(ctx, m.projectID, taskID); err != nil {
		return err
	}
	return m.Load(ctx)
}

// ParseAssignee converts a form input into an assignee reference. Empty
// input means unassigned and becomes nil, never an empty value on the wire.
func ParseAssignee(input string) (*int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(input, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
