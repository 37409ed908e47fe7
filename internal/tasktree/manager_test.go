package tasktree

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hqvu/teamtask/internal/api"
	"github.com/hqvu/teamtask/internal/models"
	"github.com/hqvu/teamtask/internal/session"
)

type fakeAPI struct {
	listCalls   int
	listTasks   []models.Task
	listErr     error
	lastFilters api.TaskFilters

	createCalls   int
	createPayload api.TaskPayload
	createErr     error

	updateCalls   int
	updatePayload api.TaskPayload

	statusCalls int
	lastStatus  string

	deleteCalls int
	deletedID   int64
}

func (f *fakeAPI) ListTasks(ctx context.Context, projectID int64, filters api.TaskFilters) ([]models.Task, error) {
	f.listCalls++
	f.lastFilters = filters
	return f.listTasks, f.listErr
}

func (f *fakeAPI) CreateTask(ctx context.Context, projectID int64, payload api.TaskPayload) (*models.Task, error) {
	f.createCalls++
	f.createPayload = payload
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Task{ID: 100, Title: payload.Title}, nil
}

func (f *fakeAPI) UpdateTask(ctx context.Context, projectID, taskID int64, payload api.TaskPayload) (*models.Task, error) {
	f.updateCalls++
	f.updatePayload = payload
	return &models.Task{ID: taskID}, nil
}

func (f *fakeAPI) UpdateTaskStatus(ctx context.Context, projectID, taskID int64, status string) (*models.Task, error) {
	f.statusCalls++
	f.lastStatus = status
	return &models.Task{ID: taskID, Status: status}, nil
}

func (f *fakeAPI) DeleteTask(ctx context.Context, projectID, taskID int64) error {
	f.deleteCalls++
	f.deletedID = taskID
	return nil
}

type memSnapshot struct {
	tasks map[int64][]models.Task
	saves int
}

func (m *memSnapshot) SaveTasks(projectID int64, tasks []models.Task) error {
	if m.tasks == nil {
		m.tasks = map[int64][]models.Task{}
	}
	m.tasks[projectID] = tasks
	m.saves++
	return nil
}

func (m *memSnapshot) LoadTasks(projectID int64) ([]models.Task, bool, error) {
	tasks, ok := m.tasks[projectID]
	return tasks, ok, nil
}

func managerSession(role string, userID int64) *session.Session {
	return session.New(models.User{ID: userID, Role: role}, "tok")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadReplacesForest(t *testing.T) {
	fake := &fakeAPI{listTasks: []models.Task{task(1, nil, task(2, ptr(1)))}}
	m := NewManager(fake, managerSession(models.RoleAdmin, 1), 7, nil, discardLogger())

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !m.Loaded() {
		t.Fatal("Loaded() = false after successful load")
	}
	if Count(m.Tasks()) != 2 {
		t.Fatalf("count = %d, want 2", Count(m.Tasks()))
	}

	fake.listTasks = []models.Task{task(9, nil)}
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := m.Tasks(); len(got) != 1 || got[0].ID != 9 {
		t.Fatalf("forest not replaced, got %+v", got)
	}
}

func TestLoadFailureKeepsPreviousForest(t *testing.T) {
	fake := &fakeAPI{listTasks: []models.Task{task(1, nil)}}
	m := NewManager(fake, managerSession(models.RoleAdmin, 1), 7, nil, discardLogger())

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	fake.listErr = errors.New("boom")
	if err := m.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := m.Tasks(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("previous forest lost after failed load: %+v", got)
	}
}

func TestLoadRejectsMalformedForest(t *testing.T) {
	fake := &fakeAPI{listTasks: []models.Task{task(1, nil)}}
	m := NewManager(fake, managerSession(models.RoleAdmin, 1), 7, nil, discardLogger())

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	// Duplicate ids make the payload untrustworthy.
	fake.listTasks = []models.Task{task(2, nil), task(2, nil)}
	err := m.Load(context.Background())
	if !errors.Is(err, ErrMalformedTree) {
		t.Fatalf("error = %v, want ErrMalformedTree", err)
	}
	if got := m.Tasks(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("previous forest lost after malformed payload: %+v", got)
	}
}

func TestCreateSetsParentAndReloads(t *testing.T) {
	fake := &fakeAPI{listTasks: []models.Task{task(1, nil)}}
	m := NewManager(fake, managerSession(models.RolePM, 1), 7, nil, discardLogger())

	err := m.Create(context.Background(), ptr(1), api.TaskPayload{Title: "child"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if fake.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", fake.createCalls)
	}
	if fake.createPayload.ParentID == nil || *fake.createPayload.ParentID != 1 {
		t.Fatalf("parent id = %v, want 1", fake.createPayload.ParentID)
	}
	if fake.listCalls != 1 {
		t.Fatalf("list calls = %d, want 1 (reload after mutation)", fake.listCalls)
	}
}

func TestCreateRequiresManagerRole(t *testing.T) {
	fake := &fakeAPI{}
	m := NewManager(fake, managerSession(models.RoleMember, 1), 7, nil, discardLogger())

	err := m.Create(context.Background(), nil, api.TaskPayload{Title: "nope"})
	if !errors.Is(err, ErrNotManager) {
		t.Fatalf("error = %v, want ErrNotManager", err)
	}
	if fake.createCalls != 0 {
		t.Fatal("request issued despite failed role check")
	}
}

func TestUpdateReloads(t *testing.T) {
	fake := &fakeAPI{listTasks: []models.Task{task(1, nil)}}
	m := NewManager(fake, managerSession(models.RoleAdmin, 1), 7, nil, discardLogger())

	if err := m.Update(context.Background(), 1, api.TaskPayload{Title: "renamed"}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if fake.updateCalls != 1 || fake.listCalls != 1 {
		t.Fatalf("update=%d list=%d, want 1 and 1", fake.updateCalls, fake.listCalls)
	}
}

func TestSetStatusAllowsAssignee(t *testing.T) {
	assigned := task(1, nil)
	assigned.AssigneeID = ptr(42)
	fake := &fakeAPI{listTasks: []models.Task{assigned}}
	m := NewManager(fake, managerSession(models.RoleMember, 42), 7, nil, discardLogger())

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := m.SetStatus(context.Background(), 1, models.StatusDone); err != nil {
		t.Fatalf("SetStatus returned error: %v", err)
	}
	if fake.lastStatus != models.StatusDone {
		t.Fatalf("status sent = %q, want DONE", fake.lastStatus)
	}
	if fake.listCalls != 2 {
		t.Fatalf("list calls = %d, want 2 (reload after mutation)", fake.listCalls)
	}
}

func TestSetStatusRejectsNonAssignee(t *testing.T) {
	assigned := task(1, nil)
	assigned.AssigneeID = ptr(42)
	fake := &fakeAPI{listTasks: []models.Task{assigned}}
	m := NewManager(fake, managerSession(models.RoleMember, 7), 7, nil, discardLogger())

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := m.SetStatus(context.Background(), 1, models.StatusDone); !errors.Is(err, ErrNotAssignee) {
		t.Fatalf("error = %v, want ErrNotAssignee", err)
	}
	if fake.statusCalls != 0 {
		t.Fatal("request issued despite failed role check")
	}
}

func TestSetStatusUnknownTask(t *testing.T) {
	fake := &fakeAPI{}
	m := NewManager(fake, managerSession(models.RoleAdmin, 1), 7, nil, discardLogger())

	if err := m.SetStatus(context.Background(), 99, models.StatusDone); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("error = %v, want ErrUnknownTask", err)
	}
}

func TestDeleteReloads(t *testing.T) {
	fake := &fakeAPI{listTasks: []models.Task{task(1, nil)}}
	m := NewManager(fake, managerSession(models.RoleAdmin, 1), 7, nil, discardLogger())

	if err := m.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if fake.deleteCalls != 1 || fake.deletedID != 1 {
		t.Fatalf("delete calls = %d id = %d", fake.deleteCalls, fake.deletedID)
	}
	if fake.listCalls != 1 {
		t.Fatalf("list calls = %d, want 1 (reload after mutation)", fake.listCalls)
	}
}

func TestSeedUsesSnapshotUntilFirstLoad(t *testing.T) {
	snap := &memSnapshot{}
	snap.SaveTasks(7, []models.Task{task(1, nil)})

	fake := &fakeAPI{listTasks: []models.Task{task(2, nil)}}
	m := NewManager(fake, managerSession(models.RoleAdmin, 1), 7, snap, discardLogger())

	m.Seed()
	if got := m.Tasks(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("seeded forest = %+v", got)
	}
	if m.Loaded() {
		t.Fatal("Loaded() = true after seed; cache is display-only")
	}

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := m.Tasks(); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("live forest = %+v, want task 2", got)
	}

	// A successful load refreshes the snapshot.
	if snap.saves != 2 {
		t.Fatalf("snapshot saves = %d, want 2", snap.saves)
	}
}

func TestLoadAppliesFilters(t *testing.T) {
	fake := &fakeAPI{}
	m := NewManager(fake, managerSession(models.RoleAdmin, 1), 7, nil, discardLogger())

	m.SetFilters(api.TaskFilters{Status: models.StatusTodo, Priority: models.PriorityHigh})
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if fake.lastFilters.Status != models.StatusTodo || fake.lastFilters.Priority != models.PriorityHigh {
		t.Fatalf("filters sent = %+v", fake.lastFilters)
	}
}

func TestParseAssignee(t *testing.T) {
	if got, err := ParseAssignee(""); err != nil || got != nil {
		t.Fatalf("ParseAssignee(\"\") = %v, %v; want nil, nil", got, err)
	}
	if got, err := ParseAssignee("  "); err != nil || got != nil {
		t.Fatalf("ParseAssignee(blank) = %v, %v; want nil, nil", got, err)
	}
	got, err := ParseAssignee("42")
	if err != nil || got == nil || *got != 42 {
		t.Fatalf("ParseAssignee(42) = %v, %v", got, err)
	}
	if _, err := ParseAssignee("bob"); err == nil {
		t.Fatal("ParseAssignee(bob) should fail")
	}
}
