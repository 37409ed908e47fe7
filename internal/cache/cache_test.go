package cache

import (
	"path/filepath"
	"testing"

	"github.com/hqvu/teamtask/internal/models"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSettingsRoundTrip(t *testing.T) {
	c := openTestCache(t)

	got, err := c.GetSetting("last_project_id")
	if err != nil {
		t.Fatalf("GetSetting returned error: %v", err)
	}
	if got != "" {
		t.Fatalf("missing setting = %q, want empty", got)
	}

	if err := c.SetSetting("last_project_id", "7"); err != nil {
		t.Fatalf("SetSetting returned error: %v", err)
	}
	if got, _ := c.GetSetting("last_project_id"); got != "7" {
		t.Fatalf("setting = %q, want 7", got)
	}

	// Upsert replaces the previous value.
	if err := c.SetSetting("last_project_id", "9"); err != nil {
		t.Fatalf("SetSetting returned error: %v", err)
	}
	if got, _ := c.GetSetting("last_project_id"); got != "9" {
		t.Fatalf("setting = %q, want 9", got)
	}
}

func TestTaskSnapshotRoundTrip(t *testing.T) {
	c := openTestCache(t)

	parent := int64(1)
	forest := []models.Task{
		{ID: 1, Title: "root", SubTasks: []models.Task{
			{ID: 2, Title: "child", ParentID: &parent},
		}},
	}

	if err := c.SaveTasks(7, forest); err != nil {
		t.Fatalf("SaveTasks returned error: %v", err)
	}

	got, ok, err := c.LoadTasks(7)
	if err != nil {
		t.Fatalf("LoadTasks returned error: %v", err)
	}
	if !ok {
		t.Fatal("snapshot not found after save")
	}
	if len(got) != 1 || got[0].ID != 1 || len(got[0].SubTasks) != 1 {
		t.Fatalf("snapshot = %+v", got)
	}
	if got[0].SubTasks[0].ParentID == nil || *got[0].SubTasks[0].ParentID != 1 {
		t.Fatalf("child parent id lost: %+v", got[0].SubTasks[0])
	}
}

func TestLoadTasksMissingProject(t *testing.T) {
	c := openTestCache(t)

	got, ok, err := c.LoadTasks(42)
	if err != nil {
		t.Fatalf("LoadTasks returned error: %v", err)
	}
	if ok || got != nil {
		t.Fatalf("got %v (ok=%v), want no snapshot", got, ok)
	}
}

func TestSaveTasksReplacesSnapshot(t *testing.T) {
	c := openTestCache(t)

	if err := c.SaveTasks(7, []models.Task{{ID: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveTasks(7, []models.Task{{ID: 2}}); err != nil {
		t.Fatal(err)
	}

	got, ok, _ := c.LoadTasks(7)
	if !ok || len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("snapshot = %+v, want only task 2", got)
	}
}
