// Package cache is a small local sqlite store: client settings (such as
// the last opened project) and the last task forest fetched per project,
// shown at startup while the first live fetch is in flight. Data only ever
// flows from the server into the cache, never back.
package cache

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hqvu/teamtask/internal/models"
)

//go:embed schema.sql
var schema string

// Cache wraps the sqlite connection
type Cache struct {
	*sql.DB
}

// Open opens (and initializes) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db}, nil
}

// GetSetting retrieves a setting value by key
func (c *Cache) GetSetting(key string) (string, error) {
	var value string
	err := c.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (c *Cache) SetSetting(key, value string) error {
	_, err := c.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// SaveTasks stores the task forest for a project as the latest snapshot.
func (c *Cache) SaveTasks(projectID int64, tasks []models.Task) error {
	payload, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	_, err = c.Exec(`
		INSERT INTO task_snapshots (project_id, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at
	`, projectID, string(payload), time.Now().UTC().Format(time.RFC3339))
	return err
}

// LoadTasks returns the stored snapshot for a project; ok is false when no
// snapshot exists or it no longer parses.
func (c *Cache) LoadTasks(projectID int64) ([]models.Task, bool, error) {
	var payload string
	err := c.QueryRow("SELECT payload FROM task_snapshots WHERE project_id = ?", projectID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var tasks []models.Task
	if err := json.Unmarshal([]byte(payload), &tasks); err != nil {
		return nil, false, nil
	}
	return tasks, true, nil
}
