package models

import "time"

// Task status values as the server sends them.
const (
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusReview     = "REVIEW"
	StatusDone       = "DONE"
)

// Task priority values.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// User roles.
const (
	RoleAdmin  = "ADMIN"
	RolePM     = "PM"
	RoleMember = "MEMBER"
)

// Project status values.
const (
	ProjectInProgress = "IN_PROGRESS"
	ProjectCompleted  = "COMPLETED"
)

// Notification types.
const (
	NotificationAssign  = "ASSIGN"
	NotificationOverdue = "OVERDUE"
)

// Statuses lists the task statuses in display order.
var Statuses = []string{StatusTodo, StatusInProgress, StatusReview, StatusDone}

// Priorities lists the task priorities in display order.
var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// User is an authenticated account
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Project represents one project the user belongs to
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"` // IN_PROGRESS or COMPLETED
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Member is a user within a project
type Member struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsManager bool   `json:"is_manager"`
}

// Task is one node of a project's task forest. SubTasks carry the
// server-provided nesting; ParentID is nil for root tasks.
type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeID  *int64     `json:"assignee_id"`
	ParentID    *int64     `json:"parent_id"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	SubTasks    []Task     `json:"subTasks"`
}

// Comment is one entry of a task's discussion thread. Replies carry a
// snapshot of the parent comment captured at reply time, so a quote renders
// without a lookup; the snapshot only changes through an explicit local
// patch when the parent is soft-deleted.
type Comment struct {
	ID              int64     `json:"id"`
	TaskID          int64     `json:"task_id"`
	UserID          int64     `json:"user_id"`
	Username        string    `json:"username"`
	Content         string    `json:"content"`
	ImageURL        string    `json:"image_url,omitempty"`
	ParentID        *int64    `json:"parent_id"`
	ParentUsername  string    `json:"parent_username,omitempty"`
	ParentContent   string    `json:"parent_content,omitempty"`
	ParentIsDeleted bool      `json:"parent_is_deleted"`
	IsDeleted       bool      `json:"is_deleted"`
	CreatedAt       time.Time `json:"created_at"`
}

// Notification is a server-generated alert
type Notification struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
