// Package session holds the authenticated user and bearer token for one
// run of the client. It is passed explicitly to everything that needs it;
// there is no ambient global.
package session

import (
	"sync"

	"github.com/hqvu/teamtask/internal/models"
)

// Session is the current login. The zero value is an unauthenticated
// session; SetLogin is called once after a successful login.
type Session struct {
	mu    sync.RWMutex
	user  models.User
	token string
}

// New returns a session pre-populated with a user and token. Mostly useful
// for tests; the app starts with an empty session and logs in.
func New(user models.User, token string) *Session {
	return &Session{user: user, token: token}
}

// SetLogin stores the authenticated user and token.
func (s *Session) SetLogin(user models.User, token string) {
	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()
}

// Token returns the bearer token, empty before login. Implements
// api.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the logged-in user.
func (s *Session) User() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether a login happened.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// CanManageTasks reports whether the user may create, edit, or delete
// tasks. These checks are UX convenience; the server is the authority.
func (s *Session) CanManageTasks() bool {
	role := s.User().Role
	return role == models.RoleAdmin || role == models.RolePM
}

// CanSetStatus reports whether the user may change a task's status:
// managers always, otherwise only the task's assignee. A task with no
// assignee can only be moved by a manager.
func (s *Session) CanSetStatus(task models.Task) bool {
	if s.CanManageTasks() {
		return true
	}
	return task.AssigneeID != nil && *task.AssigneeID == s.User().ID
}

// CanManageProject reports whether the user may change project status or
// membership: admins always, PMs only for projects they created.
func (s *Session) CanManageProject(project models.Project) bool {
	user := s.User()
	if user.Role == models.RoleAdmin {
		return true
	}
	return user.Role == models.RolePM && project.CreatedBy == user.ID
}

// CanDeleteComment reports whether the user may delete a comment: the
// author or an admin.
func (s *Session) CanDeleteComment(comment models.Comment) bool {
	user := s.User()
	return user.Role == models.RoleAdmin || comment.UserID == user.ID
}
