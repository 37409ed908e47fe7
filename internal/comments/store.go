// Package comments keeps the discussion thread for a single task: an
// ordered, append-only log with soft deletes. Unlike the task forest,
// mutations patch the local list instead of refetching; a reload on every
// post would flicker the thread and drop typed drafts.
package comments

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/hqvu/teamtask/internal/api"
	"github.com/hqvu/teamtask/internal/models"
	"github.com/hqvu/teamtask/internal/session"
)

// DeletedPlaceholder is what a soft-deleted comment shows in place of its
// content, both on the comment itself and inside reply quotes.
const DeletedPlaceholder = "This comment has been deleted"

// API is the slice of the REST client the store needs.
type API interface {
	ListComments(ctx context.Context, taskID int64) ([]models.Comment, error)
	PostComment(ctx context.Context, taskID int64, content string, parentID *int64, file *api.Upload) (*models.Comment, error)
	DeleteComment(ctx context.Context, taskID, commentID int64) error
}

var (
	// ErrPostInFlight is returned while a previous post is still
	// outstanding; the caller keeps its draft and retries later.
	ErrPostInFlight = errors.New("a comment is already being sent")

	// ErrEmptyComment is returned when neither content nor an attachment
	// is provided.
	ErrEmptyComment = errors.New("comment needs text or an attachment")

	// ErrUnknownComment is returned when deleting an id that is not in
	// the loaded thread.
	ErrUnknownComment = errors.New("unknown comment")
)

// Store holds one task's comment thread.
type Store struct {
	api     API
	session *session.Session
	logger  *slog.Logger
	taskID  int64

	mu       sync.Mutex
	comments []models.Comment
	posting  bool
}

// NewStore creates a store for one task's thread.
func NewStore(a API, sess *session.Session, taskID int64, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{api: a, session: sess, taskID: taskID, logger: logger}
}

// Load replaces the thread with the server's response. Called once when
// the thread is opened.
func (s *Store) Load(ctx context.Context) error {
	fetched, err := s.api.ListComments(ctx, s.taskID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.comments = fetched
	s.mu.Unlock()
	return nil
}

// Comments returns the current thread. Callers treat it as read-only.
func (s *Store) Comments() []models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comments
}

// Posting reports whether a post is currently outstanding.
func (s *Store) Posting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posting
}

// Post sends a new comment, optionally as a reply with an image attached.
// At most one post is in flight at a time; extra submissions fail fast with
// ErrPostInFlight so rapid re-clicks cannot double-send. On success the
// created comment is appended locally; a reply gets its quote snapshot
// copied from the in-memory parent, saving a second round trip. On failure
// the thread is untouched and the caller's draft survives for retry.
func (s *Store) Post(ctx context.Context, content string, replyTo *int64, file *api.Upload) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" && file == nil {
		return nil, ErrEmptyComment
	}
	if file != nil && !strings.HasPrefix(file.ContentType, "image/") {
		return nil, api.ErrNotImage
	}

	s.mu.Lock()
	if s.posting {
		s.mu.Unlock()
		return nil, ErrPostInFlight
	}
	s.posting = true
	var parent *models.Comment
	if replyTo != nil {
		if found := s.find(*replyTo); found != nil {
			snapshot := *found
			parent = &snapshot
		}
	}
	s.mu.Unlock()

	created, err := s.api.PostComment(ctx, s.taskID, content, replyTo, file)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posting = false
	if err != nil {
		return nil, err
	}

	appended := *created
	if replyTo != nil && parent != nil {
		// Denormalized quote captured at reply time; a copy, not a live
		// reference. It only changes again through the delete patch.
		appended.ParentID = replyTo
		appended.ParentUsername = parent.Username
		if parent.IsDeleted {
			appended.ParentContent = DeletedPlaceholder
			appended.ParentIsDeleted = true
		} else {
			appended.ParentContent = parent.Content
		}
	}
	s.comments = append(s.comments, appended)
	return &appended, nil
}

// Delete soft-deletes a comment. On success the new thread is produced in
// one pass: the target is marked deleted with its content cleared but kept
// in the list, and every reply quoting it flips to the deleted
// placeholder. No refetch, and no intermediate state where only one side
// of that patch is visible. On failure the thread is unchanged.
func (s *Store) Delete(ctx context.Context, commentID int64) error {
	s.mu.Lock()
	if s.find(commentID) == nil {
		s.mu.Unlock()
		return ErrUnknownComment
	}
	s.mu.Unlock()

	if err := s.api.DeleteComment(ctx, s.taskID, commentID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	patched := make([]models.Comment, len(s.comments))
	for i, c := range s.comments {
		if c.ID == commentID {
			c.IsDeleted = true
			c.Content = ""
			c.ImageURL = ""
		}
		if c.ParentID != nil && *c.ParentID == commentID {
			c.ParentIsDeleted = true
			c.ParentContent = DeletedPlaceholder
		}
		patched[i] = c
	}
	s.comments = patched
	return nil
}

// find returns the comment with the given id; callers hold s.mu.
func (s *Store) find(id int64) *models.Comment {
	for i := range s.comments {
		if s.comments[i].ID == id {
			return &s.comments[i]
		}
	}
	return nil
}

// MentionCandidates filters members against a trailing "@prefix" in the
// draft. Purely local; the mention stays plain text when sent.
func MentionCandidates(draft string, members []models.Member) []models.Member {
	at := strings.LastIndex(draft, "@")
	if at < 0 {
		return nil
	}
	// The "@" must start a word.
	if at > 0 {
		before := draft[at-1]
		if before != ' ' && before != '\n' && before != '\t' {
			return nil
		}
	}
	prefix := strings.ToLower(draft[at+1:])
	if strings.ContainsAny(prefix, " \n\t") {
		return nil
	}

	var matched []models.Member
	for _, m := range members {
		if strings.HasPrefix(strings.ToLower(m.Username), prefix) {
			matched = append(matched, m)
		}
	}
	return matched
}
