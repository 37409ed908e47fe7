package comments

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/hqvu/teamtask/internal/api"
	"github.com/hqvu/teamtask/internal/models"
	"github.com/hqvu/teamtask/internal/session"
)

type fakeAPI struct {
	mu sync.Mutex

	listComments []models.Comment
	listErr      error

	postCalls   int
	postErr     error
	postCreated models.Comment
	postStarted chan struct{}
	postRelease chan struct{}

	deleteCalls int
	deleteErr   error
}

func (f *fakeAPI) ListComments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	return f.listComments, f.listErr
}

func (f *fakeAPI) PostComment(ctx context.Context, taskID int64, content string, parentID *int64, file *api.Upload) (*models.Comment, error) {
	f.mu.Lock()
	f.postCalls++
	f.mu.Unlock()

	if f.postStarted != nil {
		f.postStarted <- struct{}{}
	}
	if f.postRelease != nil {
		<-f.postRelease
	}
	if f.postErr != nil {
		return nil, f.postErr
	}
	created := f.postCreated
	created.Content = content
	created.ParentID = parentID
	return &created, nil
}

func (f *fakeAPI) DeleteComment(ctx context.Context, taskID, commentID int64) error {
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeAPI) posts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.postCalls
}

func ptr(id int64) *int64 { return &id }

func testStore(fake *fakeAPI) *Store {
	sess := session.New(models.User{ID: 1, Username: "ana", Role: models.RoleMember}, "tok")
	return NewStore(fake, sess, 8, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoadReplacesThread(t *testing.T) {
	fake := &fakeAPI{listComments: []models.Comment{
		{ID: 1, Content: "first"},
		{ID: 2, Content: "second"},
	}}
	s := testStore(fake)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := s.Comments(); len(got) != 2 || got[0].ID != 1 {
		t.Fatalf("thread = %+v", got)
	}
}

func TestPostAppendsCreatedComment(t *testing.T) {
	fake := &fakeAPI{postCreated: models.Comment{ID: 10, Username: "ana"}}
	s := testStore(fake)

	created, err := s.Post(context.Background(), "  hello there  ", nil, nil)
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if created.Content != "hello there" {
		t.Fatalf("content = %q, want trimmed text", created.Content)
	}
	if got := s.Comments(); len(got) != 1 || got[0].ID != 10 {
		t.Fatalf("thread = %+v", got)
	}
}

func TestPostEmptyComment(t *testing.T) {
	fake := &fakeAPI{}
	s := testStore(fake)

	if _, err := s.Post(context.Background(), "   ", nil, nil); !errors.Is(err, ErrEmptyComment) {
		t.Fatalf("error = %v, want ErrEmptyComment", err)
	}
	if fake.posts() != 0 {
		t.Fatal("request issued for an empty comment")
	}
}

func TestPostAttachmentOnlyIsAllowed(t *testing.T) {
	fake := &fakeAPI{postCreated: models.Comment{ID: 10}}
	s := testStore(fake)

	upload := &api.Upload{FileName: "shot.png", ContentType: "image/png", Data: []byte{1}}
	if _, err := s.Post(context.Background(), "", nil, upload); err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
}

func TestPostRejectsNonImageAttachment(t *testing.T) {
	fake := &fakeAPI{}
	s := testStore(fake)

	upload := &api.Upload{FileName: "notes.txt", ContentType: "text/plain", Data: []byte{1}}
	if _, err := s.Post(context.Background(), "hi", nil, upload); !errors.Is(err, api.ErrNotImage) {
		t.Fatalf("error = %v, want ErrNotImage", err)
	}
	if fake.posts() != 0 {
		t.Fatal("request issued for a non-image attachment")
	}
}

func TestReplyCopiesParentSnapshot(t *testing.T) {
	fake := &fakeAPI{
		listComments: []models.Comment{{ID: 1, Username: "bob", Content: "original text"}},
		postCreated:  models.Comment{ID: 2, Username: "ana"},
	}
	s := testStore(fake)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	created, err := s.Post(context.Background(), "replying", ptr(1), nil)
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if created.ParentUsername != "bob" || created.ParentContent != "original text" {
		t.Fatalf("snapshot = %q/%q, want copied from parent", created.ParentUsername, created.ParentContent)
	}
	if created.ParentIsDeleted {
		t.Fatal("reply to a live parent marked deleted")
	}
}

func TestReplyToDeletedParentQuotesPlaceholder(t *testing.T) {
	fake := &fakeAPI{
		listComments: []models.Comment{{ID: 1, Username: "bob", IsDeleted: true}},
		postCreated:  models.Comment{ID: 2, Username: "ana"},
	}
	s := testStore(fake)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	created, err := s.Post(context.Background(), "late reply", ptr(1), nil)
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if created.ParentContent != DeletedPlaceholder || !created.ParentIsDeleted {
		t.Fatalf("snapshot = %+v, want deleted placeholder", created)
	}
}

func TestPostInFlightGuard(t *testing.T) {
	fake := &fakeAPI{
		postCreated: models.Comment{ID: 10},
		postStarted: make(chan struct{}, 1),
		postRelease: make(chan struct{}),
	}
	s := testStore(fake)

	done := make(chan error, 1)
	go func() {
		_, err := s.Post(context.Background(), "slow one", nil, nil)
		done <- err
	}()
	<-fake.postStarted

	// While the first post is on the wire, further submissions fail fast.
	if _, err := s.Post(context.Background(), "impatient", nil, nil); !errors.Is(err, ErrPostInFlight) {
		t.Fatalf("error = %v, want ErrPostInFlight", err)
	}

	close(fake.postRelease)
	if err := <-done; err != nil {
		t.Fatalf("first post returned error: %v", err)
	}

	if fake.posts() != 1 {
		t.Fatalf("post calls = %d, want 1", fake.posts())
	}
	if len(s.Comments()) != 1 {
		t.Fatalf("thread length = %d, want 1", len(s.Comments()))
	}
	if s.Posting() {
		t.Fatal("Posting() = true after completion")
	}
}

func TestPostFailureLeavesThreadUntouched(t *testing.T) {
	fake := &fakeAPI{
		listComments: []models.Comment{{ID: 1, Content: "existing"}},
		postErr:      errors.New("Comment too long"),
	}
	s := testStore(fake)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if _, err := s.Post(context.Background(), "doomed", nil, nil); err == nil {
		t.Fatal("expected error")
	}
	if got := s.Comments(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("thread changed after failed post: %+v", got)
	}
	if s.Posting() {
		t.Fatal("Posting() stuck after failed post")
	}
}

func TestDeletePatchesCommentAndReplies(t *testing.T) {
	fake := &fakeAPI{listComments: []models.Comment{
		{ID: 1, Username: "bob", Content: "parent text", ImageURL: "/up/1.png"},
		{ID: 2, Username: "ana", Content: "reply", ParentID: ptr(1), ParentUsername: "bob", ParentContent: "parent text"},
		{ID: 3, Username: "eve", Content: "unrelated"},
	}}
	s := testStore(fake)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := s.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	got := s.Comments()
	if len(got) != 3 {
		t.Fatalf("thread length = %d, want 3 (soft delete keeps the entry)", len(got))
	}

	target := got[0]
	if !target.IsDeleted || target.Content != "" || target.ImageURL != "" {
		t.Fatalf("deleted comment = %+v, want cleared content", target)
	}

	reply := got[1]
	if !reply.ParentIsDeleted || reply.ParentContent != DeletedPlaceholder {
		t.Fatalf("reply quote = %+v, want placeholder", reply)
	}
	if reply.IsDeleted || reply.Content != "reply" {
		t.Fatalf("reply itself changed: %+v", reply)
	}

	if got[2].Content != "unrelated" {
		t.Fatalf("unrelated comment changed: %+v", got[2])
	}
}

func TestDeleteUnknownComment(t *testing.T) {
	fake := &fakeAPI{}
	s := testStore(fake)

	if err := s.Delete(context.Background(), 99); !errors.Is(err, ErrUnknownComment) {
		t.Fatalf("error = %v, want ErrUnknownComment", err)
	}
	if fake.deleteCalls != 0 {
		t.Fatal("request issued for unknown comment")
	}
}

func TestDeleteFailureLeavesThreadUntouched(t *testing.T) {
	fake := &fakeAPI{
		listComments: []models.Comment{{ID: 1, Content: "text"}},
		deleteErr:    errors.New("forbidden"),
	}
	s := testStore(fake)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := s.Delete(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
	if got := s.Comments(); got[0].IsDeleted || got[0].Content != "text" {
		t.Fatalf("thread changed after failed delete: %+v", got)
	}
}

func TestMentionCandidates(t *testing.T) {
	members := []models.Member{
		{ID: 1, Username: "Alice"},
		{ID: 2, Username: "albert"},
		{ID: 3, Username: "bob"},
	}

	if got := MentionCandidates("hello @al", members); len(got) != 2 {
		t.Fatalf("got %d candidates, want Alice and albert", len(got))
	}
	if got := MentionCandidates("hello @", members); len(got) != 3 {
		t.Fatalf("bare @ should match everyone, got %d", len(got))
	}
	if got := MentionCandidates("hello @bo ", members); got != nil {
		t.Fatalf("space after prefix should close the popup, got %v", got)
	}
	if got := MentionCandidates("mail me a@b", members); got != nil {
		t.Fatalf("mid-word @ should not trigger, got %v", got)
	}
	if got := MentionCandidates("no mention here", members); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
	if got := MentionCandidates("@BOB", members); len(got) != 1 || got[0].Username != "bob" {
		t.Fatalf("matching should be case-insensitive, got %v", got)
	}
}
