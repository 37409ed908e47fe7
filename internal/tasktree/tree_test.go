package tasktree

import (
	"errors"
	"testing"

	"github.com/hqvu/teamtask/internal/models"
)

func ptr(id int64) *int64 { return &id }

func task(id int64, parentID *int64, subs ...models.Task) models.Task {
	return models.Task{ID: id, ParentID: parentID, SubTasks: subs}
}

func TestNormalizeKeepsWellFormedForest(t *testing.T) {
	forest := []models.Task{
		task(1, nil,
			task(2, ptr(1)),
			task(3, ptr(1),
				task(4, ptr(3)),
			),
		),
		task(5, nil),
	}

	got, err := Normalize(forest)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d roots, want 2", len(got))
	}
	if Count(got) != 5 {
		t.Fatalf("count = %d, want 5", Count(got))
	}
	if got[0].SubTasks[1].SubTasks[0].ID != 4 {
		t.Fatalf("task 4 not under task 3: %+v", got[0])
	}
}

func TestNormalizeRejectsDuplicateIDs(t *testing.T) {
	forest := []models.Task{
		task(1, nil, task(2, ptr(1))),
		task(2, nil),
	}

	if _, err := Normalize(forest); !errors.Is(err, ErrMalformedTree) {
		t.Fatalf("error = %v, want ErrMalformedTree", err)
	}
}

func TestNormalizeRejectsNestingParentMismatch(t *testing.T) {
	// Task 3 is nested under 1 but claims 2 as its parent.
	forest := []models.Task{
		task(1, nil, task(3, ptr(2))),
		task(2, nil),
	}

	if _, err := Normalize(forest); !errors.Is(err, ErrMalformedTree) {
		t.Fatalf("error = %v, want ErrMalformedTree", err)
	}
}

func TestNormalizeRejectsRootWithParentPointer(t *testing.T) {
	forest := []models.Task{
		task(1, nil),
		task(2, ptr(1)), // sent at root level but claims a parent
	}

	if _, err := Normalize(forest); !errors.Is(err, ErrMalformedTree) {
		t.Fatalf("error = %v, want ErrMalformedTree", err)
	}
}

func TestNormalizeEmptyForest(t *testing.T) {
	got, err := Normalize(nil)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d roots, want 0", len(got))
	}
}

func TestWalkReportsDepths(t *testing.T) {
	forest := []models.Task{
		task(1, nil,
			task(2, ptr(1),
				task(3, ptr(2)),
			),
		),
	}

	depths := map[int64]int{}
	Walk(forest, func(tk models.Task, depth int) {
		depths[tk.ID] = depth
	})

	want := map[int64]int{1: 0, 2: 1, 3: 2}
	for id, depth := range want {
		if depths[id] != depth {
			t.Fatalf("depth of %d = %d, want %d", id, depths[id], depth)
		}
	}
}

func TestFindSearchesAllDepths(t *testing.T) {
	forest := []models.Task{
		task(1, nil, task(2, ptr(1), task(3, ptr(2)))),
	}

	if found := Find(forest, 3); found == nil || found.ID != 3 {
		t.Fatalf("Find(3) = %v", found)
	}
	if found := Find(forest, 42); found != nil {
		t.Fatalf("Find(42) = %v, want nil", found)
	}
}
