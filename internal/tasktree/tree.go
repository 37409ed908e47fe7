package tasktree

import (
	"errors"
	"fmt"

	"github.com/hqvu/teamtask/internal/models"
)

// ErrMalformedTree marks a server response whose nesting cannot be trusted:
// duplicate ids, unknown parents, nesting that disagrees with parent_id, or
// a parent chain that loops. Callers keep their previous forest.
var ErrMalformedTree = errors.New("malformed task tree")

// Normalize validates a server-provided forest and rebuilds it from the
// flattened node list and parent_id pointers. The server is supposed to
// send a strict parent->children forest; this rebuild turns a bad payload
// into an error instead of an unbounded walk.
func Normalize(roots []models.Task) ([]models.Task, error) {
	flat := make([]models.Task, 0, len(roots))
	byID := make(map[int64]int)

	var flatten func(t models.Task, parent *int64) error
	flatten = func(t models.Task, parent *int64) error {
		if _, dup := byID[t.ID]; dup {
			return fmt.Errorf("%w: task %d appears more than once", ErrMalformedTree, t.ID)
		}
		if !sameParent(t.ParentID, parent) {
			return fmt.Errorf("%w: task %d nesting disagrees with parent_id", ErrMalformedTree, t.ID)
		}
		node := t
		node.SubTasks = nil
		byID[t.ID] = len(flat)
		flat = append(flat, node)
		parentID := t.ID
		for _, sub := range t.SubTasks {
			if err := flatten(sub, &parentID); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range roots {
		if err := flatten(root, nil); err != nil {
			return nil, err
		}
	}

	// Every parent chain must terminate at a root without revisiting a node.
	for _, node := range flat {
		seen := map[int64]bool{node.ID: true}
		parent := node.ParentID
		for parent != nil {
			if seen[*parent] {
				return nil, fmt.Errorf("%w: task %d is its own ancestor", ErrMalformedTree, *parent)
			}
			idx, ok := byID[*parent]
			if !ok {
				return nil, fmt.Errorf("%w: task %d references unknown parent %d", ErrMalformedTree, node.ID, *parent)
			}
			seen[*parent] = true
			parent = flat[idx].ParentID
		}
	}

	// Rebuild children from parent_id, preserving encounter order.
	children := make(map[int64][]int64)
	var rootIDs []int64
	for _, node := range flat {
		if node.ParentID == nil {
			rootIDs = append(rootIDs, node.ID)
		} else {
			children[*node.ParentID] = append(children[*node.ParentID], node.ID)
		}
	}

	var build func(id int64) models.Task
	build = func(id int64) models.Task {
		node := flat[byID[id]]
		for _, childID := range children[id] {
			node.SubTasks = append(node.SubTasks, build(childID))
		}
		return node
	}

	rebuilt := make([]models.Task, 0, len(rootIDs))
	for _, id := range rootIDs {
		rebuilt = append(rebuilt, build(id))
	}
	return rebuilt, nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Walk traverses the forest depth-first, calling fn with each task and its
// depth (roots are depth 0).
func Walk(tasks []models.Task, fn func(t models.Task, depth int)) {
	var visit func(t models.Task, depth int)
	visit = func(t models.Task, depth int) {
		fn(t, depth)
		for _, sub := range t.SubTasks {
			visit(sub, depth+1)
		}
	}
	for _, t := range tasks {
		visit(t, 0)
	}
}

// Find returns the task with the given id, or nil.
func Find(tasks []models.Task, id int64) *models.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
		if found := Find(tasks[i].SubTasks, id); found != nil {
			return found
		}
	}
	return nil
}

// Count returns the number of tasks in the forest, all depths included.
func Count(tasks []models.Task) int {
	total := 0
	Walk(tasks, func(models.Task, int) { total++ })
	return total
}
