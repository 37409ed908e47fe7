package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hqvu/teamtask/internal/api"
	"github.com/hqvu/teamtask/internal/models"
	"github.com/hqvu/teamtask/internal/notifications"
	"github.com/hqvu/teamtask/internal/session"
	"github.com/hqvu/teamtask/internal/tasktree"
	"github.com/hqvu/teamtask/internal/ui/keys"
	"github.com/hqvu/teamtask/internal/ui/styles"
)

const dueDateLayout = "2006-01-02"

// BackToProjects signals to go back to the project list
type BackToProjects struct{}

// OpenComments signals that a task's discussion thread should open
type OpenComments struct {
	Task    models.Task
	Members []models.Member
}

// taskRow is one visible line of the rendered forest
type taskRow struct {
	task     models.Task
	depth    int
	children int
}

type tasksReloadedMsg struct {
	err error
}

type taskMutatedMsg struct {
	err error
}

type membersLoadedMsg struct {
	members []models.Member
	err     error
}

type filterKind int

const (
	filterStatus filterKind = iota
	filterPriority
)

// TaskListView shows the task forest for a project
type TaskListView struct {
	manager *tasktree.Manager
	client  *api.Client
	session *session.Session
	notifs  *notifications.Store
	project models.Project
	members []models.Member
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	// UI state
	rows      []taskRow
	cursor    int
	scrollY   int
	collapsed map[int64]bool
	errText   string
	infoText  string

	// Filter popup
	filterOpen   bool
	filterKind   filterKind
	filterCursor int

	// Status picker
	statusPicking bool
	statusCursor  int

	// Task creation/editing
	editing         bool
	editingNew      bool
	editParentID    *int64
	editTaskID      int64
	editTitle       textinput.Model
	editDesc        textarea.Model
	editDue         textinput.Model
	editPriorityIdx int
	editAssignIdx   int // 0 = unassigned, 1..n = members
	editFocusIdx    int // 0=title, 1=desc, 2=due, 3=priority, 4=assignee, 5=save
	saving          bool

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   int64
	deleteTargetName string

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTaskListView creates a task view bound to one project
func NewTaskListView(manager *tasktree.Manager, client *api.Client, sess *session.Session, notifs *notifications.Store, project models.Project) *TaskListView {
	s := styles.NewStyles()

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = 200

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = 1000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editDue := textinput.New()
	editDue.Placeholder = "YYYY-MM-DD"
	editDue.CharLimit = 10

	return &TaskListView{
		manager:   manager,
		client:    client,
		session:   sess,
		notifs:    notifs,
		project:   project,
		styles:    s,
		keys:      keys.DefaultKeyMap(),
		collapsed: map[int64]bool{},
		editTitle: editTitle,
		editDesc:  editDesc,
		editDue:   editDue,
	}
}

// Init seeds from the local snapshot and kicks off the first fetch
func (v *TaskListView) Init() tea.Cmd {
	v.manager.Seed()
	v.rebuildRows()
	return tea.Batch(v.loadTasks, v.loadMembers)
}

func (v *TaskListView) loadTasks() tea.Msg {
	err := v.manager.Load(context.Background())
	return tasksReloadedMsg{err: err}
}

func (v *TaskListView) loadMembers() tea.Msg {
	members, err := v.client.ListMembers(context.Background(), v.project.ID)
	return membersLoadedMsg{members: members, err: err}
}

// rebuildRows flattens the forest into visible lines, skipping the
// children of collapsed tasks.
func (v *TaskListView) rebuildRows() {
	v.rows = v.rows[:0]
	var walk func(tasks []models.Task, depth int)
	walk = func(tasks []models.Task, depth int) {
		for _, t := range tasks {
			v.rows = append(v.rows, taskRow{task: t, depth: depth, children: len(t.SubTasks)})
			if len(t.SubTasks) > 0 && !v.collapsed[t.ID] {
				walk(t.SubTasks, depth+1)
			}
		}
	}
	walk(v.manager.Tasks(), 0)
	if v.cursor >= len(v.rows) {
		v.cursor = max(0, len(v.rows)-1)
	}
}

func (v *TaskListView) currentRow() (taskRow, bool) {
	if v.cursor < 0 || v.cursor >= len(v.rows) {
		return taskRow{}, false
	}
	return v.rows[v.cursor], true
}

// friendlyErr maps store errors to messages worth showing in the status
// line; everything else passes through as-is.
func friendlyErr(err error) string {
	switch {
	case errors.Is(err, tasktree.ErrNotManager):
		return "Only an admin or project manager can do that"
	case errors.Is(err, tasktree.ErrNotAssignee):
		return "Only the assignee or a manager can change this status"
	}
	return err.Error()
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.editDesc.SetWidth(clamp(contentWidth-10, 20, 50))
		return v, nil

	case tasksReloadedMsg:
		v.saving = false
		if msg.err != nil {
			v.errText = friendlyErr(msg.err)
			return v, nil
		}
		v.errText = ""
		// A fresh forest starts fully expanded
		v.collapsed = map[int64]bool{}
		v.rebuildRows()
		v.ensureVisible()
		return v, nil

	case taskMutatedMsg:
		v.saving = false
		if msg.err != nil {
			v.errText = friendlyErr(msg.err)
			return v, nil
		}
		v.errText = ""
		v.infoText = "Saved"
		v.editing = false
		v.collapsed = map[int64]bool{}
		v.rebuildRows()
		v.ensureVisible()
		return v, nil

	case membersLoadedMsg:
		if msg.err != nil {
			v.errText = msg.err.Error()
			return v, nil
		}
		v.members = msg.members
		return v, nil

	case tea.KeyMsg:
		v.infoText = ""

		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		if v.statusPicking {
			return v.updateStatusPicker(msg)
		}

		if v.filterOpen {
			return v.updateFilterPopup(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.rows)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if row, ok := v.currentRow(); ok && row.children > 0 {
			v.collapsed[row.task.ID] = !v.collapsed[row.task.ID]
			v.rebuildRows()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if row, ok := v.currentRow(); ok {
			task := row.task
			members := v.members
			return v, func() tea.Msg {
				return OpenComments{Task: task, Members: members}
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startEdit(nil, nil)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.NewSub):
		if row, ok := v.currentRow(); ok {
			parentID := row.task.ID
			v.startEdit(&parentID, nil)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if row, ok := v.currentRow(); ok {
			task := row.task
			v.startEdit(task.ParentID, &task)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if row, ok := v.currentRow(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = row.task.ID
			v.deleteTargetName = row.task.Title
		}
		return v, nil

	case key.Matches(msg, v.keys.Status):
		if row, ok := v.currentRow(); ok {
			v.statusPicking = true
			v.statusCursor = 0
			for i, s := range models.Statuses {
				if s == row.task.Status {
					v.statusCursor = i
				}
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Filter):
		v.filterOpen = true
		v.filterKind = filterStatus
		v.filterCursor = 0
		return v, nil

	case msg.String() == "p":
		v.filterOpen = true
		v.filterKind = filterPriority
		v.filterCursor = 0
		return v, nil

	case key.Matches(msg, v.keys.Refresh):
		return v, v.loadTasks

	case key.Matches(msg, v.keys.Notifications):
		return v, func() tea.Msg { return OpenNotifications{} }

	case msg.String() == "?":
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) filterOptions() []string {
	if v.filterKind == filterStatus {
		return models.Statuses
	}
	return models.Priorities
}

func (v *TaskListView) updateFilterPopup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	options := v.filterOptions()

	switch {
	case key.Matches(msg, v.keys.Back):
		v.filterOpen = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.filterCursor > 0 {
			v.filterCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.filterCursor < len(options) { // index 0 is "All"
			v.filterCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		filters := v.manager.Filters()
		value := ""
		if v.filterCursor > 0 {
			value = options[v.filterCursor-1]
		}
		if v.filterKind == filterStatus {
			filters.Status = value
		} else {
			filters.Priority = value
		}
		v.manager.SetFilters(filters)
		v.filterOpen = false
		v.cursor = 0
		v.scrollY = 0
		return v, v.loadTasks
	}

	return v, nil
}

func (v *TaskListView) updateStatusPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.statusPicking = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.statusCursor > 0 {
			v.statusCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.statusCursor < len(models.Statuses)-1 {
			v.statusCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		row, ok := v.currentRow()
		if !ok {
			v.statusPicking = false
			return v, nil
		}
		v.statusPicking = false
		taskID := row.task.ID
		status := models.Statuses[v.statusCursor]
		return v, func() tea.Msg {
			err := v.manager.SetStatus(context.Background(), taskID, status)
			return taskMutatedMsg{err: err}
		}
	}

	return v, nil
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		targetID := v.deleteTargetID
		return v, func() tea.Msg {
			err := v.manager.Delete(context.Background(), targetID)
			return taskMutatedMsg{err: err}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.saving {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % 6
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + 5) % 6
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		// Enter on single-line fields moves on; on the button it saves
		switch v.editFocusIdx {
		case 0, 2:
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		case 5:
			return v, v.saveTask()
		}

	case key.Matches(msg, v.keys.Up):
		if v.editFocusIdx == 3 && v.editPriorityIdx > 0 {
			v.editPriorityIdx--
			return v, nil
		}
		if v.editFocusIdx == 4 && v.editAssignIdx > 0 {
			v.editAssignIdx--
			return v, nil
		}

	case key.Matches(msg, v.keys.Down):
		if v.editFocusIdx == 3 && v.editPriorityIdx < len(models.Priorities)-1 {
			v.editPriorityIdx++
			return v, nil
		}
		if v.editFocusIdx == 4 && v.editAssignIdx < len(v.members) {
			v.editAssignIdx++
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case 0:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case 1:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case 2:
		v.editDue, cmd = v.editDue.Update(msg)
	}
	return v, cmd
}

func (v *TaskListView) startEdit(parentID *int64, task *models.Task) {
	v.editing = true
	v.editingNew = task == nil
	v.editParentID = parentID
	v.editFocusIdx = 0
	v.editPriorityIdx = 1 // MEDIUM
	v.editAssignIdx = 0
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editDue.Reset()

	if task != nil {
		v.editTaskID = task.ID
		v.editTitle.SetValue(task.Title)
		v.editDesc.SetValue(task.Description)
		if task.DueDate != nil {
			v.editDue.SetValue(task.DueDate.Local().Format(dueDateLayout))
		}
		for i, p := range models.Priorities {
			if p == task.Priority {
				v.editPriorityIdx = i
			}
		}
		if task.AssigneeID != nil {
			for i, m := range v.members {
				if m.ID == *task.AssigneeID {
					v.editAssignIdx = i + 1
				}
			}
		}
	}
	v.updateEditFocus()
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	v.editDue.Blur()

	switch v.editFocusIdx {
	case 0:
		v.editTitle.Focus()
	case 1:
		v.editDesc.Focus()
	case 2:
		v.editDue.Focus()
	}
}

func (v *TaskListView) saveTask() tea.Cmd {
	title := strings.TrimSpace(v.editTitle.Value())
	if title == "" {
		v.errText = "Title is required"
		return nil
	}

	payload := api.TaskPayload{
		Title:       title,
		Description: strings.TrimSpace(v.editDesc.Value()),
		Priority:    models.Priorities[v.editPriorityIdx],
	}

	if due := strings.TrimSpace(v.editDue.Value()); due != "" {
		parsed, err := time.ParseInLocation(dueDateLayout, due, time.Local)
		if err != nil {
			v.errText = "Due date must be YYYY-MM-DD"
			return nil
		}
		payload.DueDate = &parsed
	}

	if v.editAssignIdx > 0 && v.editAssignIdx <= len(v.members) {
		id := v.members[v.editAssignIdx-1].ID
		payload.AssigneeID = &id
	}

	v.saving = true
	v.errText = ""

	if v.editingNew {
		parentID := v.editParentID
		return func() tea.Msg {
			err := v.manager.Create(context.Background(), parentID, payload)
			return taskMutatedMsg{err: err}
		}
	}

	taskID := v.editTaskID
	return func() tea.Msg {
		err := v.manager.Update(context.Background(), taskID, payload)
		return taskMutatedMsg{err: err}
	}
}

func (v *TaskListView) ensureVisible() {
	availableHeight := v.height - 10
	if availableHeight < 2 {
		availableHeight = 2
	}
	visibleItems := availableHeight
	if visibleItems < 1 {
		visibleItems = 1
	}

	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderEditForm()
	}

	var b strings.Builder

	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")

	if v.statusPicking {
		b.WriteString(v.renderStatusPicker())
		b.WriteString("\n")
	}
	if v.filterOpen {
		b.WriteString(v.renderFilterPopup())
		b.WriteString("\n")
	}

	b.WriteString(v.renderStatusLine())
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles

	title := s.Title.Render(v.project.Name)

	var parts []string
	parts = append(parts, title)

	filters := v.manager.Filters()
	if filters.Status != "" {
		parts = append(parts, s.TitleMuted.Render("status: "+styles.StatusLabel(filters.Status)))
	}
	if filters.Priority != "" {
		parts = append(parts, s.TitleMuted.Render("priority: "+styles.PriorityLabel(filters.Priority)))
	}

	if n := v.notifs.Unread(); n > 0 {
		parts = append(parts, s.UnreadBadge.Render(fmt.Sprintf("%d", n)))
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(parts, "  "))
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.rows) == 0 {
		if !v.manager.Loaded() {
			return s.TitleMuted.Render("Loading tasks...")
		}
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	availableHeight := v.height - 10
	if availableHeight < 2 {
		availableHeight = 2
	}
	visibleItems := availableHeight
	if visibleItems < 1 {
		visibleItems = 1
	}

	var items []string
	endIdx := min(v.scrollY+visibleItems, len(v.rows))

	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskRow(v.rows[i], i == v.cursor))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskRow(row taskRow, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	task := row.task
	indent := strings.Repeat("  ", row.depth)

	fold := "  "
	if row.children > 0 {
		if v.collapsed[task.ID] {
			fold = "▸ "
		} else {
			fold = "▾ "
		}
	}

	status := styles.StatusStyle(task.Status).Render("[" + styles.StatusLabel(task.Status) + "]")
	priority := styles.PriorityStyle(task.Priority).Render(styles.PriorityLabel(task.Priority))

	assignee := ""
	if task.AssigneeID != nil {
		name := fmt.Sprintf("#%d", *task.AssigneeID)
		for _, m := range v.members {
			if m.ID == *task.AssigneeID {
				name = m.Username
			}
		}
		assignee = " " + s.TitleMuted.Render("@"+name)
	}

	due := ""
	if task.DueDate != nil {
		label := task.DueDate.Local().Format("Jan 2")
		if task.Status != models.StatusDone && task.DueDate.Before(time.Now()) {
			due = " " + s.StatusErr.Render("due "+label)
		} else {
			due = " " + s.TitleMuted.Render("due "+label)
		}
	}

	line := indent + fold + status + " " + priority + " " + task.Title + assignee + due

	itemStyle := s.ListItem
	if selected {
		itemStyle = s.ListSelected
	}
	return itemStyle.Width(width).Render(line)
}

func (v *TaskListView) renderStatusPicker() string {
	s := v.styles

	var items []string
	for i, status := range models.Statuses {
		itemStyle := s.ListItem
		if i == v.statusCursor {
			itemStyle = s.ListSelected
		}
		items = append(items, itemStyle.Render(styles.StatusLabel(status)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Set Status"), ""}, items...)...,
	)
	return s.Popup.Render(content)
}

func (v *TaskListView) renderFilterPopup() string {
	s := v.styles

	label := func(value string) string {
		if v.filterKind == filterStatus {
			return styles.StatusLabel(value)
		}
		return styles.PriorityLabel(value)
	}

	title := "Filter by Status"
	if v.filterKind == filterPriority {
		title = "Filter by Priority"
	}

	var items []string
	allStyle := s.ListItem
	if v.filterCursor == 0 {
		allStyle = s.ListSelected
	}
	items = append(items, allStyle.Render("All"))

	for i, option := range v.filterOptions() {
		itemStyle := s.ListItem
		if v.filterCursor == i+1 {
			itemStyle = s.ListSelected
		}
		items = append(items, itemStyle.Render(label(option)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render(title), ""}, items...)...,
	)
	return s.Popup.Render(content)
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Task"
	if !v.editingNew {
		formTitle = "Edit Task"
	} else if v.editParentID != nil {
		formTitle = "New Subtask"
	}

	titleStyle := s.Input
	descStyle := s.Input
	dueStyle := s.Input
	priorityStyle := s.Input
	assignStyle := s.Input
	btnStyle := s.Button

	switch v.editFocusIdx {
	case 0:
		titleStyle = s.InputFocused
	case 1:
		descStyle = s.InputFocused
	case 2:
		dueStyle = s.InputFocused
	case 3:
		priorityStyle = s.InputFocused
	case 4:
		assignStyle = s.InputFocused
	case 5:
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	priorityValue := styles.PriorityLabel(models.Priorities[v.editPriorityIdx])
	assignValue := "unassigned"
	if v.editAssignIdx > 0 && v.editAssignIdx <= len(v.members) {
		assignValue = v.members[v.editAssignIdx-1].Username
	}

	btnLabel := " Save "
	if v.saving {
		btnLabel = " Saving... "
	}

	rows := []string{
		s.Title.Render(formTitle),
		"",
		"Title:",
		titleStyle.Width(inputWidth).Render(v.editTitle.View()),
		"",
		"Description:",
		descStyle.Render(v.editDesc.View()),
		"",
		"Due date:",
		dueStyle.Width(14).Render(v.editDue.View()),
		"",
		"Priority (↑↓):",
		priorityStyle.Width(14).Render(priorityValue),
		"",
		"Assignee (↑↓):",
		assignStyle.Width(inputWidth).Render(assignValue),
		"",
		btnStyle.Render(btnLabel),
	}
	if v.errText != "" {
		rows = append(rows, "", s.StatusErr.Render(v.errText))
	}
	rows = append(rows, "",
		s.TitleMuted.Render("Tab: next • ↑↓: pick • Ctrl+S: save • Esc: cancel"))

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderStatusLine() string {
	if v.errText != "" {
		return v.styles.StatusErr.Render(v.errText) + "\n"
	}
	if v.infoText != "" {
		return v.styles.StatusInfo.Render(v.infoText) + "\n"
	}
	return ""
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s comments • %s fold • %s new • %s subtask • %s edit • %s del • %s status • %s/%s filter • %s back",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("spc"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("s"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("t"),
			v.styles.HelpKey.Render("f"),
			v.styles.HelpKey.Render("p"),
			v.styles.HelpKey.Render("esc"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open comments",
		s.HelpKey.Render("space") + "  fold/unfold subtree",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("s") + "      new subtask",
		s.HelpKey.Render("e") + "      edit task",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("t") + "      change status",
		s.HelpKey.Render("f") + "      filter by status",
		s.HelpKey.Render("p") + "      filter by priority",
		s.HelpKey.Render("r") + "      refresh",
		s.HelpKey.Render("N") + "      notifications",
		s.HelpKey.Render("esc") + "    back",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(v.deleteTargetName),
		s.TitleMuted.Render("Subtasks are deleted with it."),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
