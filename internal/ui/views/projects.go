package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hqvu/teamtask/internal/api"
	"github.com/hqvu/teamtask/internal/models"
	"github.com/hqvu/teamtask/internal/session"
	"github.com/hqvu/teamtask/internal/ui/keys"
	"github.com/hqvu/teamtask/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

type projectItem struct {
	project models.Project
}

func (i projectItem) Title() string       { return i.project.Name }
func (i projectItem) Description() string { return i.project.Description }
func (i projectItem) FilterValue() string { return i.project.Name }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	statusBadge := ""
	if p.project.Status == models.ProjectCompleted {
		statusBadge = " " + d.styles.TitleMuted.Render("(completed)")
	}

	title := titleStyle.Render(p.Title() + statusBadge)
	desc := descStyle.Render(p.Description())

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// SelectedProject signals that a project was opened
type SelectedProject struct {
	Project models.Project
}

// OpenNotifications signals that the notification panel should open
type OpenNotifications struct{}

type projectsLoadedMsg struct {
	projects []models.Project
	err      error
}

type projectStatusMsg struct {
	err error
}

type projectMembersMsg struct {
	members []models.Member
	err     error
}

type memberMutatedMsg struct {
	err error
}

// ProjectListView shows the projects the user belongs to
type ProjectListView struct {
	client   *api.Client
	session  *session.Session
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool
	errText  string

	// Members panel
	showingMembers bool
	members        []models.Member
	memberCursor   int
	inviting       bool
	inviteInput    textinput.Model
	confirmRemove  bool

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewProjectListView creates the project list
func NewProjectListView(client *api.Client, sess *session.Session) *ProjectListView {
	s := styles.NewStyles()

	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	invite := textinput.New()
	invite.Placeholder = "email to invite"
	invite.CharLimit = 100

	return &ProjectListView{
		client:      client,
		session:     sess,
		list:        l,
		delegate:    delegate,
		styles:      s,
		keys:        keys.DefaultKeyMap(),
		inviteInput: invite,
	}
}

func (v *ProjectListView) Init() tea.Cmd {
	return v.loadProjects
}

func (v *ProjectListView) loadProjects() tea.Msg {
	projects, err := v.client.ListProjects(context.Background())
	return projectsLoadedMsg{projects: projects, err: err}
}

func (v *ProjectListView) selectedProject() (models.Project, bool) {
	item, ok := v.list.SelectedItem().(projectItem)
	if !ok {
		return models.Project{}, false
	}
	return item.project, true
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case projectsLoadedMsg:
		v.loaded = true
		if msg.err != nil {
			v.errText = msg.err.Error()
			return v, nil
		}
		v.errText = ""
		items := make([]list.Item, len(msg.projects))
		for i, p := range msg.projects {
			items[i] = projectItem{project: p}
		}
		v.list.SetItems(items)
		return v, nil

	case projectStatusMsg:
		if msg.err != nil {
			v.errText = msg.err.Error()
			return v, nil
		}
		return v, v.loadProjects

	case projectMembersMsg:
		if msg.err != nil {
			v.errText = msg.err.Error()
			v.showingMembers = false
			return v, nil
		}
		v.members = msg.members
		if v.memberCursor >= len(v.members) {
			v.memberCursor = max(0, len(v.members)-1)
		}
		return v, nil

	case memberMutatedMsg:
		if msg.err != nil {
			v.errText = msg.err.Error()
			return v, nil
		}
		return v, v.loadMembers

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.showingMembers {
			return v.updateMembers(msg)
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit

		case key.Matches(msg, v.keys.Back):
			// Only q quits from the project list
			return v, nil

		case key.Matches(msg, v.keys.Refresh):
			return v, v.loadProjects

		case key.Matches(msg, v.keys.Notifications):
			return v, func() tea.Msg { return OpenNotifications{} }

		case msg.String() == "?":
			v.showHelpPopup = true
			return v, nil

		case key.Matches(msg, v.keys.Enter):
			if project, ok := v.selectedProject(); ok {
				return v, func() tea.Msg {
					return SelectedProject{Project: project}
				}
			}

		case key.Matches(msg, v.keys.Status):
			if project, ok := v.selectedProject(); ok {
				if !v.session.CanManageProject(project) {
					v.errText = "Only the project manager can change its status"
					return v, nil
				}
				return v, v.toggleProjectStatus(project)
			}

		case msg.String() == "m":
			if _, ok := v.selectedProject(); ok {
				v.showingMembers = true
				v.memberCursor = 0
				v.members = nil
				return v, v.loadMembers
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) toggleProjectStatus(project models.Project) tea.Cmd {
	next := models.ProjectCompleted
	if project.Status == models.ProjectCompleted {
		next = models.ProjectInProgress
	}
	return func() tea.Msg {
		err := v.client.UpdateProjectStatus(context.Background(), project.ID, next)
		return projectStatusMsg{err: err}
	}
}

func (v *ProjectListView) loadMembers() tea.Msg {
	project, ok := v.selectedProject()
	if !ok {
		return projectMembersMsg{err: fmt.Errorf("no project selected")}
	}
	members, err := v.client.ListMembers(context.Background(), project.ID)
	return projectMembersMsg{members: members, err: err}
}

func (v *ProjectListView) updateMembers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	project, _ := v.selectedProject()

	if v.inviting {
		switch {
		case key.Matches(msg, v.keys.Back):
			v.inviting = false
			v.inviteInput.Blur()
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			email := strings.TrimSpace(v.inviteInput.Value())
			if email == "" {
				return v, nil
			}
			v.inviting = false
			v.inviteInput.Blur()
			v.inviteInput.Reset()
			return v, func() tea.Msg {
				err := v.client.InviteMember(context.Background(), project.ID, email)
				return memberMutatedMsg{err: err}
			}
		default:
			var cmd tea.Cmd
			v.inviteInput, cmd = v.inviteInput.Update(msg)
			return v, cmd
		}
	}

	if v.confirmRemove {
		switch msg.String() {
		case "y", "Y":
			v.confirmRemove = false
			if v.memberCursor < len(v.members) {
				member := v.members[v.memberCursor]
				return v, func() tea.Msg {
					err := v.client.RemoveMember(context.Background(), project.ID, member.ID)
					return memberMutatedMsg{err: err}
				}
			}
			return v, nil
		case "n", "N", "esc":
			v.confirmRemove = false
			return v, nil
		}
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.showingMembers = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.memberCursor > 0 {
			v.memberCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.memberCursor < len(v.members)-1 {
			v.memberCursor++
		}
		return v, nil

	case msg.String() == "i":
		if !v.session.CanManageProject(project) {
			v.errText = "Only the project manager can invite members"
			return v, nil
		}
		v.inviting = true
		v.inviteInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if !v.session.CanManageProject(project) {
			v.errText = "Only the project manager can remove members"
			return v, nil
		}
		if len(v.members) > 0 {
			v.confirmRemove = true
		}
		return v, nil
	}

	return v, nil
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.showingMembers {
		return v.renderMembers()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := v.list.View() + "\n" + v.renderStatusLine() + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) renderStatusLine() string {
	if v.errText == "" {
		return ""
	}
	return v.styles.StatusErr.Render(v.errText) + "\n"
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("You are not a member of any project yet"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderMembers() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	project, _ := v.selectedProject()

	var items []string
	for i, m := range v.members {
		label := m.Username
		if m.Email != "" {
			label += "  " + s.TitleMuted.Render(m.Email)
		}
		if m.Role != "" {
			label += "  " + s.TitleMuted.Render("["+m.Role+"]")
		}
		itemStyle := s.ListItem
		if i == v.memberCursor {
			itemStyle = s.ListSelected
		}
		items = append(items, itemStyle.Render(label))
	}
	if len(items) == 0 {
		items = append(items, s.TitleMuted.Render("No members"))
	}

	rows := []string{
		s.Title.Render("Members of " + project.Name),
		"",
		lipgloss.JoinVertical(lipgloss.Left, items...),
		"",
	}

	if v.confirmRemove && v.memberCursor < len(v.members) {
		rows = append(rows,
			s.StatusErr.Render(fmt.Sprintf("Remove %s? (y/n)", v.members[v.memberCursor].Username)))
	} else if v.inviting {
		rows = append(rows,
			"Invite:",
			s.InputFocused.Width(clamp(contentWidth-6, 20, 40)).Render(v.inviteInput.View()))
	} else {
		rows = append(rows,
			s.TitleMuted.Render("i: invite • d: remove • esc: back"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s status • %s members • %s notifications • %s refresh • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("t"),
			v.styles.HelpKey.Render("m"),
			v.styles.HelpKey.Render("N"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open project",
		s.HelpKey.Render("t") + "      toggle project status",
		s.HelpKey.Render("m") + "      manage members",
		s.HelpKey.Render("N") + "      notifications",
		s.HelpKey.Render("r") + "      refresh",
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
