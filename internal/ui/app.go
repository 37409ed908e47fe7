package ui

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hqvu/teamtask/internal/api"
	"github.com/hqvu/teamtask/internal/cache"
	"github.com/hqvu/teamtask/internal/comments"
	"github.com/hqvu/teamtask/internal/models"
	"github.com/hqvu/teamtask/internal/notifications"
	"github.com/hqvu/teamtask/internal/session"
	"github.com/hqvu/teamtask/internal/tasktree"
	"github.com/hqvu/teamtask/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewLogin View = iota
	ViewProjects
	ViewTasks
	ViewComments
	ViewNotifications
)

type pollTickMsg struct{}

type notifRefreshedMsg struct {
	err error
}

type App struct {
	client       *api.Client
	session      *session.Session
	cache        *cache.Cache
	notifs       *notifications.Store
	logger       *slog.Logger
	pollInterval time.Duration

	currentView View
	prevView    View // view to return to when the notification panel closes

	login       *views.LoginView
	projectList *views.ProjectListView
	taskList    *views.TaskListView
	thread      *views.CommentView
	notifPanel  *views.NotificationView

	width  int
	height int
}

// NewApp creates the root model
func NewApp(client *api.Client, sess *session.Session, store *cache.Cache, notifs *notifications.Store, pollInterval time.Duration, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		client:       client,
		session:      sess,
		cache:        store,
		notifs:       notifs,
		logger:       logger,
		pollInterval: pollInterval,
		currentView:  ViewLogin,
		login:        views.NewLoginView(client, sess),
		projectList:  views.NewProjectListView(client, sess),
		notifPanel:   views.NewNotificationView(notifs),
	}
}

func (a *App) Init() tea.Cmd {
	return a.login.Init()
}

func (a *App) pollTick() tea.Cmd {
	return tea.Tick(a.pollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func (a *App) refreshNotifications() tea.Msg {
	err := a.notifs.Refresh(context.Background())
	return notifRefreshedMsg{err: err}
}

func (a *App) resendSize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

// lastProject returns the project remembered from the previous run, if any.
func (a *App) lastProject() (models.Project, bool) {
	if a.cache == nil {
		return models.Project{}, false
	}
	raw, err := a.cache.GetSetting("last_project_id")
	if err != nil || raw == "" {
		return models.Project{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return models.Project{}, false
	}
	name, _ := a.cache.GetSetting("last_project_name")
	return models.Project{ID: id, Name: name}, true
}

func (a *App) openProject(project models.Project) tea.Cmd {
	a.currentView = ViewTasks

	manager := tasktree.NewManager(a.client, a.session, project.ID, a.cache, a.logger)
	a.taskList = views.NewTaskListView(manager, a.client, a.session, a.notifs, project)

	if a.cache != nil {
		if err := a.cache.SetSetting("last_project_id", strconv.FormatInt(project.ID, 10)); err != nil {
			a.logger.Warn("setting not saved", "key", "last_project_id", "error", err)
		}
		if err := a.cache.SetSetting("last_project_name", project.Name); err != nil {
			a.logger.Warn("setting not saved", "key", "last_project_name", "error", err)
		}
	}

	return tea.Batch(a.taskList.Init(), a.resendSize())
}

func (a *App) openComments(task models.Task, members []models.Member) tea.Cmd {
	a.currentView = ViewComments

	store := comments.NewStore(a.client, a.session, task.ID, a.logger)
	a.thread = views.NewCommentView(store, a.session, task, members)

	return tea.Batch(a.thread.Init(), a.resendSize())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// The project list persists across views, keep its size current
		a.projectList.Update(msg)
		a.notifPanel.Update(msg)

	case pollTickMsg:
		return a, tea.Batch(a.refreshNotifications, a.pollTick())

	case notifRefreshedMsg:
		if msg.err != nil {
			a.logger.Warn("notification poll failed", "error", msg.err)
		}
		return a, nil

	case views.LoggedIn:
		a.currentView = ViewProjects
		cmds := []tea.Cmd{
			a.projectList.Init(),
			a.resendSize(),
			a.refreshNotifications,
			a.pollTick(),
		}
		if project, ok := a.lastProject(); ok {
			cmds = append(cmds, a.openProject(project))
		}
		return a, tea.Batch(cmds...)

	case views.SelectedProject:
		return a, a.openProject(msg.Project)

	case views.BackToProjects:
		a.currentView = ViewProjects
		if a.cache != nil {
			a.cache.SetSetting("last_project_id", "")
			a.cache.SetSetting("last_project_name", "")
		}
		return a, tea.Batch(a.projectList.Init(), a.resendSize())

	case views.OpenComments:
		return a, a.openComments(msg.Task, msg.Members)

	case views.CloseComments:
		a.currentView = ViewTasks
		return a, a.resendSize()

	case views.OpenNotifications:
		a.prevView = a.currentView
		a.currentView = ViewNotifications
		return a, tea.Batch(a.refreshNotifications, a.resendSize())

	case views.CloseNotifications:
		a.currentView = a.prevView
		return a, a.resendSize()
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewLogin:
		_, cmd = a.login.Update(msg)
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	case ViewComments:
		_, cmd = a.thread.Update(msg)
	case ViewNotifications:
		_, cmd = a.notifPanel.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewTasks:
		if a.taskList != nil {
			return a.taskList.View()
		}
	case ViewComments:
		if a.thread != nil {
			return a.thread.View()
		}
	case ViewNotifications:
		return a.notifPanel.View()
	case ViewProjects:
		return a.projectList.View()
	}
	return a.login.View()
}
