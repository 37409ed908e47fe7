package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hqvu/teamtask/internal/models"
	"github.com/hqvu/teamtask/internal/notifications"
	"github.com/hqvu/teamtask/internal/ui/keys"
	"github.com/hqvu/teamtask/internal/ui/styles"
)

// CloseNotifications signals to return to the previous view
type CloseNotifications struct{}

type notificationPatchedMsg struct {
	err error
}

// NotificationView lists the user's notifications
type NotificationView struct {
	store  *notifications.Store
	styles *styles.Styles
	keys   keys.KeyMap

	width   int
	height  int
	cursor  int
	scrollY int
	errText string
}

// NewNotificationView creates the notification panel
func NewNotificationView(store *notifications.Store) *NotificationView {
	return &NotificationView{
		store:  store,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
	}
}

func (v *NotificationView) Init() tea.Cmd {
	return nil
}

func (v *NotificationView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case notificationPatchedMsg:
		if msg.err != nil {
			v.errText = msg.err.Error()
			return v, nil
		}
		v.errText = ""
		if n := len(v.store.Items()); v.cursor >= n {
			v.cursor = max(0, n-1)
		}
		return v, nil

	case tea.KeyMsg:
		items := v.store.Items()

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit

		case key.Matches(msg, v.keys.Back):
			return v, func() tea.Msg { return CloseNotifications{} }

		case key.Matches(msg, v.keys.Up):
			if v.cursor > 0 {
				v.cursor--
				v.ensureVisible()
			}
			return v, nil

		case key.Matches(msg, v.keys.Down):
			if v.cursor < len(items)-1 {
				v.cursor++
				v.ensureVisible()
			}
			return v, nil

		case key.Matches(msg, v.keys.Enter):
			if v.cursor < len(items) && !items[v.cursor].IsRead {
				id := items[v.cursor].ID
				return v, func() tea.Msg {
					err := v.store.MarkRead(context.Background(), id)
					return notificationPatchedMsg{err: err}
				}
			}
			return v, nil

		case key.Matches(msg, v.keys.MarkAll):
			return v, func() tea.Msg {
				err := v.store.MarkAllRead(context.Background())
				return notificationPatchedMsg{err: err}
			}

		case key.Matches(msg, v.keys.Delete):
			if v.cursor < len(items) {
				id := items[v.cursor].ID
				return v, func() tea.Msg {
					err := v.store.Delete(context.Background(), id)
					return notificationPatchedMsg{err: err}
				}
			}
			return v, nil
		}
	}

	return v, nil
}

func (v *NotificationView) ensureVisible() {
	visibleItems := max(v.height-8, 1)
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

func typeBadge(s *styles.Styles, kind string) string {
	switch kind {
	case models.NotificationAssign:
		return s.HelpKey.Render("[assigned]")
	case models.NotificationOverdue:
		return s.StatusErr.Render("[overdue]")
	}
	return s.TitleMuted.Render("[" + strings.ToLower(kind) + "]")
}

// View renders the panel
func (v *NotificationView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	items := v.store.Items()

	title := s.Title.Render("Notifications")
	if n := v.store.Unread(); n > 0 {
		title += "  " + s.UnreadBadge.Render(fmt.Sprintf("%d unread", n))
	}

	var lines []string
	if len(items) == 0 {
		lines = append(lines, s.TitleMuted.Render("Nothing here"))
	} else {
		visibleItems := max(v.height-8, 1)
		endIdx := min(v.scrollY+visibleItems, len(items))
		width := max(contentWidth-4, 20)

		for i := v.scrollY; i < endIdx; i++ {
			n := items[i]

			text := n.Title
			if n.Message != "" {
				text += " " + s.TitleMuted.Render(n.Message)
			}
			line := typeBadge(s, n.Type) + " " + text
			if !n.IsRead {
				line = s.Unread.Render("● ") + line
			} else {
				line = "  " + line
			}

			itemStyle := s.ListItem
			if i == v.cursor {
				itemStyle = s.ListSelected
			}
			lines = append(lines, itemStyle.Width(width).Render(line))
		}
	}

	help := s.Help.Render(
		fmt.Sprintf("%s mark read • %s mark all • %s delete • %s back",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("A"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("esc"),
		),
	)

	rows := []string{title, ""}
	rows = append(rows, lines...)
	rows = append(rows, "")
	if v.errText != "" {
		rows = append(rows, s.StatusErr.Render(v.errText))
	}
	rows = append(rows, help)

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return styles.CenterView(content, v.width, v.height)
}
