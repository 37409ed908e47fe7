package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hqvu/teamtask/internal/api"
	"github.com/hqvu/teamtask/internal/comments"
	"github.com/hqvu/teamtask/internal/models"
	"github.com/hqvu/teamtask/internal/session"
	"github.com/hqvu/teamtask/internal/ui/keys"
	"github.com/hqvu/teamtask/internal/ui/styles"
)

// CloseComments signals to go back to the task list
type CloseComments struct{}

type threadLoadedMsg struct {
	err error
}

type commentPostedMsg struct {
	err error
}

type commentDeletedMsg struct {
	err error
}

// CommentView shows a task's discussion thread
type CommentView struct {
	store   *comments.Store
	session *session.Session
	task    models.Task
	members []models.Member
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	cursor  int
	scrollY int
	loaded  bool
	errText string

	// Composer
	writing     bool
	input       textarea.Model
	replyTo     *int64
	replyAuthor string

	// Attachment path prompt
	attaching   bool
	attachInput textinput.Model
	attachPath  string

	// Mention autocomplete
	mentionCursor int

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   int64
}

// NewCommentView creates the thread view for one task
func NewCommentView(store *comments.Store, sess *session.Session, task models.Task, members []models.Member) *CommentView {
	s := styles.NewStyles()

	input := textarea.New()
	input.Placeholder = "Write a comment... (@ to mention)"
	input.CharLimit = 2000
	input.SetWidth(50)
	input.SetHeight(3)
	input.ShowLineNumbers = false

	attach := textinput.New()
	attach.Placeholder = "path to image"
	attach.CharLimit = 300

	return &CommentView{
		store:       store,
		session:     sess,
		task:        task,
		members:     members,
		styles:      s,
		keys:        keys.DefaultKeyMap(),
		input:       input,
		attachInput: attach,
	}
}

func (v *CommentView) Init() tea.Cmd {
	return v.loadThread
}

func (v *CommentView) loadThread() tea.Msg {
	err := v.store.Load(context.Background())
	return threadLoadedMsg{err: err}
}

func (v *CommentView) mentionCandidates() []models.Member {
	if !v.writing {
		return nil
	}
	return comments.MentionCandidates(v.input.Value(), v.members)
}

// completeMention replaces the trailing @prefix of the draft with the
// chosen username.
func completeMention(draft, username string) string {
	at := strings.LastIndex(draft, "@")
	if at < 0 {
		return draft
	}
	return draft[:at] + "@" + username + " "
}

func (v *CommentView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.input.SetWidth(clamp(contentWidth-10, 20, 60))
		return v, nil

	case threadLoadedMsg:
		v.loaded = true
		if msg.err != nil {
			v.errText = msg.err.Error()
			return v, nil
		}
		v.errText = ""
		if n := len(v.store.Comments()); v.cursor >= n {
			v.cursor = max(0, n-1)
		}
		return v, nil

	case commentPostedMsg:
		if msg.err != nil {
			// The draft stays as typed so nothing is lost
			v.errText = friendlyPostErr(msg.err)
			return v, nil
		}
		v.errText = ""
		v.input.Reset()
		v.input.Blur()
		v.writing = false
		v.replyTo = nil
		v.replyAuthor = ""
		v.attachPath = ""
		v.cursor = max(0, len(v.store.Comments())-1)
		v.ensureVisible()
		return v, nil

	case commentDeletedMsg:
		if msg.err != nil {
			v.errText = msg.err.Error()
			return v, nil
		}
		v.errText = ""
		return v, nil

	case tea.KeyMsg:
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.attaching {
			return v.updateAttaching(msg)
		}
		if v.writing {
			return v.updateWriting(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func friendlyPostErr(err error) string {
	switch {
	case errors.Is(err, comments.ErrPostInFlight):
		return "Still sending the previous comment"
	case errors.Is(err, comments.ErrEmptyComment):
		return "Nothing to post"
	case errors.Is(err, api.ErrNotImage):
		return "Attachment must be an image"
	}
	return err.Error()
}

func (v *CommentView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	thread := v.store.Comments()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return CloseComments{} }

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(thread)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case msg.String() == "c":
		v.writing = true
		v.input.Focus()
		return v, textarea.Blink

	case key.Matches(msg, v.keys.Reply):
		if v.cursor < len(thread) {
			target := thread[v.cursor]
			if target.IsDeleted {
				v.errText = "Deleted comments cannot be replied to"
				return v, nil
			}
			id := target.ID
			v.replyTo = &id
			v.replyAuthor = target.Username
			v.writing = true
			v.input.Focus()
			return v, textarea.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Attach):
		v.attaching = true
		v.attachInput.SetValue(v.attachPath)
		v.attachInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if v.cursor < len(thread) {
			target := thread[v.cursor]
			if target.IsDeleted {
				return v, nil
			}
			if !v.session.CanDeleteComment(target) {
				v.errText = "You can only delete your own comments"
				return v, nil
			}
			v.confirmingDelete = true
			v.deleteTargetID = target.ID
		}
		return v, nil
	}

	return v, nil
}

func (v *CommentView) updateWriting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	candidates := v.mentionCandidates()

	switch {
	case key.Matches(msg, v.keys.Back):
		v.writing = false
		v.input.Blur()
		v.replyTo = nil
		v.replyAuthor = ""
		v.mentionCursor = 0
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.submit()

	case msg.String() == "ctrl+a":
		v.attaching = true
		v.attachInput.SetValue(v.attachPath)
		v.attachInput.Focus()
		return v, textinput.Blink

	case len(candidates) > 0 && key.Matches(msg, v.keys.Up):
		if v.mentionCursor > 0 {
			v.mentionCursor--
		}
		return v, nil

	case len(candidates) > 0 && key.Matches(msg, v.keys.Down):
		if v.mentionCursor < len(candidates)-1 {
			v.mentionCursor++
		}
		return v, nil

	case len(candidates) > 0 && key.Matches(msg, v.keys.Tab):
		idx := min(v.mentionCursor, len(candidates)-1)
		v.input.SetValue(completeMention(v.input.Value(), candidates[idx].Username))
		v.mentionCursor = 0
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	v.mentionCursor = 0
	return v, cmd
}

func (v *CommentView) updateAttaching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.attaching = false
		v.attachInput.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		v.attachPath = strings.TrimSpace(v.attachInput.Value())
		v.attaching = false
		v.attachInput.Blur()
		if v.attachPath != "" && !v.writing {
			v.writing = true
			v.input.Focus()
			return v, textarea.Blink
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.attachInput, cmd = v.attachInput.Update(msg)
	return v, cmd
}

func (v *CommentView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		targetID := v.deleteTargetID
		return v, func() tea.Msg {
			err := v.store.Delete(context.Background(), targetID)
			return commentDeletedMsg{err: err}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *CommentView) submit() tea.Cmd {
	if v.store.Posting() {
		v.errText = "Still sending the previous comment"
		return nil
	}

	content := v.input.Value()
	replyTo := v.replyTo
	attachPath := v.attachPath

	return func() tea.Msg {
		var upload *api.Upload
		if attachPath != "" {
			var err error
			upload, err = api.LoadImageUpload(attachPath)
			if err != nil {
				return commentPostedMsg{err: err}
			}
		}
		_, err := v.store.Post(context.Background(), content, replyTo, upload)
		return commentPostedMsg{err: err}
	}
}

func (v *CommentView) ensureVisible() {
	// Each comment renders as roughly three lines plus spacing
	visibleItems := max((v.height-14)/4, 1)
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

// View renders the thread
func (v *CommentView) View() string {
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render(v.task.Title))
	b.WriteString("\n\n")
	b.WriteString(v.renderThread())
	b.WriteString("\n")
	b.WriteString(v.renderComposer())
	b.WriteString(v.renderStatusLine())
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *CommentView) renderThread() string {
	s := v.styles
	thread := v.store.Comments()

	if !v.loaded {
		return s.TitleMuted.Render("Loading comments...")
	}
	if len(thread) == 0 {
		return s.TitleMuted.Render("No comments yet. Press 'c' to write one.")
	}

	visibleItems := max((v.height-14)/4, 1)
	endIdx := min(v.scrollY+visibleItems, len(thread))

	var items []string
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderComment(thread[i], i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *CommentView) renderComment(c models.Comment, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	textWidth := clamp(contentWidth-8, 20, 70)

	header := s.Author.Render(c.Username) + "  " +
		s.TitleMuted.Render(c.CreatedAt.Local().Format("Jan 2, 2006 3:04 PM"))

	var parts []string
	parts = append(parts, header)

	if c.ParentID != nil {
		quoted := c.ParentContent
		author := c.ParentUsername
		if c.ParentIsDeleted {
			quoted = comments.DeletedPlaceholder
		}
		quote := s.Quote.Width(textWidth).Render(
			s.QuoteAuthor.Render(author) + " " + quoted)
		parts = append(parts, quote)
	}

	body := c.Content
	if c.IsDeleted {
		parts = append(parts, s.Deleted.Render(comments.DeletedPlaceholder))
	} else {
		parts = append(parts, lipgloss.NewStyle().Width(textWidth).Render(body))
		if c.ImageURL != "" {
			parts = append(parts, s.Attachment.Render("🖼 "+c.ImageURL))
		}
	}

	block := lipgloss.JoinVertical(lipgloss.Left, parts...)

	itemStyle := s.ListItem
	if selected {
		itemStyle = s.ListSelected
	}
	return itemStyle.Render(block) + "\n"
}

func (v *CommentView) renderComposer() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	if v.attaching {
		return lipgloss.JoinVertical(lipgloss.Left,
			"Attach image:",
			s.InputFocused.Width(clamp(contentWidth-6, 20, 60)).Render(v.attachInput.View()),
		) + "\n"
	}

	if !v.writing {
		return ""
	}

	var rows []string
	if v.replyTo != nil {
		rows = append(rows, s.TitleMuted.Render("Replying to "+v.replyAuthor))
	}
	if v.attachPath != "" {
		rows = append(rows, s.Attachment.Render("attaching "+v.attachPath))
	}

	inputStyle := s.InputFocused
	if v.store.Posting() {
		inputStyle = s.Input
	}
	rows = append(rows, inputStyle.Render(v.input.View()))

	if candidates := v.mentionCandidates(); len(candidates) > 0 {
		var items []string
		for i, m := range candidates {
			itemStyle := s.ListItem
			if i == v.mentionCursor {
				itemStyle = s.ListSelected
			}
			items = append(items, itemStyle.Render("@"+m.Username))
		}
		rows = append(rows, s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, items...)))
	}

	if v.store.Posting() {
		rows = append(rows, s.TitleMuted.Render("Sending..."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n"
}

func (v *CommentView) renderStatusLine() string {
	if v.errText == "" {
		return ""
	}
	return v.styles.StatusErr.Render(v.errText) + "\n"
}

func (v *CommentView) renderHelp() string {
	s := v.styles
	if v.writing {
		return s.Help.Render(
			fmt.Sprintf("%s send • %s attach • %s complete mention • %s cancel",
				s.HelpKey.Render("ctrl+s"),
				s.HelpKey.Render("ctrl+a"),
				s.HelpKey.Render("tab"),
				s.HelpKey.Render("esc"),
			),
		)
	}
	return s.Help.Render(
		fmt.Sprintf("%s comment • %s reply • %s attach • %s delete • %s back",
			s.HelpKey.Render("c"),
			s.HelpKey.Render("r"),
			s.HelpKey.Render("a"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("esc"),
		),
	)
}

func (v *CommentView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Comment?"),
		"",
		s.TitleMuted.Render("The comment is replaced by a placeholder; replies stay."),
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
