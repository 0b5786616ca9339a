package main

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// MessageRole says who a chat message belongs to.
type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleAI     MessageRole = "ai"
	RoleSystem MessageRole = "system"
)

const placeholderText = "Generating report..."

// ChatMessage is one entry of the conversation. AI messages start as a
// pending placeholder and are filled in place once the backend answers.
type ChatMessage struct {
	Role MessageRole
	// Text is the prompt for user messages and the raw payload (or error
	// text) for AI messages.
	Text string
	// Format is the format the backend declared for the payload, if any.
	Format   string
	Rendered string
	Pending  bool
	Failed   bool
}

// ChatComponent represents the chat view
type ChatComponent struct {
	Viewport     viewport.Model
	Messages     []ChatMessage
	Spinner      spinner.Model
	Palette      *Palette
	Width        int
	Height       int
	AutoScroll   bool
	UserScrolled bool
}

// NewChatComponent creates a new chat component
func NewChatComponent(width, height int, palette *Palette) ChatComponent {
	vp := viewport.New(width, height)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(palette.Accent)

	return ChatComponent{
		Viewport:   vp,
		Spinner:    sp,
		Palette:    palette,
		Width:      width,
		Height:     height,
		AutoScroll: true,
	}
}

// SetWidth updates the width of the chat component
func (c *ChatComponent) SetWidth(width int) {
	c.Width = width
	c.Viewport.Width = width
	c.UpdateContent()
}

// SetHeight updates the height of the chat component
func (c *ChatComponent) SetHeight(height int) {
	c.Height = height
	c.Viewport.Height = height
	c.UpdateContent()
}

// SetPalette switches the colors used for messages rendered from now on.
func (c *ChatComponent) SetPalette(palette *Palette) {
	c.Palette = palette
	c.Spinner.Style = lipgloss.NewStyle().Foreground(palette.Accent)
	c.UpdateContent()
}

// AddMessage appends a message and scrolls to it. It returns the index of
// the new message.
func (c *ChatComponent) AddMessage(message ChatMessage) int {
	c.Messages = append(c.Messages, message)
	c.AutoScroll = true
	c.UserScrolled = false
	c.UpdateContent()
	return len(c.Messages) - 1
}

// AddPlaceholder appends a pending AI message and returns its index.
func (c *ChatComponent) AddPlaceholder() int {
	return c.AddMessage(ChatMessage{Role: RoleAI, Pending: true})
}

// ReplaceMessage fills the message at index in place. Out of range indexes
// are ignored.
func (c *ChatComponent) ReplaceMessage(index int, message ChatMessage) bool {
	if index < 0 || index >= len(c.Messages) {
		return false
	}
	c.Messages[index] = message
	c.UpdateContent()
	return true
}

// HasPending reports whether a placeholder is still waiting.
func (c ChatComponent) HasPending() bool {
	for _, m := range c.Messages {
		if m.Pending {
			return true
		}
	}
	return false
}

// UpdateContent updates the viewport content based on the messages
func (c *ChatComponent) UpdateContent() {
	views := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		views = append(views, c.renderMessage(m))
	}
	c.Viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, views...))

	if c.AutoScroll && !c.UserScrolled {
		c.Viewport.GotoBottom()
	}
}

func (c ChatComponent) renderMessage(m ChatMessage) string {
	p := c.Palette
	width := max(c.Width-4, 10)

	if m.Role == RoleUser {
		icon := lipgloss.NewStyle().Foreground(p.UserColor).Render(p.UserIcon)
		body := lipgloss.NewStyle().
			Foreground(p.Text).
			Render(wordwrap.String(m.Text, width))
		return lipgloss.NewStyle().
			Padding(1, 1, 0, 1).
			Render(lipgloss.JoinHorizontal(lipgloss.Top, icon+" ", body))
	}

	if m.Role == RoleSystem {
		return lipgloss.NewStyle().Padding(1, 1, 0, 1).Render(m.Rendered)
	}

	icon := lipgloss.NewStyle().Foreground(p.Accent).Render(p.AIIcon)
	var body string
	switch {
	case m.Pending:
		body = c.Spinner.View() + " " + p.MutedStyle().Render(placeholderText)
	case m.Failed:
		body = p.ErrorStyle().Render(wordwrap.String(m.Text, width))
	default:
		body = m.Rendered
	}
	return lipgloss.NewStyle().
		Padding(1, 1, 0, 1).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, icon+" ", body))
}

// Update handles messages for the chat component
func (c ChatComponent) Update(msg tea.Msg) (ChatComponent, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !c.HasPending() {
			return c, nil
		}
		var cmd tea.Cmd
		c.Spinner, cmd = c.Spinner.Update(msg)
		c.UpdateContent()
		return c, cmd
	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			c.Viewport.LineUp(1)
			c.UserScrolled = true
		case tea.MouseButtonWheelDown:
			c.Viewport.LineDown(1)
			c.UserScrolled = !c.Viewport.AtBottom()
		}
		return c, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup":
			c.Viewport.HalfViewUp()
			c.UserScrolled = true
		case "pgdown":
			c.Viewport.HalfViewDown()
			c.UserScrolled = !c.Viewport.AtBottom()
		case "ctrl+home":
			c.Viewport.GotoTop()
			c.UserScrolled = true
		case "ctrl+end":
			c.Viewport.GotoBottom()
			c.UserScrolled = false
			c.AutoScroll = true
		}
		return c, nil
	}
	var cmd tea.Cmd
	c.Viewport, cmd = c.Viewport.Update(msg)
	return c, cmd
}

// View renders the chat component
func (c ChatComponent) View() string {
	return c.Viewport.View()
}
