// Package tui is a terminal client for studying one flashcard set served by
// a flashforge server.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"flashforge/internal/cardaction"
	"flashforge/internal/study"
)

const requestTimeout = 10 * time.Second

// Service is the server API the model talks to. *cardaction.Client implements it.
type Service interface {
	Deck(ctx context.Context, setID int64) ([]study.Card, error)
	ToggleFavorite(ctx context.Context, setID, cardID int64) (cardaction.FavoriteResult, error)
	DeleteCard(ctx context.Context, setID, cardID int64) error
}

type deckLoadedMsg struct {
	deck []study.Card
}

type deckErrorMsg struct {
	err error
}

type favoriteDoneMsg struct {
	cardID   int64
	previous cardaction.Appearance
	res      cardaction.FavoriteResult
	err      error
}

type deleteDoneMsg struct {
	cardID int64
	err    error
}

type clearStatusMsg struct {
	id int
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(1, 3).Width(60)
	labelStyle   = lipgloss.NewStyle().Faint(true)
	selectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	starStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// Model is the bubbletea model for one set. Study state lives in a
// study.Session rendering into a PageState, the same pair the web pages use.
type Model struct {
	service Service
	setID   int64
	title   string

	deck    []study.Card
	session *study.Session
	page    *study.PageState
	cursor  int

	appearances   map[int64]cardaction.Appearance
	pendingDelete int64

	loading    bool
	spinner    spinner.Model
	status     string
	statusKind cardaction.NotificationKind
	statusID   int
	err        error
}

// NewModel creates a model for setID. The deck is fetched by Init.
func NewModel(service Service, setID int64, title string) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := Model{
		service:     service,
		setID:       setID,
		title:       title,
		spinner:     spin,
		appearances: make(map[int64]cardaction.Appearance),
		loading:     true,
	}
	m.resetSession(nil)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadDeckCmd(m.service, m.setID))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case deckLoadedMsg:
		m.loading = false
		m.err = nil
		m.resetSession(msg.deck)
		return m, nil
	case deckErrorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil
	case favoriteDoneMsg:
		appearance, note := cardaction.Outcome(msg.previous, msg.res, msg.err)
		m.appearances[msg.cardID] = appearance
		if msg.err == nil && msg.res.Success {
			m.setFavorite(msg.cardID, msg.res.Favorite)
		}
		return m.notify(note)
	case deleteDoneMsg:
		if msg.err != nil {
			return m.notify(cardaction.Notification{Message: msg.err.Error(), Kind: cardaction.KindError})
		}
		m.loading = true
		next, clearCmd := m.notify(cardaction.Notification{Message: "Card deleted successfully!", Kind: cardaction.KindSuccess})
		return next, tea.Batch(clearCmd, loadDeckCmd(m.service, m.setID))
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.pendingDelete != 0 {
		cardID := m.pendingDelete
		m.pendingDelete = 0
		m.status = ""
		if key == "y" || key == "Y" {
			m.loading = true
			return m, deleteCmd(m.service, m.setID, cardID)
		}
		return m, nil
	}

	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "s":
		m.session.Toggle()
		return m, nil
	case "r":
		m.loading = true
		return m, loadDeckCmd(m.service, m.setID)
	case "f":
		return m.toggleFavorite()
	case "d":
		card, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.pendingDelete = card.ID
		m.status = cardaction.DeletePrompt + " (y/n)"
		m.statusKind = cardaction.KindInfo
		return m, nil
	}

	if m.session.Active() {
		switch key {
		case "right", "l", "n":
			m.session.Next()
		case "left", "h", "p":
			m.session.Previous()
		case " ", "space", "enter":
			m.session.ToggleFlip()
		case "esc":
			m.session.Exit()
		}
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.deck)-1 {
			m.cursor++
		}
	}
	return m, nil
}

func (m Model) toggleFavorite() (tea.Model, tea.Cmd) {
	card, ok := m.selected()
	if !ok {
		return m, nil
	}
	previous := m.appearance(card)
	if previous == cardaction.Loading {
		return m, nil
	}
	m.appearances[card.ID] = cardaction.Loading
	return m, favoriteCmd(m.service, m.setID, card.ID, previous)
}

func (m Model) notify(note cardaction.Notification) (Model, tea.Cmd) {
	m.loading = false
	m.status = note.Message
	m.statusKind = note.Kind
	m.statusID++
	return m, clearStatusCmd(m.statusID, cardaction.NotificationTTL)
}

// resetSession starts over with deck, as reloading the page would.
func (m *Model) resetSession(deck []study.Card) {
	m.deck = deck
	m.page = study.NewPageState()
	m.session = study.NewSession(deck, m.page)
	if m.cursor >= len(deck) {
		m.cursor = max(len(deck)-1, 0)
	}
	for id, a := range m.appearances {
		if a != cardaction.Loading {
			delete(m.appearances, id)
		}
	}
}

// selected is the card under the study cursor while studying and the
// highlighted row otherwise.
func (m Model) selected() (study.Card, bool) {
	if m.session.Active() {
		current, ok := m.session.Current()
		if !ok {
			return study.Card{}, false
		}
		return m.lookup(current.ID)
	}
	if len(m.deck) == 0 {
		return study.Card{}, false
	}
	return m.deck[m.cursor], true
}

func (m Model) lookup(cardID int64) (study.Card, bool) {
	for _, c := range m.deck {
		if c.ID == cardID {
			return c, true
		}
	}
	return study.Card{}, false
}

func (m Model) setFavorite(cardID int64, favorite bool) {
	for i := range m.deck {
		if m.deck[i].ID == cardID {
			m.deck[i].Favorite = favorite
		}
	}
}

func (m Model) appearance(card study.Card) cardaction.Appearance {
	if a, ok := m.appearances[card.ID]; ok {
		return a
	}
	return cardaction.AppearanceFor(card.Favorite)
}

func (m Model) View() string {
	var b strings.Builder

	header := m.title
	if header == "" {
		header = fmt.Sprintf("Set %d", m.setID)
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("[" + m.page.ToggleLabel + "]"))
	if m.loading {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case m.session.Active():
		b.WriteString(m.studyView())
	default:
		b.WriteString(m.browseView())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle(m.statusKind).Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) studyView() string {
	side, text := "Question", m.page.Question
	if m.page.Flipped {
		side, text = "Answer", m.page.Answer
	}
	star := ""
	if card, ok := m.selected(); ok {
		star = " " + m.star(card)
	}
	body := labelStyle.Render(side) + star + "\n\n" + text
	return cardStyle.Render(body) + "\n"
}

func (m Model) browseView() string {
	if len(m.deck) == 0 {
		if m.loading {
			return labelStyle.Render("Loading cards...") + "\n"
		}
		return labelStyle.Render("This set has no cards yet.") + "\n"
	}

	var b strings.Builder
	for i, card := range m.deck {
		line := fmt.Sprintf("%s %s  %s", m.star(card), card.Question, labelStyle.Render(card.Answer))
		if i == m.cursor {
			b.WriteString(selectStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) star(card study.Card) string {
	switch m.appearance(card) {
	case cardaction.Favorited:
		return starStyle.Render("★")
	case cardaction.Loading:
		return m.spinner.View()
	default:
		return "☆"
	}
}

func (m Model) help() string {
	if m.pendingDelete != 0 {
		return "y: delete • any other key: cancel"
	}
	if m.session.Active() {
		return "←/→: previous/next • space: flip • f: favorite • d: delete • s/esc: exit study • q: quit"
	}
	return "↑/↓: select • s: study • f: favorite • d: delete • r: reload • q: quit"
}

func statusStyle(kind cardaction.NotificationKind) lipgloss.Style {
	switch kind {
	case cardaction.KindSuccess:
		return successStyle
	case cardaction.KindError:
		return errorStyle
	default:
		return infoStyle
	}
}

func loadDeckCmd(service Service, setID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		deck, err := service.Deck(ctx, setID)
		if err != nil {
			return deckErrorMsg{err: err}
		}
		return deckLoadedMsg{deck: deck}
	}
}

func favoriteCmd(service Service, setID, cardID int64, previous cardaction.Appearance) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		res, err := service.ToggleFavorite(ctx, setID, cardID)
		return favoriteDoneMsg{cardID: cardID, previous: previous, res: res, err: err}
	}
}

func deleteCmd(service Service, setID, cardID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return deleteDoneMsg{cardID: cardID, err: service.DeleteCard(ctx, setID, cardID)}
	}
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}
