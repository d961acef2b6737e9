package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/aux-cli/internal/player"
	"github.com/desertthunder/aux-cli/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SongListView ViewState = iota
	PlayerView
)

const seekStepMS = 10_000

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	library    services.Library
	controller *player.Controller
	refresh    func(context.Context) error
	interval   time.Duration

	width  int
	height int

	songList list.Model
	listUp   bool
	songs    []services.Song
	device   player.Device
	state    *player.PlaybackState
	bar      progress.Model

	cmdErr error
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// refresh is invoked once when the provider rejects the bearer token during
// connect, mirroring the reconnect contract of [player.Establish].
func NewModel(ctx context.Context, library services.Library, controller *player.Controller, refresh func(context.Context) error, interval time.Duration) *Model {
	if interval <= 0 {
		interval = time.Second
	}

	return &Model{
		ctx:        ctx,
		view:       SongListView,
		library:    library,
		controller: controller,
		refresh:    refresh,
		interval:   interval,
		bar:        progress.New(progress.WithDefaultGradient()),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init fetches the liked songs and registers the playback device.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchSongs(), m.connect())
}

func (m *Model) fetchSongs() tea.Cmd {
	return func() tea.Msg {
		songs, err := m.library.SavedTracks(m.ctx, 50, 0)
		return songsFetchedMsg{songs: songs, err: err}
	}
}

func (m *Model) connect() tea.Cmd {
	return func() tea.Msg {
		device, err := player.Establish(m.ctx, m.controller, m.refresh)
		return connectedMsg{device: device, err: err}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runLoop drives [player.Controller.Run] for the life of the session. The
// loop owns polling and push-event draining; the UI tick only re-reads the
// merged snapshot.
func (m *Model) runLoop() tea.Cmd {
	return func() tea.Msg {
		m.controller.Run(m.ctx)
		return nil
	}
}

// command wraps a transport command so failures surface as a transient
// banner instead of ending the program.
func (m *Model) command(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(m.ctx); err != nil {
			return commandErrMsg{err: err}
		}
		return stateMsg{state: m.controller.State()}
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listUp {
			m.songList.SetSize(msg.Width-4, msg.Height-8)
		}
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SongListView:
			return m.handleSongListKeys(msg)
		case PlayerView:
			return m.handlePlayerKeys(msg)
		}

	case songsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.songs = msg.songs
		items := make([]list.Item, len(msg.songs))
		for i, song := range msg.songs {
			items[i] = songItem{song: song}
		}
		m.songList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.songList.Title = "Liked Songs"
		m.listUp = true
		if m.width > 0 {
			m.songList.SetSize(m.width-4, m.height-8)
		}
		return m, nil

	case connectedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to connect: %w", msg.err)
			return m, tea.Quit
		}
		m.device = msg.device
		return m, tea.Batch(m.command(m.controllerTransfer), m.runLoop(), m.tick())

	case stateMsg:
		if msg.err == nil && msg.state != nil {
			m.state = msg.state
		}
		return m, nil

	case commandErrMsg:
		m.cmdErr = msg.err
		return m, nil

	case tickMsg:
		if m.controller.Status() == player.StatusDisconnected {
			return m, nil
		}
		if state := m.controller.State(); state != nil {
			m.state = state
		}
		return m, m.tick()
	}

	if m.view == SongListView && m.listUp {
		var cmd tea.Cmd
		m.songList, cmd = m.songList.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) controllerTransfer(ctx context.Context) error {
	return m.controller.Transfer(ctx)
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.listUp {
		if key := msg.String(); key == "q" || key == "ctrl+c" {
			return m, m.quit()
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, m.quit()
	case "enter":
		selected := m.songList.Index()
		if selected >= 0 && selected < len(m.songs) {
			uris := make([]string, 0, len(m.songs)-selected)
			for _, song := range m.songs[selected:] {
				uris = append(uris, song.URI)
			}
			m.view = PlayerView
			m.cmdErr = nil
			return m, m.command(func(ctx context.Context) error {
				return m.controller.Play(ctx, uris)
			})
		}
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, m.quit()
	case "esc":
		m.view = SongListView
		return m, nil
	case " ":
		if m.state != nil && m.state.Paused {
			return m, m.command(m.controller.Resume)
		}
		return m, m.command(m.controller.Pause)
	case "n":
		return m, m.command(m.controller.SkipNext)
	case "p":
		return m, m.command(m.controller.SkipPrevious)
	case "left", "h":
		return m, m.seekBy(-seekStepMS)
	case "right", "l":
		return m, m.seekBy(seekStepMS)
	}

	return m, nil
}

func (m *Model) seekBy(deltaMS int) tea.Cmd {
	position := deltaMS
	if m.state != nil {
		position = m.state.PositionMS + deltaMS
	}
	if position < 0 {
		position = 0
	}
	return m.command(func(ctx context.Context) error {
		return m.controller.Seek(ctx, position)
	})
}

func (m *Model) quit() tea.Cmd {
	m.controller.Disconnect(m.ctx)
	return tea.Quit
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case SongListView:
		return m.renderSongList()
	case PlayerView:
		return m.renderPlayer()
	default:
		return ""
	}
}

func (m *Model) renderSongList() string {
	header := styles.title.Render("aux")
	status := styles.help.Render(fmt.Sprintf("device: %s • %s", m.deviceLabel(), m.controller.Status()))

	body := styles.help.Render("loading songs...")
	if m.listUp {
		body = m.songList.View()
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, body, status, m.help.View(m.keys))
}

func (m *Model) renderPlayer() string {
	header := styles.title.Render("Now Playing")

	body := styles.help.Render("nothing playing yet")
	ratio := 0.0
	position, duration := 0, 0

	if m.state != nil {
		title := m.state.Title
		if title == "" {
			title = m.state.TrackURI
		}
		marker := styles.ok.Render("▶")
		if m.state.Paused {
			marker = styles.warn.Render("⏸")
		}
		body = fmt.Sprintf("%s %s • %s", marker, title, m.state.Artist)
		position = m.state.PositionMS
		duration = m.state.DurationMS
		if duration > 0 {
			ratio = float64(position) / float64(duration)
		}
	}

	timeline := fmt.Sprintf("%s %s / %s",
		m.bar.ViewAs(ratio),
		formatDuration(position/1000),
		formatDuration(duration/1000),
	)

	footer := ""
	if m.cmdErr != nil {
		footer = styles.err.Render(fmt.Sprintf("command failed: %v", m.cmdErr))
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n%s", header, body, timeline, footer, m.help.View(m.keys))
}

func (m *Model) deviceLabel() string {
	if m.device.Name == "" {
		return "connecting..."
	}
	return m.device.Name
}
