package client

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	synchub "booktracker/internal/sync"
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Advance key.Binding
	Author  key.Binding
	Genre   key.Binding
	Order   key.Binding
	Clear   key.Binding
	Prev    key.Binding
	Next    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "subir")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "bajar")),
	Advance: key.NewBinding(key.WithKeys("s", "f", "enter"), key.WithHelp("s/f", "empezar/terminar")),
	Author:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "autor")),
	Genre:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "género")),
	Order:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "orden")),
	Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "limpiar filtros")),
	Prev:    key.NewBinding(key.WithKeys("left", "p"), key.WithHelp("←/p", "anterior")),
	Next:    key.NewBinding(key.WithKeys("right", "n"), key.WithHelp("→/n", "siguiente")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recargar")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "salir")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Advance, k.Author, k.Genre, k.Order, k.Clear, k.Prev, k.Next, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Advance},
		{k.Author, k.Genre, k.Order, k.Clear},
		{k.Prev, k.Next, k.Refresh, k.Quit},
	}
}

// Model is the bubbletea program state: the view state plus the API used to
// satisfy the effects Reduce asks for.
type Model struct {
	ctx     context.Context
	api     *API
	state   ViewState
	pending []Effect
	help    help.Model
}

func NewModel(ctx context.Context, api *API) Model {
	state, effects := Reduce(NewViewState(), Refresh{})
	return Model{ctx: ctx, api: api, state: state, pending: effects, help: help.New()}
}

func (m Model) State() ViewState { return m.state }

func (m Model) Init() tea.Cmd {
	return m.run(m.pending)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case Action:
		return m.dispatch(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		return m.dispatch(MoveCursor{Delta: -1})
	case key.Matches(msg, keys.Down):
		return m.dispatch(MoveCursor{Delta: 1})
	case key.Matches(msg, keys.Advance):
		return m, m.advance()
	case key.Matches(msg, keys.Author):
		return m.dispatch(NextAuthor(m.state))
	case key.Matches(msg, keys.Genre):
		return m.dispatch(NextGenre(m.state))
	case key.Matches(msg, keys.Order):
		return m.dispatch(NextOrder(m.state))
	case key.Matches(msg, keys.Clear):
		return m.dispatch(ClearFilters{})
	case key.Matches(msg, keys.Prev):
		return m.dispatch(PrevPage{})
	case key.Matches(msg, keys.Next):
		return m.dispatch(NextPage{})
	case key.Matches(msg, keys.Refresh):
		return m.dispatch(Refresh{})
	}
	return m, nil
}

func (m Model) dispatch(a Action) (tea.Model, tea.Cmd) {
	var effects []Effect
	m.state, effects = Reduce(m.state, a)
	return m, m.run(effects)
}

// advance moves the selected book one step forward: pending starts reading,
// reading finishes.
func (m Model) advance() tea.Cmd {
	book, ok := m.state.Selected()
	if !ok {
		return nil
	}
	next, ok := NextStatus(book)
	if !ok {
		return nil
	}
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		if _, err := api.SetStatus(ctx, book.ID, next); err != nil {
			return FetchFailed{Err: err.Error()}
		}
		return BookMutated{}
	}
}

func (m Model) run(effects []Effect) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(effects))
	for _, e := range effects {
		cmds = append(cmds, m.effectCmd(e))
	}
	return tea.Batch(cmds...)
}

func (m Model) effectCmd(e Effect) tea.Cmd {
	ctx, api := m.ctx, m.api
	switch e := e.(type) {
	case FetchDashboard:
		return func() tea.Msg {
			d, err := api.Dashboard(ctx)
			if err != nil {
				return FetchFailed{Err: err.Error()}
			}
			return DashboardLoaded{Dashboard: d}
		}
	case FetchAux:
		return func() tea.Msg {
			aux, err := api.Auxiliary(ctx)
			if err != nil {
				return FetchFailed{Err: err.Error()}
			}
			return AuxLoaded{Aux: aux}
		}
	case FetchFinished:
		return func() tea.Msg {
			page, err := api.Finished(ctx, e.Request)
			if err != nil {
				return FetchFailed{Generation: e.Generation, Err: err.Error()}
			}
			return FinishedLoaded{Generation: e.Generation, Page: page}
		}
	}
	return nil
}

func (m Model) View() string {
	return Render(m.state) + "\n" + m.help.View(keys)
}

// RunTUI runs the dashboard until the user quits. When wsURL is set, book
// events from the server trigger a refresh.
func RunTUI(ctx context.Context, api *API, wsURL string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(ctx, api), tea.WithAltScreen(), tea.WithContext(ctx))
	if wsURL != "" {
		go func() {
			_ = Watch(ctx, wsURL, func(synchub.BookEvent) { p.Send(Refresh{}) })
		}()
	}
	_, err := p.Run()
	return err
}
