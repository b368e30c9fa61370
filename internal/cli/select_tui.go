package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/distrohub/mediadesk/internal/events"
	"github.com/distrohub/mediadesk/internal/foldertree"
	"github.com/distrohub/mediadesk/internal/manager"
	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/notify"
	"github.com/distrohub/mediadesk/internal/util/filter"
	"github.com/distrohub/mediadesk/internal/util/format"
)

// selectKeyMap defines keybindings for the picker.
type selectKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Switch   key.Binding
	Toggle   key.Binding
	Open     key.Binding
	Pick     key.Binding
	Unpick   key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Search   key.Binding
	Upload   key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultSelectKeys() selectKeyMap {
	return selectKeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Switch:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "folders/media")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "expand / mark")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open folder / add")),
		Pick:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add marked")),
		Unpick:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear mark")),
		NextPage: key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next page")),
		PrevPage: key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "prev page")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Upload:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "quit")),
	}
}

func (k selectKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Switch, k.Open, k.Upload, k.Help, k.Quit}
}

func (k selectKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Switch, k.Toggle},
		{k.Open, k.Pick, k.Unpick},
		{k.NextPage, k.PrevPage, k.Search, k.Refresh},
		{k.Upload, k.Help, k.Quit},
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	activeStyle = paneStyle.BorderForeground(lipgloss.Color("#4A90E2"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#4A90E2")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	markedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true)
)

const folderPaneMin = 28

type selectPane int

const (
	paneFolders selectPane = iota
	paneMedia
)

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputUpload
)

// folderRow is one visible line of the folder pane.
type folderRow struct {
	id       string
	name     string
	depth    int
	children bool
	detached bool
}

// doneMsg reports the end of a background operation.
type doneMsg struct {
	status string
	err    error
}

// busMsg carries an event from the bus into the update loop.
type busMsg struct{ ev events.Event }

// selectModel is the picker UI over a manager.Selector.
type selectModel struct {
	ctx context.Context
	sel *manager.Selector
	bus <-chan events.Event

	keys  selectKeyMap
	help  help.Model
	input textinput.Model
	spin  spinner.Model

	pane         selectPane
	folders      []folderRow
	folderCursor int
	mediaCursor  int
	mode         inputMode
	busy         bool
	status       string
	err          error
	width        int

	chosen *models.MediaItem
}

func newSelectModel(ctx context.Context, sel *manager.Selector, bus <-chan events.Event) *selectModel {
	ti := textinput.New()
	ti.CharLimit = 512
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &selectModel{
		ctx:   ctx,
		sel:   sel,
		bus:   bus,
		keys:  defaultSelectKeys(),
		help:  help.New(),
		input: ti,
		spin:  sp,
		pane:  paneMedia,
		width: 100,
	}
	m.rebuildFolders()
	return m
}

// Chosen returns the item confirmed with Add, if any.
func (m *selectModel) Chosen() (models.MediaItem, bool) {
	if m.chosen == nil {
		return models.MediaItem{}, false
	}
	return *m.chosen, true
}

func (m *selectModel) Init() tea.Cmd {
	return m.listen()
}

// listen waits for the next bus event.
func (m *selectModel) listen() tea.Cmd {
	if m.bus == nil {
		return nil
	}
	ch := m.bus
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return busMsg{ev: ev}
	}
}

// run executes fn against the mounted manager off the update loop.
func (m *selectModel) run(status string, fn func(ctx context.Context, mgr *manager.Manager) error) tea.Cmd {
	mgr := m.sel.Manager()
	ctx := m.ctx
	m.busy = true
	m.err = nil
	op := func() tea.Msg {
		return doneMsg{status: status, err: fn(ctx, mgr)}
	}
	return tea.Batch(op, m.spin.Tick)
}

func (m *selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case doneMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil && msg.status != "" {
			m.status = msg.status
		}
		m.rebuildFolders()
		m.clampCursors()
		return m, nil

	case busMsg:
		m.onEvent(msg.ev)
		return m, m.listen()

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *selectModel) onEvent(ev events.Event) {
	switch e := ev.(type) {
	case *events.NotificationEvent:
		m.status = notify.Format(e)
	case *events.UploadEvent:
		if e.Type() == events.EventUploadProgress {
			m.status = fmt.Sprintf("Uploading %s: %d%%", e.Name, e.Progress)
		}
	}
}

func (m *selectModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = inputNone
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = inputNone
		m.input.Blur()
		m.input.Reset()
		if mode == inputSearch {
			m.mediaCursor = 0
			return m, m.run("", func(ctx context.Context, mgr *manager.Manager) error {
				return mgr.SetSearch(ctx, value)
			})
		}
		if value == "" {
			return m, nil
		}
		return m, m.upload(value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// upload sends the files under path to the selected folder. A successful
// upload remounts the manager, so the cursors start over.
func (m *selectModel) upload(path string) tea.Cmd {
	sel := m.sel
	ctx := m.ctx
	m.busy = true
	m.err = nil
	m.mediaCursor = 0
	op := func() tea.Msg {
		files, err := filter.CollectFiles([]string{path}, false, filter.Config{})
		if err != nil {
			return doneMsg{err: err}
		}
		if len(files) == 0 {
			return doneMsg{err: fmt.Errorf("no files under %s", path)}
		}
		n, err := sel.Upload(ctx, files...)
		return doneMsg{status: fmt.Sprintf("Uploaded %d of %d %s", n, len(files), format.Pluralize("file", int64(len(files)))), err: err}
	}
	return tea.Batch(op, m.spin.Tick)
}

func (m *selectModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.busy {
		return m, nil
	}

	mgr := m.sel.Manager()
	switch {
	case key.Matches(msg, m.keys.Switch):
		if m.pane == paneFolders {
			m.pane = paneMedia
		} else {
			m.pane = paneFolders
		}
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.NextPage):
		if mgr.List().Pagination().HasNext() {
			m.mediaCursor = 0
			return m, m.run("", func(ctx context.Context, mgr *manager.Manager) error { return mgr.NextPage(ctx) })
		}
	case key.Matches(msg, m.keys.PrevPage):
		if mgr.Page() > 1 {
			m.mediaCursor = 0
			return m, m.run("", func(ctx context.Context, mgr *manager.Manager) error { return mgr.PrevPage(ctx) })
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.run("Refreshed", func(ctx context.Context, mgr *manager.Manager) error { return mgr.Refresh(ctx) })
	case key.Matches(msg, m.keys.Search):
		m.mode = inputSearch
		m.input.Placeholder = "search media"
		m.input.SetValue(mgr.Query().Search)
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Upload):
		m.mode = inputUpload
		m.input.Placeholder = "file or directory to upload"
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Unpick):
		m.sel.Cancel()
	case key.Matches(msg, m.keys.Pick):
		return m.add()
	case key.Matches(msg, m.keys.Toggle):
		if m.pane == paneFolders {
			m.toggleFolder()
		} else {
			m.mark()
		}
	case key.Matches(msg, m.keys.Open):
		if m.pane == paneFolders {
			return m, m.openFolder()
		}
		if m.mark() {
			return m.add()
		}
	}
	return m, nil
}

func (m *selectModel) move(delta int) {
	if m.pane == paneFolders {
		m.folderCursor += delta
	} else {
		m.mediaCursor += delta
	}
	m.clampCursors()
}

func (m *selectModel) clampCursors() {
	clamp := func(v, n int) int {
		if v >= n {
			v = n - 1
		}
		if v < 0 {
			v = 0
		}
		return v
	}
	m.folderCursor = clamp(m.folderCursor, len(m.folders))
	m.mediaCursor = clamp(m.mediaCursor, len(m.sel.Manager().List().Items()))
}

// mark picks the media item under the cursor.
func (m *selectModel) mark() bool {
	items := m.sel.Manager().List().Items()
	if len(items) == 0 {
		return false
	}
	if err := m.sel.Pick(items[m.mediaCursor].ID); err != nil {
		m.err = err
		return false
	}
	return true
}

func (m *selectModel) add() (tea.Model, tea.Cmd) {
	item, err := m.sel.Add()
	if err != nil {
		m.err = err
		return m, nil
	}
	m.chosen = &item
	return m, tea.Quit
}

func (m *selectModel) toggleFolder() {
	if len(m.folders) == 0 {
		return
	}
	row := m.folders[m.folderCursor]
	if !row.children {
		return
	}
	m.sel.Manager().Expand().Toggle(row.id)
	m.rebuildFolders()
	m.clampCursors()
}

func (m *selectModel) openFolder() tea.Cmd {
	if len(m.folders) == 0 {
		return nil
	}
	id := m.folders[m.folderCursor].id
	m.mediaCursor = 0
	m.pane = paneMedia
	return m.run("", func(ctx context.Context, mgr *manager.Manager) error {
		return mgr.SelectFolder(ctx, id)
	})
}

// rebuildFolders flattens the expanded part of the tree.
func (m *selectModel) rebuildFolders() {
	mgr := m.sel.Manager()
	rows := []folderRow{{id: models.RootFolderID, name: foldertree.RootName}}
	tree := mgr.Tree()
	if tree != nil {
		expand := mgr.Expand()
		tree.Walk(func(n *foldertree.Node, depth int) bool {
			rows = append(rows, folderRow{
				id:       n.ID,
				name:     n.Name,
				depth:    depth + 1,
				children: len(n.Children) > 0,
				detached: n.Detached,
			})
			return expand.IsExpanded(n.ID)
		})
	}
	m.folders = rows
}

func (m *selectModel) View() string {
	mgr := m.sel.Manager()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Select media"))
	if tree := mgr.Tree(); tree != nil {
		b.WriteString(dimStyle.Render("  " + tree.Path(mgr.SelectedFolder())))
	}
	b.WriteString("\n")

	folders := m.renderFolders(mgr.SelectedFolder())
	media := m.renderMediaPane(mgr)
	fp, mp := paneStyle, paneStyle
	if m.pane == paneFolders {
		fp = activeStyle
	} else {
		mp = activeStyle
	}
	fw := folderPaneMin
	if w := m.width / 3; w > fw {
		fw = w
	}
	mw := m.width - fw - 6
	if mw < 40 {
		mw = 40
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, fp.Width(fw).Render(folders), mp.Width(mw).Render(media)))
	b.WriteString("\n")

	if c, ok := m.sel.Candidate(); ok {
		b.WriteString(markedStyle.Render("Marked: "+c.Name) + dimStyle.Render("  "+c.URL) + "\n")
	}
	switch {
	case m.mode != inputNone:
		b.WriteString(m.input.View() + "\n")
	case m.busy:
		b.WriteString(m.spin.View() + " Working...\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render("✗ "+m.err.Error()) + "\n")
	case m.status != "":
		b.WriteString(m.status + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *selectModel) renderFolders(selected string) string {
	var b strings.Builder
	expand := m.sel.Manager().Expand()
	for i, row := range m.folders {
		marker := "  "
		if row.children {
			marker = "▸ "
			if expand.IsExpanded(row.id) {
				marker = "▾ "
			}
		}
		line := strings.Repeat("  ", row.depth) + marker + row.name
		if row.detached {
			line += " (detached)"
		}
		if row.id == selected {
			line += " •"
		}
		if i == m.folderCursor && m.pane == paneFolders {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *selectModel) renderMediaPane(mgr *manager.Manager) string {
	items := mgr.List().Items()
	if len(items) == 0 {
		return dimStyle.Render("No media found.")
	}
	candidate, _ := m.sel.Candidate()
	var b strings.Builder
	for i, it := range items {
		line := fmt.Sprintf("%s %s  %s", typeIcon(it.Type), pad(clip(it.Name, 36), 36), format.FormatFileSize(it.Size))
		if flags := mediaFlags(it); flags != "" {
			line += "  " + dimStyle.Render(flags)
		}
		if it.ID == candidate.ID {
			line = markedStyle.Render("✓ ") + line
		} else {
			line = "  " + line
		}
		if i == m.mediaCursor && m.pane == paneMedia {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	p := mgr.List().Pagination()
	total := p.TotalPages
	if total < 1 {
		total = 1
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("Page %d of %d", p.CurrentPage, total)))
	return b.String()
}
