package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/r9s-ai/cadscribe/internal/admin/store"
	"github.com/r9s-ai/cadscribe/internal/artifact"
)

type viewerState int

const (
	viewerStateList viewerState = iota
	viewerStateDetail
)

type viewerTab int

const (
	tabDumps viewerTab = iota
	tabArtifacts
)

func (t viewerTab) String() string {
	if t == tabArtifacts {
		return "Artifacts"
	}
	return "Dump Logs"
}

type viewerKeyMap struct {
	Open   key.Binding
	Back   key.Binding
	Tab    key.Binding
	Reload key.Binding
	Quit   key.Binding
}

func (k viewerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Tab, k.Reload, k.Quit}
}

func (k viewerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Back, k.Tab, k.Reload},
		{k.Quit},
	}
}

var viewerKeys = viewerKeyMap{
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "b"),
		key.WithHelp("esc/b", "back"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "dumps/artifacts"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type dumpItem struct {
	sum store.DumpSummary
}

func (i dumpItem) Title() string {
	shape := strings.TrimSpace(i.sum.Shape)
	if shape == "" {
		shape = "-"
	}
	return fmt.Sprintf("%s  %s  %s  %s", i.sum.DisplayTime(), i.sum.DisplayStatus(), shape, strings.TrimSpace(i.sum.URLPath))
}

func (i dumpItem) Description() string {
	prompt := strings.TrimSpace(i.sum.Prompt)
	if len(prompt) > 60 {
		prompt = prompt[:57] + "..."
	}
	if prompt == "" {
		prompt = "-"
	}
	return fmt.Sprintf("rid=%s prompt=%q", i.sum.DisplayRequestID(), prompt)
}

func (i dumpItem) FilterValue() string {
	parts := []string{
		strings.TrimSpace(i.sum.Shape),
		strings.TrimSpace(i.sum.URLPath),
		strings.TrimSpace(i.sum.Method),
		strings.TrimSpace(i.sum.RequestID),
		strings.TrimSpace(i.sum.Prompt),
		strings.TrimSpace(i.sum.Backend),
	}
	if i.sum.Status != 0 {
		parts = append(parts, fmt.Sprintf("%d", i.sum.Status))
	}
	if i.sum.Applied != nil {
		parts = append(parts, fmt.Sprintf("applied=%t", *i.sum.Applied))
	}
	return strings.ToLower(strings.Join(parts, " "))
}

type artifactItem struct {
	info artifact.Info
}

func (i artifactItem) Title() string {
	return fmt.Sprintf("%s  %s", i.info.ModTime.Format("2006-01-02 15:04:05"), i.info.Suffix)
}

func (i artifactItem) Description() string {
	return fmt.Sprintf("%s  %d bytes", i.info.Name, i.info.Size)
}

func (i artifactItem) FilterValue() string {
	return strings.ToLower(i.info.Suffix + " " + i.info.Name)
}

type viewerModel struct {
	dumpsDir     string
	artifactsDir string
	limit        int

	state     viewerState
	tab       viewerTab
	dumps     list.Model
	artifacts list.Model
	vp        viewport.Model
	help      help.Model
	keys      viewerKeyMap
	watcher   *dirWatcher

	width  int
	height int

	selectedPath string
	lastLoaded   time.Time
	err          error
}

type dumpListMsg struct {
	items []store.DumpSummary
	err   error
}

type artifactListMsg struct {
	items []artifact.Info
	err   error
}

type detailMsg struct {
	path    string
	content string
	err     error
}

func newList(title string) list.Model {
	d := list.NewDefaultDelegate()
	d.ShowDescription = true
	d.SetSpacing(0)

	l := list.New(nil, d, 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.DisableQuitKeybindings()
	return l
}

func newViewerModel(dumpsDir, artifactsDir string, watcher *dirWatcher) viewerModel {
	h := help.New()
	h.ShowAll = false
	return viewerModel{
		dumpsDir:     strings.TrimSpace(dumpsDir),
		artifactsDir: strings.TrimSpace(artifactsDir),
		limit:        200,
		state:        viewerStateList,
		tab:          tabDumps,
		dumps:        newList(tabDumps.String()),
		artifacts:    newList(tabArtifacts.String()),
		vp:           viewport.New(0, 0),
		help:         h,
		keys:         viewerKeys,
		watcher:      watcher,
	}
}

func (m viewerModel) Init() tea.Cmd {
	return tea.Batch(m.loadDumpsCmd(), m.loadArtifactsCmd(), m.watcher.next())
}

func (m *viewerModel) activeList() *list.Model {
	if m.tab == tabArtifacts {
		return &m.artifacts
	}
	return &m.dumps
}

func (m viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case dumpListMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.items))
		for _, s := range msg.items {
			items = append(items, dumpItem{sum: s})
		}
		cmd := m.dumps.SetItems(items)
		m.lastLoaded = time.Now()
		m.err = nil
		return m, cmd

	case artifactListMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.items))
		for _, a := range msg.items {
			items = append(items, artifactItem{info: a})
		}
		cmd := m.artifacts.SetItems(items)
		m.lastLoaded = time.Now()
		m.err = nil
		return m, cmd

	case dirChangedMsg:
		cmds := []tea.Cmd{m.watcher.next()}
		if strings.HasSuffix(strings.ToLower(msg.path), artifact.Ext) {
			cmds = append(cmds, m.loadArtifactsCmd())
		} else {
			cmds = append(cmds, m.loadDumpsCmd())
		}
		return m, tea.Batch(cmds...)

	case watchErrMsg:
		m.err = msg.err
		return m, m.watcher.next()

	case detailMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.selectedPath = msg.path
		m.vp.SetContent(msg.content)
		m.vp.GotoTop()
		m.state = viewerStateDetail
		m.resize()
		m.err = nil
		return m, nil

	case tea.KeyMsg:
		filtering := m.activeList().FilterState() == list.Filtering
		switch {
		case key.Matches(msg, m.keys.Quit) && !filtering:
			return m, tea.Quit
		case m.state == viewerStateDetail && key.Matches(msg, m.keys.Back):
			m.state = viewerStateList
			m.resize()
			return m, nil
		case m.state == viewerStateList && !filtering && key.Matches(msg, m.keys.Tab):
			if m.tab == tabDumps {
				m.tab = tabArtifacts
			} else {
				m.tab = tabDumps
			}
			m.resize()
			return m, nil
		case !filtering && key.Matches(msg, m.keys.Reload):
			return m, tea.Batch(m.loadDumpsCmd(), m.loadArtifactsCmd())
		case m.state == viewerStateList && !filtering && key.Matches(msg, m.keys.Open):
			switch it := m.activeList().SelectedItem().(type) {
			case dumpItem:
				return m, readDumpFileCmd(it.sum.Path)
			case artifactItem:
				return m, describeArtifactCmd(it.info.Path)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case viewerStateList:
		l := m.activeList()
		*l, cmd = l.Update(msg)
	case viewerStateDetail:
		m.vp, cmd = m.vp.Update(msg)
	}
	return m, cmd
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	tabOnStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

func (m viewerModel) tabBar() string {
	parts := make([]string, 0, 2)
	for _, t := range []viewerTab{tabDumps, tabArtifacts} {
		if t == m.tab {
			parts = append(parts, tabOnStyle.Render(t.String()))
		} else {
			parts = append(parts, faintStyle.Render(t.String()))
		}
	}
	return strings.Join(parts, "  |  ")
}

func (m viewerModel) View() string {
	var b strings.Builder
	switch m.state {
	case viewerStateList:
		dir := m.dumpsDir
		if m.tab == tabArtifacts {
			dir = m.artifactsDir
		}
		b.WriteString(m.tabBar())
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("dir=%s  limit=%d", dir, m.limit)))
		b.WriteString("\n")
		if !m.lastLoaded.IsZero() {
			b.WriteString(faintStyle.Render("loaded: " + m.lastLoaded.Format(time.RFC3339)))
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString(errStyle.Render("error: " + m.err.Error()))
			b.WriteString("\n\n")
		}
		b.WriteString(m.activeList().View())
		b.WriteString("\n")
		b.WriteString(faintStyle.Render("Tip: press / to filter (shape/path/status/rid/prompt), esc to clear filter"))
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keys))
		return b.String()

	case viewerStateDetail:
		b.WriteString(headerStyle.Render(m.selectedPath))
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(errStyle.Render("error: " + m.err.Error()))
			b.WriteString("\n\n")
		}
		b.WriteString(m.vp.View())
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keys))
		return b.String()
	default:
		return ""
	}
}

func (m *viewerModel) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	helpHeight := 1
	if m.help.ShowAll {
		helpHeight = 3
	}

	switch m.state {
	case viewerStateList:
		// tabs(1) + header(1) + loaded(0-1) + error(0-2) + list + tip(1) + help
		headerLines := 3
		if !m.lastLoaded.IsZero() {
			headerLines++
		}
		if m.err != nil {
			headerLines += 2
		}
		avail := max(m.height-headerLines-1-helpHeight, 5)
		m.dumps.SetSize(m.width, avail)
		m.artifacts.SetSize(m.width, avail)
	case viewerStateDetail:
		headerLines := 1
		if m.err != nil {
			headerLines += 2
		}
		m.vp.Width = m.width
		m.vp.Height = max(m.height-headerLines-helpHeight, 5)
	}
}

func (m viewerModel) loadDumpsCmd() tea.Cmd {
	dir := m.dumpsDir
	limit := m.limit
	return func() tea.Msg {
		items, err := store.ListDumpSummaries(store.DumpListOptions{Dir: dir, Limit: limit})
		return dumpListMsg{items: items, err: err}
	}
}

func (m viewerModel) loadArtifactsCmd() tea.Cmd {
	dir := m.artifactsDir
	limit := m.limit
	return func() tea.Msg {
		items, err := store.ListArtifacts(dir, limit)
		return artifactListMsg{items: items, err: err}
	}
}

func readDumpFileCmd(path string) tea.Cmd {
	p := strings.TrimSpace(path)
	return func() tea.Msg {
		b, err := os.ReadFile(p) // #nosec G304 -- admin tool reads user-selected dump file.
		if err != nil {
			return detailMsg{path: p, err: err}
		}
		return detailMsg{path: p, content: string(b)}
	}
}

func describeArtifactCmd(path string) tea.Cmd {
	p := strings.TrimSpace(path)
	return func() tea.Msg {
		rep, err := store.DescribeArtifact(p)
		if err != nil {
			return detailMsg{path: p, err: err}
		}
		return detailMsg{path: p, content: rep.String()}
	}
}
