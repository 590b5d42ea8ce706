package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	DumpsDir     string
	ArtifactsDir string
	// Watch reloads lists when files appear under either dir.
	Watch bool
}

func Run(opts Options, in io.Reader, out io.Writer) error {
	var watcher *dirWatcher
	if opts.Watch {
		w, err := newDirWatcher(opts.DumpsDir, opts.ArtifactsDir)
		if err != nil {
			return fmt.Errorf("watch dirs: %w", err)
		}
		defer func() { _ = w.Close() }()
		watcher = w
	}

	m := newViewerModel(opts.DumpsDir, opts.ArtifactsDir, watcher)
	p := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui run failed: %w", err)
	}
	return nil
}
