package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"trackdl/internal/backend"
)

const (
	barPadding  = 2
	barMaxWidth = 60
)

type progressMsg backend.Progress

type progressDoneMsg struct{}

// logLineMsg is a diagnostic printed above the bar.
type logLineMsg string

// progressModel draws a single download progress bar.
type progressModel struct {
	bar    progress.Model
	label  string
	latest backend.Progress
	done   bool
}

func newProgressModel(label string) progressModel {
	return progressModel{
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		label: label,
	}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.latest = backend.Progress(msg)
		if m.latest.Title != "" {
			m.label = m.latest.Title
		}
	case progressDoneMsg:
		m.done = true
		return m, tea.Quit
	case logLineMsg:
		return m, tea.Println(string(msg))
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-barPadding*2-4, barMaxWidth)
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	pad := strings.Repeat(" ", barPadding)

	var stats string
	switch {
	case m.latest.Total > 0:
		stats = fmt.Sprintf("%s / %s", humanize.Bytes(uint64(m.latest.Downloaded)), humanize.Bytes(uint64(m.latest.Total)))
		if m.latest.ETA > 0 {
			stats += fmt.Sprintf("  ETA %s", m.latest.ETA.Round(time.Second))
		}
	case m.latest.Downloaded > 0:
		stats = humanize.Bytes(uint64(m.latest.Downloaded))
	default:
		stats = "waiting for yt-dlp"
	}

	return pad + m.label + "\n" + pad + m.bar.ViewAs(m.latest.Fraction()) + "  " + stats + "\n"
}

// Progress shows a progress bar on stderr while a download runs.
// A nil *Progress is valid and does nothing.
type Progress struct {
	program *tea.Program
	done    chan struct{}
}

// StartProgress starts the bar when stderr is a terminal and returns nil
// otherwise.
func StartProgress(label string) *Progress {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}

	p := &Progress{
		program: tea.NewProgram(newProgressModel(label),
			tea.WithOutput(os.Stderr),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		p.program.Run()
	}()
	return p
}

// Update forwards a backend progress snapshot.
func (p *Progress) Update(bp backend.Progress) {
	if p == nil {
		return
	}
	p.program.Send(progressMsg(bp))
}

// Logf prints a styled diagnostic above the bar so the two do not interleave.
// Once the bar has stopped, or on a nil *Progress, it writes to stderr directly.
func (p *Progress) Logf(format string, args ...any) {
	if p == nil {
		Stderr.Logf(format, args...)
		return
	}
	select {
	case <-p.done:
		Stderr.Logf(format, args...)
	default:
		p.program.Send(logLineMsg(Stderr.Line(fmt.Sprintf(format, args...))))
	}
}

// Stop clears the bar and waits for the program to exit.
func (p *Progress) Stop() {
	if p == nil {
		return
	}
	p.program.Send(progressDoneMsg{})
	<-p.done
}
