package viz

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/sandsim/internal/config"
	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/scenario"
	"github.com/san-kum/sandsim/internal/sim"
	"github.com/san-kum/sandsim/internal/storage"
)

const (
	tickInterval    = time.Second / 30
	historyCapacity = 120
	fractureLogSize = 5
	maxRecorded     = 900
	gifScale        = 4
	gifDelay        = 3
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

type LiveOptions struct {
	// GIFPath is where the g key writes its recording.
	GIFPath string
	Plain   bool
}

// Model drives a simulation in the terminal.
type Model struct {
	cfg  *config.Config
	opts LiveOptions
	sim  *sim.Simulation

	running   bool
	showHelp  bool
	drop      material.Material
	dropX     int
	message   string
	fractures []sim.FractureEvent

	particleHistory []float64
	pressureHistory []float64

	recording bool
	frames    []storage.Frame
}

func NewModel(cfg *config.Config, opts LiveOptions) (Model, error) {
	cfg = cfg.Clone()
	s, err := scenario.Build(cfg)
	if err != nil {
		return Model{}, err
	}
	drop := material.Stone
	if cfg.DropMaterial != "" {
		if drop, err = material.Parse(cfg.DropMaterial); err != nil {
			return Model{}, err
		}
	}
	if opts.GIFPath == "" {
		opts.GIFPath = "sandsim.gif"
	}
	return Model{
		cfg:     cfg,
		opts:    opts,
		sim:     s,
		running: true,
		drop:    drop,
		dropX:   cfg.Width / 2,
	}, nil
}

func (m Model) Simulation() *sim.Simulation { return m.sim }

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.recording {
				m.stopRecording()
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "o":
			m.dropBlock()
		case "left", "h":
			m.dropX = max(m.dropX-1, 0)
		case "right", "l":
			m.dropX = min(m.dropX+1, m.sim.World().Width-1)
		case "d":
			m.cycleDrop()
		case "g":
			if m.recording {
				m.stopRecording()
			} else {
				m.recording = true
				m.frames = []storage.Frame{storage.Capture(m.sim)}
				m.message = "recording"
			}
		case "t":
			nextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	fractures := m.sim.Tick()
	for _, f := range fractures {
		m.fractures = append(m.fractures, f.Event(m.sim.TickCount()))
	}
	if len(m.fractures) > fractureLogSize {
		m.fractures = m.fractures[len(m.fractures)-fractureLogSize:]
	}

	st := m.sim.Stats()
	m.particleHistory = pushHistory(m.particleHistory, float64(st.Particles))
	m.pressureHistory = pushHistory(m.pressureHistory, st.PeakPressure)

	if m.recording {
		m.frames = append(m.frames, storage.Capture(m.sim))
		if len(m.frames) >= maxRecorded {
			m.stopRecording()
		}
	}
}

func pushHistory(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// reset rebuilds the scenario from its configuration.
func (m *Model) reset() {
	s, err := scenario.Build(m.cfg)
	if err != nil {
		m.message = err.Error()
		return
	}
	m.sim = s
	m.fractures = nil
	m.particleHistory = m.particleHistory[:0]
	m.pressureHistory = m.pressureHistory[:0]
	m.message = "reset"
	if m.recording {
		m.frames = []storage.Frame{storage.Capture(m.sim)}
	}
}

func (m *Model) dropBlock() {
	o, err := scenario.DropBlock(m.sim, m.drop, m.dropX)
	if err != nil {
		m.message = err.Error()
		return
	}
	m.message = fmt.Sprintf("dropped %s block #%d", m.drop, o.ID)
}

func (m *Model) cycleDrop() {
	var bonded []material.Material
	for _, mat := range material.All() {
		if mat.BindingStrength() > 0 {
			bonded = append(bonded, mat)
		}
	}
	for i, mat := range bonded {
		if mat == m.drop {
			m.drop = bonded[(i+1)%len(bonded)]
			return
		}
	}
	m.drop = bonded[0]
}

func (m *Model) stopRecording() {
	m.recording = false
	frames := m.frames
	m.frames = nil

	f, err := os.Create(m.opts.GIFPath)
	if err != nil {
		m.message = err.Error()
		return
	}
	defer f.Close()
	if err := WriteGIF(f, frames, gifScale, gifDelay); err != nil {
		m.message = err.Error()
		return
	}
	m.message = fmt.Sprintf("saved %d frames to %s", len(frames), m.opts.GIFPath)
}

func (m Model) View() string {
	grid := m.dropMarker() + "\n" + RenderFrame(storage.Capture(m.sim), m.opts.Plain)
	gridView := panelStyle().Render(grid)

	main := lipgloss.JoinHorizontal(lipgloss.Top, gridView, panelStyle().Width(44).Render(m.statsView()))
	if m.showHelp {
		return helpView() + "\n" + main
	}
	return main
}

func (m Model) dropMarker() string {
	cell := 2
	if m.opts.Plain {
		cell = 1
	}
	marker := strings.Repeat("▼", cell)
	return strings.Repeat(" ", m.dropX*cell) + lipgloss.NewStyle().Foreground(lipgloss.Color(m.drop.Color())).Render(marker)
}

func (m Model) statsView() string {
	var b strings.Builder
	st := m.sim.Stats()

	name := m.cfg.Name
	if name == "" {
		name = "sandsim"
	}
	b.WriteString(headerStyle().Render(strings.ToUpper(name)) + "\n")

	status := "PAUSED"
	if m.running {
		status = "RUNNING"
	}
	b.WriteString(statusStyle(m.running).Render(status))
	if m.recording {
		b.WriteString("  " + recordingStyle().Render(fmt.Sprintf("● REC %d", len(m.frames))))
	}
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle().Render(label) + valueStyle().Render(value) + "\n")
	}
	row("Tick", fmt.Sprintf("%d", st.Tick))
	row("Particles", fmt.Sprintf("%d", st.Particles))
	row("Objects", fmt.Sprintf("%d", st.Objects))
	row("Mass", fmt.Sprintf("%.1f", st.TotalMass))
	row("Pressure", fmt.Sprintf("%.2f", st.PeakPressure))
	row("Fractures", fmt.Sprintf("%d", st.Fractures))
	row("Drop", fmt.Sprintf("%s @ %d", m.drop, m.dropX))

	settled := 1.0
	if st.Particles > 0 {
		settled = float64(st.Settled) / float64(st.Particles)
	}
	b.WriteString(labelStyle().Render("Settled") + ProgressBar(settled, 20) + "\n")

	for i, e := range m.sim.Emitters() {
		if e.Limit <= 0 {
			continue
		}
		label := fmt.Sprintf("Emitter %d", i+1)
		b.WriteString(labelStyle().Render(label) + ProgressBar(float64(e.Emitted())/float64(e.Limit), 20) + "\n")
	}

	if len(m.particleHistory) > 1 {
		chart := asciigraph.Plot(m.particleHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("particles"))
		b.WriteString("\n" + chart + "\n")
	}
	if len(m.pressureHistory) > 0 {
		b.WriteString("\n" + labelStyle().Render("Peak") + Sparkline(m.pressureHistory, 30) + "\n")
	}

	if len(m.fractures) > 0 {
		b.WriteString("\n" + hintStyle().Render("recent fractures") + "\n")
		for _, f := range m.fractures {
			b.WriteString(fmt.Sprintf("  t=%-5d #%-3d %-8s %d pieces\n", f.Tick, f.ObjectID, f.Cause, f.Fragments))
		}
	}
	if m.message != "" {
		b.WriteString("\n" + hintStyle().Render(m.message) + "\n")
	}

	b.WriteString("\n" + keyHints("spc", "pause", "n", "step", "r", "reset") + "\n")
	b.WriteString(keyHints("o", "drop", "h/l", "aim", "d", "material") + "\n")
	b.WriteString(keyHints("g", "gif", "t", "theme", "?", "help", "q", "quit"))
	return b.String()
}

func helpView() string {
	lines := []string{
		"Space  pause / resume",
		"N      single step while paused",
		"R      rebuild the scenario",
		"O      drop a 3x3 block at the marker",
		"H / L  move the drop marker",
		"D      cycle the drop material",
		"G      start / stop GIF recording",
		"T      cycle colour themes",
		"?      toggle this help",
		"Q      quit",
	}
	return panelStyle().Render(headerStyle().Render("KEYS") + "\n" + strings.Join(lines, "\n") + "\n\n" + Legend())
}

// RunLive opens the live view for cfg in the alternate screen.
func RunLive(cfg *config.Config, opts LiveOptions) error {
	m, err := NewModel(cfg, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
