package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/sandsim/internal/storage"
)

// Player steps through recorded frames.
type Player struct {
	title   string
	frames  []storage.Frame
	head    int
	playing bool
	plain   bool
}

func NewPlayer(title string, frames []storage.Frame, plain bool) Player {
	return Player{title: title, frames: frames, playing: true, plain: plain}
}

func (p Player) Head() int { return p.head }

func (p Player) Init() tea.Cmd { return tick() }

func (p Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return p, tea.Quit
		case " ":
			p.playing = !p.playing
		case "[", "left", "h":
			p.playing = false
			p.seek(-1)
		case "]", "right", "l":
			p.playing = false
			p.seek(1)
		case "home", "g":
			p.head = 0
		case "end", "G":
			p.head = max(len(p.frames)-1, 0)
		case "t":
			nextTheme()
		}
	case TickMsg:
		if p.playing {
			if p.head < len(p.frames)-1 {
				p.head++
			} else {
				p.playing = false
			}
		}
		return p, tick()
	}
	return p, nil
}

func (p *Player) seek(dir int) {
	p.head = min(max(p.head+dir, 0), max(len(p.frames)-1, 0))
}

func (p Player) View() string {
	if len(p.frames) == 0 {
		return hintStyle().Render("no frames recorded") + "\n"
	}
	fr := p.frames[p.head]

	var b strings.Builder
	b.WriteString(headerStyle().Render(strings.ToUpper(p.title)) + "\n")
	status := "PAUSED"
	if p.playing {
		status = "PLAYING"
	}
	b.WriteString(statusStyle(p.playing).Render(status) + "\n\n")
	b.WriteString(labelStyle().Render("Frame") + valueStyle().Render(fmt.Sprintf("%d/%d", p.head+1, len(p.frames))) + "\n")
	b.WriteString(labelStyle().Render("Tick") + valueStyle().Render(fmt.Sprintf("%d", fr.Tick)) + "\n")
	b.WriteString(labelStyle().Render("Particles") + valueStyle().Render(fmt.Sprintf("%d", fr.Particles)) + "\n")
	b.WriteString(labelStyle().Render("Objects") + valueStyle().Render(fmt.Sprintf("%d", fr.Objects)) + "\n")
	b.WriteString(ProgressBar(float64(p.head+1)/float64(len(p.frames)), 30) + "\n\n")
	b.WriteString(keyHints("spc", "play", "[ ]", "seek", "g/G", "ends", "q", "quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle().Render(RenderFrame(fr, p.plain)),
		panelStyle().Width(40).Render(b.String()))
}

func RunReplay(title string, frames []storage.Frame, plain bool) error {
	_, err := tea.NewProgram(NewPlayer(title, frames, plain), tea.WithAltScreen()).Run()
	return err
}
