package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/sandsim/internal/config"
)

var presetInfo = map[string]string{
	"sandbox":    "sand pours onto a ledge",
	"fall":       "one grain in free fall",
	"stack":      "a settled sand column",
	"stone-drop": "stone block lands intact",
	"seam":       "stone on wood, breaks at the seam",
	"quadrant":   "four-material block",
	"waterfall":  "water and sand over hills",
}

const (
	stateMenu = iota
	stateSim
)

// App lets the user pick a preset and then runs it live.
type App struct {
	state   int
	cursor  int
	presets []string
	opts    LiveOptions
	err     error
	live    Model
}

func NewApp(opts LiveOptions) App {
	return App{presets: config.ListPresets(), opts: opts}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			a.state = stateMenu
			return a, nil
		}
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.presets)-1 {
			a.cursor++
		}
	case "enter", " ":
		cfg := config.GetPreset(a.presets[a.cursor])
		live, err := NewModel(cfg, a.opts)
		if err != nil {
			a.err = err
			return a, nil
		}
		a.live, a.err, a.state = live, nil, stateSim
		return a, live.Init()
	}
	return a, nil
}

func (a App) View() string {
	if a.state == stateSim {
		return a.live.View()
	}

	var b strings.Builder
	b.WriteString("\n    " + headerStyle().Render("SANDSIM") + "\n")
	b.WriteString("    " + hintStyle().Render("granular and rigid-body sandbox") + "\n\n")
	for i, name := range a.presets {
		desc := presetInfo[name]
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", keyStyle().Render("▸"), valueStyle().Render(fmt.Sprintf("%-12s", name)), hintStyle().Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", labelStyle().Render(fmt.Sprintf("%-12s", name)), hintStyle().Render(desc)))
		}
	}
	if a.err != nil {
		b.WriteString("\n    " + recordingStyle().UnsetBlink().Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyHints("j/k", "navigate", "enter", "run", "esc", "back", "q", "quit") + "\n")
	return b.String()
}

func RunInteractive(opts LiveOptions) error {
	_, err := tea.NewProgram(NewApp(opts), tea.WithAltScreen()).Run()
	return err
}
