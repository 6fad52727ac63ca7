package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/storage"
	"github.com/san-kum/sandsim/internal/world"
)

// Glyphs used for the coloured grid. Every cell is two columns wide so the
// grid keeps a roughly square aspect in a terminal.
const (
	glyphEmpty    = "  "
	glyphTerrain  = "██"
	glyphObject   = "██"
	glyphParticle = "▒▒"
)

// RenderFrame draws a recorded grid. In plain mode the frame codes are
// returned verbatim, one row per line.
func RenderFrame(fr storage.Frame, plain bool) string {
	if plain {
		return strings.Join(fr.Rows, "\n")
	}

	styles := make(map[byte]lipgloss.Style)
	styleFor := func(c byte) lipgloss.Style {
		if st, ok := styles[c]; ok {
			return st
		}
		st := lipgloss.NewStyle()
		m, kind := storage.DecodeCell(c)
		switch kind {
		case world.RefStatic:
			st = st.Foreground(CurrentTheme.Terrain)
		case world.RefFree, world.RefInObject:
			st = st.Foreground(lipgloss.Color(m.Color()))
		}
		styles[c] = st
		return st
	}

	var b strings.Builder
	for i, row := range fr.Rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		// Consecutive equal cells share one styled run.
		for start := 0; start < len(row); {
			end := start + 1
			for end < len(row) && row[end] == row[start] {
				end++
			}
			c := row[start]
			if c == storage.CodeEmpty {
				b.WriteString(strings.Repeat(glyphEmpty, end-start))
			} else {
				b.WriteString(styleFor(c).Render(strings.Repeat(glyphFor(c), end-start)))
			}
			start = end
		}
	}
	return b.String()
}

func glyphFor(c byte) string {
	_, kind := storage.DecodeCell(c)
	switch kind {
	case world.RefStatic:
		return glyphTerrain
	case world.RefInObject:
		return glyphObject
	case world.RefFree:
		return glyphParticle
	}
	return glyphEmpty
}

// Legend lists each material with its swatch and frame codes.
func Legend() string {
	var b strings.Builder
	for _, m := range material.All() {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(m.Color())).Render(glyphObject)
		b.WriteString(swatch + " " + labelStyle().Render(m.String()) +
			hintStyle().Render(string([]byte{storage.CellCode(m, false), '/', storage.CellCode(m, true)})) + "\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Terrain).Render(glyphTerrain) + " " +
		labelStyle().Render("terrain") + hintStyle().Render(string(storage.CodeStatic)))
	return b.String()
}
