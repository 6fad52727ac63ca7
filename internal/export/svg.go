// Package export renders recorded frames and stats series as SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/storage"
	"github.com/san-kum/sandsim/internal/world"
)

const (
	background   = "#0a0a0a"
	terrainColor = "#5c4a36"
)

// FrameToSVG draws every occupied cell of fr as a scale x scale square.
// Object cells get a dark outline so rigid bodies stand out from loose
// particles of the same material.
func FrameToSVG(fr storage.Frame, scale float64) string {
	if len(fr.Rows) == 0 {
		return ""
	}
	if scale <= 0 {
		scale = 1
	}
	width := float64(len(fr.Rows[0])) * scale
	height := float64(len(fr.Rows)) * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))

	for y, row := range fr.Rows {
		for x := 0; x < len(row); x++ {
			fill, stroke := cellColors(row[x])
			if fill == "" {
				continue
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"`,
				float64(x)*scale, float64(y)*scale, scale, scale, fill))
			if stroke != "" {
				sb.WriteString(fmt.Sprintf(` stroke="%s" stroke-width="%.2f"`, stroke, scale*0.08))
			}
			sb.WriteString("/>\n")
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func cellColors(c byte) (fill, stroke string) {
	m, kind := storage.DecodeCell(c)
	switch kind {
	case world.RefStatic:
		return terrainColor, ""
	case world.RefFree:
		return m.Color(), ""
	case world.RefInObject:
		return m.Color(), material.Air.Color()
	}
	return "", ""
}

// SeriesToSVG plots values against their sample index as a polyline.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.1
	span *= 1.2
	n := float64(len(values) - 1)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, strokeColor))

	for i, v := range values {
		x := float64(i) / n * float64(width)
		y := float64(height) - (v-lo)/span*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
