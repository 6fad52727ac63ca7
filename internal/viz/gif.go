package viz

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"strconv"

	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/storage"
	"github.com/san-kum/sandsim/internal/world"
)

var ErrNoFrames = errors.New("viz: no frames to encode")

const (
	paletteEmpty = iota
	paletteTerrain
	paletteMaterials
)

// gifPalette holds empty, terrain, then a particle and an object shade for
// every material in catalog order.
func gifPalette() color.Palette {
	p := color.Palette{
		color.Black,
		hexToRGBA(string(CurrentTheme.Terrain)),
	}
	for _, m := range material.All() {
		c := hexToRGBA(m.Color())
		p = append(p, c, shade(c, 0.7))
	}
	return p
}

func paletteIndex(c byte) uint8 {
	m, kind := storage.DecodeCell(c)
	switch kind {
	case world.RefStatic:
		return paletteTerrain
	case world.RefFree:
		return uint8(paletteMaterials + 2*(int(m)-1))
	case world.RefInObject:
		return uint8(paletteMaterials + 2*(int(m)-1) + 1)
	}
	return paletteEmpty
}

// WriteGIF encodes frames as an animated GIF, each grid cell drawn as a
// scale x scale square. delay is in hundredths of a second.
func WriteGIF(w io.Writer, frames []storage.Frame, scale, delay int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	scale = max(scale, 1)
	palette := gifPalette()

	anim := gif.GIF{LoopCount: 0}
	for _, fr := range frames {
		if len(fr.Rows) == 0 {
			continue
		}
		h, wd := len(fr.Rows), len(fr.Rows[0])
		img := image.NewPaletted(image.Rect(0, 0, wd*scale, h*scale), palette)
		for y, row := range fr.Rows {
			for x := 0; x < len(row); x++ {
				idx := paletteIndex(row[x])
				if idx == paletteEmpty {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						img.SetColorIndex(x*scale+dx, y*scale+dy, idx)
					}
				}
			}
		}
		anim.Image = append(anim.Image, img)
		anim.Delay = append(anim.Delay, delay)
	}
	if len(anim.Image) == 0 {
		return ErrNoFrames
	}
	return gif.EncodeAll(w, &anim)
}

func hexToRGBA(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{255, 255, 255, 255}
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}

func shade(c color.RGBA, f float64) color.RGBA {
	return color.RGBA{uint8(float64(c.R) * f), uint8(float64(c.G) * f), uint8(float64(c.B) * f), c.A}
}
