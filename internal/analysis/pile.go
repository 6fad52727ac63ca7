package analysis

import (
	"math"

	"github.com/san-kum/sandsim/internal/storage"
	"github.com/san-kum/sandsim/internal/world"
)

// CellFilter selects which frame cells count as part of the surface.
type CellFilter func(code byte) bool

// FreeParticles counts loose particles only, ignoring terrain and objects.
func FreeParticles(code byte) bool {
	_, kind := storage.DecodeCell(code)
	return kind == world.RefFree
}

// Occupied counts every non-empty cell.
func Occupied(code byte) bool { return code != storage.CodeEmpty }

// SurfaceProfile returns, for every column, one more than the row of the
// highest cell accepted by keep, or 0 when the column has none. Frames store
// rows top first.
func SurfaceProfile(fr storage.Frame, keep CellFilter) []int {
	if len(fr.Rows) == 0 {
		return nil
	}
	h := len(fr.Rows)
	profile := make([]int, len(fr.Rows[0]))
	for x := range profile {
		for i, row := range fr.Rows {
			if x < len(row) && keep(row[x]) {
				profile[x] = h - i
				break
			}
		}
	}
	return profile
}

// ReposeAngle measures the tallest pile in profile. Each flank runs from the
// peak down to the lowest column on that side; the result is the mean flank
// slope in degrees, or 0 for a flat profile.
func ReposeAngle(profile []int) float64 {
	if len(profile) == 0 {
		return 0
	}
	peak := 0
	for i, v := range profile {
		if v > profile[peak] {
			peak = i
		}
	}

	var slopes []float64
	if s, ok := flankSlope(profile, peak, -1); ok {
		slopes = append(slopes, s)
	}
	if s, ok := flankSlope(profile, peak, 1); ok {
		slopes = append(slopes, s)
	}
	if len(slopes) == 0 {
		return 0
	}

	sum := 0.0
	for _, s := range slopes {
		sum += s
	}
	return math.Atan(sum/float64(len(slopes))) * 180 / math.Pi
}

// flankSlope walks from peak in direction dir while the surface keeps
// falling and returns rise over run to the foot of the flank.
func flankSlope(profile []int, peak, dir int) (float64, bool) {
	foot := peak
	for i := peak + dir; i >= 0 && i < len(profile); i += dir {
		if profile[i] > profile[i-dir] {
			break
		}
		if profile[i] < profile[foot] {
			foot = i
		}
	}
	drop := profile[peak] - profile[foot]
	run := (foot - peak) * dir
	if drop == 0 || run == 0 {
		return 0, false
	}
	return float64(drop) / float64(run), true
}
