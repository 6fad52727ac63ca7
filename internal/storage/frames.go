package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/sim"
	"github.com/san-kum/sandsim/internal/world"
)

// Frame is one recorded grid snapshot. Rows run top to bottom, one code byte
// per cell: ' ' empty, '#' terrain, a lower-case material letter for a free
// particle and the upper-case letter for an object cell.
type Frame struct {
	Tick      int      `json:"tick"`
	Particles int      `json:"particles"`
	Objects   int      `json:"objects"`
	Rows      []string `json:"rows"`
}

const (
	CodeEmpty  byte = ' '
	CodeStatic byte = '#'
)

var materialCodes = map[material.Material]byte{
	material.Sand:  's',
	material.Water: 'w',
	material.Stone: 't',
	material.Wood:  'o',
	material.Metal: 'm',
	material.Glass: 'g',
}

// CellCode returns the frame byte for a material, upper-cased inside objects.
func CellCode(m material.Material, inObject bool) byte {
	c, ok := materialCodes[m]
	if !ok {
		return CodeEmpty
	}
	if inObject {
		c -= 'a' - 'A'
	}
	return c
}

// DecodeCell reverses CellCode. Terrain and empty cells decode to Air.
func DecodeCell(c byte) (m material.Material, kind world.RefKind) {
	switch c {
	case CodeEmpty:
		return material.Air, world.RefNone
	case CodeStatic:
		return material.Air, world.RefStatic
	}
	kind = world.RefFree
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
		kind = world.RefInObject
	}
	for m, code := range materialCodes {
		if code == c {
			return m, kind
		}
	}
	return material.Air, world.RefNone
}

// Capture snapshots the simulation grid.
func Capture(s *sim.Simulation) Frame {
	w := s.World()
	particles, objects := s.Particles(), s.Objects()
	st := s.Stats()

	fr := Frame{
		Tick:      st.Tick,
		Particles: st.Particles,
		Objects:   st.Objects,
		Rows:      make([]string, 0, w.Height),
	}
	row := make([]byte, w.Width)
	for y := w.Height - 1; y >= 0; y-- {
		for x := 0; x < w.Width; x++ {
			ref, _ := w.OccupantAt(x, y)
			switch ref.Kind {
			case world.RefStatic:
				row[x] = CodeStatic
			case world.RefFree:
				row[x] = CellCode(particles[ref.Index].Material, false)
			case world.RefInObject:
				cell := objects[ref.Index].Cells[ref.Row][ref.Col]
				row[x] = CellCode(cell.Particle.Material, true)
			default:
				row[x] = CodeEmpty
			}
		}
		fr.Rows = append(fr.Rows, string(row))
	}
	return fr
}

// FrameWriter appends frames as zstd-compressed JSON lines.
type FrameWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewFrameWriter(path string) (*FrameWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FrameWriter{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

func (fw *FrameWriter) Write(fr Frame) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.w == nil {
		return fmt.Errorf("frame writer closed")
	}
	b, err := json.Marshal(fr)
	if err != nil {
		return err
	}
	if _, err := fw.w.Write(b); err != nil {
		return err
	}
	return fw.w.WriteByte('\n')
}

func (fw *FrameWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.w == nil {
		return nil
	}
	err := fw.w.Flush()
	if cerr := fw.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := fw.f.Close(); err == nil {
		err = cerr
	}
	fw.w, fw.enc, fw.f = nil, nil, nil
	return err
}

// ReadFrames decodes every frame in a recording.
func ReadFrames(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var frames []Frame
	for sc.Scan() {
		var fr Frame
		if err := json.Unmarshal(sc.Bytes(), &fr); err != nil {
			return nil, fmt.Errorf("%s: frame %d: %w", filepath.Base(path), len(frames), err)
		}
		frames = append(frames, fr)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

// Recorder is a sim.Observer that captures every n-th tick into a
// FrameWriter. The first write error stops recording and is kept for Err.
type Recorder struct {
	w     *FrameWriter
	every int
	err   error
}

func NewRecorder(w *FrameWriter, every int) *Recorder {
	return &Recorder{w: w, every: max(every, 1)}
}

func (r *Recorder) OnTick(s *sim.Simulation, _ []sim.Fracture) {
	if r.err != nil || s.TickCount()%r.every != 0 {
		return
	}
	r.err = r.w.Write(Capture(s))
}

// Initial records the state before the first tick.
func (r *Recorder) Initial(s *sim.Simulation) {
	if r.err == nil {
		r.err = r.w.Write(Capture(s))
	}
}

func (r *Recorder) Err() error { return r.err }
