package world

import "fmt"

type RefKind uint8

const (
	RefNone RefKind = iota
	RefFree
	RefInObject
	RefStatic
)

// Ref is a weak tag naming the owner of a cell. It is resolved against the
// owning collection at use time and never points into it.
type Ref struct {
	Kind  RefKind
	Index int // particle index for RefFree, object index for RefInObject
	Row   int
	Col   int
}

var (
	NoRef     = Ref{}
	StaticRef = Ref{Kind: RefStatic}
)

func FreeRef(index int) Ref { return Ref{Kind: RefFree, Index: index} }

func ObjectRef(object, row, col int) Ref {
	return Ref{Kind: RefInObject, Index: object, Row: row, Col: col}
}

func (r Ref) IsNone() bool { return r.Kind == RefNone }

func (r Ref) String() string {
	switch r.Kind {
	case RefFree:
		return fmt.Sprintf("free(%d)", r.Index)
	case RefInObject:
		return fmt.Sprintf("object(%d)[%d,%d]", r.Index, r.Row, r.Col)
	case RefStatic:
		return "static"
	default:
		return "none"
	}
}
