package physics

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/sandsim/internal/material"
	"github.com/san-kum/sandsim/internal/world"
)

var seamPattern = [4]material.Material{material.Stone, material.Stone, material.Wood, material.Wood}

func fragmentMass(o *Object, frags []Fragment) float64 {
	sum := 0.0
	for _, f := range frags {
		for _, fc := range o.ExtractFragmentData(f) {
			sum += fc.Material.Density()
		}
	}
	return sum
}

var _ = Describe("Fracture", func() {
	Describe("CheckFracture", func() {
		It("leaves a uniform stone block intact after a one-cell drop", func() {
			w := groundedWorld(12, 10)
			o := placeObject(w, NewObject(1, world.V(3, 2), world.Vec2{}, material.Stone, 3, 3), 0)
			gravity := world.V(0, -1)

			var frags []Fragment
			for i := 0; i < 4; i++ {
				frags = append(frags, o.UpdateObjectVelocity(gravity, w)...)
				o.UpdateObjectPosition(w)
			}

			Expect(frags).To(BeEmpty())
			Expect(o.Position.Y).To(BeNumerically("==", 1))
			Expect(o.CheckFracture(22.5, DampeningStatic)).To(BeEmpty())
		})

		It("breaks exactly the stone to wood seam", func() {
			o := NewQuadrant(1, world.V(0, 0), world.Vec2{}, seamPattern)

			broken := o.CheckFracture(o.TotalMass, DampeningStatic)

			Expect(broken).To(HaveLen(4))
			for _, b := range broken {
				Expect(b.A.Row).To(Equal(1))
				Expect(b.B.Row).To(Equal(2))
				Expect(b.A.Col).To(Equal(b.B.Col))
			}
		})

		It("scales the felt force down with height", func() {
			o := NewObject(1, world.V(0, 0), world.Vec2{}, material.Wood, 3, 1)

			// 30 at row 0, 15 at row 1: only the lowest bond exceeds 20
			broken := o.CheckFracture(30, 1)

			Expect(broken).To(ConsistOf(Bond{A: CellCoord{0, 0}, B: CellCoord{1, 0}}))
		})

		It("applies the dampening factor", func() {
			o := NewObject(1, world.V(0, 0), world.Vec2{}, material.Wood, 2, 1)

			Expect(o.CheckFracture(30, 1)).To(HaveLen(1))
			Expect(o.CheckFracture(30, DampeningFree)).To(BeEmpty())
		})

		DescribeTable("is idempotent under zero force",
			func(o *Object) {
				Expect(o.CheckFracture(0, DampeningStatic)).To(BeEmpty())
				Expect(o.CheckFracture(0, DampeningStatic)).To(BeEmpty())
			},
			Entry("glass block", NewObject(1, world.Vec2{}, world.Vec2{}, material.Glass, 4, 4)),
			Entry("default quadrant", NewQuadrant(1, world.Vec2{}, world.Vec2{}, DefaultQuadrant)),
			Entry("seam quadrant", NewQuadrant(1, world.Vec2{}, world.Vec2{}, seamPattern)),
		)

		It("ignores air cells", func() {
			o := NewFromFragment(1, []FragmentCell{
				{Position: world.V(0, 0), Material: material.Glass},
				{Position: world.V(1, 1), Material: material.Glass},
			}, world.Vec2{})

			Expect(o.CheckFracture(1000, 1)).To(BeEmpty())
		})
	})

	Describe("CheckPressureFracture", func() {
		It("breaks nothing without external load", func() {
			w := groundedWorld(10, 6)
			o := placeObject(w, NewQuadrant(1, world.V(1, 1), world.Vec2{}, DefaultQuadrant), 0)

			Expect(o.CheckPressureFracture(w)).To(BeEmpty())
			Expect(o.CheckPressureFracture(w)).To(BeEmpty())
			Expect(o.SplitUnderLoad(w)).To(BeNil())
		})

		It("crushes glass under a heavy load", func() {
			w := groundedWorld(10, 6)
			o := placeObject(w, NewObject(1, world.V(2, 1), world.Vec2{}, material.Glass, 2, 1), 0)
			w.Place(world.V(2, 3), world.FreeRef(0), material.Metal.Density())
			w.Place(world.V(2, 4), world.FreeRef(1), material.Metal.Density())

			Expect(o.CheckPressureFracture(w)).To(ConsistOf(Bond{A: CellCoord{0, 0}, B: CellCoord{1, 0}}))
			Expect(o.SplitUnderLoad(w)).To(HaveLen(2))
		})
	})

	Describe("FindFragments", func() {
		It("returns the whole object when nothing broke", func() {
			o := NewQuadrant(1, world.Vec2{}, world.Vec2{}, DefaultQuadrant)

			frags := o.FindFragments(nil)

			Expect(frags).To(HaveLen(1))
			Expect(frags[0]).To(HaveLen(16))
			Expect(o.split(nil)).To(BeNil())
		})

		It("isolates every cell when every bond broke", func() {
			o := NewQuadrant(1, world.Vec2{}, world.Vec2{}, DefaultQuadrant)

			frags := o.FindFragments(o.CheckFracture(1e9, 1))

			Expect(frags).To(HaveLen(16))
			for _, f := range frags {
				Expect(f).To(HaveLen(1))
			}
		})

		It("conserves mass across fragments", func() {
			o := NewQuadrant(1, world.V(2, 2), world.Vec2{}, DefaultQuadrant)

			for _, force := range []float64{0, 10, 25, 100, 1000, 1e9} {
				frags := o.FindFragments(o.CheckFracture(force, 1))
				Expect(fragmentMass(o, frags)).To(BeNumerically("~", o.TotalMass, 1e-9))
			}
		})

		It("keeps cells connected through an unbroken path", func() {
			o := NewObject(1, world.Vec2{}, world.Vec2{}, material.Wood, 2, 2)
			// cut one side of the ring; the other three bonds still join it
			broken := []Bond{{A: CellCoord{0, 0}, B: CellCoord{0, 1}}}

			Expect(o.FindFragments(broken)).To(HaveLen(1))
			Expect(o.split(broken)).To(BeNil())
		})

		It("accepts bonds in either orientation", func() {
			o := NewObject(1, world.Vec2{}, world.Vec2{}, material.Wood, 2, 1)

			frags := o.FindFragments([]Bond{{A: CellCoord{1, 0}, B: CellCoord{0, 0}}})

			Expect(frags).To(Equal([]Fragment{{{0, 0}}, {{1, 0}}}))
		})

		It("handles long chains", func() {
			o := NewObject(1, world.Vec2{}, world.Vec2{}, material.Stone, 1, 5000)

			Expect(o.FindFragments(nil)).To(HaveLen(1))
			Expect(o.FindFragments([]Bond{{A: CellCoord{0, 2499}, B: CellCoord{0, 2500}}})).To(HaveLen(2))
		})
	})

	Describe("impact splitting", func() {
		It("drops a stone and wood quadrant into two single-material fragments", func() {
			w := groundedWorld(12, 10)
			o := placeObject(w, NewQuadrant(1, world.V(3, 3), world.Vec2{}, seamPattern), 0)
			gravity := world.V(0, -0.5)

			var frags []Fragment
			for i := 0; i < 10 && frags == nil; i++ {
				frags = o.UpdateObjectVelocity(gravity, w)
				if frags == nil {
					o.UpdateObjectPosition(w)
				}
			}

			Expect(frags).To(HaveLen(2))
			for _, f := range frags {
				cells := o.ExtractFragmentData(f)
				Expect(cells).To(HaveLen(8))
				for _, fc := range cells {
					Expect(fc.Material).To(Equal(cells[0].Material))
				}
			}
			Expect(fragmentMass(o, frags)).To(BeNumerically("~", o.TotalMass, 1e-9))
		})
	})
})
