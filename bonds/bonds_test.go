package bonds

import (
	"errors"
	"math"
	"testing"

	persistence "github.com/rmera/persistence"
	v3 "github.com/rmera/persistence/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

func mustMatrix(Te *testing.T, data ...float64) *v3.Matrix {
	Te.Helper()
	M, err := v3.NewMatrix(data)
	if err != nil {
		Te.Fatal(err)
	}
	return M
}

func TestExtract(Te *testing.T) {
	c := mustMatrix(Te, 0, 0, 0, 2, 0, 0, 2, 3, 0, 2, 3, 4)
	b, err := Extract(c)
	if err != nil {
		Te.Fatal(err)
	}
	if len(b) != 3 {
		Te.Fatalf("4 atoms should give 3 bonds, got %d", len(b))
	}
	expected := []Bond{{r3.Vec{X: 1}, 2}, {r3.Vec{Y: 1}, 3}, {r3.Vec{Z: 1}, 4}}
	for i, v := range expected {
		if b[i] != v {
			Te.Errorf("bond %d: expected %v, got %v", i, v, b[i])
		}
	}
	l := Lengths(b)
	if l[0] != 2 || l[1] != 3 || l[2] != 4 {
		Te.Errorf("wrong lengths %v", l)
	}
}

func TestUnitVectors(Te *testing.T) {
	c := mustMatrix(Te, 0.1, 0.2, 0.3, 1.7, -2.2, 0.9, 3.3, 1.1, 1.4, 2.5, 1.0, -0.6)
	b, err := Extract(c)
	if err != nil {
		Te.Fatal(err)
	}
	for i, v := range b {
		if math.Abs(r3.Norm(v.Unit)-1) > 1e-12 {
			Te.Errorf("bond %d is not a unit vector: %v", i, v.Unit)
		}
		d := r3.Sub(c.Vec(i+1), c.Vec(i))
		if math.Abs(r3.Dot(d, v.Unit)-v.Length) > 1e-12 {
			Te.Errorf("bond %d: unit vector and length do not rebuild the bond", i)
		}
	}
}

func TestRestartable(Te *testing.T) {
	C, err := New(mustMatrix(Te, 0, 0, 0, 1, 0, 0, 1, 1, 0))
	if err != nil {
		Te.Fatal(err)
	}
	var first, second []Bond
	for b, err := range C.All() {
		if err != nil {
			Te.Fatal(err)
		}
		first = append(first, b)
		break
	}
	for b, err := range C.All() {
		if err != nil {
			Te.Fatal(err)
		}
		second = append(second, b)
	}
	if len(first) != 1 || len(second) != C.Len() {
		Te.Fatalf("expected 1 and %d bonds, got %d and %d", C.Len(), len(first), len(second))
	}
	if first[0] != second[0] {
		Te.Error("a new iteration should start again from the first bond")
	}
}

func TestInsufficientAtoms(Te *testing.T) {
	_, err := New(mustMatrix(Te, 1, 2, 3))
	if !errors.Is(err, persistence.ErrInsufficientAtoms) {
		Te.Errorf("expected ErrInsufficientAtoms, got %v", err)
	}
	_, err = Extract(nil)
	if !errors.Is(err, persistence.ErrInsufficientAtoms) {
		Te.Errorf("expected ErrInsufficientAtoms for nil chain, got %v", err)
	}
}

func TestDegenerateBond(Te *testing.T) {
	c := mustMatrix(Te, 0, 0, 0, 1, 0, 0, 1, 0, 0, 2, 0, 0)
	b, err := Extract(c)
	if !errors.Is(err, persistence.ErrDegenerateBond) {
		Te.Fatalf("expected ErrDegenerateBond, got %v", err)
	}
	if b != nil {
		Te.Error("no bonds should be returned for a degenerate chain")
	}
	C, _ := New(c)
	n := 0
	for v, err := range C.All() {
		if err != nil {
			break
		}
		if math.IsNaN(v.Unit.X) || math.IsInf(v.Length, 0) {
			Te.Error("NaN/Inf leaked out of the bond sequence")
		}
		n++
	}
	if n != 1 {
		Te.Errorf("the sequence should stop at the degenerate bond, got %d good bonds", n)
	}
	nan := mustMatrix(Te, 0, 0, 0, math.NaN(), 0, 0)
	if _, err = Extract(nan); !errors.Is(err, persistence.ErrDegenerateBond) {
		Te.Errorf("expected ErrDegenerateBond for non-finite coordinates, got %v", err)
	}
}

func TestSubnormalBond(Te *testing.T) {
	//atoms 1 and 2 are 5e-320 apart
	c := mustMatrix(Te, 0, 0, 0, 0, 1, 0, 5e-320, 1, 0)
	C, err := New(c)
	if err != nil {
		Te.Fatal(err)
	}
	if _, err = C.At(0); err != nil {
		Te.Errorf("the first bond is fine: %v", err)
	}
	b, err := C.At(1)
	if !errors.Is(err, persistence.ErrDegenerateBond) {
		Te.Errorf("expected ErrDegenerateBond for a bond of length 5e-320, got %v (bond %v)", err, b)
	}
	if _, err = Extract(c); !errors.Is(err, persistence.ErrDegenerateBond) {
		Te.Errorf("Extract should reject the chain, got %v", err)
	}
}
