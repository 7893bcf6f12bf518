/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package coord

import "testing"

func TestNewClampsUnsignedNegative(t *testing.T) {
	c, err := New(-5, -5, 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.X() != 0 || c.Y() != 0 {
		t.Errorf("got (%d,%d), want (0,0)", c.X(), c.Y())
	}
}

func TestNewSignedAllowsNegative(t *testing.T) {
	c, err := New(0, 0, 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c2, err := NewSigned(-5, -5, 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c2.X() != -5 || c2.Y() != -5 {
		t.Errorf("got (%d,%d), want (-5,-5)", c2.X(), c2.Y())
	}
	_ = c
}

func TestSetWRejectsNegative(t *testing.T) {
	c, _ := New(0, 0, 10, 10)
	if err := c.SetW(-1); err == nil {
		t.Error("expected error for negative width")
	}
}

func TestAreaZeroAtBoundary(t *testing.T) {
	c, _ := New(0, 0, 0, 10)
	if c.Area() != 0 {
		t.Errorf("got area %d, want 0", c.Area())
	}
}

func TestToCoordsLengths(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want Coord
	}{
		{"point", []float64{1, 2}, mustCoord(t, 1, 2, 0, 0)},
		{"area", []float64{1, 2, 3, 4}, mustCoord(t, 1, 2, 3, 4)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ToCoords(c.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(c.want) {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestToCoordsInvalidLength(t *testing.T) {
	if _, err := ToCoords([]float64{1}); err == nil {
		t.Error("expected error for length-1 input")
	}
}

func mustCoord(t *testing.T, x, y, w, h int) Coord {
	t.Helper()
	c, err := New(x, y, w, h)
	if err != nil {
		t.Fatalf("New(%d,%d,%d,%d): %v", x, y, w, h, err)
	}
	return c
}

func TestIntersectionAreaNoOverlap(t *testing.T) {
	a, _ := New(0, 0, 10, 10)
	b, _ := New(20, 20, 10, 10)
	if got := a.IntersectionArea(b); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestIntersectionAreaPartialOverlap(t *testing.T) {
	a, _ := New(0, 0, 10, 10)
	b, _ := New(5, 5, 10, 10)
	if got := a.IntersectionArea(b); got != 25 {
		t.Errorf("got %d, want 25", got)
	}
}

func TestOverlapZeroArea(t *testing.T) {
	a, _ := New(0, 0, 0, 0)
	b, _ := New(0, 0, 10, 10)
	po, ps := a.Overlap(b)
	if po != 0 || ps != 0 {
		t.Errorf("got (%f,%f), want (0,0)", po, ps)
	}
}

func TestIntermediateMidpoint(t *testing.T) {
	a, _ := New(0, 0, 10, 10)
	b, _ := New(10, 10, 20, 20)
	mid := a.Intermediate(b)
	if mid.X() != 5 || mid.Y() != 5 {
		t.Errorf("got (%d,%d), want (5,5)", mid.X(), mid.Y())
	}
	if mid.W() != 15 || mid.H() != 15 {
		t.Errorf("got (%d,%d), want (15,15)", mid.W(), mid.H())
	}
}

func TestEuclidianDistanceSelf(t *testing.T) {
	a, _ := New(5, 5, 10, 10)
	if a.EuclidianDistance(a) != 0 {
		t.Error("expected 0 distance to self")
	}
}

func TestContainsStrict(t *testing.T) {
	outer, _ := New(0, 0, 100, 100)
	inner, _ := New(10, 10, 20, 20)
	if !outer.Contains(inner) {
		t.Error("expected outer to contain inner")
	}
	edge, _ := New(90, 90, 20, 20)
	if outer.Contains(edge) {
		t.Error("expected outer not to contain edge (exceeds bounds)")
	}
}

func TestScaleRangeValidation(t *testing.T) {
	c, _ := New(0, 0, 10, 10)
	if _, _, err := c.Scale(0.1, nil); err == nil {
		t.Error("expected error for scale below 0.25")
	}
	if _, _, err := c.Scale(21, nil); err == nil {
		t.Error("expected error for scale above 20")
	}
}

func TestShiftClampsUnsigned(t *testing.T) {
	c, _ := New(0, 0, 10, 10)
	if err := c.Shift(-5, -5, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.X() != 0 || c.Y() != 0 {
		t.Errorf("got (%d,%d), want (0,0)", c.X(), c.Y())
	}
}

func TestShiftReducesToFitImage(t *testing.T) {
	c, _ := New(90, 90, 10, 10)
	img := NewBounds(100, 100)
	if err := c.Shift(20, 20, img); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.X()+c.W() > 100 || c.Y()+c.H() > 100 {
		t.Errorf("shift overran image bounds: %+v", c)
	}
}

func TestDefaultPortraitFitsImage(t *testing.T) {
	c, _ := New(50, 50, 20, 20)
	img := NewBounds(200, 200)
	p, err := c.DefaultPortrait(img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.X()+p.W() > 200 || p.Y()+p.H() > 200 {
		t.Errorf("portrait overran image bounds: %+v", p)
	}
	if p.X() < 0 || p.Y() < 0 {
		t.Errorf("portrait has negative origin: %+v", p)
	}
}

func TestSimilarityIdenticalIsOne(t *testing.T) {
	c, _ := New(10, 10, 20, 20)
	if s := c.Similarity(c); s != 1 {
		t.Errorf("got %v, want 1", s)
	}
}

func TestSimilarityDisjointAndFarIsZero(t *testing.T) {
	a, _ := New(0, 0, 10, 10)
	b, _ := New(1000, 1000, 10, 10)
	if s := a.Similarity(b); s != 0 {
		t.Errorf("got %v, want 0", s)
	}
}

func TestSimilarityPartialOverlapBeatsDisjoint(t *testing.T) {
	a, _ := New(0, 0, 20, 20)
	overlapping, _ := New(10, 10, 20, 20)
	disjoint, _ := New(1000, 1000, 20, 20)
	if a.Similarity(overlapping) <= a.Similarity(disjoint) {
		t.Errorf("expected overlapping rectangle to score higher than a disjoint one")
	}
}
