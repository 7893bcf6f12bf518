/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sights

import "testing"

func TestSetGetRoundTrip(t *testing.T) {
	s, err := New(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Set(1, 10, 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pt, err := s.Get(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pt.X != 10 || pt.Y != 20 {
		t.Errorf("got (%d,%d), want (10,20)", pt.X, pt.Y)
	}
}

func TestGetOutOfRange(t *testing.T) {
	s, _ := New(3)
	if _, err := s.Get(5); err == nil {
		t.Error("expected error for out-of-range index")
	}
	if _, err := s.Get(-1); err == nil {
		t.Error("expected error for negative index")
	}
}

func TestIntermediateLengthMismatch(t *testing.T) {
	a, _ := New(3)
	b, _ := New(4)
	if _, err := a.Intermediate(b); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestIntermediateMidpoint(t *testing.T) {
	a, _ := New(1)
	b, _ := New(1)
	a.Set(0, 0, 0)
	b.Set(0, 10, 20)
	mid, err := a.Intermediate(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pt, _ := mid.Get(0)
	if pt.X != 5 || pt.Y != 10 {
		t.Errorf("got (%d,%d), want (5,10)", pt.X, pt.Y)
	}
}

func TestCenterBoundingBoxMidpoint(t *testing.T) {
	s, _ := New(4)
	s.Set(0, 0, 0)
	s.Set(1, 10, 0)
	s.Set(2, 10, 10)
	s.Set(3, 0, 10)
	c := s.Center()
	if c.X != 5 || c.Y != 5 {
		t.Errorf("got (%d,%d), want (5,5)", c.X, c.Y)
	}
}

func TestScalePreservesCenterIndex(t *testing.T) {
	s, _ := New(3)
	s.Set(0, 10, 10) // center
	s.Set(1, 20, 10)
	s.Set(2, 10, 20)
	if err := s.Scale(0, 2.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pt0, _ := s.Get(0)
	if pt0.X != 10 || pt0.Y != 10 {
		t.Errorf("center moved: got (%d,%d), want (10,10)", pt0.X, pt0.Y)
	}
	pt1, _ := s.Get(1)
	if pt1.X != 30 {
		t.Errorf("got x=%d, want 30 (expanded away from center)", pt1.X)
	}
}

func TestHasZHasScoreDefaultFalse(t *testing.T) {
	s, _ := New(2)
	if s.HasZ() || s.HasScore() {
		t.Error("expected no z or score on a fresh Sights")
	}
}

func TestMeanScore(t *testing.T) {
	s, _ := New(2)
	s.SetScore(0, 0.5)
	s.SetScore(1, 1.0)
	if got := s.MeanScore(); got != 0.75 {
		t.Errorf("got %f, want 0.75", got)
	}
}
