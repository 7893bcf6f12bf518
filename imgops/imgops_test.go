//go:build withcv
// +build withcv

/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package imgops

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/ausocean/faceident/coord"
)

func TestCropRejectsOutOfBounds(t *testing.T) {
	m := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer m.Close()
	c, _ := coord.New(50, 50, 100, 100)
	if _, err := Crop(m, c); err == nil {
		t.Error("expected error cropping outside image bounds")
	}
}

func TestCropWithinBounds(t *testing.T) {
	m := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer m.Close()
	c, _ := coord.New(10, 10, 20, 20)
	cropped, err := Crop(m, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cropped.Close()
	w, h := Size(cropped)
	if w != 20 || h != 20 {
		t.Errorf("got (%d,%d), want (20,20)", w, h)
	}
}

func TestResizePreserveAspect(t *testing.T) {
	m := gocv.NewMatWithSize(100, 50, gocv.MatTypeCV8UC3)
	defer m.Close()
	out := ResizePreserveAspect(m, 40, 40)
	defer out.Close()
	w, h := Size(out)
	if w > 40 || h > 40 {
		t.Errorf("got (%d,%d), exceeds bound 40x40", w, h)
	}
	if w != 40 {
		t.Errorf("expected width-bound fit, got (%d,%d)", w, h)
	}
}

func TestPasteRejectsOverflow(t *testing.T) {
	dst := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer dst.Close()
	src := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC3)
	defer src.Close()
	if err := Paste(&dst, src, 0, 0); err == nil {
		t.Error("expected error pasting oversized source")
	}
}
