//go:build withcv
// +build withcv

/*
NAME
  imgops.go

DESCRIPTION
  Image operations (crop, resize, blank canvas, paste, blur, grayscale)
  built on gocv.Mat, used by the identification pipeline to prepare face
  crops for comparison and portrait export.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package imgops provides gocv.Mat-based image operations shared by the
// similarity and identify packages: cropping a Coord out of a frame,
// resizing while preserving aspect ratio, blank canvases for portrait
// compositing, and light preprocessing (blur, grayscale).
package imgops

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ausocean/faceident/coord"
	"github.com/ausocean/faceident/pipelineerr"
)

// Size returns (width, height) of m. Use Bounds to get a coord.Bounds.
func Size(m gocv.Mat) (int, int) {
	return m.Cols(), m.Rows()
}

// matBounds adapts a gocv.Mat to coord.Bounds without copying it.
type matBounds struct{ m *gocv.Mat }

func (b matBounds) Size() (int, int) { return b.m.Cols(), b.m.Rows() }

// Bounds wraps m as a coord.Bounds.
func Bounds(m *gocv.Mat) coord.Bounds { return matBounds{m} }

// Crop returns the sub-image of src described by c. The returned Mat
// shares memory with src (per gocv.Mat.Region semantics); call Close
// independently on both when done, or Clone the result if src will be
// reused before the crop is.
func Crop(src gocv.Mat, c coord.Coord) (gocv.Mat, error) {
	w, h := Size(src)
	if c.X()+c.W() > w || c.Y()+c.H() > h {
		return gocv.Mat{}, pipelineerr.New(pipelineerr.OutOfRange, "imgops.Crop", "coord exceeds image bounds")
	}
	rect := image.Rect(c.X(), c.Y(), c.X()+c.W(), c.Y()+c.H())
	return src.Region(rect), nil
}

// Resize scales src to exactly (w, h), ignoring aspect ratio.
func Resize(src gocv.Mat, w, h int) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
	return dst
}

// ResizePreserveAspect scales src to fit within (maxW, maxH), preserving
// aspect ratio, using nearest-neighbour interpolation like the pipeline's
// portrait export.
func ResizePreserveAspect(src gocv.Mat, maxW, maxH int) gocv.Mat {
	w, h := Size(src)
	if w == 0 || h == 0 {
		return gocv.NewMat()
	}
	scale := float64(maxW) / float64(w)
	if alt := float64(maxH) / float64(h); alt < scale {
		scale = alt
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(newW, newH), 0, 0, gocv.InterpolationNearestNeighbor)
	return dst
}

// Blank returns a new black w x h Mat with the same type as like.
func Blank(w, h int, like gocv.Mat) gocv.Mat {
	return gocv.NewMatWithSize(h, w, like.Type())
}

// Paste copies src into dst at (x, y). dst must be large enough to hold
// src at that offset.
func Paste(dst *gocv.Mat, src gocv.Mat, x, y int) error {
	dw, dh := Size(*dst)
	sw, sh := Size(src)
	if x+sw > dw || y+sh > dh {
		return pipelineerr.New(pipelineerr.OutOfRange, "imgops.Paste", "source does not fit in destination at offset")
	}
	region := dst.Region(image.Rect(x, y, x+sw, y+sh))
	defer region.Close()
	src.CopyTo(&region)
	return nil
}

// Blur applies a Gaussian blur with the given odd kernel size.
func Blur(src gocv.Mat, kernel int) gocv.Mat {
	dst := gocv.NewMat()
	gocv.GaussianBlur(src, &dst, image.Pt(kernel, kernel), 0, 0, gocv.BorderDefault)
	return dst
}

// Grayscale converts src to single-channel grayscale.
func Grayscale(src gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	return dst
}

// Encode compresses m as a JPEG and returns the bytes, for storage in a
// gallery or on disk.
func Encode(m gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, m)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.IoError, "imgops.Encode", err)
	}
	defer buf.Close()
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Decode parses JPEG/PNG bytes into a Mat.
func Decode(b []byte) (gocv.Mat, error) {
	m, err := gocv.IMDecode(b, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, pipelineerr.Wrap(pipelineerr.IoError, "imgops.Decode", err)
	}
	if m.Empty() {
		return gocv.Mat{}, pipelineerr.New(pipelineerr.IoError, "imgops.Decode", "decoded image is empty")
	}
	return m, nil
}
