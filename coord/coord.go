/*
NAME
  coord.go

DESCRIPTION
  An axis-aligned rectangle with an optional confidence score, and the
  geometry operations the identification pipeline needs: scaling, shifting,
  overlap, containment, portrait framing.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package coord represents rectangular face/object detections and the
// geometry operations performed on them by the identification pipeline.
package coord

import (
	"fmt"
	"math"

	"github.com/ausocean/faceident/pipelineerr"
)

// MaxW and MaxH bound the width and height, and the largest x and y, a
// Coord may take, matching the detector's working resolution ceiling.
const (
	MaxW = 30720
	MaxH = 30720
)

// Bounds is the minimal shape an image needs to expose so that Coord
// operations can be clamped to it. gocv.Mat and other image types satisfy
// this with a couple of lines.
type Bounds interface {
	// Size returns (width, height) in pixels.
	Size() (int, int)
}

// imageBounds is a trivial Bounds implementation used by tests and callers
// that only have raw dimensions on hand.
type imageBounds struct{ w, h int }

func (b imageBounds) Size() (int, int) { return b.w, b.h }

// NewBounds returns a Bounds for the given width and height.
func NewBounds(w, h int) Bounds { return imageBounds{w, h} }

// Coord is an axis-aligned rectangle (x, y, w, h) with an optional
// confidence score in [0,1]. The zero value is the origin with zero size
// and no confidence.
type Coord struct {
	x, y, w, h int
	confidence *float64
	unsigned   bool
}

// New creates a Coord with no confidence score. Unsigned coordinates
// (the default) clamp x,y at 0; signed coordinates allow negative x,y.
func New(x, y, w, h int) (Coord, error) {
	return NewWithConfidence(x, y, w, h, nil, true)
}

// NewSigned creates a Coord that permits negative x,y.
func NewSigned(x, y, w, h int) (Coord, error) {
	return NewWithConfidence(x, y, w, h, nil, false)
}

// NewWithConfidence creates a fully specified Coord. confidence may be nil.
func NewWithConfidence(x, y, w, h int, confidence *float64, unsigned bool) (Coord, error) {
	c := Coord{unsigned: unsigned}
	if err := c.setX(x); err != nil {
		return Coord{}, err
	}
	if err := c.setY(y); err != nil {
		return Coord{}, err
	}
	if err := c.setW(w); err != nil {
		return Coord{}, err
	}
	if err := c.setH(h); err != nil {
		return Coord{}, err
	}
	if confidence != nil {
		if err := c.SetConfidence(*confidence); err != nil {
			return Coord{}, err
		}
	}
	return c, nil
}

// ToCoords coerces a slice of numbers into a Coord, following the length
// conventions of the annotation format: 2 values are a point, 3 a scored
// point, 4 an area, 5+ a scored area.
func ToCoords(v []float64) (Coord, error) {
	switch {
	case len(v) == 2:
		return New(int(v[0]), int(v[1]), 0, 0)
	case len(v) == 3:
		score := v[2]
		return NewWithConfidence(int(v[0]), int(v[1]), 0, 0, &score, true)
	case len(v) == 4:
		return New(int(v[0]), int(v[1]), int(v[2]), int(v[3]))
	case len(v) >= 5:
		score := v[4]
		return NewWithConfidence(int(v[0]), int(v[1]), int(v[2]), int(v[3]), &score, true)
	default:
		return Coord{}, pipelineerr.New(pipelineerr.InvalidArgument, "ToCoords",
			fmt.Sprintf("cannot convert a %d-length sequence to a Coord", len(v)))
	}
}

// X, Y, W, H return the rectangle's fields.
func (c Coord) X() int { return c.x }
func (c Coord) Y() int { return c.y }
func (c Coord) W() int { return c.w }
func (c Coord) H() int { return c.h }

// Confidence returns the confidence score, or 0 if none was set.
func (c Coord) Confidence() float64 {
	if c.confidence == nil {
		return 0
	}
	return *c.confidence
}

// HasConfidence reports whether a confidence score was set.
func (c Coord) HasConfidence() bool { return c.confidence != nil }

// SetConfidence sets the confidence score, which must lie in [0,1].
func (c *Coord) SetConfidence(v float64) error {
	if v < 0 || v > 1 {
		return pipelineerr.New(pipelineerr.InvalidArgument, "Coord.SetConfidence",
			fmt.Sprintf("confidence %f out of range [0,1]", v))
	}
	c.confidence = &v
	return nil
}

// SetX, SetY, SetW, SetH update a single field in place, validating it the
// same way the constructor does.
func (c *Coord) SetX(v int) error { return c.setX(v) }
func (c *Coord) SetY(v int) error { return c.setY(v) }
func (c *Coord) SetW(v int) error { return c.setW(v) }
func (c *Coord) SetH(v int) error { return c.setH(v) }

func (c *Coord) setX(v int) error {
	if c.unsigned && v < 0 {
		v = 0
	}
	if v > MaxW {
		return pipelineerr.New(pipelineerr.InvalidArgument, "Coord.SetX", "x exceeds MaxW")
	}
	c.x = v
	return nil
}

func (c *Coord) setY(v int) error {
	if c.unsigned && v < 0 {
		v = 0
	}
	if v > MaxH {
		return pipelineerr.New(pipelineerr.InvalidArgument, "Coord.SetY", "y exceeds MaxH")
	}
	c.y = v
	return nil
}

func (c *Coord) setW(v int) error {
	if v < 0 {
		return pipelineerr.New(pipelineerr.InvalidArgument, "Coord.SetW", "w must be non-negative")
	}
	if v > MaxW {
		return pipelineerr.New(pipelineerr.InvalidArgument, "Coord.SetW", "w exceeds MaxW")
	}
	c.w = v
	return nil
}

func (c *Coord) setH(v int) error {
	if v < 0 {
		return pipelineerr.New(pipelineerr.InvalidArgument, "Coord.SetH", "h must be non-negative")
	}
	if v > MaxH {
		return pipelineerr.New(pipelineerr.InvalidArgument, "Coord.SetH", "h exceeds MaxH")
	}
	c.h = v
	return nil
}

// Area returns w*h.
func (c Coord) Area() int { return c.w * c.h }

// Copy returns a value copy of c. Coord is already a value type, so this
// exists mainly for readability at call sites that want to express intent.
func (c Coord) Copy() Coord { return c }

// Equal reports whether two Coords have the same x, y, w, h. Confidence is
// ignored, matching the annotation format's equality semantics.
func (c Coord) Equal(other Coord) bool {
	return c.x == other.x && c.y == other.y && c.w == other.w && c.h == other.h
}

// Scale multiplies w and h by factor, which must lie in [0.25, 20]. x and y
// are left unchanged; Scale returns the (dx, dy) shift that, applied with
// Shift, keeps the rectangle centered on its previous center. If image is
// non-nil, the resulting w or h must fit within it or Scale fails without
// mutating c.
func (c *Coord) Scale(factor float64, image Bounds) (int, int, error) {
	if factor < 0.25 || factor > 20 {
		return 0, 0, pipelineerr.New(pipelineerr.InvalidArgument, "Coord.Scale",
			fmt.Sprintf("scale factor %.3f out of range [0.25,20]", factor))
	}
	newW := int(float64(c.w) * factor)
	newH := int(float64(c.h) * factor)
	if image != nil {
		iw, ih := image.Size()
		if newW > iw {
			return 0, 0, pipelineerr.New(pipelineerr.OutOfRange, "Coord.Scale", "scaled width exceeds image width")
		}
		if newH > ih {
			return 0, 0, pipelineerr.New(pipelineerr.OutOfRange, "Coord.Scale", "scaled height exceeds image height")
		}
	}
	shiftX := (c.w - newW) / 2
	shiftY := (c.h - newH) / 2
	c.w = newW
	c.h = newH
	return shiftX, shiftY, nil
}

// ScaleX multiplies w by factor alone, returning the shift needed to keep
// the rectangle's x-center fixed.
func (c *Coord) ScaleX(factor float64, image Bounds) (int, error) {
	if factor <= 0 {
		return 0, pipelineerr.New(pipelineerr.InvalidArgument, "Coord.ScaleX",
			fmt.Sprintf("invalid x-scale value %f", factor))
	}
	newW := int(float64(c.w) * factor)
	if image != nil {
		iw, _ := image.Size()
		if newW > iw {
			return 0, pipelineerr.New(pipelineerr.OutOfRange, "Coord.ScaleX", "scaled width exceeds image width")
		}
	}
	shiftX := (c.w - newW) / 2
	c.w = newW
	return shiftX, nil
}

// ScaleY multiplies h by factor alone, returning the shift needed to keep
// the rectangle's y-center fixed.
func (c *Coord) ScaleY(factor float64, image Bounds) (int, error) {
	if factor <= 0 {
		return 0, pipelineerr.New(pipelineerr.InvalidArgument, "Coord.ScaleY",
			fmt.Sprintf("invalid y-scale value %f", factor))
	}
	newH := int(float64(c.h) * factor)
	if image != nil {
		_, ih := image.Size()
		if newH > ih {
			return 0, pipelineerr.New(pipelineerr.OutOfRange, "Coord.ScaleY", "scaled height exceeds image height")
		}
	}
	shiftY := (c.h - newH) / 2
	c.h = newH
	return shiftY, nil
}

// Shift adds (dx, dy) to the rectangle's position. Unsigned rectangles
// clamp below at 0. If image is non-nil and the shift would run the
// rectangle past the image's right/bottom edge, the shift is reduced so
// the rectangle touches the edge instead of failing; running past the
// image in the positive direction beyond its own dimension still fails.
func (c *Coord) Shift(dx, dy int, image Bounds) error {
	newX := c.x + dx
	if c.unsigned && newX < 0 {
		newX = 0
	}
	newY := c.y + dy
	if c.unsigned && newY < 0 {
		newY = 0
	}

	if image != nil {
		maxW, maxH := image.Size()
		if dx > 0 {
			if newX > maxW {
				return pipelineerr.New(pipelineerr.OutOfRange, "Coord.Shift", "shift exceeds image width")
			}
			if newX+c.w > maxW {
				newX -= (newX + c.w) - maxW
			}
		}
		if dy > 0 {
			if newY > maxH {
				return pipelineerr.New(pipelineerr.OutOfRange, "Coord.Shift", "shift exceeds image height")
			}
			if newY+c.h > maxH {
				newY -= (newY + c.h) - maxH
			}
		}
	}

	c.x = newX
	c.y = newY
	return nil
}

// Portrait returns a copy of c enlarged by scale (x-factor, y-factor) about
// its center, reshaped to xyRatio, and shifted up by half its y-growth so a
// detected face sits in the upper third of the frame. If image is non-nil
// the result is clamped to fit within it.
func (c Coord) Portrait(image Bounds, scaleX, scaleY, xyRatio float64) (Coord, error) {
	out := c.Copy()
	shiftX, err := out.ScaleX(scaleX, nil)
	if err != nil {
		return Coord{}, err
	}
	shiftY, err := out.ScaleY(scaleY, nil)
	if err != nil {
		return Coord{}, err
	}

	if xyRatio > 0 && out.w*out.h > 0 {
		current := float64(out.w) / float64(out.h)
		switch {
		case current > xyRatio:
			sy, err := out.ScaleY(current/xyRatio, nil)
			if err != nil {
				return Coord{}, err
			}
			shiftY += sy
		case current < xyRatio:
			sx, err := out.ScaleX(xyRatio/current, nil)
			if err != nil {
				return Coord{}, err
			}
			shiftX += sx
		}
	}

	shiftY = int(float64(shiftY) * 0.5)

	if image == nil {
		if err := out.Shift(shiftX, shiftY, nil); err != nil {
			return Coord{}, err
		}
		return out, nil
	}

	shiftedX := out.Shift(shiftX, 0, image) == nil
	shiftedY := out.Shift(0, shiftY, image) == nil

	w, h := image.Size()
	if out.x+out.w > w || !shiftedX {
		if w-out.w > 0 {
			out.x = w - out.w
		} else {
			out.x = 0
			out.w = w
		}
	}
	if out.y+out.h > h || !shiftedY {
		if h-out.h > 0 {
			out.y = h - out.h
		} else {
			out.y = 0
			out.h = h
		}
	}
	return out, nil
}

// DefaultPortrait applies Portrait with the spec's default head-and-
// shoulders scale (2.6, 3.0) and a 14:16 aspect ratio.
func (c Coord) DefaultPortrait(image Bounds) (Coord, error) {
	return c.Portrait(image, 2.6, 3.0, 0.875)
}

// SelfiePortrait applies Portrait with a wider (4.6, 5.0) scale, matching
// the pipeline's "selfie" output option.
func (c Coord) SelfiePortrait(image Bounds) (Coord, error) {
	return c.Portrait(image, 4.6, 5.0, 0.875)
}

// IntersectionArea returns the overlapping area of c and other, or 0 if
// they do not overlap.
func (c Coord) IntersectionArea(other Coord) int {
	selfXMax, otherXMax := c.x+c.w, other.x+other.w
	dx := min(selfXMax, otherXMax) - max(c.x, other.x)

	selfYMax, otherYMax := c.y+c.h, other.y+other.h
	dy := min(selfYMax, otherYMax) - max(c.y, other.y)

	if dx >= 0 && dy >= 0 {
		return dx * dy
	}
	return 0
}

// Overlap returns the percentage of other's area covered by the
// intersection, and the percentage of c's area covered by the
// intersection. Both are 0 if either rectangle has zero area or they don't
// overlap.
func (c Coord) Overlap(other Coord) (pctOfOther, pctOfSelf float64) {
	inArea := c.IntersectionArea(other)
	if inArea == 0 {
		return 0, 0
	}
	myArea := float64(c.Area())
	otherArea := float64(other.Area())
	if otherArea == 0 || myArea == 0 {
		return 0, 0
	}
	return (float64(inArea) / otherArea) * 100, (float64(inArea) / myArea) * 100
}

// Intermediate returns the component-wise midpoint rectangle between c and
// other, with averaged confidence.
func (c Coord) Intermediate(other Coord) Coord {
	x := c.x + (other.x-c.x)/2
	y := c.y + (other.y-c.y)/2
	w := (c.w + other.w) / 2
	h := (c.h + other.h) / 2
	conf := (c.Confidence() + other.Confidence()) / 2
	out, _ := NewWithConfidence(x, y, w, h, &conf, c.unsigned)
	return out
}

// EuclidianDistance returns the integer distance between the top-left
// points of c and other.
func (c Coord) EuclidianDistance(other Coord) int {
	if c == other {
		return 0
	}
	dx := float64(c.x - other.x)
	dy := float64(c.y - other.y)
	return int(math.Round(math.Sqrt(dx*dx + dy*dy)))
}

// Similarity returns a rectangle-similarity score in [0,1], combining
// overlap percentage and center distance: identical or near-identical
// rectangles score close to 1, and disjoint or distant ones score 0.
func (c Coord) Similarity(other Coord) float64 {
	pctOther, pctSelf := c.Overlap(other)
	overlapScore := (pctOther + pctSelf) / 200

	dist := float64(c.EuclidianDistance(other))
	scale := float64(c.w+c.h+other.w+other.h) / 4
	var distScore float64
	if scale > 0 {
		distScore = 1 - dist/scale
		if distScore < 0 {
			distScore = 0
		}
	}

	sim := (overlapScore + distScore) / 2
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim
}

// Contains reports whether other lies entirely within c (strict
// containment of edges); overlapping without full containment is false.
func (c Coord) Contains(other Coord) bool {
	if other.w > c.w || other.h > c.h {
		return false
	}
	if other.x < c.x || other.y < c.y {
		return false
	}
	if other.x+other.w > c.x+c.w {
		return false
	}
	if other.y+other.h > c.y+c.h {
		return false
	}
	return true
}

func (c Coord) String() string {
	s := fmt.Sprintf("(%d,%d)", c.x, c.y)
	if c.w > 0 || c.h > 0 {
		s += fmt.Sprintf(" (%d,%d)", c.w, c.h)
	}
	if c.confidence != nil {
		s += fmt.Sprintf(": %f", *c.confidence)
	}
	return s
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
