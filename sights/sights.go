/*
NAME
  sights.go

DESCRIPTION
  A fixed-length set of landmark points (eyes, nose, mouth corners, ...)
  detected on a face or object, with optional per-point depth and score.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sights represents a fixed-length collection of landmark points
// produced by a face/pose detector, along with the few geometric
// operations the identification pipeline performs on them.
package sights

import (
	"fmt"

	"github.com/ausocean/faceident/pipelineerr"
)

// Sights is a fixed-length list of 2D or 3D points, each with an optional
// confidence score. The number of points (Len) is fixed at construction;
// every Sights value sharing that count compares and combines positionally.
type Sights struct {
	x, y  []int
	z     []int
	score []float64
	hasZ  bool
	hasS  bool
}

// New creates a Sights with nb points, all initially at the origin with no
// depth or score recorded.
func New(nb int) (Sights, error) {
	if nb < 0 {
		return Sights{}, pipelineerr.New(pipelineerr.InvalidArgument, "sights.New", "nb must be non-negative")
	}
	return Sights{x: make([]int, nb), y: make([]int, nb)}, nil
}

// Len returns the fixed number of points.
func (s Sights) Len() int { return len(s.x) }

func (s Sights) checkIndex(i int) error {
	if i < 0 || i >= len(s.x) {
		return pipelineerr.New(pipelineerr.OutOfRange, "Sights", fmt.Sprintf("index %d out of range [0,%d)", i, len(s.x)))
	}
	return nil
}

// Sight is one point of a Sights set: its x, y, optional z and optional
// score. HasZ/HasScore report whether the latter two fields are present.
type Sight struct {
	X, Y       int
	Z          int
	Score      float64
	HasZ       bool
	HasScore   bool
}

// Get returns the point at index i.
func (s Sights) Get(i int) (Sight, error) {
	if err := s.checkIndex(i); err != nil {
		return Sight{}, err
	}
	pt := Sight{X: s.x[i], Y: s.y[i]}
	if s.hasZ {
		pt.Z = s.z[i]
		pt.HasZ = true
	}
	if s.hasS {
		pt.Score = s.score[i]
		pt.HasScore = true
	}
	return pt, nil
}

// Set sets the x,y position at index i.
func (s *Sights) Set(i, x, y int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.x[i] = x
	s.y[i] = y
	return nil
}

// SetZ sets the depth at index i, allocating the z slice on first use.
func (s *Sights) SetZ(i, z int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if !s.hasZ {
		s.z = make([]int, len(s.x))
		s.hasZ = true
	}
	s.z[i] = z
	return nil
}

// SetScore sets the confidence score at index i, allocating the score
// slice on first use.
func (s *Sights) SetScore(i int, score float64) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if score < 0 || score > 1 {
		return pipelineerr.New(pipelineerr.InvalidArgument, "Sights.SetScore", "score out of range [0,1]")
	}
	if !s.hasS {
		s.score = make([]float64, len(s.x))
		s.hasS = true
	}
	s.score[i] = score
	return nil
}

// HasZ reports whether any depth values have been recorded.
func (s Sights) HasZ() bool { return s.hasZ }

// HasScore reports whether any score values have been recorded.
func (s Sights) HasScore() bool { return s.hasS }

// MeanScore returns the average of the recorded scores, or 0 if none were
// set.
func (s Sights) MeanScore() float64 {
	if !s.hasS || len(s.score) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s.score {
		sum += v
	}
	return sum / float64(len(s.score))
}

// Intermediate returns the point-wise midpoint between s and other, which
// must have the same length. Depth is only averaged if both sets carry it;
// score is only averaged if both sets carry it.
func (s Sights) Intermediate(other Sights) (Sights, error) {
	if s.Len() != other.Len() {
		return Sights{}, pipelineerr.New(pipelineerr.LengthMismatch, "Sights.Intermediate",
			fmt.Sprintf("lengths differ: %d vs %d", s.Len(), other.Len()))
	}
	out, _ := New(s.Len())
	for i := range s.x {
		out.x[i] = s.x[i] + (other.x[i]-s.x[i])/2
		out.y[i] = s.y[i] + (other.y[i]-s.y[i])/2
	}
	if s.hasZ && other.hasZ {
		out.z = make([]int, s.Len())
		out.hasZ = true
		for i := range s.z {
			out.z[i] = s.z[i] + (other.z[i]-s.z[i])/2
		}
	}
	if s.hasS && other.hasS {
		out.score = make([]float64, s.Len())
		out.hasS = true
		for i := range s.score {
			out.score[i] = (s.score[i] + other.score[i]) / 2
		}
	}
	return out, nil
}

// Center returns the midpoint of the bounding box enclosing all points.
// The returned Sight's HasScore field is always false; HasZ is true if the
// set carries depth.
func (s Sights) Center() Sight {
	if s.Len() == 0 {
		return Sight{}
	}
	minX, maxX := s.x[0], s.x[0]
	minY, maxY := s.y[0], s.y[0]
	for i := 1; i < s.Len(); i++ {
		if s.x[i] < minX {
			minX = s.x[i]
		}
		if s.x[i] > maxX {
			maxX = s.x[i]
		}
		if s.y[i] < minY {
			minY = s.y[i]
		}
		if s.y[i] > maxY {
			maxY = s.y[i]
		}
	}
	c := Sight{X: minX + (maxX-minX)/2, Y: minY + (maxY-minY)/2}
	if s.hasZ {
		minZ, maxZ := s.z[0], s.z[0]
		for i := 1; i < s.Len(); i++ {
			if s.z[i] < minZ {
				minZ = s.z[i]
			}
			if s.z[i] > maxZ {
				maxZ = s.z[i]
			}
		}
		c.Z = minZ + (maxZ-minZ)/2
		c.HasZ = true
	}
	return c
}

// Scale expands every point away from the point at centerIndex by factor,
// independently on each axis. Points coincident with the center are left
// unchanged.
func (s *Sights) Scale(centerIndex int, factor float64) error {
	if err := s.checkIndex(centerIndex); err != nil {
		return err
	}
	if factor <= 0 {
		return pipelineerr.New(pipelineerr.InvalidArgument, "Sights.Scale", "factor must be positive")
	}
	cx, cy := s.x[centerIndex], s.y[centerIndex]
	for i := range s.x {
		if s.x[i] != cx {
			s.x[i] = cx + int(float64(s.x[i]-cx)*factor)
		}
		if s.y[i] != cy {
			s.y[i] = cy + int(float64(s.y[i]-cy)*factor)
		}
	}
	return nil
}

// Contains reports whether some point of s has other's x,y (and, when both
// carry depth, its z); score is ignored as in the annotation format's
// equality.
func (s Sights) Contains(other Sight) bool {
	for i := range s.x {
		if s.x[i] == other.X && s.y[i] == other.Y {
			if s.hasZ && other.HasZ && s.z[i] != other.Z {
				continue
			}
			return true
		}
	}
	return false
}
