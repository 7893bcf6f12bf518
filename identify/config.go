//go:build withcv
// +build withcv

/*
NAME
  config.go

DESCRIPTION
  Configuration for the Identifier orchestrator: the tunable thresholds
  and output options of the three-pass identification algorithm.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package identify

import (
	"github.com/ausocean/faceident/similarity"
	"github.com/ausocean/utils/logging"
)

// Config holds every tunable of the identification pipeline. Zero-value
// fields are defaulted by Validate, which also logs the substitution the
// way revid/config.Config.LogInvalidField does.
type Config struct {
	// NbImagesRecognizer bounds how many reference images a single identity
	// keeps in its gallery entry.
	NbImagesRecognizer int
	// FaceMinConfidence is the minimum detector confidence a Coord needs to
	// be considered during clustering.
	FaceMinConfidence float64
	// CompareCoordsMinThreshold is the minimum coords-similarity score for
	// a coords-based match (pass 1 clustering and the pass-2 rescue).
	CompareCoordsMinThreshold float64
	// CompareCoordsRefMinThreshold is the coords-similarity score a pass-1
	// match must exceed to admit its crop into the matched gallery entry.
	CompareCoordsRefMinThreshold float64
	// CoordsMinDist is the minimum coords-similarity score below which two
	// pass-1 candidate identities are considered distinct.
	CoordsMinDist float64
	// ImagesMinDist is the minimum image-similarity score below which two
	// pass-1 candidate identities are considered distinct.
	ImagesMinDist float64

	// BufferSize and BufferOverlap configure the sliding window used by
	// passes 1 and 2. 0 means auto/default.
	BufferSize    int
	BufferOverlap int

	// OutIdent, when set, requests per-identity video+coords export after
	// pass 3.
	OutIdent bool
	// OutSelfie requests the wider "selfie" portrait crop instead of the
	// default head-and-shoulders crop for per-identity export.
	OutSelfie bool
	// OutShift further shifts the portrait crop horizontally, in percent
	// of the crop's own x, and must lie in (-100, 100).
	OutShift int

	Logger logging.Logger
}

// LogInvalidField logs that a config field was bad or unset and is being
// defaulted, in the teacher's own phrasing.
func (c *Config) LogInvalidField(name string, def interface{}) {
	if c.Logger == nil {
		return
	}
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}

// Validate fills in defaults for any unset or out-of-range field and
// returns an error only if OutShift is out of its valid range (it has no
// sensible default to substitute).
func (c *Config) Validate() error {
	if c.NbImagesRecognizer <= 0 || c.NbImagesRecognizer > 100 {
		c.LogInvalidField("NbImagesRecognizer", similarity.DefaultNbImages)
		c.NbImagesRecognizer = similarity.DefaultNbImages
	}
	if c.FaceMinConfidence <= 0 || c.FaceMinConfidence > 1 {
		c.LogInvalidField("FaceMinConfidence", similarity.DefaultFaceMinConfidence)
		c.FaceMinConfidence = similarity.DefaultFaceMinConfidence
	}
	if c.CompareCoordsMinThreshold <= 0 || c.CompareCoordsMinThreshold > 1 {
		c.LogInvalidField("CompareCoordsMinThreshold", similarity.DefaultCompareCoordsMinThreshold)
		c.CompareCoordsMinThreshold = similarity.DefaultCompareCoordsMinThreshold
	}
	if c.CompareCoordsRefMinThreshold <= 0 || c.CompareCoordsRefMinThreshold > 1 {
		c.LogInvalidField("CompareCoordsRefMinThreshold", similarity.DefaultCompareCoordsRefThreshold)
		c.CompareCoordsRefMinThreshold = similarity.DefaultCompareCoordsRefThreshold
	}
	if c.CoordsMinDist <= 0 || c.CoordsMinDist > 1 {
		c.LogInvalidField("CoordsMinDist", similarity.DefaultCoordsMinDist)
		c.CoordsMinDist = similarity.DefaultCoordsMinDist
	}
	if c.ImagesMinDist <= 0 || c.ImagesMinDist > 1 {
		c.LogInvalidField("ImagesMinDist", similarity.DefaultImagesMinDist)
		c.ImagesMinDist = similarity.DefaultImagesMinDist
	}
	if c.BufferSize < 0 {
		c.LogInvalidField("BufferSize", 0)
		c.BufferSize = 0
	}
	if c.OutShift <= -100 || c.OutShift >= 100 {
		return errOutShiftRange
	}
	return nil
}
