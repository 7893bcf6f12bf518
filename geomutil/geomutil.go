/*
NAME
  geomutil.go

DESCRIPTION
  Numeric helpers used by the identification pipeline's trajectory
  smoothing and scattered-identity detection: linear regression over a
  position history, mean of a value history, and n-gram frequency
  counting over a sequence of presence states.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package geomutil collects the small numeric routines shared by the
// trajectory-smoothing and scattered-identity passes of the identification
// pipeline: linear regression, mean, and n-gram frequency.
package geomutil

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/faceident/pipelineerr"
)

// LinearFit holds the slope and intercept of a fitted line, y = Alpha +
// Beta*x.
type LinearFit struct {
	Alpha, Beta float64
}

// Eval evaluates the fitted line at x.
func (f LinearFit) Eval(x float64) float64 { return f.Alpha + f.Beta*x }

// FitLine fits a line to the (x, y) pairs using ordinary least squares,
// unweighted, mirroring the trajectory-smoothing pass's use of a Tansey
// linear regression over a position history indexed by position in that
// history.
func FitLine(x, y []float64) (LinearFit, error) {
	if len(x) != len(y) {
		return LinearFit{}, pipelineerr.New(pipelineerr.LengthMismatch, "geomutil.FitLine", "x and y must be the same length")
	}
	if len(x) < 2 {
		return LinearFit{}, pipelineerr.New(pipelineerr.InvalidArgument, "geomutil.FitLine", "need at least 2 points to fit a line")
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return LinearFit{Alpha: alpha, Beta: beta}, nil
}

// Mean returns the arithmetic mean of vs, or 0 for an empty slice.
func Mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	return stat.Mean(vs, nil)
}

// Indices returns [0, 1, ..., n-1] as float64, the x-axis FitLine expects
// when fitting a history that is already in temporal order.
func Indices(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// NGramCount counts, for a sequence of boolean presence states, how many
// of the possible n-length windows are entirely true. It returns 0 if the
// sequence is shorter than n.
func NGramCount(states []bool, n int) int {
	windows := len(states) - n + 1
	if windows <= 0 {
		return 0
	}
	var hits int
	for i := 0; i < windows; i++ {
		allTrue := true
		for j := 0; j < n; j++ {
			if !states[i+j] {
				allTrue = false
				break
			}
		}
		if allTrue {
			hits++
		}
	}
	return hits
}

// PresenceRatio returns the fraction of states that are true, used to
// decide whether an identity is rare within a window.
func PresenceRatio(states []bool) float64 {
	if len(states) == 0 {
		return 0
	}
	var hits int
	for _, s := range states {
		if s {
			hits++
		}
	}
	return float64(hits) / float64(len(states))
}
