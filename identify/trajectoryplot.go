//go:build withcv
// +build withcv

/*
NAME
  trajectoryplot.go

DESCRIPTION
  Optional diagnostic: renders an identity's smoothed (x,y) path across a
  video as a PNG, for spotting jittery tracks during tuning.

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
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/faceident/coordsbuffer"
	"github.com/ausocean/faceident/pipelineerr"
)

// WriteTrajectoryPlot renders identity's (x,y) center position over every
// frame it appears in icb, saving a PNG to path. It is a debugging aid,
// not part of the identification algorithm itself.
func WriteTrajectoryPlot(icb *coordsbuffer.IdCoordsBuffer, identity, path string) error {
	pts := make(plotter.XYs, 0, icb.NumFrames())
	for f := 0; f < icb.NumFrames(); f++ {
		c, ok := kidCoord(icb, f, identity)
		if !ok {
			continue
		}
		pts = append(pts, plotter.XY{
			X: float64(c.X()) + float64(c.W())/2,
			Y: float64(c.Y()) + float64(c.H())/2,
		})
	}
	if len(pts) == 0 {
		return pipelineerr.New(pipelineerr.NotFound, "identify.WriteTrajectoryPlot", "identity never appears in buffer")
	}

	p := plot.New()
	p.Title.Text = "trajectory: " + identity
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "identify.WriteTrajectoryPlot", err)
	}
	p.Add(line)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "identify.WriteTrajectoryPlot", err)
	}
	return nil
}
