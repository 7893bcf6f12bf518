//go:build withcv
// +build withcv

/*
NAME
  peridentitywriter.go

DESCRIPTION
  PerIdentityWriter re-reads a video alongside a finished IdCoordsBuffer
  and emits, for each identity, a cropped portrait video and its matching
  coords CSV.

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
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/ausocean/faceident/coord"
	"github.com/ausocean/faceident/coordsbuffer"
	"github.com/ausocean/faceident/imgops"
	"github.com/ausocean/faceident/pipelineerr"
	"github.com/ausocean/faceident/videoio"
)

// PortraitWidth and PortraitHeight are the fixed output frame size for
// per-identity export.
const (
	PortraitWidth  = 280
	PortraitHeight = 320
)

// PerIdentityWriter emits one cropped video and one coords CSV per
// identity found in an IdCoordsBuffer.
type PerIdentityWriter struct {
	cfg Config
}

// NewPerIdentityWriter returns a PerIdentityWriter using cfg's OutSelfie
// and OutShift options to shape the portrait crop.
func NewPerIdentityWriter(cfg Config) *PerIdentityWriter {
	return &PerIdentityWriter{cfg: cfg}
}

// Write re-reads videoPath and, for every identity present in icb, writes
// dir/id_<identity>.mp4 and dir/id_<identity>.csv containing that
// identity's portrait-cropped frames and coords.
func (w *PerIdentityWriter) Write(videoPath string, icb *coordsbuffer.IdCoordsBuffer, fps float64, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "PerIdentityWriter.Write", err)
	}

	reader := videoio.NewReader(videoPath, w.cfg.Logger)
	if err := reader.Start(); err != nil {
		return err
	}
	defer reader.Stop()

	writers := make(map[string]*videoio.Writer)
	buffers := make(map[string]*coordsbuffer.IdCoordsBuffer)
	defer func() {
		for _, vw := range writers {
			vw.Stop()
		}
	}()

	frame := gocv.NewMat()
	defer frame.Close()

	for f := 0; f < icb.NumFrames(); f++ {
		ok, err := reader.Read(&frame)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		ids := icb.Identities(f)
		coords := icb.Coords(f)
		for i, idnt := range ids {
			if i >= len(coords) {
				continue
			}
			vw, ok := writers[idnt]
			if !ok {
				path := identityPath(dir, idnt, ".mp4")
				vw = videoio.NewWriter(path, fps, PortraitWidth, PortraitHeight, w.cfg.Logger)
				if err := vw.Start(); err != nil {
					return err
				}
				writers[idnt] = vw
			}
			portrait, pc, err := w.portraitFrame(frame, coords[i])
			if err != nil {
				continue
			}
			if err := vw.Write(portrait); err != nil {
				portrait.Close()
				return err
			}
			portrait.Close()

			icb2, ok := buffers[idnt]
			if !ok {
				icb2 = coordsbuffer.NewIdCoordsBuffer(nil, w.cfg.Logger)
				buffers[idnt] = icb2
			}
			icb2.AppendCoord(f, pc)
			icb2.SetIdentities(f, append(icb2.Identities(f), idnt))
		}
	}

	for idnt, icb2 := range buffers {
		path := identityPath(dir, idnt, ".csv")
		if err := writeIdentityCSV(path, icb2, fps, w.cfg.BufferSize); err != nil {
			return err
		}
	}
	return nil
}

// portraitFrame crops and resizes the portrait region around c from
// frame, returning the composited canvas and the face coords relative to
// that canvas.
func (w *PerIdentityWriter) portraitFrame(frame gocv.Mat, c coord.Coord) (gocv.Mat, coord.Coord, error) {
	var region coord.Coord
	var err error
	if w.cfg.OutSelfie {
		region, err = c.SelfiePortrait(imgops.Bounds(&frame))
	} else {
		region, err = c.DefaultPortrait(imgops.Bounds(&frame))
	}
	if err != nil {
		return gocv.Mat{}, coord.Coord{}, err
	}
	if w.cfg.OutShift != 0 {
		shift := region.X() * w.cfg.OutShift / 100
		if err := region.Shift(shift, 0, imgops.Bounds(&frame)); err != nil {
			return gocv.Mat{}, coord.Coord{}, err
		}
	}

	cropped, err := imgops.Crop(frame, region)
	if err != nil {
		return gocv.Mat{}, coord.Coord{}, err
	}
	resized := imgops.ResizePreserveAspect(cropped, PortraitWidth, PortraitHeight)
	cropped.Close()

	canvas := imgops.Blank(PortraitWidth, PortraitHeight, frame)
	rw, rh := imgops.Size(resized)
	offX := (PortraitWidth - rw) / 2
	offY := (PortraitHeight - rh) / 2
	if err := imgops.Paste(&canvas, resized, offX, offY); err != nil {
		resized.Close()
		canvas.Close()
		return gocv.Mat{}, coord.Coord{}, err
	}
	resized.Close()

	faceX := c.X() - region.X() + offX
	faceY := c.Y() - region.Y() + offY
	relCoord, err := coord.New(faceX, faceY, c.W(), c.H())
	if err != nil {
		canvas.Close()
		return gocv.Mat{}, coord.Coord{}, err
	}
	return canvas, relCoord, nil
}

func writeIdentityCSV(path string, icb *coordsbuffer.IdCoordsBuffer, fps float64, bufferSize int) error {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "identify.writeIdentityCSV", err)
	}
	defer f.Close()
	return coordsbuffer.WriteCSV(f, icb, fps, bufferSize)
}
