//go:build withcv
// +build withcv

/*
NAME
  coordsbuffer.go

DESCRIPTION
  CoordsBuffer and IdCoordsBuffer extend framebuffer.FrameBuffer with
  parallel per-frame lists of detected Coords and (for IdCoordsBuffer)
  identity strings, plus CSV and XRA-like persistence for those lists.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package coordsbuffer adds per-frame Coord (and identity) lists to a
// framebuffer.FrameBuffer window, and reads/writes those lists in the
// pipeline's CSV and XRA-like coords+ids file formats.
package coordsbuffer

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ausocean/faceident/coord"
	"github.com/ausocean/faceident/framebuffer"
	"github.com/ausocean/faceident/pipelineerr"
	"github.com/ausocean/utils/logging"
)

// CoordsBuffer pairs a FrameBuffer window with, for each frame in the
// window, the list of Coords detected in it.
type CoordsBuffer struct {
	*framebuffer.FrameBuffer
	coords [][]coord.Coord // indexed by absolute frame index
	log    logging.Logger
}

// New creates a CoordsBuffer over fb, initially with no coords loaded for
// any frame.
func New(fb *framebuffer.FrameBuffer, l logging.Logger) *CoordsBuffer {
	return &CoordsBuffer{FrameBuffer: fb, log: l}
}

// SetCoords sets the Coord list for absolute frame index frame.
func (cb *CoordsBuffer) SetCoords(frame int, c []coord.Coord) error {
	if frame < 0 {
		return pipelineerr.New(pipelineerr.OutOfRange, "CoordsBuffer.SetCoords", "frame must be non-negative")
	}
	cb.growTo(frame)
	cb.coords[frame] = c
	return nil
}

// Coords returns the Coord list for absolute frame index frame.
func (cb *CoordsBuffer) Coords(frame int) []coord.Coord {
	if frame < 0 || frame >= len(cb.coords) {
		return nil
	}
	return cb.coords[frame]
}

// AppendCoord appends c to the list for absolute frame index frame.
func (cb *CoordsBuffer) AppendCoord(frame int, c coord.Coord) {
	cb.growTo(frame)
	cb.coords[frame] = append(cb.coords[frame], c)
}

func (cb *CoordsBuffer) growTo(frame int) {
	if frame < len(cb.coords) {
		return
	}
	grown := make([][]coord.Coord, frame+1)
	copy(grown, cb.coords)
	cb.coords = grown
}

// IdCoordsBuffer extends CoordsBuffer with a parallel per-frame identity
// string list: ids[frame][i] names the identity of coords(frame)[i].
type IdCoordsBuffer struct {
	*CoordsBuffer
	ids [][]string
}

// NewIdCoordsBuffer creates an IdCoordsBuffer over fb.
func NewIdCoordsBuffer(fb *framebuffer.FrameBuffer, l logging.Logger) *IdCoordsBuffer {
	return &IdCoordsBuffer{CoordsBuffer: New(fb, l)}
}

// SetIdentities sets the identity list for absolute frame index frame. It
// must be the same length as the Coord list already set for that frame.
func (icb *IdCoordsBuffer) SetIdentities(frame int, ids []string) error {
	if frame < 0 {
		return pipelineerr.New(pipelineerr.OutOfRange, "IdCoordsBuffer.SetIdentities", "frame must be non-negative")
	}
	if len(icb.Coords(frame)) != len(ids) {
		return pipelineerr.New(pipelineerr.LengthMismatch, "IdCoordsBuffer.SetIdentities",
			"identity list length does not match coord list length")
	}
	icb.growIdsTo(frame)
	icb.ids[frame] = ids
	return nil
}

// Identities returns the identity list for absolute frame index frame.
func (icb *IdCoordsBuffer) Identities(frame int) []string {
	if frame < 0 || frame >= len(icb.ids) {
		return nil
	}
	return icb.ids[frame]
}

// RemoveAt deletes the coord and identity at position i within frame,
// keeping both lists in lockstep.
func (icb *IdCoordsBuffer) RemoveAt(frame, i int) error {
	coords := icb.Coords(frame)
	ids := icb.Identities(frame)
	if i < 0 || i >= len(coords) || i >= len(ids) {
		return pipelineerr.New(pipelineerr.OutOfRange, "IdCoordsBuffer.RemoveAt", "index out of range for frame")
	}
	icb.coords[frame] = append(coords[:i], coords[i+1:]...)
	icb.ids[frame] = append(ids[:i], ids[i+1:]...)
	return nil
}

func (icb *IdCoordsBuffer) growIdsTo(frame int) {
	if frame < len(icb.ids) {
		return
	}
	grown := make([][]string, frame+1)
	copy(grown, icb.ids)
	icb.ids = grown
}

// NumFrames returns the number of frames for which coords have been
// recorded (the highest frame index touched, plus one).
func (icb *IdCoordsBuffer) NumFrames() int { return len(icb.coords) }

// --- CSV persistence -------------------------------------------------
//
// Column layout (";"-separated), per the coords+ids file format:
//   0 frame index
//   1 identity ("0" on a row for a frame with no detection)
//   2 midpoint time (seconds)
//   3 confidence
//   4 success flag (1 = detection present, 0 = failed)
//   5 buffer number
//   6 index within the buffer
//   7 x
//   8 y
//   9 w
//   10 h

// WriteCSV writes every recorded frame's coords and identities to w, one
// row per detection, using bufferSize to compute the buffer-number and
// in-buffer-index columns the same way the pipeline's own windows do.
func WriteCSV(w io.Writer, icb *IdCoordsBuffer, fps float64, bufferSize int) error {
	bw := bufio.NewWriter(w)
	for frame := 0; frame < icb.NumFrames(); frame++ {
		coords := icb.Coords(frame)
		ids := icb.Identities(frame)
		if len(coords) == 0 {
			line := fmt.Sprintf("%d;0;%f;0;0;%d;%d;0;0;0;0\n",
				frame, float64(frame)/fps, frame/bufferSize, frame%bufferSize)
			if _, err := bw.WriteString(line); err != nil {
				return pipelineerr.Wrap(pipelineerr.IoError, "coordsbuffer.WriteCSV", err)
			}
			continue
		}
		for i, c := range coords {
			id := ""
			if i < len(ids) {
				id = ids[i]
			}
			line := fmt.Sprintf("%d;%s;%f;%f;1;%d;%d;%d;%d;%d;%d\n",
				frame, id, float64(frame)/fps, c.Confidence(),
				frame/bufferSize, frame%bufferSize,
				c.X(), c.Y(), c.W(), c.H())
			if _, err := bw.WriteString(line); err != nil {
				return pipelineerr.Wrap(pipelineerr.IoError, "coordsbuffer.WriteCSV", err)
			}
		}
	}
	return bw.Flush()
}

// ReadCSV reads a coords+ids CSV file (the 11-column layout documented
// above), returning parallel per-frame coords and identities. Rows with a
// 0 success flag contribute no detection for their frame, but still
// establish that the frame exists.
func ReadCSV(r io.Reader) ([][]coord.Coord, [][]string, error) {
	scanner := bufio.NewScanner(r)
	var coords [][]coord.Coord
	var ids [][]string

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, ";")
		if len(cols) < 11 {
			return nil, nil, pipelineerr.New(pipelineerr.IoError, "coordsbuffer.ReadCSV",
				fmt.Sprintf("expected 11 columns, got %d", len(cols)))
		}
		frame, err := strconv.Atoi(cols[0])
		if err != nil {
			return nil, nil, pipelineerr.Wrap(pipelineerr.IoError, "coordsbuffer.ReadCSV", errors.Wrap(err, "frame index"))
		}
		for frame >= len(coords) {
			coords = append(coords, nil)
			ids = append(ids, nil)
		}
		success, err := strconv.Atoi(cols[4])
		if err != nil {
			return nil, nil, pipelineerr.Wrap(pipelineerr.IoError, "coordsbuffer.ReadCSV", errors.Wrap(err, "success flag"))
		}
		if success != 1 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[3], 64)
		if err != nil {
			return nil, nil, pipelineerr.Wrap(pipelineerr.IoError, "coordsbuffer.ReadCSV", errors.Wrap(err, "confidence"))
		}
		x, err1 := strconv.Atoi(cols[7])
		y, err2 := strconv.Atoi(cols[8])
		wv, err3 := strconv.Atoi(cols[9])
		h, err4 := strconv.Atoi(cols[10])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, nil, pipelineerr.New(pipelineerr.IoError, "coordsbuffer.ReadCSV", "malformed coordinate columns")
		}
		c, err := coord.NewWithConfidence(x, y, wv, h, &conf, true)
		if err != nil {
			return nil, nil, pipelineerr.Wrap(pipelineerr.InvalidArgument, "coordsbuffer.ReadCSV", err)
		}
		coords[frame] = append(coords[frame], c)
		ids[frame] = append(ids[frame], cols[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, pipelineerr.Wrap(pipelineerr.IoError, "coordsbuffer.ReadCSV", err)
	}
	return coords, ids, nil
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) ([][]coord.Coord, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, pipelineerr.Wrap(pipelineerr.IoError, "coordsbuffer.ReadCSVFile", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// --- XRA-like persistence ---------------------------------------------
//
// A hierarchical stand-in for the XRA annotation exchange format: one tier
// whose media metadata carries fps, and whose annotations are points in
// time (one per frame). Each annotation carries one label per detection in
// that frame: a fuzzy-rectangle tag (x, y, w, h) plus a score, keyed by the
// identity string. This mirrors the tier/annotation/label/media shape the
// pipeline's own reader (kidsreader.py's __load_from_xra) walks, without
// pulling in the full annotation-transcription machinery that builds it.

// xraLabel is one identity's fuzzy-rectangle tag within an annotation.
type xraLabel struct {
	Key   string  `xml:"key,attr"`
	X     int     `xml:"x,attr"`
	Y     int     `xml:"y,attr"`
	W     int     `xml:"w,attr"`
	H     int     `xml:"h,attr"`
	Score float64 `xml:"score,attr"`
}

// xraAnnotation is one frame's point in time, carrying every detection in
// that frame as a label.
type xraAnnotation struct {
	FrameIndex int        `xml:"frame_index,attr"`
	Labels     []xraLabel `xml:"Label"`
}

// xraMedia is the tier's media metadata: just fps, the only metadata this
// pipeline's annotations depend on.
type xraMedia struct {
	FPS float64 `xml:"fps,attr"`
}

// xraTier is the single tier the coords+ids XRA-like file holds.
type xraTier struct {
	XMLName     xml.Name        `xml:"Tier"`
	Media       xraMedia        `xml:"Media"`
	Annotations []xraAnnotation `xml:"Annotation"`
}

// WriteXRA writes icb's per-frame coords and identities as a tier in the
// hierarchical XRA-like format documented above, one annotation per frame
// and one label per detection.
func WriteXRA(w io.Writer, icb *IdCoordsBuffer, fps float64) error {
	tier := xraTier{Media: xraMedia{FPS: fps}}
	for frame := 0; frame < icb.NumFrames(); frame++ {
		coords := icb.Coords(frame)
		ids := icb.Identities(frame)
		ann := xraAnnotation{FrameIndex: frame}
		for i, c := range coords {
			key := ""
			if i < len(ids) {
				key = ids[i]
			}
			ann.Labels = append(ann.Labels, xraLabel{
				Key: key, X: c.X(), Y: c.Y(), W: c.W(), H: c.H(), Score: c.Confidence(),
			})
		}
		tier.Annotations = append(tier.Annotations, ann)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "coordsbuffer.WriteXRA", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(tier); err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "coordsbuffer.WriteXRA", err)
	}
	return nil
}

// ReadXRA reads a tier written by WriteXRA (or an equivalent producer),
// returning its per-frame coords and identities plus the fps carried by the
// tier's media metadata. Frames with no annotation (a gap in FrameIndex)
// get an empty entry, matching __load_from_xra's handling of skipped
// frames.
func ReadXRA(r io.Reader) ([][]coord.Coord, [][]string, float64, error) {
	var tier xraTier
	if err := xml.NewDecoder(r).Decode(&tier); err != nil {
		return nil, nil, 0, pipelineerr.Wrap(pipelineerr.IoError, "coordsbuffer.ReadXRA", err)
	}
	if tier.Media.FPS <= 0 {
		return nil, nil, 0, pipelineerr.New(pipelineerr.InvalidArgument, "coordsbuffer.ReadXRA", "tier media has no fps metadata")
	}

	var coords [][]coord.Coord
	var ids [][]string
	for _, ann := range tier.Annotations {
		for ann.FrameIndex >= len(coords) {
			coords = append(coords, nil)
			ids = append(ids, nil)
		}
		for _, label := range ann.Labels {
			score := label.Score
			c, err := coord.NewWithConfidence(label.X, label.Y, label.W, label.H, &score, true)
			if err != nil {
				return nil, nil, 0, pipelineerr.Wrap(pipelineerr.InvalidArgument, "coordsbuffer.ReadXRA", err)
			}
			coords[ann.FrameIndex] = append(coords[ann.FrameIndex], c)
			ids[ann.FrameIndex] = append(ids[ann.FrameIndex], label.Key)
		}
	}
	return coords, ids, tier.Media.FPS, nil
}
