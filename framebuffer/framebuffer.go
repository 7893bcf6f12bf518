//go:build withcv
// +build withcv

/*
NAME
  framebuffer.go

DESCRIPTION
  A sliding window of decoded frames over a video, sized to stay within a
  memory budget and overlapped between windows so per-window algorithms
  (clustering, trajectory smoothing) have context from the previous window.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package framebuffer implements a sliding window over a videoio.Reader,
// the buffering strategy every pass of the identification pipeline walks
// the video through.
package framebuffer

import (
	"gocv.io/x/gocv"

	"github.com/ausocean/faceident/pipelineerr"
	"github.com/ausocean/faceident/videoio"
	"github.com/ausocean/utils/logging"
)

// DefaultSize is the window size New falls back to when asked to auto-size
// but the reader reports no frame dimensions. DefaultOverlap is the
// pipeline's default (zero) window overlap.
const (
	DefaultSize    = 100
	DefaultOverlap = 0

	// MaxMemory bounds how much raw frame memory one buffer may hold,
	// used to auto-size a buffer from frame dimensions.
	MaxMemory = 1024 * 1024 * 1024
)

// FrameBuffer walks a videoio.Reader in fixed-size, optionally overlapping
// windows. Call Next to load each window, Frames to inspect it.
type FrameBuffer struct {
	reader  *videoio.Reader
	log     logging.Logger
	size    int
	overlap int

	frames   []gocv.Mat
	lastIdx  int // index of the last frame loaded into the buffer, -1 before the first Next
	rangeLo  int
	rangeHi  int
	nframes  int
}

// New creates a FrameBuffer over reader, which must already be started.
// size <= 0 auto-computes a size from the reader's frame dimensions so the
// buffer stays within MaxMemory; overlap must be less than the resulting
// size.
func New(reader *videoio.Reader, size, overlap int, l logging.Logger) (*FrameBuffer, error) {
	nframes := reader.FrameCount()
	if size <= 0 {
		w, h := reader.FrameSize()
		bytesPerFrame := w * h * 3
		if bytesPerFrame <= 0 {
			size = DefaultSize
		} else {
			size = MaxMemory / bytesPerFrame
		}
		if size > nframes && nframes > 0 {
			size = nframes
		}
		if size <= 0 {
			size = 1
		}
	}
	if overlap < 0 || overlap >= size {
		return nil, pipelineerr.New(pipelineerr.InvalidArgument, "framebuffer.New",
			"overlap must be non-negative and less than size")
	}
	return &FrameBuffer{
		reader:  reader,
		log:     l,
		size:    size,
		overlap: overlap,
		lastIdx: -1,
		rangeLo: -1,
		rangeHi: -1,
		nframes: nframes,
	}, nil
}

// Size returns the configured window size.
func (fb *FrameBuffer) Size() int { return fb.size }

// Overlap returns the configured window overlap.
func (fb *FrameBuffer) Overlap() int { return fb.overlap }

// BufferRange returns the (first, last) frame indices currently loaded, or
// (-1, -1) if Next has not yet been called.
func (fb *FrameBuffer) BufferRange() (int, int) { return fb.rangeLo, fb.rangeHi }

// Frames returns the frames currently loaded in the window.
func (fb *FrameBuffer) Frames() []gocv.Mat { return fb.frames }

// Seek discards the current window and positions the buffer so the next
// call to Next begins loading at frame.
func (fb *FrameBuffer) Seek(frame int) error {
	if frame < 0 {
		return pipelineerr.New(pipelineerr.InvalidArgument, "FrameBuffer.Seek", "frame must be non-negative")
	}
	if err := fb.reader.Seek(frame); err != nil {
		return err
	}
	fb.frames = nil
	fb.lastIdx = frame - 1
	fb.rangeLo, fb.rangeHi = -1, -1
	return nil
}

// Next advances to the next window, retaining the overlap tail of the
// previous window and loading fresh frames to fill the rest. It returns
// false once the video is exhausted.
func (fb *FrameBuffer) Next() (bool, error) {
	step := fb.size - fb.overlap
	firstCall := fb.lastIdx < 0

	startFrame := fb.lastIdx + 1
	if fb.nframes > 0 && startFrame >= fb.nframes {
		return false, nil
	}

	want := step
	if firstCall {
		want = fb.size
	}

	kept := fb.frames
	if !firstCall && len(kept) > fb.overlap {
		kept = kept[len(kept)-fb.overlap:]
	}

	loaded := 0
	for loaded < want {
		var frame gocv.Mat
		frame = gocv.NewMat()
		ok, err := fb.reader.Read(&frame)
		if err != nil {
			return false, err
		}
		if !ok {
			frame.Close()
			break
		}
		kept = append(kept, frame)
		fb.lastIdx++
		loaded++
	}

	if loaded == 0 {
		return false, nil
	}

	if len(kept) > fb.size {
		drop := len(kept) - fb.size
		for i := 0; i < drop; i++ {
			kept[i].Close()
		}
		kept = kept[drop:]
	}

	fb.frames = kept
	fb.rangeHi = fb.lastIdx
	fb.rangeLo = fb.rangeHi - len(fb.frames) + 1
	return true, nil
}

// Close releases every frame currently held by the buffer.
func (fb *FrameBuffer) Close() {
	for i := range fb.frames {
		fb.frames[i].Close()
	}
	fb.frames = nil
}
