//go:build withcv
// +build withcv

/*
NAME
  videoio.go

DESCRIPTION
  Video reading and writing built on gocv.VideoCapture and
  gocv.VideoWriter, mutex-guarded the way the teacher's AVDevice
  implementations are, so a Reader/Writer is safe to Start/Stop from one
  goroutine while another inspects its state.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package videoio wraps gocv's video capture and writer types behind a
// small lifecycle (Start/Read/Stop), the shape the identification pipeline
// needs and nothing more.
package videoio

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/faceident/pipelineerr"
	"github.com/ausocean/utils/logging"
)

// Reader reads frames sequentially from a video file.
type Reader struct {
	path      string
	cap       *gocv.VideoCapture
	isRunning bool
	log       logging.Logger
	mu        sync.Mutex
}

// NewReader returns a Reader for the video at path.
func NewReader(path string, l logging.Logger) *Reader {
	return &Reader{path: path, log: l}
}

// Start opens the underlying video file.
func (r *Reader) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cap, err := gocv.VideoCaptureFile(r.path)
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "Reader.Start", err)
	}
	r.cap = cap
	r.isRunning = true
	return nil
}

// Stop closes the video file. Further Read calls fail.
func (r *Reader) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cap == nil {
		return nil
	}
	err := r.cap.Close()
	r.cap = nil
	r.isRunning = false
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "Reader.Stop", err)
	}
	return nil
}

// IsRunning reports whether the reader is open.
func (r *Reader) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunning
}

// Read decodes the next frame into dst, reporting ok=false at end of
// stream (mirrors gocv.VideoCapture.Read's convention, not an error).
func (r *Reader) Read(dst *gocv.Mat) (ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cap == nil {
		return false, pipelineerr.New(pipelineerr.IoError, "Reader.Read", "reader not started")
	}
	ok = r.cap.Read(dst)
	if !ok {
		return false, nil
	}
	return true, nil
}

// FrameCount returns the total number of frames reported by the container,
// which may be approximate for some codecs.
func (r *Reader) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cap == nil {
		return 0
	}
	return int(r.cap.Get(gocv.VideoCaptureFrameCount))
}

// FPS returns the nominal frame rate of the video.
func (r *Reader) FPS() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cap == nil {
		return 0
	}
	return r.cap.Get(gocv.VideoCaptureFPS)
}

// FrameSize returns the (width, height) of frames in the video.
func (r *Reader) FrameSize() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cap == nil {
		return 0, 0
	}
	return int(r.cap.Get(gocv.VideoCaptureFrameWidth)), int(r.cap.Get(gocv.VideoCaptureFrameHeight))
}

// Seek jumps to frame index, counted from 0.
func (r *Reader) Seek(frame int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cap == nil {
		return pipelineerr.New(pipelineerr.IoError, "Reader.Seek", "reader not started")
	}
	if !r.cap.Set(gocv.VideoCapturePosFrames, float64(frame)) {
		return pipelineerr.New(pipelineerr.OutOfRange, "Reader.Seek", "could not seek to frame")
	}
	return nil
}

// Writer encodes frames to a video file sequentially.
type Writer struct {
	path      string
	fps       float64
	w, h      int
	writer    *gocv.VideoWriter
	isRunning bool
	log       logging.Logger
	mu        sync.Mutex
}

// NewWriter returns a Writer that will create path on Start, encoding at
// fps with frames of size (w, h).
func NewWriter(path string, fps float64, w, h int, l logging.Logger) *Writer {
	return &Writer{path: path, fps: fps, w: w, h: h, log: l}
}

// Start opens the output file for writing.
func (wr *Writer) Start() error {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	writer, err := gocv.VideoWriterFile(wr.path, "mp4v", wr.fps, wr.w, wr.h, true)
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "Writer.Start", err)
	}
	wr.writer = writer
	wr.isRunning = true
	return nil
}

// Write encodes one frame.
func (wr *Writer) Write(frame gocv.Mat) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	if wr.writer == nil {
		return pipelineerr.New(pipelineerr.IoError, "Writer.Write", "writer not started")
	}
	if err := wr.writer.Write(frame); err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "Writer.Write", err)
	}
	return nil
}

// Stop closes the output file.
func (wr *Writer) Stop() error {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	if wr.writer == nil {
		return nil
	}
	err := wr.writer.Close()
	wr.isRunning = false
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "Writer.Stop", err)
	}
	return nil
}

// IsRunning reports whether the writer is open.
func (wr *Writer) IsRunning() bool {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	return wr.isRunning
}
