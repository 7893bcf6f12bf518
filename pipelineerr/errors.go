/*
NAME
  errors.go

DESCRIPTION
  Typed error kinds shared across the video person-identification pipeline.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipelineerr defines the error kinds propagated by the pipeline
// packages (coord, sights, framebuffer, coordsbuffer, similarity, identify).
package pipelineerr

import "fmt"

// Kind classifies an Error so that callers can branch on failure category
// without string matching.
type Kind int

const (
	// InvalidArgument indicates a configuration value or constructor
	// argument is out of its declared range.
	InvalidArgument Kind = iota
	// OutOfRange indicates a frame, buffer, or identity index fell outside
	// the allowed interval, or a geometry operation would exit the image.
	OutOfRange
	// LengthMismatch indicates the external coords stream has a different
	// number of per-frame entries than the video it is paired with.
	LengthMismatch
	// IoError indicates a video or coords file could not be opened, read,
	// decoded, written, or encoded.
	IoError
	// NotFound indicates a requested identity string is not in the gallery.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case OutOfRange:
		return "out of range"
	case LengthMismatch:
		return "length mismatch"
	case IoError:
		return "io error"
	case NotFound:
		return "not found"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type returned by every pipeline package.
type Error struct {
	Kind Kind
	Op   string // the operation that failed, e.g. "Coord.Scale"
	Err  error  // the underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind with no wrapped cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf("%s", msg)}
}

// Wrap creates an Error of the given kind, preserving err as its cause.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is a pipeline Error of the given kind.
func Is(err error, kind Kind) bool {
	pe, ok := err.(*Error)
	if !ok {
		return false
	}
	return pe.Kind == kind
}
