/*
NAME
  plog.go

DESCRIPTION
  Constructs the ausocean/utils/logging.Logger used throughout the
  identification pipeline, writing to a rotating log file via lumberjack.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package plog wires up the pipeline's ambient logger: a leveled
// ausocean/utils/logging.Logger backed by a lumberjack-rotated file.
package plog

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"
)

const (
	defaultMaxSize    = 500 // megabytes
	defaultMaxBackups = 10
	defaultMaxAge     = 28 // days
)

// New returns a logging.Logger at the given level, writing to path with
// lumberjack rotation. suppress controls whether repeated identical log
// lines are suppressed, matching logging.New's own parameter.
func New(path string, level int8, suppress bool) logging.Logger {
	fileLog := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    defaultMaxSize,
		MaxBackups: defaultMaxBackups,
		MaxAge:     defaultMaxAge,
	}
	return logging.New(level, fileLog, suppress)
}

// NewWithWriter returns a logging.Logger writing to w directly, bypassing
// file rotation — used by tests and short-lived tools that want logs on
// stderr or in a buffer.
func NewWithWriter(w io.Writer, level int8, suppress bool) logging.Logger {
	return logging.New(level, w, suppress)
}
