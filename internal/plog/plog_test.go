/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package plog

import (
	"bytes"
	"testing"

	"github.com/ausocean/utils/logging"
)

func TestNewWithWriterWritesLogs(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, logging.Debug, true)
	if l == nil {
		t.Fatal("expected a non-nil logger")
	}
	l.Info("test message")
	if buf.Len() == 0 {
		t.Error("expected log output to be written to the buffer")
	}
}

func TestNewRotatesToFile(t *testing.T) {
	path := t.TempDir() + "/pipeline.log"
	l := New(path, logging.Debug, true)
	if l == nil {
		t.Fatal("expected a non-nil logger")
	}
	l.Info("test message")
}
