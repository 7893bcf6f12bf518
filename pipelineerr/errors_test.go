/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipelineerr

import (
	"errors"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := New(OutOfRange, "op", "bad index")
	if !Is(err, OutOfRange) {
		t.Error("expected Is to match OutOfRange")
	}
	if Is(err, IoError) {
		t.Error("expected Is not to match IoError")
	}
}

func TestIsRejectsPlainError(t *testing.T) {
	if Is(errors.New("plain"), InvalidArgument) {
		t.Error("expected Is to reject a non-pipeline error")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(IoError, "op", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if Wrap(IoError, "op", nil) != nil {
		t.Error("expected Wrap(nil) to return nil")
	}
}

func TestKindString(t *testing.T) {
	if NotFound.String() != "not found" {
		t.Errorf("got %q, want %q", NotFound.String(), "not found")
	}
}
