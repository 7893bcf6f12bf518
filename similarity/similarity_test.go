//go:build withcv
// +build withcv

/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package similarity

import (
	"testing"

	"github.com/ausocean/faceident/coord"
)

func TestNewIdentitySequentialNumbers(t *testing.T) {
	g := NewGallery(nil)
	a := g.NewIdentity(false)
	b := g.NewIdentity(false)
	if a == b {
		t.Fatal("expected distinct identities")
	}
	if got := g.Identities(); len(got) != 2 {
		t.Errorf("got %d identities, want 2", len(got))
	}
}

func TestIdentifyByCoordsFindsCloseMatch(t *testing.T) {
	g := NewGallery(nil)
	g.CompareCoordsMinThreshold = 0.5
	id := g.NewIdentity(false)
	c, _ := coord.New(100, 100, 50, 50)
	if err := g.AddObservation(id, c, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	near, _ := coord.New(101, 101, 50, 50)
	gotID, _, found := g.Identify(nil, &near)
	if !found || gotID != id {
		t.Errorf("got (%q,%v), want (%q,true)", gotID, found, id)
	}

	far, _ := coord.New(900, 900, 50, 50)
	_, _, found = g.Identify(nil, &far)
	if found {
		t.Error("expected no match for a distant coord")
	}
}

func TestRemoveReleasesIdentity(t *testing.T) {
	g := NewGallery(nil)
	id := g.NewIdentity(false)
	g.Remove(id)
	if len(g.Identities()) != 0 {
		t.Error("expected identity to be removed")
	}
}

func TestNilImageObservationsStoreNoImages(t *testing.T) {
	g := NewGallery(nil)
	g.NbImages = 2
	id := g.NewIdentity(false)
	c, _ := coord.New(0, 0, 10, 10)
	for i := 0; i < 5; i++ {
		if err := g.AddObservation(id, c, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// AddObservation with a nil image never grows the images slice, even
	// past NbImages observations.
	if g.NumImages(id) != 0 {
		t.Errorf("got %d images, want 0 (no images were ever added)", g.NumImages(id))
	}
}
