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

package identify

import (
	"strings"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ausocean/faceident/coord"
	"github.com/ausocean/faceident/coordsbuffer"
	"github.com/ausocean/faceident/similarity"
)

func TestConfigValidateDefaults(t *testing.T) {
	var cfg Config
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NbImagesRecognizer != similarity.DefaultNbImages {
		t.Errorf("got %d, want %d", cfg.NbImagesRecognizer, similarity.DefaultNbImages)
	}
	if cfg.FaceMinConfidence != similarity.DefaultFaceMinConfidence {
		t.Errorf("got %f, want %f", cfg.FaceMinConfidence, similarity.DefaultFaceMinConfidence)
	}
}

func TestConfigValidateRejectsOutShiftOutOfRange(t *testing.T) {
	cfg := Config{OutShift: 150}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for OutShift out of (-100,100)")
	}
}

func TestCoordsCloseEnough(t *testing.T) {
	a, _ := coord.New(100, 100, 50, 50)
	b, _ := coord.New(102, 102, 50, 50)
	if !coordsCloseEnough(a, b, 0.5) {
		t.Error("expected nearby coords to be close enough")
	}
	c, _ := coord.New(900, 900, 50, 50)
	if coordsCloseEnough(a, c, 0.5) {
		t.Error("expected distant coords not to be close enough")
	}
}

func TestDropUnknownsRemovesPrefixedEntries(t *testing.T) {
	icb := coordsbuffer.NewIdCoordsBuffer(nil, nil)
	c, _ := coord.New(0, 0, 10, 10)
	icb.SetCoords(0, []coord.Coord{c, c})
	icb.SetIdentities(0, []string{"1", "unk_001"})

	idr := &Identifier{}
	idr.dropUnknowns(icb)

	if got := icb.Identities(0); len(got) != 1 || got[0] != "1" {
		t.Errorf("got %+v, want [1]", got)
	}
}

func TestPresentIdentitiesExcludesUnknowns(t *testing.T) {
	icb := coordsbuffer.NewIdCoordsBuffer(nil, nil)
	c, _ := coord.New(0, 0, 10, 10)
	icb.SetCoords(0, []coord.Coord{c, c})
	icb.SetIdentities(0, []string{"1", "unk_002"})

	idr := &Identifier{}
	got := idr.presentIdentities(icb, 0, 0)
	if len(got) != 1 || got[0] != "1" {
		t.Errorf("got %+v, want [1]", got)
	}
}

func TestFilterDistanceKidsRemovesDuplicate(t *testing.T) {
	idr := &Identifier{
		cfg:     Config{CoordsMinDist: 0.1, ImagesMinDist: 0.8},
		gallery: similarity.NewGallery(nil),
	}
	c, _ := coord.New(10, 10, 20, 20)
	img := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC3)
	defer img.Close()

	a := idr.gallery.NewIdentity(false)
	idr.gallery.AddObservation(a, c, &img)
	idr.gallery.AddObservation(a, c, &img)

	b := idr.gallery.NewIdentity(false)
	idr.gallery.AddObservation(b, c, &img)

	idr.filterDistanceKids()

	ids := idr.gallery.Identities()
	if len(ids) != 1 {
		t.Fatalf("got %d identities, want 1 after dedup: %+v", len(ids), ids)
	}
	if ids[0] != a {
		t.Errorf("expected the identity with more images (%s) to survive, got %s", a, ids[0])
	}
}

func TestPruneSmallGalleriesRemovesUndersized(t *testing.T) {
	idr := &Identifier{
		cfg:     Config{NbImagesRecognizer: 10},
		gallery: similarity.NewGallery(nil),
	}
	img := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer img.Close()
	c, _ := coord.New(0, 0, 10, 10)

	small := idr.gallery.NewIdentity(false)
	idr.gallery.AddObservation(small, c, &img)

	big := idr.gallery.NewIdentity(false)
	for i := 0; i < 4; i++ {
		idr.gallery.AddObservation(big, c, &img)
	}

	idr.pruneSmallGalleries()

	ids := idr.gallery.Identities()
	if len(ids) != 1 || ids[0] != big {
		t.Errorf("got %+v, want only %s to survive", ids, big)
	}
}

func TestDissociateOrFillIsolatedFillsGap(t *testing.T) {
	icb := coordsbuffer.NewIdCoordsBuffer(nil, nil)
	c, _ := coord.New(100, 100, 20, 20)
	icb.SetCoords(0, []coord.Coord{c})
	icb.SetIdentities(0, []string{"1"})
	icb.SetCoords(1, nil)
	icb.SetIdentities(1, nil)
	icb.SetCoords(2, []coord.Coord{c})
	icb.SetIdentities(2, []string{"1"})

	idr := &Identifier{}
	idr.dissociateOrFillIsolated(icb, 0, 2)

	ids := icb.Identities(1)
	if len(ids) != 1 || ids[0] != "1" {
		t.Errorf("expected the isolated gap at frame 1 to be filled for identity 1, got %+v", ids)
	}
}

func TestDissociateRareAndScatteredDissociatesRareKid(t *testing.T) {
	icb := coordsbuffer.NewIdCoordsBuffer(nil, nil)
	c, _ := coord.New(0, 0, 10, 10)
	for f := 0; f < 20; f++ {
		icb.SetCoords(f, nil)
		icb.SetIdentities(f, nil)
	}
	icb.SetCoords(0, []coord.Coord{c})
	icb.SetIdentities(0, []string{"r"})
	icb.SetCoords(10, []coord.Coord{c})
	icb.SetIdentities(10, []string{"r"})

	idr := &Identifier{}
	idr.dissociateRareAndScattered(icb, 0, 19)

	if ids := icb.Identities(0); len(ids) != 1 || !strings.HasPrefix(ids[0], unknownPrefix) {
		t.Errorf("expected frame 0's rare, scattered kid to be dissociated, got %+v", ids)
	}
	if ids := icb.Identities(10); len(ids) != 1 || !strings.HasPrefix(ids[0], unknownPrefix) {
		t.Errorf("expected frame 10's rare, scattered kid to be dissociated, got %+v", ids)
	}
}

func TestIdentifyFrameTieBreakKeepsHigherScore(t *testing.T) {
	g := similarity.NewGallery(nil)
	g.CompareCoordsMinThreshold = 0.1
	ref, _ := coord.New(100, 100, 20, 20)
	id1 := g.NewIdentity(false)
	g.AddObservation(id1, ref, nil)

	idr := &Identifier{gallery: g}

	frame := gocv.NewMatWithSize(300, 300, gocv.MatTypeCV8UC3)
	defer frame.Close()

	near, _ := coord.New(102, 102, 20, 20)
	far, _ := coord.New(110, 110, 20, 20)

	coords, ids := idr.identifyFrame(frame, []coord.Coord{far, near})

	if len(ids) != 1 {
		t.Fatalf("expected exactly one surviving claim for the shared identity, got %+v", ids)
	}
	if ids[0] != id1 {
		t.Errorf("got identity %s, want %s", ids[0], id1)
	}
	if !coords[0].Equal(near) {
		t.Errorf("expected the closer, higher-scoring detection to survive, got %+v", coords[0])
	}
}

func TestSmoothWindowInsertsForDroppedOutIdentity(t *testing.T) {
	icb := coordsbuffer.NewIdCoordsBuffer(nil, nil)
	for i, x := range []int{10, 20, 30, 40, 50} {
		c, _ := coord.New(x, 0, 10, 10)
		icb.SetCoords(i, []coord.Coord{c})
		icb.SetIdentities(i, []string{"k"})
	}

	idr := &Identifier{}
	idr.smoothWindow(icb, 0, 5)

	coords := icb.Coords(5)
	ids := icb.Identities(5)
	if len(coords) != 1 || len(ids) != 1 || ids[0] != "k" {
		t.Fatalf("expected a single inserted detection for k at frame 5, got coords=%+v ids=%+v", coords, ids)
	}
	if coords[0].Confidence() != 0 {
		t.Errorf("expected the inserted detection to carry zero confidence, got %v", coords[0].Confidence())
	}
}
