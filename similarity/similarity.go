//go:build withcv
// +build withcv

/*
NAME
  similarity.go

DESCRIPTION
  Gallery maintains, for each identity discovered in a video, a bounded set
  of reference images and coords, and answers "who is this" queries by
  comparing a new detection's image and/or coords against every identity's
  stored references.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package similarity implements the identity gallery the identification
// pipeline matches new face detections against: a bounded, per-identity
// set of reference coords and images, with histogram-based image
// comparison and overlap-and-distance coords comparison (coord.Similarity).
package similarity

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ausocean/faceident/coord"
	"github.com/ausocean/faceident/imgops"
	"github.com/ausocean/faceident/pipelineerr"
	"github.com/ausocean/utils/logging"
)

// Default thresholds, matching the pipeline's tuned defaults.
const (
	DefaultNbImages                  = 20
	DefaultFaceMinConfidence         = 0.9
	DefaultCompareCoordsMinThreshold = 0.4
	DefaultCompareCoordsRefThreshold = 0.6
	DefaultCoordsMinDist             = 0.1
	DefaultImagesMinDist             = 0.8
)

// entry is one identity's gallery: its reference coords/image (the first
// observation that carried an image), every observed coords (not capped),
// and the admitted images, capped at NbImages.
type entry struct {
	id         string
	refCoords  coord.Coord
	refImage   gocv.Mat
	hasRef     bool
	coordsList []coord.Coord
	images     []gocv.Mat
	hists      []gocv.Mat // cached grayscale histograms, parallel to images
}

// Gallery holds one entry per discovered identity and performs identity
// matching against it.
type Gallery struct {
	entries map[string]*entry
	order   []string // insertion order, for deterministic iteration and tie-breaks

	NbImages                  int
	FaceMinConfidence         float64
	CompareCoordsMinThreshold float64
	CompareCoordsRefThreshold float64
	CoordsMinDist             float64
	ImagesMinDist             float64

	nextFaceNumber int
	log            logging.Logger
}

// NewGallery creates an empty Gallery with the pipeline's default
// thresholds. Use the exported fields to override any of them.
func NewGallery(l logging.Logger) *Gallery {
	return &Gallery{
		entries:                   make(map[string]*entry),
		NbImages:                  DefaultNbImages,
		FaceMinConfidence:         DefaultFaceMinConfidence,
		CompareCoordsMinThreshold: DefaultCompareCoordsMinThreshold,
		CompareCoordsRefThreshold: DefaultCompareCoordsRefThreshold,
		CoordsMinDist:             DefaultCoordsMinDist,
		ImagesMinDist:             DefaultImagesMinDist,
		nextFaceNumber:            1,
		log:                       l,
	}
}

// NewIdentity allocates a fresh identity, naming it with the next face
// number in sequence ("1", "2", ...) unless useUUID is true, in which case
// it gets an opaque uuid.NewString() token instead (used for identities
// re-admitted outside the normal face-number sequence, e.g. after a
// gallery reset).
func (g *Gallery) NewIdentity(useUUID bool) string {
	var id string
	if useUUID {
		id = uuid.NewString()
	} else {
		id = fmt.Sprintf("%d", g.nextFaceNumber)
		g.nextFaceNumber++
	}
	g.entries[id] = &entry{id: id}
	g.order = append(g.order, id)
	return id
}

// Identities returns every identity currently in the gallery, in
// insertion order.
func (g *Gallery) Identities() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// NumImages returns how many reference images are stored for id.
func (g *Gallery) NumImages(id string) int {
	e, ok := g.entries[id]
	if !ok {
		return 0
	}
	return len(e.images)
}

// Remove deletes id and releases its stored images.
func (g *Gallery) Remove(id string) {
	e, ok := g.entries[id]
	if !ok {
		return
	}
	for i := range e.images {
		e.images[i].Close()
		e.hists[i].Close()
	}
	if e.hasRef {
		e.refImage.Close()
	}
	delete(g.entries, id)
	for i, v := range g.order {
		if v == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// AddObservation records an observation of identity id: its detection
// coords and, optionally, its cropped image. The first observation with an
// image becomes its reference. Every coords is kept; images accumulate up
// to NbImages, after which the oldest image is evicted.
func (g *Gallery) AddObservation(id string, c coord.Coord, img *gocv.Mat) error {
	e, ok := g.entries[id]
	if !ok {
		return pipelineerr.New(pipelineerr.NotFound, "Gallery.AddObservation", "unknown identity "+id)
	}
	if !e.hasRef {
		e.refCoords = c
		if img != nil {
			e.refImage = img.Clone()
			e.hasRef = true
		}
	}
	e.coordsList = append(e.coordsList, c)
	if img != nil {
		if len(e.images) >= g.NbImages {
			e.images[0].Close()
			e.hists[0].Close()
			e.images = e.images[1:]
			e.hists = e.hists[1:]
		}
		e.images = append(e.images, img.Clone())
		e.hists = append(e.hists, histogram(*img))
	}
	return nil
}

// Identify looks for the best-matching identity for a new detection. It
// follows the pipeline's two-argument contract: pass img to match by
// image, c to match by coords, or both. If img is given it is tried
// first; if it finds no sufficiently close match, and c is also given,
// coords matching is tried as a rescue. Identify returns found=false if
// neither comparison clears its threshold.
func (g *Gallery) Identify(img *gocv.Mat, c *coord.Coord) (id string, score float64, found bool) {
	if img != nil {
		if id, score, found = g.identifyByImage(*img); found {
			return id, score, true
		}
	}
	if c != nil {
		if id, score, found = g.identifyByCoords(*c); found {
			return id, score, true
		}
	}
	return "", 0, false
}

func (g *Gallery) identifyByImage(img gocv.Mat) (string, float64, bool) {
	h := histogram(img)
	defer h.Close()

	var bestID string
	var bestScore float64 = -1
	for _, id := range g.order {
		e := g.entries[id]
		for _, ref := range e.hists {
			s := float64(gocv.CompareHist(h, ref, gocv.HistCmpCorrel))
			if s > bestScore {
				bestScore = s
				bestID = id
			}
		}
	}
	if bestScore >= g.ImagesMinDist {
		return bestID, bestScore, true
	}
	return "", 0, false
}

func (g *Gallery) identifyByCoords(c coord.Coord) (string, float64, bool) {
	var bestID string
	var bestScore = -1.0
	for _, id := range g.order {
		e := g.entries[id]
		for _, ref := range e.coordsList {
			s := coordsSimilarity(c, ref)
			if s > bestScore {
				bestScore = s
				bestID = id
			}
		}
	}
	if bestScore >= g.CompareCoordsMinThreshold {
		return bestID, bestScore, true
	}
	return "", 0, false
}

// coordsSimilarity is a monotone function of overlap percentage and
// center distance between a and b, bounded to [0,1].
func coordsSimilarity(a, b coord.Coord) float64 {
	return a.Similarity(b)
}

// CompareKidsCoords returns the maximum coords similarity between any pair
// of observations of identities a and b, used when deciding whether two
// candidate identities discovered in pass 1 are really the same person.
func (g *Gallery) CompareKidsCoords(a, b string) float64 {
	ea, oka := g.entries[a]
	eb, okb := g.entries[b]
	if !oka || !okb {
		return 0
	}
	best := 0.0
	for _, ca := range ea.coordsList {
		for _, cb := range eb.coordsList {
			if s := coordsSimilarity(ca, cb); s > best {
				best = s
			}
		}
	}
	return best
}

// CompareKidsImages returns the maximum image similarity between any pair
// of stored images of identities a and b.
func (g *Gallery) CompareKidsImages(a, b string) float64 {
	ea, oka := g.entries[a]
	eb, okb := g.entries[b]
	if !oka || !okb {
		return 0
	}
	best := 0.0
	for _, ha := range ea.hists {
		for _, hb := range eb.hists {
			if s := float64(gocv.CompareHist(ha, hb, gocv.HistCmpCorrel)); s > best {
				best = s
			}
		}
	}
	return best
}

// TrainRecognizer refreshes cached per-image histograms for every
// identity. It must be called after bulk-loading observations outside of
// AddObservation (e.g. when rebuilding a Gallery from a saved CSV and
// image folder) so identifyByImage has hist data to compare against.
func (g *Gallery) TrainRecognizer() {
	for _, id := range g.order {
		e := g.entries[id]
		for i := range e.hists {
			e.hists[i].Close()
		}
		e.hists = e.hists[:0]
		for _, img := range e.images {
			e.hists = append(e.hists, histogram(img))
		}
	}
}

// WriteReferenceImages writes each identity's stored gallery images to
// dir/<id>/NNN.jpg, for inspection after pass 1 clustering.
func (g *Gallery) WriteReferenceImages(dir string) error {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	sort.Strings(ids)
	for _, id := range ids {
		e := g.entries[id]
		for i, img := range e.images {
			b, err := imgops.Encode(img)
			if err != nil {
				return err
			}
			path := filepath.Join(dir, id, fmt.Sprintf("%03d.jpg", i))
			if err := writeFile(path, b); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "similarity.writeFile", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return pipelineerr.Wrap(pipelineerr.IoError, "similarity.writeFile", err)
	}
	return nil
}

func histogram(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() > 1 {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}
	hist := gocv.NewMat()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.CalcHist([]gocv.Mat{gray}, []int{0}, mask, &hist, []int{256}, []float64{0, 256}, false)
	gocv.Normalize(hist, &hist, 0, 1, gocv.NormMinMax)
	return hist
}
