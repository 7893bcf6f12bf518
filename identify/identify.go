//go:build withcv
// +build withcv

/*
NAME
  identify.go

DESCRIPTION
  Identifier runs the three-pass person-identification algorithm over a
  video and its paired per-frame face detections: pass 1 discovers and
  deduplicates candidate identities, pass 2 assigns final identities and
  applies temporal filtering, pass 3 smooths each identity's trajectory.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package identify implements the identification pipeline's orchestrator:
// the three-pass algorithm that turns per-frame face detections into
// stable per-identity tracks, plus per-identity video/coords export.
package identify

import (
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"github.com/ausocean/faceident/coord"
	"github.com/ausocean/faceident/coordsbuffer"
	"github.com/ausocean/faceident/framebuffer"
	"github.com/ausocean/faceident/geomutil"
	"github.com/ausocean/faceident/imgops"
	"github.com/ausocean/faceident/pipelineerr"
	"github.com/ausocean/faceident/similarity"
	"github.com/ausocean/faceident/videoio"
)

var errOutShiftRange = pipelineerr.New(pipelineerr.InvalidArgument, "Config.Validate", "OutShift must be in (-100,100)")

// unknownPrefix marks a detection that has been dissociated from any
// identity. Such detections are dropped at the end of pass 2.
const unknownPrefix = "unk_"

// scatteredPresencePercent and scatteredNGram are the thresholds pass 2
// uses to decide whether a rare identity's appearances are too scattered
// across a window to be trusted.
const (
	scatteredPresencePercent = 15.0
	scatteredNGram           = 4
	scatteredNGramRatio      = 0.25
	isolatedFillThreshold    = 0.5
)

// Identifier runs the three-pass algorithm against one video and its
// paired coords.
type Identifier struct {
	cfg     Config
	gallery *similarity.Gallery
}

// New returns an Identifier configured by cfg, which is validated (and
// defaulted) in place.
func New(cfg Config) (*Identifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := similarity.NewGallery(cfg.Logger)
	g.NbImages = cfg.NbImagesRecognizer
	g.FaceMinConfidence = cfg.FaceMinConfidence
	g.CompareCoordsMinThreshold = cfg.CompareCoordsMinThreshold
	g.CompareCoordsRefThreshold = cfg.CompareCoordsRefMinThreshold
	g.CoordsMinDist = cfg.CoordsMinDist
	g.ImagesMinDist = cfg.ImagesMinDist
	return &Identifier{cfg: cfg, gallery: g}, nil
}

// Gallery exposes the identity gallery built up by VideoIdentity, mainly
// so callers can call WriteReferenceImages afterward.
func (id *Identifier) Gallery() *similarity.Gallery { return id.gallery }

// VideoIdentity runs the full three-pass algorithm over videoPath, whose
// externally-detected face rectangles are given by coords (one slice per
// frame, indexed from 0). len(coords) must equal the video's frame count.
func (id *Identifier) VideoIdentity(videoPath string, coords [][]coord.Coord) (*coordsbuffer.IdCoordsBuffer, error) {
	reader := videoio.NewReader(videoPath, id.cfg.Logger)
	if err := reader.Start(); err != nil {
		return nil, err
	}
	defer reader.Stop()

	nframes := reader.FrameCount()
	if nframes > 0 && len(coords) != nframes {
		return nil, pipelineerr.New(pipelineerr.LengthMismatch, "Identifier.VideoIdentity",
			fmt.Sprintf("coords has %d frames, video has %d", len(coords), nframes))
	}
	fps := reader.FPS()
	if fps <= 0 {
		fps = 25
	}

	if err := id.firstPassClustering(reader, coords); err != nil {
		return nil, err
	}

	if err := reader.Seek(0); err != nil {
		return nil, err
	}
	icb, err := id.secondPassIdentification(reader, coords)
	if err != nil {
		return nil, err
	}

	if err := reader.Seek(0); err != nil {
		return nil, err
	}
	if err := id.thirdPassSmoothing(reader, icb, fps); err != nil {
		return nil, err
	}

	return icb, nil
}

// --- Pass 1: candidate discovery and dedup ----------------------------

func (id *Identifier) firstPassClustering(reader *videoio.Reader, coords [][]coord.Coord) error {
	fb, err := framebuffer.New(reader, id.cfg.BufferSize, id.cfg.BufferOverlap, id.cfg.Logger)
	if err != nil {
		return err
	}
	defer fb.Close()

	for {
		ok, err := fb.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		lo, _ := fb.BufferRange()
		frames := fb.Frames()
		for i, frame := range frames {
			frameIdx := lo + i
			if frameIdx >= len(coords) {
				continue
			}
			framesProcessed.Inc()
			for _, c := range coords[frameIdx] {
				if c.Confidence() < id.cfg.FaceMinConfidence {
					continue
				}
				id.clusterOne(frame, c)
			}
		}
	}

	id.filterDistanceKids()
	id.pruneSmallGalleries()
	return nil
}

func (id *Identifier) clusterOne(frame gocv.Mat, c coord.Coord) {
	matchID, score, found := id.gallery.Identify(nil, &c)
	if !found {
		matchID = id.gallery.NewIdentity(false)
		identitiesCreated.Inc()
	}
	if found && score <= id.cfg.CompareCoordsRefMinThreshold {
		if err := id.gallery.AddObservation(matchID, c, nil); err != nil {
			id.cfg.LogInvalidField("AddObservation", matchID)
		}
		return
	}
	cropped, err := imgops.Crop(frame, c)
	if err != nil {
		if err := id.gallery.AddObservation(matchID, c, nil); err != nil {
			id.cfg.LogInvalidField("AddObservation", matchID)
		}
		return
	}
	clone := cropped.Clone()
	cropped.Close()
	if err := id.gallery.AddObservation(matchID, c, &clone); err != nil {
		id.cfg.LogInvalidField("AddObservation", matchID)
	}
	clone.Close()
}

// filterDistanceKids removes one identity from every pair whose coords or
// image similarity is too high to plausibly be different people. Ties
// favor the identity with more images (or, if equal, the earlier-created
// one), matching the original clustering pass's dedup rule.
func (id *Identifier) filterDistanceKids() {
	removed := make(map[string]bool)
	ids := id.gallery.Identities()
	for i := 0; i < len(ids); i++ {
		a := ids[i]
		if removed[a] {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b := ids[j]
			if removed[b] {
				continue
			}
			cs := id.gallery.CompareKidsCoords(a, b)
			is := id.gallery.CompareKidsImages(a, b)
			if cs < id.cfg.CoordsMinDist && is < id.cfg.ImagesMinDist {
				continue
			}
			na, nb := id.gallery.NumImages(a), id.gallery.NumImages(b)
			if na >= nb {
				removed[b] = true
			} else {
				removed[a] = true
			}
		}
	}
	for idnt := range removed {
		id.gallery.Remove(idnt)
		identitiesRemoved.Inc()
	}
}

// pruneSmallGalleries drops identities that never accumulated enough
// reference images to be trustworthy.
func (id *Identifier) pruneSmallGalleries() {
	for _, idnt := range id.gallery.Identities() {
		if id.gallery.NumImages(idnt)*3 < id.cfg.NbImagesRecognizer {
			id.gallery.Remove(idnt)
			identitiesRemoved.Inc()
		}
	}
}

// --- Pass 2: identification and temporal filtering ---------------------

func (id *Identifier) secondPassIdentification(reader *videoio.Reader, coords [][]coord.Coord) (*coordsbuffer.IdCoordsBuffer, error) {
	id.gallery.TrainRecognizer()

	fb, err := framebuffer.New(reader, id.cfg.BufferSize, id.cfg.BufferOverlap, id.cfg.Logger)
	if err != nil {
		return nil, err
	}
	defer fb.Close()

	icb := coordsbuffer.NewIdCoordsBuffer(fb, id.cfg.Logger)

	for {
		ok, err := fb.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		lo, hi := fb.BufferRange()
		frames := fb.Frames()
		for i, frame := range frames {
			frameIdx := lo + i
			if frameIdx >= len(coords) {
				continue
			}
			frameCoords, frameIDs := id.identifyFrame(frame, coords[frameIdx])
			icb.SetCoords(frameIdx, frameCoords)
			icb.SetIdentities(frameIdx, frameIDs)
		}
		id.dissociateOrFillIsolated(icb, lo, hi)
		id.dissociateRareAndScattered(icb, lo, hi)
	}

	id.dropUnknowns(icb)
	return icb, nil
}

// identifyFrame assigns an identity to every Coord in a frame, image-first
// with a coords-based rescue, and keeps only the higher-scoring claim when
// two detections in the same frame would otherwise claim the same
// identity.
func (id *Identifier) identifyFrame(frame gocv.Mat, cs []coord.Coord) ([]coord.Coord, []string) {
	type claim struct {
		coord coord.Coord
		id    string
		score float64
	}
	var claims []claim
	for _, c := range cs {
		cropped, cerr := imgops.Crop(frame, c)
		var img *gocv.Mat
		if cerr == nil {
			clone := cropped.Clone()
			cropped.Close()
			img = &clone
		}
		matchID, score, found := id.gallery.Identify(img, nil)
		if !found {
			matchID, score, found = id.gallery.Identify(nil, &c)
		}
		if img != nil {
			img.Close()
		}
		if !found {
			matchID = fmt.Sprintf("%s%03d", unknownPrefix, len(claims)+1)
		}
		claims = append(claims, claim{coord: c, id: matchID, score: score})
	}

	best := make(map[string]int) // identity -> index of the best claim for it in this frame
	for i, cl := range claims {
		if strings.HasPrefix(cl.id, unknownPrefix) {
			continue
		}
		if j, ok := best[cl.id]; !ok || cl.score > claims[j].score {
			best[cl.id] = i
		}
	}

	var outCoords []coord.Coord
	var outIDs []string
	for i, cl := range claims {
		if !strings.HasPrefix(cl.id, unknownPrefix) {
			if best[cl.id] != i {
				continue // a better claim for this identity exists in this frame
			}
		}
		outCoords = append(outCoords, cl.coord)
		outIDs = append(outIDs, cl.id)
	}
	return outCoords, outIDs
}

// dissociateOrFillIsolated walks a 3-frame sliding window per identity
// over [lo, hi], filling a single-frame gap (present, absent, present)
// with an interpolated detection if the two surrounding detections are
// close enough, and dissociating an identity seen in a single isolated
// frame (absent, present, absent -> the middle detection is renamed to an
// unknown).
func (id *Identifier) dissociateOrFillIsolated(icb *coordsbuffer.IdCoordsBuffer, lo, hi int) {
	for _, kid := range id.presentIdentities(icb, lo, hi) {
		here := [3]bool{}
		for f := lo; f <= hi; f++ {
			here[0], here[1], here[2] = here[1], here[2], kidPresent(icb, f, kid)
			if f-lo < 2 {
				continue
			}
			mid := f - 1
			switch {
			case here[0] && !here[1] && here[2]:
				ca, _ := kidCoord(icb, mid-1, kid)
				cb, _ := kidCoord(icb, mid+1, kid)
				if coordsCloseEnough(ca, cb, isolatedFillThreshold) {
					icb.AppendCoord(mid, ca.Intermediate(cb))
					ids := append(icb.Identities(mid), kid)
					icb.SetIdentities(mid, ids)
				}
			case !here[0] && here[1] && !here[2]:
				dissociateKidAt(icb, mid, kid)
			}
		}
	}
}

func coordsCloseEnough(a, b coord.Coord, threshold float64) bool {
	return a.Similarity(b) > threshold
}

// dissociateRareAndScattered removes identities whose presence across
// [lo, hi] is both rare (below scatteredPresencePercent) and temporally
// scattered (fails the n-gram continuity check), renaming their
// detections to unknowns rather than deleting them outright.
func (id *Identifier) dissociateRareAndScattered(icb *coordsbuffer.IdCoordsBuffer, lo, hi int) {
	n := hi - lo + 1
	for _, kid := range id.presentIdentities(icb, lo, hi) {
		states := presenceStates(icb, lo, hi, kid)
		ratio := geomutil.PresenceRatio(states)
		if ratio*100 >= scatteredPresencePercent {
			continue
		}
		denom := n - scatteredNGram - 1
		var ngramRatio float64
		if denom > 0 {
			ngramRatio = float64(geomutil.NGramCount(states, scatteredNGram)) / float64(denom)
		}
		if denom <= 0 || ngramRatio < scatteredNGramRatio {
			for f := lo; f <= hi; f++ {
				dissociateKidAt(icb, f, kid)
			}
		}
	}
}

func dissociateKidAt(icb *coordsbuffer.IdCoordsBuffer, frame int, kid string) {
	ids := icb.Identities(frame)
	for i, v := range ids {
		if v == kid {
			ids[i] = fmt.Sprintf("%s%03d", unknownPrefix, i+1)
			identitiesDissociated.Inc()
		}
	}
}

func (id *Identifier) dropUnknowns(icb *coordsbuffer.IdCoordsBuffer) {
	for f := 0; f < icb.NumFrames(); f++ {
		ids := icb.Identities(f)
		for i := len(ids) - 1; i >= 0; i-- {
			if strings.HasPrefix(ids[i], unknownPrefix) {
				icb.RemoveAt(f, i)
			}
		}
	}
}

func (id *Identifier) presentIdentities(icb *coordsbuffer.IdCoordsBuffer, lo, hi int) []string {
	seen := make(map[string]bool)
	var out []string
	for f := lo; f <= hi; f++ {
		for _, v := range icb.Identities(f) {
			if strings.HasPrefix(v, unknownPrefix) {
				continue
			}
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

func kidPresent(icb *coordsbuffer.IdCoordsBuffer, frame int, kid string) bool {
	for _, v := range icb.Identities(frame) {
		if v == kid {
			return true
		}
	}
	return false
}

func kidCoord(icb *coordsbuffer.IdCoordsBuffer, frame int, kid string) (coord.Coord, bool) {
	ids := icb.Identities(frame)
	cs := icb.Coords(frame)
	for i, v := range ids {
		if v == kid && i < len(cs) {
			return cs[i], true
		}
	}
	return coord.Coord{}, false
}

func presenceStates(icb *coordsbuffer.IdCoordsBuffer, lo, hi int, kid string) []bool {
	out := make([]bool, hi-lo+1)
	for f := lo; f <= hi; f++ {
		out[f-lo] = kidPresent(icb, f, kid)
	}
	return out
}

// --- Pass 3: trajectory smoothing ---------------------------------------

func (id *Identifier) thirdPassSmoothing(reader *videoio.Reader, icb *coordsbuffer.IdCoordsBuffer, fps float64) error {
	size := int(3 * fps)
	if size < 3 {
		size = 3
	}
	overlap := size - 1

	fb, err := framebuffer.New(reader, size, overlap, id.cfg.Logger)
	if err != nil {
		return err
	}
	defer fb.Close()

	for {
		ok, err := fb.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		lo, hi := fb.BufferRange()
		id.smoothWindow(icb, lo, hi)
	}
	return nil
}

// smoothWindow fits a line through each present identity's recent x and y
// history and takes the mean of its recent w and h, overwriting the
// identity's detection at the window's most recent frame (or inserting a
// zero-confidence one if it had dropped out).
func (id *Identifier) smoothWindow(icb *coordsbuffer.IdCoordsBuffer, lo, hi int) {
	live := hi
	for _, kid := range id.presentIdentities(icb, lo, hi) {
		var px, py, pw, ph []float64
		for f := lo; f <= hi; f++ {
			c, ok := kidCoord(icb, f, kid)
			if !ok {
				continue
			}
			px = append(px, float64(c.X()))
			py = append(py, float64(c.Y()))
			pw = append(pw, float64(c.W()))
			ph = append(ph, float64(c.H()))
		}
		if len(px) <= 2 {
			continue
		}
		xs := geomutil.Indices(len(px))
		fitX, err := geomutil.FitLine(xs, px)
		if err != nil {
			continue
		}
		fitY, err := geomutil.FitLine(xs, py)
		if err != nil {
			continue
		}
		lastIdx := float64(len(px) - 1)
		newX := int(fitX.Eval(lastIdx))
		newY := int(fitY.Eval(lastIdx))
		newW := int(geomutil.Mean(pw))
		newH := int(geomutil.Mean(ph))

		smoothed, err := coord.New(newX, newY, newW, newH)
		if err != nil {
			continue
		}

		if _, ok := kidCoord(icb, live, kid); ok {
			overwriteKidCoord(icb, live, kid, smoothed)
		} else {
			conf := 0.0
			zc, _ := coord.NewWithConfidence(newX, newY, newW, newH, &conf, true)
			icb.AppendCoord(live, zc)
			icb.SetIdentities(live, append(icb.Identities(live), kid))
		}
	}
}

func overwriteKidCoord(icb *coordsbuffer.IdCoordsBuffer, frame int, kid string, c coord.Coord) {
	ids := icb.Identities(frame)
	cs := icb.Coords(frame)
	for i, v := range ids {
		if v == kid && i < len(cs) {
			cs[i] = c
			return
		}
	}
}

// identityPath returns the output path for identity id's per-identity
// export under dir, named the way the original pipeline's kid folders
// were named.
func identityPath(dir, idnt, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("id_%s%s", idnt, ext))
}
