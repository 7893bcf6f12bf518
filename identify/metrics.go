//go:build withcv
// +build withcv

/*
NAME
  metrics.go

DESCRIPTION
  Prometheus counters for the identification pipeline, tracking
  frames processed and identity lifecycle events across a run.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package identify

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	framesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "faceident",
		Name:      "frames_processed_total",
		Help:      "Number of video frames walked by the identification pipeline.",
	})
	identitiesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "faceident",
		Name:      "identities_created_total",
		Help:      "Number of candidate identities created during pass 1 clustering.",
	})
	identitiesRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "faceident",
		Name:      "identities_removed_total",
		Help:      "Number of candidate identities removed by dedup or gallery pruning.",
	})
	identitiesDissociated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "faceident",
		Name:      "identities_dissociated_total",
		Help:      "Number of per-frame detections dissociated from an identity during pass 2.",
	})
)

// Metrics bundles the collectors callers register with a
// prometheus.Registerer of their choosing; the pipeline itself never
// registers global state implicitly.
var Metrics = struct {
	FramesProcessed        prometheus.Counter
	IdentitiesCreated      prometheus.Counter
	IdentitiesRemoved      prometheus.Counter
	IdentitiesDissociated  prometheus.Counter
}{
	FramesProcessed:       framesProcessed,
	IdentitiesCreated:     identitiesCreated,
	IdentitiesRemoved:     identitiesRemoved,
	IdentitiesDissociated: identitiesDissociated,
}

// RegisterMetrics registers the pipeline's collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{framesProcessed, identitiesCreated, identitiesRemoved, identitiesDissociated} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
