// Package quality tracks data-quality signals emitted by the aggregation
// core, chiefly ledger rows whose type code matches no category. Dropping
// such rows is by-design lossy, so the counts are surfaced in telemetry and
// a periodic digest instead of failing requests.
package quality

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Recorder accumulates uncategorized-code counts across requests.
type Recorder struct {
	mu     sync.Mutex
	counts map[string]int64
	log    *logrus.Logger
}

// NewRecorder returns an empty recorder logging through log.
func NewRecorder(log *logrus.Logger) *Recorder {
	return &Recorder{counts: make(map[string]int64), log: log}
}

// Record merges one request's dropped-code counts and logs a warning when
// anything was dropped.
func (r *Recorder) Record(requestID string, dropped map[string]int) {
	if len(dropped) == 0 {
		return
	}
	var total int64
	r.mu.Lock()
	for code, n := range dropped {
		r.counts[code] += int64(n)
		total += int64(n)
	}
	r.mu.Unlock()
	r.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"codes":      dropped,
		"dropped":    total,
	}).Warn("uncategorized ledger type codes dropped from aggregation")
}

// Flush returns the accumulated counts and resets the recorder. The digest
// job calls this on its schedule.
func (r *Recorder) Flush() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.counts
	r.counts = make(map[string]int64)
	return out
}
