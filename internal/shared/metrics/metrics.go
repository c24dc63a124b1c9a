package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	matchStartedTotal    atomic.Uint64
	matchCompletedTotal  atomic.Uint64
	matchNoMatchesTotal  atomic.Uint64
	matchFailedTotal     atomic.Uint64
	matchSupersededTotal atomic.Uint64

	bidRequestsCreatedTotal atomic.Uint64
	bidsSubmittedTotal      atomic.Uint64

	matchDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncMatchStarted increments the started counter.
func IncMatchStarted() { matchStartedTotal.Add(1) }

// IncMatchCompleted increments the completed counter.
func IncMatchCompleted() { matchCompletedTotal.Add(1) }

// IncMatchNoMatches increments the empty-result counter.
func IncMatchNoMatches() { matchNoMatchesTotal.Add(1) }

// IncMatchFailed increments the failed counter.
func IncMatchFailed() { matchFailedTotal.Add(1) }

// IncMatchSuperseded increments the stale-attempt counter.
func IncMatchSuperseded() { matchSupersededTotal.Add(1) }

// IncBidRequestCreated increments the bid-request counter.
func IncBidRequestCreated() { bidRequestsCreatedTotal.Add(1) }

// IncBidSubmitted increments the bids counter.
func IncBidSubmitted() { bidsSubmittedTotal.Add(1) }

// ObserveMatchDurationMs records a match attempt duration in milliseconds.
func ObserveMatchDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	matchDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "match_attempts_started_total", "Total match attempts started", matchStartedTotal.Load())
	writeCounter(&buf, "match_attempts_completed_total", "Total match attempts completed with results", matchCompletedTotal.Load())
	writeCounter(&buf, "match_attempts_no_matches_total", "Total match attempts that found no contractors", matchNoMatchesTotal.Load())
	writeCounter(&buf, "match_attempts_failed_total", "Total match attempts failed", matchFailedTotal.Load())
	writeCounter(&buf, "match_attempts_superseded_total", "Total match attempts superseded by a newer attempt", matchSupersededTotal.Load())
	writeCounter(&buf, "bid_requests_created_total", "Total bid requests created", bidRequestsCreatedTotal.Load())
	writeCounter(&buf, "bids_submitted_total", "Total bids submitted", bidsSubmittedTotal.Load())
	writeHistogram(&buf, "match_attempt_duration_ms", "Match attempt duration in milliseconds", matchDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
