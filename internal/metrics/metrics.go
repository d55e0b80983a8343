package metrics

// Metrics collection for generic CIP requests

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Mode is how a request reached the target.
type Mode string

const (
	ModeConnected       Mode = "connected"
	ModeUnconnected     Mode = "unconnected"
	ModeUnconnectedSend Mode = "unconnected_send"
)

// OutcomeSuccess is the outcome of a request with a good status and value.
const OutcomeSuccess = "success"

// Metric represents a single request
type Metric struct {
	Timestamp time.Time
	RequestID string
	Label     string
	Mode      Mode
	Service   string
	Success   bool
	RTTMs     float64
	Status    uint8
	Outcome   string
	Error     string
}

// Sink collects and aggregates metrics
type Sink struct {
	mu      sync.RWMutex
	metrics []Metric
	summary *Summary
}

func newSummary() *Summary {
	return &Summary{
		Outcomes:   make(map[string]int),
		RTTBuckets: make(map[string]int),
		ByLabel:    make(map[string]*Stats),
		ByService:  make(map[string]*Stats),
	}
}

// Summary contains aggregated statistics
type Summary struct {
	TotalOperations int
	SuccessfulOps   int
	FailedOps       int
	TimeoutCount    int
	Outcomes        map[string]int
	MinRTT          float64
	MaxRTT          float64
	AvgRTT          float64
	P50RTT          float64
	P90RTT          float64
	P95RTT          float64
	P99RTT          float64
	RTTBuckets      map[string]int
	ByLabel         map[string]*Stats
	ByService       map[string]*Stats
}

// Stats contains statistics for one label or service
type Stats struct {
	Count   int
	Success int
	Failed  int
	MinRTT  float64
	MaxRTT  float64
	AvgRTT  float64
	SumRTT  float64
}

func (s *Stats) add(m Metric) {
	s.Count++
	if !m.Success {
		s.Failed++
		return
	}
	s.Success++
	if m.RTTMs > 0 {
		if s.MinRTT == 0 || m.RTTMs < s.MinRTT {
			s.MinRTT = m.RTTMs
		}
		if m.RTTMs > s.MaxRTT {
			s.MaxRTT = m.RTTMs
		}
		s.SumRTT += m.RTTMs
		s.AvgRTT = s.SumRTT / float64(s.Success)
	}
}

// NewSink creates a new metrics sink
func NewSink() *Sink {
	return &Sink{summary: newSummary()}
}

// Record records a new metric
func (s *Sink) Record(m Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics = append(s.metrics, m)
	s.updateSummary(m)
}

// GetMetrics returns a copy of all recorded metrics
func (s *Sink) GetMetrics() []Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics := make([]Metric, len(s.metrics))
	copy(metrics, s.metrics)
	return metrics
}

// GetSummary returns a deep copy of the aggregated summary with percentiles
// and buckets filled in.
func (s *Sink) GetSummary() *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := *s.summary
	summary.Outcomes = make(map[string]int, len(s.summary.Outcomes))
	for k, v := range s.summary.Outcomes {
		summary.Outcomes[k] = v
	}
	summary.ByLabel = copyStats(s.summary.ByLabel)
	summary.ByService = copyStats(s.summary.ByService)

	p, buckets := summarizeRTT(s.metrics)
	summary.P50RTT, summary.P90RTT, summary.P95RTT, summary.P99RTT = p[0], p[1], p[2], p[3]
	summary.RTTBuckets = buckets
	return &summary
}

// Summarize aggregates metrics that were read back from a file.
func Summarize(metrics []Metric) *Summary {
	s := NewSink()
	for _, m := range metrics {
		s.Record(m)
	}
	return s.GetSummary()
}

func copyStats(in map[string]*Stats) map[string]*Stats {
	out := make(map[string]*Stats, len(in))
	for k, v := range in {
		c := *v
		out[k] = &c
	}
	return out
}

// updateSummary updates the summary statistics with a new metric
func (s *Sink) updateSummary(m Metric) {
	s.summary.TotalOperations++

	if m.Success {
		s.summary.SuccessfulOps++
	} else {
		s.summary.FailedOps++
		if strings.Contains(m.Error, "timeout") || strings.Contains(m.Error, "deadline exceeded") {
			s.summary.TimeoutCount++
		}
	}
	if m.Outcome != "" {
		s.summary.Outcomes[m.Outcome]++
	}

	if m.Success && m.RTTMs > 0 {
		if s.summary.MinRTT == 0 || m.RTTMs < s.summary.MinRTT {
			s.summary.MinRTT = m.RTTMs
		}
		if m.RTTMs > s.summary.MaxRTT {
			s.summary.MaxRTT = m.RTTMs
		}
		total := s.summary.AvgRTT * float64(s.summary.SuccessfulOps-1)
		s.summary.AvgRTT = (total + m.RTTMs) / float64(s.summary.SuccessfulOps)
	}

	statsFor(s.summary.ByLabel, m.Label).add(m)
	statsFor(s.summary.ByService, m.Service).add(m)
}

func statsFor(m map[string]*Stats, key string) *Stats {
	st, ok := m[key]
	if !ok {
		st = &Stats{}
		m[key] = st
	}
	return st
}

func summarizeRTT(metrics []Metric) ([4]float64, map[string]int) {
	rtts := make([]float64, 0, len(metrics))
	buckets := make(map[string]int)
	for _, m := range metrics {
		if m.Success && m.RTTMs > 0 {
			rtts = append(rtts, m.RTTMs)
			incrementBucket(buckets, m.RTTMs)
		}
	}
	return computePercentiles(rtts), buckets
}

func incrementBucket(buckets map[string]int, value float64) {
	switch {
	case value < 1:
		buckets["lt_1ms"]++
	case value < 5:
		buckets["1_5ms"]++
	case value < 10:
		buckets["5_10ms"]++
	case value < 50:
		buckets["10_50ms"]++
	case value < 100:
		buckets["50_100ms"]++
	case value < 500:
		buckets["100_500ms"]++
	default:
		buckets["gt_500ms"]++
	}
}

func computePercentiles(values []float64) [4]float64 {
	var result [4]float64
	if len(values) == 0 {
		return result
	}
	sort.Float64s(values)
	result[0] = percentile(values, 0.50)
	result[1] = percentile(values, 0.90)
	result[2] = percentile(values, 0.95)
	result[3] = percentile(values, 0.99)
	return result
}

// percentile uses the nearest-rank method on sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
