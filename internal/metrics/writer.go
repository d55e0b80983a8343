package metrics

// Metrics output (CSV/JSON) and summary formatting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var csvHeader = []string{
	"timestamp",
	"request_id",
	"label",
	"mode",
	"service",
	"success",
	"rtt_ms",
	"status",
	"outcome",
	"error",
}

// Writer streams metrics to CSV and/or a JSON array.
type Writer struct {
	mu        sync.Mutex
	csvWriter *csv.Writer
	jsonOut   io.Writer
	jsonCount int
	closers   []io.Closer
}

// NewWriter creates files for the non-empty paths.
func NewWriter(csvPath, jsonPath string) (*Writer, error) {
	var csvOut, jsonOut io.Writer
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	if csvPath != "" {
		file, err := os.Create(csvPath)
		if err != nil {
			return nil, fmt.Errorf("create CSV file: %w", err)
		}
		csvOut = file
		closers = append(closers, file)
	}
	if jsonPath != "" {
		file, err := os.Create(jsonPath)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("create JSON file: %w", err)
		}
		jsonOut = file
		closers = append(closers, file)
	}

	w, err := NewStreamWriter(csvOut, jsonOut)
	if err != nil {
		closeAll()
		return nil, err
	}
	w.closers = closers
	return w, nil
}

// NewStreamWriter writes to the given streams; either may be nil.
func NewStreamWriter(csvOut, jsonOut io.Writer) (*Writer, error) {
	w := &Writer{jsonOut: jsonOut}
	if csvOut != nil {
		w.csvWriter = csv.NewWriter(csvOut)
		if err := w.csvWriter.Write(csvHeader); err != nil {
			return nil, fmt.Errorf("write CSV header: %w", err)
		}
		w.csvWriter.Flush()
	}
	if jsonOut != nil {
		if _, err := io.WriteString(jsonOut, "["); err != nil {
			return nil, fmt.Errorf("write JSON start: %w", err)
		}
	}
	return w, nil
}

// WriteMetric writes a single metric
func (w *Writer) WriteMetric(m Metric) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.csvWriter != nil {
		record := []string{
			m.Timestamp.Format(time.RFC3339Nano),
			m.RequestID,
			m.Label,
			string(m.Mode),
			m.Service,
			strconv.FormatBool(m.Success),
			formatRTT(m.RTTMs),
			strconv.Itoa(int(m.Status)),
			m.Outcome,
			m.Error,
		}
		if err := w.csvWriter.Write(record); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
		w.csvWriter.Flush()
		if err := w.csvWriter.Error(); err != nil {
			return fmt.Errorf("flush CSV: %w", err)
		}
	}

	if w.jsonOut != nil {
		data, err := json.MarshalIndent(m, "  ", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		sep := "\n  "
		if w.jsonCount > 0 {
			sep = ",\n  "
		}
		if _, err := io.WriteString(w.jsonOut, sep); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		if _, err := w.jsonOut.Write(data); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		w.jsonCount++
	}
	return nil
}

// Close terminates the JSON array and closes any files opened by NewWriter.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	if w.csvWriter != nil {
		w.csvWriter.Flush()
	}
	if w.jsonOut != nil {
		if _, err := io.WriteString(w.jsonOut, "\n]\n"); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range w.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("close writer: %v", errs)
	}
	return nil
}

// formatRTT formats RTT value for CSV (empty string if 0)
func formatRTT(rtt float64) string {
	if rtt == 0 {
		return ""
	}
	return strconv.FormatFloat(rtt, 'f', 3, 64)
}

// FormatSummary formats a summary for human-readable output
func FormatSummary(summary *Summary) string {
	var b strings.Builder
	if summary.TotalOperations == 0 {
		return "No requests recorded\n"
	}

	fmt.Fprintf(&b, "Total Requests: %d\n", summary.TotalOperations)
	fmt.Fprintf(&b, "Successful: %d (%.1f%%)\n",
		summary.SuccessfulOps,
		float64(summary.SuccessfulOps)/float64(summary.TotalOperations)*100)
	fmt.Fprintf(&b, "Failed: %d (%.1f%%)\n",
		summary.FailedOps,
		float64(summary.FailedOps)/float64(summary.TotalOperations)*100)
	if summary.TimeoutCount > 0 {
		fmt.Fprintf(&b, "Timeouts: %d\n", summary.TimeoutCount)
	}
	for _, outcome := range sortedKeys(summary.Outcomes) {
		if outcome == OutcomeSuccess {
			continue
		}
		fmt.Fprintf(&b, "  %s: %d\n", outcome, summary.Outcomes[outcome])
	}

	if summary.SuccessfulOps > 0 {
		b.WriteString("\nRTT Statistics:\n")
		fmt.Fprintf(&b, "  Min: %.3f ms\n", summary.MinRTT)
		fmt.Fprintf(&b, "  Max: %.3f ms\n", summary.MaxRTT)
		fmt.Fprintf(&b, "  Avg: %.3f ms\n", summary.AvgRTT)
		fmt.Fprintf(&b, "  P50: %.3f ms\n", summary.P50RTT)
		fmt.Fprintf(&b, "  P90: %.3f ms\n", summary.P90RTT)
		fmt.Fprintf(&b, "  P99: %.3f ms\n", summary.P99RTT)
		if len(summary.RTTBuckets) > 0 {
			fmt.Fprintf(&b, "  Buckets: <1ms=%d 1-5ms=%d 5-10ms=%d 10-50ms=%d 50-100ms=%d 100-500ms=%d >500ms=%d\n",
				summary.RTTBuckets["lt_1ms"],
				summary.RTTBuckets["1_5ms"],
				summary.RTTBuckets["5_10ms"],
				summary.RTTBuckets["10_50ms"],
				summary.RTTBuckets["50_100ms"],
				summary.RTTBuckets["100_500ms"],
				summary.RTTBuckets["gt_500ms"],
			)
		}
	}

	writeStats(&b, "Per-Service Statistics", summary.ByService)
	writeStats(&b, "Per-Label Statistics", summary.ByLabel)
	return b.String()
}

func writeStats(b *strings.Builder, title string, stats map[string]*Stats) {
	if len(stats) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, key := range sortedKeys(stats) {
		st := stats[key]
		fmt.Fprintf(b, "  %s: %d ops (%d success, %d failed)", key, st.Count, st.Success, st.Failed)
		if st.Success > 0 && st.SumRTT > 0 {
			fmt.Fprintf(b, " - RTT: min=%.3fms, max=%.3fms, avg=%.3fms", st.MinRTT, st.MaxRTT, st.AvgRTT)
		}
		b.WriteString("\n")
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
