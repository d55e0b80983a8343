package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// ReadMetricsFile reads a metrics CSV file written by Writer.
func ReadMetricsFile(path string) ([]Metric, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metrics CSV: %w", err)
	}
	defer file.Close()
	return ReadMetricsCSV(file)
}

// ReadMetricsCSV parses metrics CSV. Columns are matched by header name, so
// unknown columns are ignored and optional ones may be missing.
func ReadMetricsCSV(r io.Reader) ([]Metric, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[col] = i
	}
	for _, col := range []string{"timestamp", "service", "success", "rtt_ms"} {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("CSV missing required column: %s", col)
		}
	}

	var metrics []Metric
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row %d: %w", row, err)
		}
		field := func(name string) string {
			if idx, ok := colIndex[name]; ok && idx < len(record) {
				return record[idx]
			}
			return ""
		}

		m := Metric{
			RequestID: field("request_id"),
			Label:     field("label"),
			Mode:      Mode(field("mode")),
			Service:   field("service"),
			Success:   field("success") == "true",
			Outcome:   field("outcome"),
			Error:     field("error"),
		}
		if t, err := time.Parse(time.RFC3339Nano, field("timestamp")); err == nil {
			m.Timestamp = t
		}
		if v := field("rtt_ms"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				m.RTTMs = f
			}
		}
		if v := field("status"); v != "" {
			if s, err := strconv.ParseUint(v, 10, 8); err == nil {
				m.Status = uint8(s)
			}
		}
		metrics = append(metrics, m)
	}

	if len(metrics) == 0 {
		return nil, fmt.Errorf("no data rows in CSV file")
	}
	return metrics, nil
}
