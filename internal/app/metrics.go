package app

import (
	"fmt"
	"io"

	"github.com/tturner/cipmsg/internal/metrics"
)

// RunMetricsSummary prints the summary of a metrics CSV written by send.
func RunMetricsSummary(out io.Writer, path string) error {
	records, err := metrics.ReadMetricsFile(path)
	if err != nil {
		return fmt.Errorf("read metrics: %w", err)
	}
	fmt.Fprint(out, metrics.FormatSummary(metrics.Summarize(records)))
	return nil
}
