// Package artifact writes the output directory of a send run: capture,
// metrics, a text summary and run.json.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tturner/cipmsg/internal/metrics"
)

// RunMetadata describes one send run.
type RunMetadata struct {
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  string    `json:"duration"`

	Target  TargetInfo  `json:"target"`
	Request RequestInfo `json:"request"`
	Result  ResultInfo  `json:"result"`

	Stats     RunStats      `json:"stats"`
	ExitCode  int           `json:"exit_code"`
	Artifacts ArtifactPaths `json:"artifacts"`
}

type TargetInfo struct {
	IP    string `json:"ip"`
	Port  int    `json:"port"`
	Route string `json:"route"`
}

// RequestInfo is the request as the user described it, before encoding.
type RequestInfo struct {
	Label           string `json:"label"`
	Service         string `json:"service"`
	Class           string `json:"class"`
	Instance        string `json:"instance"`
	Attribute       string `json:"attribute,omitempty"`
	PayloadHex      string `json:"payload_hex,omitempty"`
	DataType        string `json:"data_type,omitempty"`
	Connected       bool   `json:"connected"`
	UnconnectedSend bool   `json:"unconnected_send,omitempty"`
	Route           string `json:"route,omitempty"`
}

type ResultInfo struct {
	RequestID string `json:"request_id,omitempty"`
	Outcome   string `json:"outcome"`
	Value     string `json:"value,omitempty"`
	Error     string `json:"error,omitempty"`
}

type RunStats struct {
	TotalOperations int     `json:"total_operations"`
	SuccessfulOps   int     `json:"successful_ops"`
	FailedOps       int     `json:"failed_ops"`
	TimeoutCount    int     `json:"timeout_count"`
	AvgRTTMs        float64 `json:"avg_rtt_ms"`
	MaxRTTMs        float64 `json:"max_rtt_ms"`
}

// ArtifactPaths are relative to the output directory.
type ArtifactPaths struct {
	RunJSON    string `json:"run_json"`
	MetricsCSV string `json:"metrics_csv"`
	SummaryTxt string `json:"summary_txt"`
	PCAPFile   string `json:"pcap_file"`
}

// OutputManager owns the artifact paths of a run.
type OutputManager struct {
	outputDir string
	metadata  *RunMetadata
	now       func() time.Time
}

// NewOutputManager creates outputDir and names the run after the current time.
func NewOutputManager(outputDir string) (*OutputManager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	start := time.Now()
	runID := start.Format("20060102-150405")
	return &OutputManager{
		outputDir: outputDir,
		now:       time.Now,
		metadata: &RunMetadata{
			RunID:     runID,
			StartTime: start,
			Artifacts: ArtifactPaths{
				RunJSON:    "run.json",
				MetricsCSV: fmt.Sprintf("metrics_%s.csv", runID),
				SummaryTxt: fmt.Sprintf("summary_%s.txt", runID),
				PCAPFile:   fmt.Sprintf("capture_%s.pcap", runID),
			},
		},
	}, nil
}

func (m *OutputManager) OutputDir() string { return m.outputDir }

func (m *OutputManager) RunID() string { return m.metadata.RunID }

func (m *OutputManager) SetTarget(t TargetInfo) { m.metadata.Target = t }

func (m *OutputManager) SetRequest(r RequestInfo) { m.metadata.Request = r }

func (m *OutputManager) PCAPPath() string { return m.path(m.metadata.Artifacts.PCAPFile) }

func (m *OutputManager) MetricsPath() string { return m.path(m.metadata.Artifacts.MetricsCSV) }

func (m *OutputManager) SummaryPath() string { return m.path(m.metadata.Artifacts.SummaryTxt) }

func (m *OutputManager) RunJSONPath() string { return m.path(m.metadata.Artifacts.RunJSON) }

func (m *OutputManager) path(name string) string { return filepath.Join(m.outputDir, name) }

// Finalize records the outcome and writes the summary and run.json.
func (m *OutputManager) Finalize(summary *metrics.Summary, result ResultInfo, exitCode int) error {
	m.metadata.EndTime = m.now()
	m.metadata.Duration = m.metadata.EndTime.Sub(m.metadata.StartTime).String()
	m.metadata.Result = result
	m.metadata.ExitCode = exitCode
	if summary != nil {
		m.metadata.Stats = RunStats{
			TotalOperations: summary.TotalOperations,
			SuccessfulOps:   summary.SuccessfulOps,
			FailedOps:       summary.FailedOps,
			TimeoutCount:    summary.TimeoutCount,
			AvgRTTMs:        summary.AvgRTT,
			MaxRTTMs:        summary.MaxRTT,
		}
	}

	if err := m.writeSummary(); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if err := m.writeRunJSON(); err != nil {
		return fmt.Errorf("write run.json: %w", err)
	}
	return nil
}

func (m *OutputManager) writeSummary() error {
	f, err := os.Create(m.SummaryPath())
	if err != nil {
		return err
	}
	defer f.Close()

	md := m.metadata
	fmt.Fprintf(f, "cipmsg Run Summary\n")
	fmt.Fprintf(f, "==================\n\n")
	fmt.Fprintf(f, "Run ID:     %s\n", md.RunID)
	fmt.Fprintf(f, "Start Time: %s\n", md.StartTime.Format(time.RFC3339))
	fmt.Fprintf(f, "Duration:   %s\n\n", md.Duration)
	fmt.Fprintf(f, "Target: %s:%d (route %s)\n\n", md.Target.IP, md.Target.Port, md.Target.Route)

	req := md.Request
	mode := "connected"
	if !req.Connected {
		mode = "unconnected"
		if req.UnconnectedSend {
			mode = "unconnected send"
		}
	}
	fmt.Fprintf(f, "Request\n")
	fmt.Fprintf(f, "-------\n")
	fmt.Fprintf(f, "Label:    %s\n", req.Label)
	fmt.Fprintf(f, "Mode:     %s\n", mode)
	fmt.Fprintf(f, "Service:  %s\n", req.Service)
	fmt.Fprintf(f, "Class:    %s\n", req.Class)
	fmt.Fprintf(f, "Instance: %s\n", req.Instance)
	if req.Attribute != "" {
		fmt.Fprintf(f, "Attribute: %s\n", req.Attribute)
	}
	fmt.Fprintln(f)

	fmt.Fprintf(f, "Result\n")
	fmt.Fprintf(f, "------\n")
	fmt.Fprintf(f, "Outcome: %s\n", md.Result.Outcome)
	if md.Result.Value != "" {
		fmt.Fprintf(f, "Value:   %s\n", md.Result.Value)
	}
	if md.Result.Error != "" {
		fmt.Fprintf(f, "Error:   %s\n", md.Result.Error)
	}
	if md.Stats.TotalOperations > 0 {
		fmt.Fprintf(f, "RTT:     %.3f ms\n", md.Stats.AvgRTTMs)
	}
	fmt.Fprintln(f)

	fmt.Fprintf(f, "Artifacts\n")
	fmt.Fprintf(f, "---------\n")
	fmt.Fprintf(f, "PCAP:     %s\n", md.Artifacts.PCAPFile)
	fmt.Fprintf(f, "Metrics:  %s\n", md.Artifacts.MetricsCSV)
	fmt.Fprintf(f, "Run JSON: %s\n", md.Artifacts.RunJSON)
	return nil
}

func (m *OutputManager) writeRunJSON() error {
	data, err := json.MarshalIndent(m.metadata, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.RunJSONPath(), data, 0644)
}

// ReadRunJSON loads the run.json in dir.
func ReadRunJSON(dir string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, "run.json"))
	if err != nil {
		return nil, err
	}
	var md RunMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse run.json: %w", err)
	}
	return &md, nil
}
