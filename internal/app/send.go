package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tturner/cipmsg/internal/artifact"
	"github.com/tturner/cipmsg/internal/capture"
	cipclient "github.com/tturner/cipmsg/internal/cip/client"
	"github.com/tturner/cipmsg/internal/cip/generic"
	"github.com/tturner/cipmsg/internal/cip/protocol"
	"github.com/tturner/cipmsg/internal/cip/route"
	"github.com/tturner/cipmsg/internal/config"
	cipErrors "github.com/tturner/cipmsg/internal/errors"
	"github.com/tturner/cipmsg/internal/logging"
	"github.com/tturner/cipmsg/internal/metrics"
	"github.com/tturner/cipmsg/internal/ui"
)

// SendOptions are the inputs of the send command. Request fields that are
// set override the named message from the config file.
type SendOptions struct {
	ConfigPath string
	Message    string

	IP          string
	Port        int
	TimeoutMs   int
	TargetRoute string

	Service         string
	Class           string
	Instance        string
	Attribute       string
	PayloadHex      string
	DataType        string
	Unconnected     bool
	UnconnectedSend bool
	Route           string
	RouteHex        string
	RawResponse     bool
	Label           string

	Interactive bool
	DryRun      bool
	Copy        bool

	LogLevel    string
	LogFile     string
	MetricsCSV  string
	MetricsJSON string
	PCAPFile    string
	OutputDir   string

	Out io.Writer
}

// RunSend sends one generic request and prints the result. A request that
// completes with an error status is reported and returned as an error.
func RunSend(opts SendOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	msg, err := resolveMessage(cfg, opts)
	if err != nil {
		return err
	}
	if opts.Interactive {
		if msg, err = editMessage(msg); err != nil {
			return err
		}
	}
	if err := config.ValidateMessage(msg); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	req, err := BuildRequest(msg)
	if err != nil {
		return err
	}
	modes, err := resolveModes(cfg)
	if err != nil {
		return err
	}
	sessCfg, err := sessionConfig(cfg)
	if err != nil {
		return err
	}

	if opts.DryRun {
		return dryRun(out, req, modes, sessCfg.Route, opts.Copy)
	}

	var outputMgr *artifact.OutputManager
	if opts.OutputDir != "" {
		if outputMgr, err = artifact.NewOutputManager(opts.OutputDir); err != nil {
			return err
		}
		if cfg.Capture.PCAP == "" {
			cfg.Capture.PCAP = outputMgr.PCAPPath()
		}
		if cfg.Metrics.CSV == "" {
			cfg.Metrics.CSV = outputMgr.MetricsPath()
		}
		outputMgr.SetTarget(artifact.TargetInfo{IP: cfg.Target.IP, Port: cfg.Target.Port, Route: cfg.Target.Route})
		outputMgr.SetRequest(requestInfo(msg))
		fmt.Fprintf(out, "Output directory: %s\n", opts.OutputDir)
	}

	res, summary, err := send(out, cfg, req, modes, sessCfg)
	if err != nil {
		return err
	}
	runErr := resultError(res, cfg)
	if outputMgr != nil {
		exitCode := 0
		if runErr != nil {
			exitCode = 1
		}
		if err := outputMgr.Finalize(summary, resultInfo(res), exitCode); err != nil {
			return err
		}
	}
	return runErr
}

func requestInfo(msg config.MessageConfig) artifact.RequestInfo {
	return artifact.RequestInfo{
		Label:           msg.Name,
		Service:         msg.Service,
		Class:           msg.Class,
		Instance:        msg.Instance,
		Attribute:       msg.Attribute,
		PayloadHex:      msg.PayloadHex,
		DataType:        msg.DataType,
		Connected:       msg.IsConnected(),
		UnconnectedSend: msg.UnconnectedSend,
		Route:           firstNonEmpty(msg.Route, msg.RouteHex),
	}
}

func resultInfo(res generic.Result) artifact.ResultInfo {
	info := artifact.ResultInfo{
		RequestID: res.ID.String(),
		Outcome:   metrics.OutcomeSuccess,
		Value:     ui.FormatValue(res.Value),
	}
	if res.Error != nil {
		info.Outcome = cipErrors.KindOf(res.Error).String()
		info.Error = res.Error.Error()
	}
	return info
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

type modeSet struct {
	route route.Mode
	path  protocol.PathMode
}

func resolveModes(cfg *config.Config) (modeSet, error) {
	rm, err := route.ParseMode(cfg.Target.RouteMode)
	if err != nil {
		return modeSet{}, err
	}
	pm, err := protocol.ParsePathMode(cfg.Target.PathMode)
	if err != nil {
		return modeSet{}, err
	}
	return modeSet{route: rm, path: pm}, nil
}

func resolveConfig(opts SendOptions) (*config.Config, error) {
	cfg := &config.Config{}
	if opts.ConfigPath != "" {
		loaded, err := config.LoadClientConfig(opts.ConfigPath, false)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.IP != "" {
		cfg.Target.IP = opts.IP
	}
	if opts.Port != 0 {
		cfg.Target.Port = opts.Port
	}
	if opts.TimeoutMs != 0 {
		cfg.Target.TimeoutMs = opts.TimeoutMs
	}
	if opts.TargetRoute != "" {
		cfg.Target.Route = opts.TargetRoute
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.LogFile != "" {
		cfg.Logging.File = opts.LogFile
	}
	if opts.MetricsCSV != "" {
		cfg.Metrics.CSV = opts.MetricsCSV
	}
	if opts.MetricsJSON != "" {
		cfg.Metrics.JSON = opts.MetricsJSON
	}
	if opts.PCAPFile != "" {
		cfg.Capture.PCAP = opts.PCAPFile
	}

	config.ApplyDefaults(cfg)
	if opts.DryRun && strings.TrimSpace(cfg.Target.IP) == "" {
		// nothing is dialed; keep validation of the remaining fields
		cfg.Target.IP = "0.0.0.0"
	}
	if err := config.ValidateClientConfig(cfg); err != nil {
		if opts.ConfigPath != "" {
			return nil, cipErrors.WrapConfigError(err, opts.ConfigPath)
		}
		return nil, err
	}
	return cfg, nil
}

func resolveMessage(cfg *config.Config, opts SendOptions) (config.MessageConfig, error) {
	var msg config.MessageConfig
	if opts.Message != "" {
		m, ok := cfg.Message(opts.Message)
		if !ok {
			return msg, fmt.Errorf("message %q not found in %s", opts.Message, opts.ConfigPath)
		}
		msg = m
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&msg.Service, opts.Service)
	override(&msg.Class, opts.Class)
	override(&msg.Instance, opts.Instance)
	override(&msg.Attribute, opts.Attribute)
	override(&msg.PayloadHex, opts.PayloadHex)
	override(&msg.DataType, opts.DataType)
	override(&msg.Route, opts.Route)
	override(&msg.RouteHex, opts.RouteHex)
	override(&msg.Name, opts.Label)
	if opts.Unconnected || opts.UnconnectedSend {
		connected := false
		msg.Connected = &connected
	}
	if opts.UnconnectedSend {
		msg.UnconnectedSend = true
	}
	if opts.RawResponse {
		msg.RawResponse = true
	}
	if msg.Name == "" {
		msg.Name = generic.DefaultLabel
	}
	return msg, nil
}

func editMessage(msg config.MessageConfig) (config.MessageConfig, error) {
	v := &ui.RequestValues{
		Service:         msg.Service,
		Class:           msg.Class,
		Instance:        msg.Instance,
		Attribute:       msg.Attribute,
		PayloadHex:      msg.PayloadHex,
		DataType:        msg.DataType,
		Connected:       msg.IsConnected(),
		UnconnectedSend: msg.UnconnectedSend,
		Route:           msg.Route,
	}
	if err := ui.RunRequestForm(v); err != nil {
		return msg, err
	}
	msg.Service = v.Service
	msg.Class = v.Class
	msg.Instance = v.Instance
	msg.Attribute = v.Attribute
	msg.PayloadHex = v.PayloadHex
	msg.DataType = v.DataType
	msg.Connected = &v.Connected
	msg.UnconnectedSend = v.UnconnectedSend && !v.Connected
	msg.Route = v.Route
	return msg, nil
}

// BuildRequest converts a message description into a generic request.
func BuildRequest(msg config.MessageConfig) (generic.Request, error) {
	service, err := protocol.ParseServiceAddress(msg.Service)
	if err != nil {
		return generic.Request{}, fmt.Errorf("service: %w", err)
	}
	class, err := protocol.ParseClassAddress(msg.Class)
	if err != nil {
		return generic.Request{}, fmt.Errorf("class: %w", err)
	}
	instance, err := protocol.ParseAddress(msg.Instance)
	if err != nil {
		return generic.Request{}, fmt.Errorf("instance: %w", err)
	}
	attribute, err := protocol.ParseAddress(msg.Attribute)
	if err != nil {
		return generic.Request{}, fmt.Errorf("attribute: %w", err)
	}
	payload, err := protocol.ParseHex(msg.PayloadHex)
	if err != nil {
		return generic.Request{}, fmt.Errorf("payload: %w", err)
	}
	spec, err := config.RouteSpec(msg.Route, msg.RouteHex)
	if err != nil {
		return generic.Request{}, err
	}

	opts := []generic.RequestOption{
		generic.WithAttribute(attribute),
		generic.WithPayload(payload),
		generic.WithLabel(msg.Name),
		generic.WithConnected(msg.IsConnected()),
		generic.WithUnconnectedSend(msg.UnconnectedSend),
		generic.WithRoute(spec),
	}
	if msg.DataType != "" {
		dt, err := protocol.ParseDataType(msg.DataType)
		if err != nil {
			return generic.Request{}, err
		}
		opts = append(opts, generic.WithDecoder(dt))
	}
	if msg.RawResponse {
		opts = append(opts, generic.WithRawResponse())
	}
	return generic.NewRequest(service, class, instance, opts...), nil
}

func sessionConfig(cfg *config.Config) (cipclient.Config, error) {
	segs, err := route.Parse(cfg.Target.Route)
	if err != nil {
		return cipclient.Config{}, cipErrors.InvalidRoute("target route %q: %v", cfg.Target.Route, err)
	}
	sc := cipclient.DefaultConfig(cfg.Target.IP)
	sc.Address = cfg.Address()
	sc.Timeout = time.Duration(cfg.Target.TimeoutMs) * time.Millisecond
	sc.Route = segs
	sc.ConnectionSize = uint16(cfg.Connection.ConnectionSize)
	sc.LargeForwardOpen = cfg.Connection.LargeForwardOpen
	sc.RPI = time.Duration(cfg.Connection.RPIMs) * time.Millisecond
	if cfg.Connection.VendorID != 0 {
		sc.VendorID = cfg.Connection.VendorID
	}
	if cfg.Connection.OriginatorSerial != 0 {
		sc.OriginatorSerial = cfg.Connection.OriginatorSerial
	}
	return sc, nil
}

func dryRun(out io.Writer, req generic.Request, modes modeSet, defaultRoute []route.Segment, copyHex bool) error {
	b := generic.Builder{RouteMode: modes.route, PathMode: modes.path, DefaultRoute: defaultRoute}
	env, err := b.Build(req, func() uint16 { return 1 })
	if err != nil {
		return err
	}
	frame, err := cipclient.Encode(env)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	fmt.Fprintln(out, ui.RenderEnvelope(req.Label, env, frame))
	if copyHex {
		if err := ui.CopyHex(frame); err != nil {
			return err
		}
		fmt.Fprintln(out, "Copied encoded request to clipboard")
	}
	return nil
}

func send(out io.Writer, cfg *config.Config, req generic.Request, modes modeSet, sc cipclient.Config) (generic.Result, *metrics.Summary, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return generic.Result{}, nil, err
	}
	logger, err := logging.NewLogger(level, cfg.Logging.File)
	if err != nil {
		return generic.Result{}, nil, fmt.Errorf("create logger: %w", err)
	}
	defer logger.Close()

	var transport cipclient.Transport = cipclient.NewTCPTransport()
	var rec *capture.Recorder
	if cfg.Capture.PCAP != "" {
		if rec, err = capture.Create(cfg.Capture.PCAP); err != nil {
			return generic.Result{}, nil, err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Error("pcap %s: %v", cfg.Capture.PCAP, err)
			}
		}()
		transport = capture.NewTap(transport, rec)
	}

	sink := metrics.NewSink()
	var writer *metrics.Writer
	if cfg.Metrics.CSV != "" || cfg.Metrics.JSON != "" {
		if writer, err = metrics.NewWriter(cfg.Metrics.CSV, cfg.Metrics.JSON); err != nil {
			return generic.Result{}, nil, fmt.Errorf("create metrics writer: %w", err)
		}
		defer writer.Close()
	}
	observer := generic.MultiObserver(
		logging.NewObserver(logger),
		metrics.NewObserver(sink, writer, func(err error) { logger.Error("write metric: %v", err) }),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := cipclient.NewSession(sc, cipclient.WithTransport(transport), cipclient.WithLogger(logger))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), sc.Timeout)
		defer cancel()
		if err := session.Close(closeCtx); err != nil {
			logger.Verbose("close session: %v", err)
		}
	}()

	client := generic.NewClient(session, cipclient.NewDispatcher(session),
		generic.WithObserver(observer),
		generic.WithRouteMode(modes.route),
		generic.WithPathMode(modes.path),
	)
	res, err := client.Send(ctx, req)
	if err != nil {
		return generic.Result{}, nil, err
	}
	summary := sink.GetSummary()
	fmt.Fprintln(out, ui.RenderResult(res))
	if writer != nil {
		fmt.Fprint(out, metrics.FormatSummary(summary))
	}
	if rec != nil {
		fmt.Fprintf(out, "Captured %d frames to %s\n", rec.Count(), cfg.Capture.PCAP)
	}
	return res, summary, nil
}

func resultError(res generic.Result, cfg *config.Config) error {
	if res.Error == nil {
		return nil
	}
	switch cipErrors.KindOf(res.Error) {
	case cipErrors.KindConnectionUnavailable, cipErrors.KindTransportFailure:
		return cipErrors.WrapNetworkError(res.Error, cfg.Target.IP, cfg.Target.Port)
	default:
		return cipErrors.WrapCIPError(res.Error, res.Label)
	}
}
