package config

// Configuration loading and validation for cipmsg

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tturner/cipmsg/internal/cip/protocol"
	"github.com/tturner/cipmsg/internal/cip/route"
	"github.com/tturner/cipmsg/internal/errors"
	"github.com/tturner/cipmsg/internal/logging"
)

const (
	DefaultPort           = 44818
	DefaultTimeoutMs      = 5000
	DefaultRoute          = "1/0"
	DefaultConnectionSize = 500
	DefaultRPIMs          = 2000
	DefaultVendorID       = 0x1337
	maxStandardConnSize   = 0x01FF
	maxLargeConnSize      = 0xFFFF
)

// TargetConfig identifies the device and how requests are addressed.
type TargetConfig struct {
	IP        string `yaml:"ip"`
	Port      int    `yaml:"port"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Route     string `yaml:"route"`
	RouteMode string `yaml:"route_mode,omitempty"` // "padded" (default) or "packed"
	PathMode  string `yaml:"path_mode,omitempty"`  // "padded" (default) or "packed"
}

// ConnectionConfig describes the explicit messaging connection opened for
// connected requests.
type ConnectionConfig struct {
	ConnectionSize   int    `yaml:"connection_size"`
	LargeForwardOpen bool   `yaml:"large_forward_open"`
	RPIMs            int    `yaml:"rpi_ms"`
	VendorID         uint16 `yaml:"vendor_id"`
	OriginatorSerial uint32 `yaml:"originator_serial,omitempty"` // 0 picks a random serial
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

type MetricsConfig struct {
	CSV  string `yaml:"csv,omitempty"`
	JSON string `yaml:"json,omitempty"`
}

type CaptureConfig struct {
	PCAP string `yaml:"pcap,omitempty"`
}

// MessageConfig is a named generic request. Address fields take a number
// (decimal or 0x hex), hex:<bytes>, sym:<name>, or for service and class an
// alias such as get_attribute_single or identity.
type MessageConfig struct {
	Name            string `yaml:"name"`
	Service         string `yaml:"service"`
	Class           string `yaml:"class"`
	Instance        string `yaml:"instance"`
	Attribute       string `yaml:"attribute,omitempty"`
	PayloadHex      string `yaml:"payload_hex,omitempty"`
	DataType        string `yaml:"data_type,omitempty"`
	Connected       *bool  `yaml:"connected,omitempty"` // default true
	UnconnectedSend bool   `yaml:"unconnected_send,omitempty"`
	Route           string `yaml:"route,omitempty"` // "", "true", "false" or a route such as 1/0
	RouteHex        string `yaml:"route_hex,omitempty"`
	RawResponse     bool   `yaml:"raw_response,omitempty"`
}

// IsConnected reports the effective connected flag.
func (m MessageConfig) IsConnected() bool {
	return m.Connected == nil || *m.Connected
}

// Config represents the client configuration
type Config struct {
	Target     TargetConfig     `yaml:"target"`
	Connection ConnectionConfig `yaml:"connection"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics,omitempty"`
	Capture    CaptureConfig    `yaml:"capture,omitempty"`
	Messages   []MessageConfig  `yaml:"messages"`
}

// Address returns the target as host:port.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Target.IP, fmt.Sprint(c.Target.Port))
}

// Message returns the message with the given name.
func (c *Config) Message(name string) (MessageConfig, bool) {
	for _, m := range c.Messages {
		if m.Name == name {
			return m, true
		}
	}
	return MessageConfig{}, false
}

func boolPtr(v bool) *bool { return &v }

// CreateDefaultClientConfig returns an example configuration.
func CreateDefaultClientConfig() *Config {
	return &Config{
		Target: TargetConfig{
			IP:        "192.168.1.10",
			Port:      DefaultPort,
			TimeoutMs: DefaultTimeoutMs,
			Route:     DefaultRoute,
			RouteMode: route.Padded.String(),
			PathMode:  protocol.PathPadded.String(),
		},
		Connection: ConnectionConfig{
			ConnectionSize: DefaultConnectionSize,
			RPIMs:          DefaultRPIMs,
			VendorID:       DefaultVendorID,
		},
		Logging: LoggingConfig{Level: "info"},
		Messages: []MessageConfig{
			{
				Name:      "identity_vendor",
				Service:   "get_attribute_single",
				Class:     "identity",
				Instance:  "1",
				Attribute: "1",
				DataType:  "UINT",
			},
			{
				Name:      "product_name",
				Service:   "get_attribute_single",
				Class:     "identity",
				Instance:  "1",
				Attribute: "7",
				DataType:  "SHORT_STRING",
				Connected: boolPtr(false),
			},
			{
				Name:            "identity_all_routed",
				Service:         "get_attributes_all",
				Class:           "identity",
				Instance:        "1",
				Connected:       boolPtr(false),
				UnconnectedSend: true,
				Route:           DefaultRoute,
			},
		},
	}
}

// WriteDefaultClientConfig writes the example configuration to path.
func WriteDefaultClientConfig(path string) error {
	data, err := yaml.Marshal(CreateDefaultClientConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadClientConfig loads a client configuration from a YAML file.
// If the file doesn't exist and autoCreate is true, the example configuration
// is written first.
func LoadClientConfig(path string, autoCreate bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.WrapConfigError(fmt.Errorf("read config file: %w", err), path)
		}
		if !autoCreate {
			return nil, errors.WrapConfigError(fmt.Errorf("config file not found: %s", path), path)
		}
		if err := WriteDefaultClientConfig(path); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.WrapConfigError(fmt.Errorf("read created config file: %w", err), path)
		}
	}

	cfg, err := ParseClientConfig(data)
	if err != nil {
		return nil, errors.WrapConfigError(err, path)
	}
	return cfg, nil
}

// ParseClientConfig decodes YAML, applies defaults and validates.
func ParseClientConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := ValidateClientConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values.
func ApplyDefaults(cfg *Config) {
	if cfg.Target.Port == 0 {
		cfg.Target.Port = DefaultPort
	}
	if cfg.Target.TimeoutMs == 0 {
		cfg.Target.TimeoutMs = DefaultTimeoutMs
	}
	if cfg.Target.Route == "" {
		cfg.Target.Route = DefaultRoute
	}
	if cfg.Target.RouteMode == "" {
		cfg.Target.RouteMode = route.Padded.String()
	}
	if cfg.Target.PathMode == "" {
		cfg.Target.PathMode = protocol.PathPadded.String()
	}
	if cfg.Connection.ConnectionSize == 0 {
		cfg.Connection.ConnectionSize = DefaultConnectionSize
	}
	if cfg.Connection.RPIMs == 0 {
		cfg.Connection.RPIMs = DefaultRPIMs
	}
	if cfg.Connection.VendorID == 0 {
		cfg.Connection.VendorID = DefaultVendorID
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// ValidateClientConfig validates a client configuration
func ValidateClientConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Target.IP) == "" {
		return fmt.Errorf("target.ip is required")
	}
	if cfg.Target.Port < 1 || cfg.Target.Port > 65535 {
		return fmt.Errorf("target.port must be in range 1-65535, got %d", cfg.Target.Port)
	}
	if cfg.Target.TimeoutMs < 0 {
		return fmt.Errorf("target.timeout_ms must be positive, got %d", cfg.Target.TimeoutMs)
	}
	if _, err := route.Parse(cfg.Target.Route); err != nil {
		return fmt.Errorf("target.route: %w", err)
	}
	if _, err := route.ParseMode(cfg.Target.RouteMode); err != nil {
		return fmt.Errorf("target.route_mode: %w", err)
	}
	if _, err := protocol.ParsePathMode(cfg.Target.PathMode); err != nil {
		return fmt.Errorf("target.path_mode: %w", err)
	}

	conn := cfg.Connection
	limit := maxStandardConnSize
	if conn.LargeForwardOpen {
		limit = maxLargeConnSize
	}
	if conn.ConnectionSize < 1 || conn.ConnectionSize > limit {
		return fmt.Errorf("connection.connection_size must be in range 1-%d, got %d (set large_forward_open for sizes above %d)",
			limit, conn.ConnectionSize, maxStandardConnSize)
	}
	if conn.RPIMs < 0 {
		return fmt.Errorf("connection.rpi_ms must be positive, got %d", conn.RPIMs)
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Messages))
	for i, m := range cfg.Messages {
		if err := ValidateMessage(m); err != nil {
			return fmt.Errorf("messages[%d]: %w", i, err)
		}
		if seen[m.Name] {
			return fmt.Errorf("messages[%d]: duplicate name %q", i, m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}

// ValidateMessage checks a message's fields parse. Range checks on the
// addresses happen when the request is built.
func ValidateMessage(m MessageConfig) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(m.Service) == "" {
		return fmt.Errorf("%s: service is required", m.Name)
	}
	if _, err := protocol.ParseServiceAddress(m.Service); err != nil {
		return fmt.Errorf("%s: service: %w", m.Name, err)
	}
	if strings.TrimSpace(m.Class) == "" {
		return fmt.Errorf("%s: class is required", m.Name)
	}
	if _, err := protocol.ParseClassAddress(m.Class); err != nil {
		return fmt.Errorf("%s: class: %w", m.Name, err)
	}
	if strings.TrimSpace(m.Instance) == "" {
		return fmt.Errorf("%s: instance is required", m.Name)
	}
	if _, err := protocol.ParseAddress(m.Instance); err != nil {
		return fmt.Errorf("%s: instance: %w", m.Name, err)
	}
	if _, err := protocol.ParseAddress(m.Attribute); err != nil {
		return fmt.Errorf("%s: attribute: %w", m.Name, err)
	}
	if m.PayloadHex != "" {
		if _, err := protocol.ParseHex(m.PayloadHex); err != nil {
			return fmt.Errorf("%s: payload_hex: %w", m.Name, err)
		}
	}
	if m.DataType != "" {
		if _, err := protocol.ParseDataType(m.DataType); err != nil {
			return fmt.Errorf("%s: data_type: %w", m.Name, err)
		}
	}
	if m.Route != "" && m.RouteHex != "" {
		return fmt.Errorf("%s: route and route_hex are mutually exclusive", m.Name)
	}
	if _, err := RouteSpec(m.Route, m.RouteHex); err != nil {
		return fmt.Errorf("%s: %w", m.Name, err)
	}
	return nil
}

// RouteSpec interprets the route/route_hex pair of a message or flag set:
// empty is the target default, "true"/"false" select the default or no
// route, anything else is a textual route.
func RouteSpec(text, hexText string) (route.Spec, error) {
	if hexText != "" {
		raw, err := protocol.ParseHex(hexText)
		if err != nil {
			return route.Spec{}, fmt.Errorf("route_hex: %w", err)
		}
		return route.FromRaw(raw), nil
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "true", "default":
		return route.Default(), nil
	case "false", "none":
		return route.None(), nil
	}
	if _, err := route.Parse(text); err != nil {
		return route.Spec{}, fmt.Errorf("route: %w", err)
	}
	return route.FromText(text), nil
}
