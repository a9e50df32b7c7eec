package host

import (
	"context"
	"fmt"
	"strings"

	corehost "github.com/kilianp07/pfexport/core/host"
)

// Config selects and configures the host connector.
type Config struct {
	// Mode is "bridge" for a gateway running inside the host or "demo" for
	// the in-process demo host.
	Mode   string       `json:"mode"`
	Bridge BridgeConfig `json:"bridge"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "bridge"
	}
	if c.Bridge.URL == "" {
		c.Bridge.URL = "http://127.0.0.1:8765"
	}
	if c.Bridge.TimeoutSeconds <= 0 {
		c.Bridge.TimeoutSeconds = 30
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "bridge":
		if c.Bridge.URL == "" {
			return fmt.Errorf("host.bridge.url is required")
		}
	case "demo":
	default:
		return fmt.Errorf("unknown host mode %s", c.Mode)
	}
	return nil
}

// NewConnector returns the connector selected by cfg.Mode.
func NewConnector(cfg Config) corehost.Connector {
	switch strings.ToLower(cfg.Mode) {
	case "demo":
		return StaticConnector{App: NewDemoHost()}
	default:
		return NewBridgeClient(cfg.Bridge)
	}
}

// StaticConnector hands out an existing Application. A nil App behaves like
// an unreachable host.
type StaticConnector struct {
	App corehost.Application
}

// Connect returns the wrapped application.
func (s StaticConnector) Connect(ctx context.Context) (corehost.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.App == nil {
		return nil, corehost.ErrNoConnection
	}
	return s.App, nil
}
