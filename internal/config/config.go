package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/simwire/internal/clock"
	"github.com/danmuck/simwire/internal/identity"
	"github.com/danmuck/simwire/internal/lifecycle"
	"github.com/danmuck/simwire/internal/logging"
	"github.com/danmuck/simwire/internal/protocol/frame"
)

// NodeConfig holds the tunables of one simwire node.
type NodeConfig struct {
	Location        uint8
	Object          uint16
	ClockJump       uint32
	ClockGain       float64
	StepTicks       uint32
	MaxPayloadBytes uint64
	MaxAuthBytes    uint64
	DedupCapacity   int
	LogLevel        string
}

type fileConfig struct {
	Location        int64   `toml:"location"`
	Object          int64   `toml:"object"`
	ClockJump       int64   `toml:"clock_jump"`
	ClockGain       float64 `toml:"clock_gain"`
	StepTicks       int64   `toml:"step_ticks"`
	MaxPayloadBytes int64   `toml:"max_payload_bytes"`
	MaxAuthBytes    int64   `toml:"max_auth_bytes"`
	DedupCapacity   int64   `toml:"dedup_capacity"`
	LogLevel        string  `toml:"log_level"`
}

func DefaultNodeConfig() NodeConfig {
	limits := frame.DefaultLimits()
	return NodeConfig{
		Location:        identity.UnsetLocation,
		Object:          identity.UnsetObject,
		ClockJump:       20,
		StepTicks:       10,
		MaxPayloadBytes: limits.MaxPayloadBytes,
		MaxAuthBytes:    limits.MaxAuthBytes,
		DedupCapacity:   lifecycle.DefaultDedupCapacity,
		LogLevel:        "info",
	}
}

// LoadNodeConfig overlays the keys defined in the TOML file at path onto
// DefaultNodeConfig and validates the result.
func LoadNodeConfig(path string) (NodeConfig, error) {
	cfg := DefaultNodeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return NodeConfig{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("location") {
		if raw.Location < 0 || raw.Location > 0xFF {
			return NodeConfig{}, fmt.Errorf("location out of range: %d", raw.Location)
		}
		cfg.Location = uint8(raw.Location)
	}
	if meta.IsDefined("object") {
		if raw.Object < 0 || raw.Object > 0xFFFF {
			return NodeConfig{}, fmt.Errorf("object out of range: %d", raw.Object)
		}
		cfg.Object = uint16(raw.Object)
	}
	if meta.IsDefined("clock_jump") {
		if raw.ClockJump < 0 || raw.ClockJump > 1<<31-1 {
			return NodeConfig{}, fmt.Errorf("clock_jump out of range: %d", raw.ClockJump)
		}
		cfg.ClockJump = uint32(raw.ClockJump)
	}
	if meta.IsDefined("clock_gain") {
		cfg.ClockGain = raw.ClockGain
	}
	if meta.IsDefined("step_ticks") {
		if raw.StepTicks < 0 || raw.StepTicks > 0xFFFFFFFF {
			return NodeConfig{}, fmt.Errorf("step_ticks out of range: %d", raw.StepTicks)
		}
		cfg.StepTicks = uint32(raw.StepTicks)
	}
	if meta.IsDefined("max_payload_bytes") {
		if raw.MaxPayloadBytes < 0 {
			return NodeConfig{}, fmt.Errorf("max_payload_bytes must not be negative")
		}
		cfg.MaxPayloadBytes = uint64(raw.MaxPayloadBytes)
	}
	if meta.IsDefined("max_auth_bytes") {
		if raw.MaxAuthBytes < 0 {
			return NodeConfig{}, fmt.Errorf("max_auth_bytes must not be negative")
		}
		cfg.MaxAuthBytes = uint64(raw.MaxAuthBytes)
	}
	if meta.IsDefined("dedup_capacity") {
		cfg.DedupCapacity = int(raw.DedupCapacity)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := ValidateNodeConfig(cfg); err != nil {
		return NodeConfig{}, err
	}
	return cfg, nil
}

func ValidateNodeConfig(cfg NodeConfig) error {
	if err := identity.Require(cfg.Identity(), "node"); err != nil {
		return fmt.Errorf("node config: %w", err)
	}
	if cfg.ClockJump == 0 {
		return fmt.Errorf("node config: %w", clock.ErrInvalidJump)
	}
	if cfg.ClockGain < 0 || cfg.ClockGain > 1 {
		return fmt.Errorf("node config: %w: %v", clock.ErrInvalidGain, cfg.ClockGain)
	}
	if cfg.StepTicks == 0 {
		return fmt.Errorf("node config: step_ticks must be positive")
	}
	if cfg.MaxPayloadBytes == 0 {
		return fmt.Errorf("node config: max_payload_bytes must be positive")
	}
	if cfg.DedupCapacity <= 0 {
		return fmt.Errorf("node config: dedup_capacity must be positive")
	}
	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("node config: unknown log_level %q", cfg.LogLevel)
	}
	return nil
}

func (c NodeConfig) Identity() identity.Identity {
	return identity.New(c.Location, c.Object)
}

// ClockConfig is the synchronizer policy; a zero gain means bounded steps.
func (c NodeConfig) ClockConfig() clock.Config {
	return clock.Config{Jump: c.ClockJump, Gain: c.ClockGain}
}

func (c NodeConfig) FrameLimits() frame.Limits {
	return frame.Limits{
		MaxAuthBytes:    c.MaxAuthBytes,
		MaxPayloadBytes: c.MaxPayloadBytes,
	}
}
