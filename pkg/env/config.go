// pkg/env/config.go

package env

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Size is a byte count that reads from YAML either as a plain number or with a
// K, M, G or T suffix (powers of 1024).
type Size int64

func ParseSize(in string) (Size, error) {
	s := strings.TrimSpace(strings.ToUpper(in))
	s = strings.TrimSuffix(strings.TrimSuffix(s, "B"), "I")
	shift := 0
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'K':
			shift = 10
		case 'M':
			shift = 20
		case 'G':
			shift = 30
		case 'T':
			shift = 40
		}
		if shift > 0 {
			s = s[:n-1]
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid size %q", in)
	}
	if v > math.MaxInt64>>shift {
		return 0, fmt.Errorf("size %q overflows", in)
	}
	return Size(v << shift), nil
}

func (s *Size) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseSize(n.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Config tunes the memory environment.
type Config struct {
	// MemoryBudget is the memory grids may use in total.
	MemoryBudget Size `yaml:"memory-budget"`

	// MinHeadroom is what CheckAndMaybeFreeMemory keeps available.
	MinHeadroom Size `yaml:"min-headroom"`

	// ReserveSize is the emergency block released at the start of a recovery.
	ReserveSize Size `yaml:"reserve-size"`

	// Probe is one of accounting, runtime or system.
	Probe string `yaml:"probe"`

	// MaxRecoveries bounds the evict-and-retry rounds of one Do.
	MaxRecoveries int `yaml:"max-recoveries"`

	// Recover is the default recovery mode of callers that don't choose one.
	Recover bool `yaml:"recover"`
}

func DefaultConfig() Config {
	return Config{
		MemoryBudget:  1 << 30,
		MinHeadroom:   64 << 20,
		ReserveSize:   16 << 20,
		Probe:         "accounting",
		MaxRecoveries: 16,
		Recover:       true,
	}
}

func (c *Config) Validate() error {
	if c.MemoryBudget <= 0 {
		return fmt.Errorf("memory-budget must be positive")
	}
	if c.MinHeadroom < 0 || c.ReserveSize < 0 {
		return fmt.Errorf("min-headroom and reserve-size must not be negative")
	}
	if c.MinHeadroom+c.ReserveSize >= c.MemoryBudget {
		return fmt.Errorf("memory-budget %d leaves no room after headroom %d and reserve %d",
			c.MemoryBudget, c.MinHeadroom, c.ReserveSize)
	}
	if c.MaxRecoveries <= 0 {
		return fmt.Errorf("max-recoveries must be positive")
	}
	switch c.Probe {
	case "accounting", "runtime", "system":
	default:
		return fmt.Errorf("unknown probe %q", c.Probe)
	}
	return nil
}

// LoadConfig reads path over the defaults (a missing file keeps them), then applies
// AVEGRID_MEMORY_BUDGET and AVEGRID_PROBE from the environment.
func LoadConfig(path string) (Config, error) {
	conf := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return conf, err
		}
		if err == nil {
			if err = yaml.Unmarshal(data, &conf); err != nil {
				return conf, fmt.Errorf("parse %s: %s", path, err)
			}
		}
	}
	if v := os.Getenv("AVEGRID_MEMORY_BUDGET"); v != "" {
		s, err := ParseSize(v)
		if err != nil {
			return conf, fmt.Errorf("AVEGRID_MEMORY_BUDGET: %s", err)
		}
		conf.MemoryBudget = s
	}
	if v := os.Getenv("AVEGRID_PROBE"); v != "" {
		conf.Probe = v
	}
	return conf, conf.Validate()
}
