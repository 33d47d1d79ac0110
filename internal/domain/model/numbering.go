package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// NumberingFormat selects how ticket numbers are rendered from ticket indices.
type NumberingFormat string

const (
	// NumberingSequential renders the plain one-based index.
	NumberingSequential NumberingFormat = "sequential"
	// NumberingPrefixed renders a prefix followed by a zero-padded index.
	NumberingPrefixed NumberingFormat = "prefixed"
)

// NumberingConfig describes the ticket number format for a raffle. The job
// system passes it through to the insert primitive unchanged; only the
// primitive interprets it.
type NumberingConfig struct {
	Format NumberingFormat `json:"format"`
	Prefix string          `json:"prefix,omitempty"`
	Pad    int             `json:"pad,omitempty"`
}

// ParseNumberingConfig decodes a raw numbering config, defaulting to
// sequential when absent.
func ParseNumberingConfig(raw json.RawMessage) (NumberingConfig, error) {
	cfg := NumberingConfig{Format: NumberingSequential}
	if len(raw) == 0 {
		return cfg, nil
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("decode numbering config: %w", err)
	}
	if cfg.Format == "" {
		cfg.Format = NumberingSequential
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the numbering config for internal consistency.
func (c NumberingConfig) Validate() error {
	switch c.Format {
	case NumberingSequential:
		return nil
	case NumberingPrefixed:
		if strings.TrimSpace(c.Prefix) == "" && c.Pad <= 0 {
			return errors.New("prefixed numbering requires a prefix or pad width")
		}
		if c.Pad < 0 || c.Pad > 18 {
			return errors.New("pad width must be between 0 and 18")
		}
		return nil
	default:
		return fmt.Errorf("unsupported numbering format: %q", c.Format)
	}
}
