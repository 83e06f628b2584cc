package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/snare/internal/pipeline"
)

const EnvPipelineHistoryWindow = "SNARE_PIPELINE_HISTORY_WINDOW"

// SamplingConfig overrides the sampling parameters of one pipeline task.
// Unset fields keep the task default.
type SamplingConfig struct {
	Temperature *float64 `toml:"temperature"`
	MaxTokens   int      `toml:"max_tokens"`
}

// PipelineConfig tunes the conversation pipeline.
type PipelineConfig struct {
	HistoryWindow int                       `toml:"history_window"`
	Sampling      map[string]SamplingConfig `toml:"sampling"`
}

// Params returns the per-task sampling parameters with overrides applied.
func (c *PipelineConfig) Params() pipeline.Params {
	params := pipeline.DefaultParams()
	for name, s := range c.Sampling {
		task := pipeline.Task(name)
		p := params[task]
		if s.Temperature != nil {
			p.Temperature = *s.Temperature
		}
		if s.MaxTokens > 0 {
			p.MaxTokens = s.MaxTokens
		}
		params[task] = p
	}
	return params
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Sampling entries merge per task.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.HistoryWindow != 0 {
		c.HistoryWindow = overlay.HistoryWindow
	}
	if len(overlay.Sampling) > 0 && c.Sampling == nil {
		c.Sampling = make(map[string]SamplingConfig, len(overlay.Sampling))
	}
	for task, s := range overlay.Sampling {
		base := c.Sampling[task]
		if s.Temperature != nil {
			base.Temperature = s.Temperature
		}
		if s.MaxTokens != 0 {
			base.MaxTokens = s.MaxTokens
		}
		c.Sampling[task] = base
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = pipeline.DefaultHistoryWindow
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineHistoryWindow); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.HistoryWindow = n
		}
	}
}

func (c *PipelineConfig) validate() error {
	known := make(map[pipeline.Task]bool)
	for _, t := range pipeline.Tasks() {
		known[t] = true
	}

	for name, s := range c.Sampling {
		if !known[pipeline.Task(name)] {
			return fmt.Errorf("unknown sampling task %q", name)
		}
		if s.Temperature != nil && (*s.Temperature < 0 || *s.Temperature > 2) {
			return fmt.Errorf("sampling.%s: temperature %v outside [0, 2]", name, *s.Temperature)
		}
		if s.MaxTokens < 0 {
			return fmt.Errorf("sampling.%s: max_tokens must be positive", name)
		}
	}
	return nil
}
