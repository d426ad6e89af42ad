// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Thresholds holds the accuracy boundaries of the tutoring policy.
//
// ExactMatch and SkipReflection are both 100 today, and Advance (>) differs
// from WellDone (>=) on purpose: the source behavior grew two independent
// boundaries and callers tune them separately. Do not fold them into one.
type Thresholds struct {
	// ExactMatch is the score assigned by the exact-match fast path.
	ExactMatch int `yaml:"exact_match"`

	// SkipReflection: at or above this score no reflection is generated and
	// a fixed congratulatory message is used instead.
	SkipReflection int `yaml:"skip_reflection"`

	// Advance: strictly above this score the session moves to the next
	// question; at or below it the learner retries.
	Advance int `yaml:"advance"`

	// WellDone: at or above this score the response carries the legacy
	// "well done" line.
	WellDone int `yaml:"well_done"`
}

// DefaultThresholds returns the observed production boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExactMatch:     100,
		SkipReflection: 100,
		Advance:        80,
		WellDone:       75,
	}
}

// Config tunes one session engine instance.
type Config struct {
	Thresholds Thresholds `yaml:"thresholds"`

	// TopK is how many passages each retrieval requests.
	TopK int `yaml:"top_k"`

	// GeneratorTimeout bounds each LLM call so a stalled completion cannot
	// wedge the per-session lock.
	GeneratorTimeout time.Duration `yaml:"generator_timeout"`

	// RetrieverTimeout bounds each passage retrieval.
	RetrieverTimeout time.Duration `yaml:"retriever_timeout"`
}

// DefaultConfig returns the defaults used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Thresholds:       DefaultThresholds(),
		TopK:             3,
		GeneratorTimeout: 2 * time.Minute,
		RetrieverTimeout: 15 * time.Second,
	}
}

// LoadConfig reads a YAML config file and fills unset fields with defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read session config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse session config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.TopK <= 0 {
		c.TopK = 3
	}
	if c.GeneratorTimeout <= 0 {
		c.GeneratorTimeout = 2 * time.Minute
	}
	if c.RetrieverTimeout <= 0 {
		c.RetrieverTimeout = 15 * time.Second
	}
	if c.Thresholds.ExactMatch <= 0 {
		c.Thresholds.ExactMatch = 100
	}
	if c.Thresholds.SkipReflection <= 0 {
		c.Thresholds.SkipReflection = 100
	}
	if c.Thresholds.Advance <= 0 {
		c.Thresholds.Advance = 80
	}
	if c.Thresholds.WellDone <= 0 {
		c.Thresholds.WellDone = 75
	}
}
