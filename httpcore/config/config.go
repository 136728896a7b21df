// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Layered configuration loading (SPEC_FULL.md §A.3): a YAML file
// (gopkg.in/yaml.v3) supplies defaults-on-top-of-defaults, environment
// variables (github.com/kelseyhightower/envconfig) override the file,
// and cmd/httpcored's own flags (github.com/spf13/pflag) override the
// environment. This package only owns the first two layers; flags are
// applied by the caller since pflag.FlagSet construction is inherently
// call-site-specific.

package config

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config mirrors the Builder options spec.md §6 exposes programmatically.
type Config struct {
	ListenAddr         string `yaml:"listen_addr" envconfig:"LISTEN_ADDR"`
	ThreadCount        int    `yaml:"thread_count" envconfig:"THREAD_COUNT"`
	MaxRequestHeadSize int    `yaml:"max_request_head_size" envconfig:"MAX_REQUEST_HEAD_SIZE"`
	MaxBodySize        int64  `yaml:"max_body_size" envconfig:"MAX_BODY_SIZE"`
	ReadBufferSize     int    `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	UseEpoll           bool   `yaml:"use_epoll" envconfig:"USE_EPOLL"`
	MetricsAddr        string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
}

// Default returns the same defaults Builder.NewBuilder applies, so a
// config file only needs to mention the fields it overrides.
func Default() Config {
	return Config{
		ListenAddr:         ":8080",
		ThreadCount:        20,
		MaxRequestHeadSize: 8 * 1024,
		MaxBodySize:        1024 * 1024,
		ReadBufferSize:     16 * 1024,
		UseEpoll:           false,
		MetricsAddr:        "",
	}
}

// Load builds a Config starting from Default(), applying yamlPath's
// contents if non-empty and the file exists, then applying environment
// variables prefixed with envPrefix (e.g. "HTTPCORED" reads
// HTTPCORED_LISTEN_ADDR). Either layer may be skipped by passing "".
func Load(yamlPath, envPrefix string) (Config, error) {
	cfg := Default()

	if yamlPath != "" {
		if err := loadYAML(yamlPath, &cfg); err != nil {
			return Config{}, err
		}
	}
	if envPrefix != "" {
		if err := envconfig.Process(envPrefix, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
