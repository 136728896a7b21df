// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesBuilderDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 20, cfg.ThreadCount)
	assert.Equal(t, 8*1024, cfg.MaxRequestHeadSize)
	assert.Equal(t, int64(1024*1024), cfg.MaxBodySize)
	assert.Equal(t, 16*1024, cfg.ReadBufferSize)
	assert.False(t, cfg.UseEpoll)
}

func TestLoadWithMissingYAMLFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "listen_addr: \":9090\"\nthread_count: 5\nuse_epoll: true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 5, cfg.ThreadCount)
	assert.True(t, cfg.UseEpoll)
	// fields the file didn't mention keep their defaults
	assert.Equal(t, 8*1024, cfg.MaxRequestHeadSize)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9090\"\n"), 0o644))

	t.Setenv("HTTPCORED_LISTEN_ADDR", ":7070")

	cfg, err := Load(path, "HTTPCORED")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: valid: yaml: :::"), 0o644))

	_, err := Load(path, "")
	assert.Error(t, err)
}
