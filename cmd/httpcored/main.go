// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Demo binary: wires httpcore/config's layered loading, a handful of
// routes matching spec.md §8's end-to-end scenarios, and either
// scheduler, per SPEC_FULL.md §D.4.

package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/flinthttp/flint/httpcore/config"
	"github.com/flinthttp/flint/httpcore/metrics"
	"github.com/flinthttp/flint/httpcore/server"
	"github.com/flinthttp/flint/httpcore/wire"
)

func main() {
	var yamlPath, envPrefix string
	var listenAddr string
	var useEpoll bool
	var metricsAddr string

	pflag.StringVar(&yamlPath, "config", "", "path to a YAML config file")
	pflag.StringVar(&envPrefix, "env-prefix", "HTTPCORED", "environment variable prefix")
	pflag.StringVar(&listenAddr, "listen", "", "override the listen address")
	pflag.BoolVar(&useEpoll, "epoll", false, "use the Linux readiness-driven scheduler instead of thread-per-connection")
	pflag.StringVar(&metricsAddr, "metrics-listen", "", "override the Prometheus metrics listen address")
	pflag.Parse()

	cfg, err := config.Load(yamlPath, envPrefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, "httpcored: config:", err)
		os.Exit(1)
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if useEpoll {
		cfg.UseEpoll = true
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	logger := hclog.New(&hclog.LoggerOptions{Name: "httpcored", Level: hclog.Info})
	collector := metrics.New(prometheus.DefaultRegisterer)

	b := server.NewBuilder().
		ThreadCount(cfg.ThreadCount).
		MaxRequestHeadSize(cfg.MaxRequestHeadSize).
		MaxBodySize(cfg.MaxBodySize).
		ReadBufferSize(cfg.ReadBufferSize).
		Logger(logger).
		ConnectionSetupHook(collector.SetupHook).
		TeardownHook(collector.TeardownHook).
		Route("GET", "/hello", helloHandler).
		Route("POST", "/echo/upper", echoUpperHandler).
		Route("GET", "/users/:id", userHandler).
		Route("GET", "/files/**", filesHandler).
		FallbackRoute(fallbackHandler)

	srv := b.Build()
	defer srv.Close()

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	ln, err := server.Listen(cfg.ListenAddr)
	if err != nil {
		logger.Error("listen failed", "addr", cfg.ListenAddr, "error", err)
		os.Exit(1)
	}
	logger.Info("listening", "addr", cfg.ListenAddr, "epoll", cfg.UseEpoll)

	if cfg.UseEpoll {
		err = srv.ServeEpoll(ln)
	} else {
		err = srv.Serve(ln)
	}
	if err != nil {
		logger.Error("serve exited", "error", err)
		os.Exit(1)
	}
}

func helloHandler(_ *server.RequestContext, res *server.ResponseHandle) error {
	return res.Ok(wire.Empty(), strReader("hello"))
}

func echoUpperHandler(ctx *server.RequestContext, res *server.ResponseHandle) error {
	raw, err := io.ReadAll(ctx.Body())
	if err != nil {
		return res.Send0(wire.ServerError, wire.Close())
	}
	for i, c := range raw {
		if c >= 'a' && c <= 'z' {
			raw[i] = c - 'a' + 'A'
		}
	}
	return res.SendSized(wire.OK, wire.Empty(), bytesReader(raw), int64(len(raw)))
}

func userHandler(ctx *server.RequestContext, res *server.ResponseHandle) error {
	id, _ := ctx.Params.Get("id")
	return res.Ok(wire.Empty(), bytesReader(id))
}

func filesHandler(ctx *server.RequestContext, res *server.ResponseHandle) error {
	rest, _ := ctx.Params.Get("*")
	return res.Ok(wire.Empty(), bytesReader(rest))
}

func fallbackHandler(_ *server.RequestContext, res *server.ResponseHandle) error {
	return res.Send0(wire.NotFound, wire.Empty())
}

func strReader(s string) io.Reader { return bytes.NewReader([]byte(s)) }

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }
