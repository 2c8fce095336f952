package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptodash/internal/config"
	"cryptodash/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Listen: %s:%d", cfg.Host, cfg.Port),
		fmt.Sprintf("Poller: every %s (timeout %s), top %d by %s in %s",
			cfg.Poller.Interval, cfg.Poller.Timeout, cfg.Poller.TopN, cfg.Poller.Order, strings.ToUpper(cfg.Poller.Currency)),
		fmt.Sprintf("Focus: default %s, %d exchanges", strings.ToUpper(cfg.Focus.Default), cfg.Focus.ExchangeLimit),
		fmt.Sprintf("Stream: buffer %d, ping %s", cfg.Stream.SendBuffer, cfg.Stream.PingInterval),
		sectionLine("Market config", cfg.Market),
	}
	if cfg.Market.Value != nil {
		lines = append(lines, fmt.Sprintf("Market providers: %d (default %s)",
			len(cfg.Market.Value.Providers), valueOr(cfg.Market.Value.Default, "<single>")))
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
