package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/micahrl/graphsync/internal/graph"
	"github.com/micahrl/graphsync/internal/reconcile"
)

const (
	defaultConfigPath = "graphsync.toml"
	envClientSecret   = "GRAPHSYNC_CLIENT_SECRET"
)

type config struct {
	Path              string   `toml:"path"`
	TenantID          string   `toml:"tenant-id"`
	ClientID          string   `toml:"client-id"`
	GraphURL          string   `toml:"graph-url"`
	Report            bool     `toml:"report"`
	UpdateAssignments bool     `toml:"update-assignments"`
	CreateGroups      bool     `toml:"create-groups"`
	FailFast          bool     `toml:"fail-fast"`
	Types             []string `toml:"types"`
	ReportFile        string   `toml:"report-file"`
	LogLevel          string   `toml:"log-level"`

	HTTP httpConfig `toml:"http"`
}

type httpConfig struct {
	RetryMax     int           `toml:"retry-max"`
	RetryWaitMin time.Duration `toml:"retry-wait-min"`
	RetryWaitMax time.Duration `toml:"retry-wait-max"`
	Timeout      time.Duration `toml:"timeout"`
}

func loadConfig(path string) (config, error) {
	cfg := config{GraphURL: graph.DefaultBaseURL, LogLevel: "info"}
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return cfg, nil // No config file, use defaults/flags
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return cfg, nil
}

// registerFlags declares the flags that override config file keys.
func registerFlags(fs *pflag.FlagSet) {
	fs.String("path", "", "configuration repository root")
	fs.String("tenant-id", "", "directory tenant ID")
	fs.String("client-id", "", "application (client) ID")
	fs.String("graph-url", "", "service base URL")
	fs.Bool("report", false, "report differences without changing anything")
	fs.Bool("update-assignments", false, "reconcile assignments of existing objects")
	fs.Bool("create-groups", false, "create missing groups referenced by assignments")
	fs.Bool("fail-fast", false, "stop at the first failed remote request")
	fs.StringSlice("types", nil, "object types to reconcile (default all)")
	fs.String("report-file", "", "write a JSON report to this path")
	fs.String("log-level", "", "log level (trace, debug, info, warn, error, off)")
}

// applyFlags overrides cfg with every flag the user set explicitly.
func applyFlags(fs *pflag.FlagSet, cfg *config) error {
	strs := map[string]*string{
		"path":        &cfg.Path,
		"tenant-id":   &cfg.TenantID,
		"client-id":   &cfg.ClientID,
		"graph-url":   &cfg.GraphURL,
		"report-file": &cfg.ReportFile,
		"log-level":   &cfg.LogLevel,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	bools := map[string]*bool{
		"report":             &cfg.Report,
		"update-assignments": &cfg.UpdateAssignments,
		"create-groups":      &cfg.CreateGroups,
		"fail-fast":          &cfg.FailFast,
	}
	for name, dst := range bools {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if fs.Changed("types") {
		v, err := fs.GetStringSlice("types")
		if err != nil {
			return err
		}
		cfg.Types = v
	}
	return nil
}

func (c config) validate(secret string) error {
	if c.Path == "" {
		return fmt.Errorf("path is required (set in config file or via --path)")
	}
	if secret != "" {
		if c.TenantID == "" {
			return fmt.Errorf("tenant-id is required with %s (set in config file or via --tenant-id)", envClientSecret)
		}
		if c.ClientID == "" {
			return fmt.Errorf("client-id is required with %s (set in config file or via --client-id)", envClientSecret)
		}
	}
	return nil
}

func (c config) graphConfig() graph.Config {
	return graph.Config{
		BaseURL:      c.GraphURL,
		RetryMax:     c.HTTP.RetryMax,
		RetryWaitMin: c.HTTP.RetryWaitMin,
		RetryWaitMax: c.HTTP.RetryWaitMax,
		Timeout:      c.HTTP.Timeout,
	}
}

func (c config) options() reconcile.Options {
	return reconcile.Options{
		Report:       c.Report,
		Assignments:  c.UpdateAssignments,
		CreateGroups: c.CreateGroups,
		FailFast:     c.FailFast,
	}
}
