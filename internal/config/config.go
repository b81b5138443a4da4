// Package config loads the gqlc.hcl project file.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hanpama/gqlc/internal/ctxlog"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// FileName is the config file looked up in the working directory.
const FileName = "gqlc.hcl"

// Config is a resolved project configuration. Paths are relative to the
// directory holding the config file, or to the working directory when the
// defaults are used.
type Config struct {
	Schema    []string
	Documents []string
	Output    string
	Passes    []string
	Log       Log
	Server    Server
	Otel      Otel

	// ExplicitSchema is set when Schema was named rather than defaulted.
	ExplicitSchema bool
}

type Log struct {
	Level  slog.Level
	Format string
}

type Server struct {
	Addr         string
	Timeout      time.Duration
	Pretty       bool
	CORS         []string
	MaxBodyBytes int64
}

type Otel struct {
	Endpoint string
	Service  string
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Schema:    []string{"schema.graphql"},
		Documents: []string{"."},
		Log:       Log{Level: slog.LevelInfo, Format: "text"},
		Server:    Server{Addr: ":8080", Timeout: 10 * time.Second, MaxBodyBytes: 1 << 20},
		Otel:      Otel{Service: "gqlc"},
	}
}

type fileConfig struct {
	Schema    []string     `hcl:"schema,optional"`
	Documents []string     `hcl:"documents,optional"`
	Output    *string      `hcl:"output,optional"`
	Passes    []string     `hcl:"passes,optional"`
	Log       *logBlock    `hcl:"log,block"`
	Server    *serverBlock `hcl:"server,block"`
	Otel      *otelBlock   `hcl:"otel,block"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type serverBlock struct {
	Addr         *string  `hcl:"addr,optional"`
	Timeout      *string  `hcl:"timeout,optional"`
	Pretty       *bool    `hcl:"pretty,optional"`
	CORS         []string `hcl:"cors,optional"`
	MaxBodyBytes *int64   `hcl:"max_body_bytes,optional"`
}

type otelBlock struct {
	Endpoint *string `hcl:"endpoint,optional"`
	Service  *string `hcl:"service,optional"`
}

// Load reads the config file at path. Expressions may reference the process
// environment as env.NAME.
func Load(ctx context.Context, path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(ctx, path, src, environ())
}

// Parse decodes src as a config file named filename, evaluating env.NAME
// references against env.
func Parse(ctx context.Context, filename string, src []byte, env map[string]string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding config file.", "path", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %s", filename, diags.Error())
	}
	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, evalContext(env), &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %s", filename, diags.Error())
	}

	cfg, err := fc.resolve(filepath.Dir(filename))
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", filename, err)
	}
	logger.Debug("Decoded config file.", "path", filename, "schema", len(cfg.Schema), "documents", len(cfg.Documents))
	return cfg, nil
}

func evalContext(env map[string]string) *hcl.EvalContext {
	vals := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vals[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vals)},
	}
}

func environ() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k != "" {
			env[k] = v
		}
	}
	return env
}

func (fc *fileConfig) resolve(dir string) (*Config, error) {
	cfg := Default()
	if fc.Schema != nil {
		cfg.Schema = fc.Schema
		cfg.ExplicitSchema = true
	}
	if fc.Documents != nil {
		cfg.Documents = fc.Documents
	}
	cfg.Schema = relativeTo(dir, cfg.Schema)
	cfg.Documents = relativeTo(dir, cfg.Documents)
	if fc.Output != nil && *fc.Output != "" {
		cfg.Output = relativeTo(dir, []string{*fc.Output})[0]
	}
	cfg.Passes = fc.Passes

	if b := fc.Log; b != nil {
		if b.Level != nil {
			lvl, err := ParseLevel(*b.Level)
			if err != nil {
				return nil, err
			}
			cfg.Log.Level = lvl
		}
		if b.Format != nil {
			if err := checkFormat(*b.Format); err != nil {
				return nil, err
			}
			cfg.Log.Format = *b.Format
		}
	}
	if b := fc.Server; b != nil {
		if b.Addr != nil {
			cfg.Server.Addr = *b.Addr
		}
		if b.Timeout != nil {
			d, err := time.ParseDuration(*b.Timeout)
			if err != nil {
				return nil, fmt.Errorf("server.timeout: %w", err)
			}
			cfg.Server.Timeout = d
		}
		if b.Pretty != nil {
			cfg.Server.Pretty = *b.Pretty
		}
		cfg.Server.CORS = b.CORS
		if b.MaxBodyBytes != nil {
			if *b.MaxBodyBytes < 0 {
				return nil, fmt.Errorf("server.max_body_bytes must not be negative")
			}
			cfg.Server.MaxBodyBytes = *b.MaxBodyBytes
		}
	}
	if b := fc.Otel; b != nil {
		if b.Endpoint != nil {
			cfg.Otel.Endpoint = *b.Endpoint
		}
		if b.Service != nil {
			cfg.Otel.Service = *b.Service
		}
	}
	return cfg, nil
}

func relativeTo(dir string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) || dir == "" || dir == "." {
			out[i] = p
			continue
		}
		out[i] = filepath.Join(dir, p)
	}
	return out
}

// ParseLevel accepts the slog level names (debug, info, warn, error) in any
// case.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

func checkFormat(s string) error {
	switch s {
	case "text", "json":
		return nil
	}
	return fmt.Errorf("log.format: want \"text\" or \"json\", got %q", s)
}

// NewLogger builds the logger described by l, writing to w.
func (l Log) NewLogger(w io.Writer) (*slog.Logger, error) {
	if err := checkFormat(l.Format); err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: l.Level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
