package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hanpama/gqlc/internal/compiler"
	"github.com/hanpama/gqlc/internal/config"
	"github.com/hanpama/gqlc/internal/ctxlog"
	"github.com/hanpama/gqlc/internal/eventbus"
	"github.com/hanpama/gqlc/internal/ir"
	"github.com/hanpama/gqlc/internal/otel"
	"github.com/hanpama/gqlc/internal/report"
	"github.com/hanpama/gqlc/internal/schema"
	"github.com/hanpama/gqlc/internal/server"
	"github.com/hanpama/gqlc/internal/transforms"
)

const rootUsage = `gqlc — GraphQL document compiler

USAGE:
  gqlc <command> [flags]

COMMANDS:
  compile          Build documents against a schema and run the compiler passes
  serve            Run the compiler as an HTTP service
  passes           List the available passes
  help             Show help for any command

Settings are read from gqlc.hcl in the working directory when present;
flags override them.
`

const commonUsage = `  -config <file>                      Config file (default: gqlc.hcl if present)
  -schema <file>                      Schema SDL file. Repeatable
  -log.level <level>                  debug, info, warn or error (default: info)
  -log.format <format>                text or json (default: text)
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: gqlc)
`

const compileUsage = `compile FLAGS:
  -documents <path>                   Document file or directory. Repeatable
  -pass <name>                        Pass to run, in order. Repeatable
                                      (default: strip-unused-variables)
  -out <file>                         Write compiled documents to file (default: stdout)
  -diff                               Print a diff per document instead of the output
` + commonUsage

const serveUsage = `serve FLAGS:
  -server.addr <addr>                 HTTP listen address (default: :8080)
  -server.pretty                      Pretty-print JSON responses
  -server.timeout <duration>          Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body-bytes <n>          Request body limit (default: 1048576)
  -server.cors <origin>               Allowed CORS origin. Repeatable
` + commonUsage + `  (-schema is optional; requests may carry their own schema)
`

const passesUsage = `passes:
  Lists the registered passes, one per line.
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("gqlc", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "compile":
		return cmdCompile(cmdArgs, stdout, stderr)
	case "serve":
		return cmdServe(cmdArgs, stderr)
	case "passes":
		for _, n := range transforms.Names() {
			fmt.Fprintln(stdout, n)
		}
		return nil
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "compile":
		fmt.Fprint(stdout, compileUsage)
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "passes":
		fmt.Fprint(stdout, passesUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// commonFlags are shared by compile and serve. Empty values leave the
// config file setting in place.
type commonFlags struct {
	configPath   string
	schema       stringListFlag
	logLevel     string
	logFormat    string
	otelEndpoint string
	otelService  string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Config file")
	fs.Var(&c.schema, "schema", "Schema SDL file")
	fs.StringVar(&c.logLevel, "log.level", "", "Log level")
	fs.StringVar(&c.logFormat, "log.format", "", "Log format")
	fs.StringVar(&c.otelEndpoint, "otel.endpoint", "", "OTLP collector endpoint")
	fs.StringVar(&c.otelService, "otel.service", "", "OpenTelemetry service name")
}

// load reads the config file and applies the flags on top of it.
func (c *commonFlags) load() (*config.Config, error) {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	if len(c.schema) > 0 {
		cfg.Schema = c.schema
		cfg.ExplicitSchema = true
	}
	if c.logLevel != "" {
		lvl, err := config.ParseLevel(c.logLevel)
		if err != nil {
			return nil, err
		}
		cfg.Log.Level = lvl
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	if c.otelEndpoint != "" {
		cfg.Otel.Endpoint = c.otelEndpoint
	}
	if c.otelService != "" {
		cfg.Otel.Service = c.otelService
	}
	return cfg, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(context.Background(), path)
	}
	cfg, err := config.Load(context.Background(), config.FileName)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// setup builds the logger and telemetry shared by every command.
func setup(cfg *config.Config, stderr io.Writer) (context.Context, func(), error) {
	logger, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return nil, nil, err
	}
	ctx := ctxlog.WithLogger(context.Background(), logger)

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(ctx, cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return nil, nil, fmt.Errorf("otel setup: %w", err)
	}
	return ctx, func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("otel shutdown failed", "error", err)
		}
	}, nil
}

func cmdCompile(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	var documents, passNames stringListFlag
	outFile := ""
	showDiff := false

	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	common.register(fs)
	fs.Var(&documents, "documents", "Document file or directory")
	fs.Var(&passNames, "pass", "Pass to run")
	fs.StringVar(&outFile, "out", outFile, "Write compiled documents to file")
	fs.BoolVar(&showDiff, "diff", showDiff, "Print a diff per document")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, compileUsage)
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if len(documents) > 0 {
		cfg.Documents = documents
	}
	if len(passNames) > 0 {
		cfg.Passes = passNames
	}
	if outFile != "" {
		cfg.Output = outFile
	}

	passes := transforms.Default()
	if len(cfg.Passes) > 0 {
		if passes, err = transforms.Lookup(cfg.Passes...); err != nil {
			return err
		}
	}

	ctx, shutdown, err := setup(cfg, stderr)
	if err != nil {
		return err
	}
	defer shutdown()

	rep := report.New(stderr)
	sch, err := schema.Load(cfg.Schema...)
	if err != nil {
		rep.Error(err)
		return fmt.Errorf("load schema: %w", err)
	}
	disc, err := ir.NewFileSystemDiscovery(ctx, cfg.Documents...)
	if err != nil {
		return fmt.Errorf("discover documents: %w", err)
	}
	if err := disc.Exclude(cfg.Schema...); err != nil {
		return fmt.Errorf("discover documents: %w", err)
	}
	res, err := compiler.Compile(ctx, sch, disc, passes...)
	if err != nil {
		rep.Error(err)
		return fmt.Errorf("compile failed")
	}

	if showDiff {
		out := report.New(stdout)
		for doc := range res.Input.All() {
			after, err := res.Output.Get(doc.DocumentName())
			if err != nil {
				continue
			}
			out.Diff(doc.DocumentName(), ir.Print(doc), ir.Print(after))
		}
		return nil
	}

	rep.Stripped(res.StrippedVariables())
	printed := res.Print()
	if cfg.Output == "" {
		fmt.Fprint(stdout, printed)
		return nil
	}
	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(cfg.Output, []byte(printed), 0644)
}

func cmdServe(args []string, stderr io.Writer) error {
	var common commonFlags
	var cors stringListFlag
	addr := ""
	pretty := false
	timeout := time.Duration(0)
	maxBody := int64(-1)

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	common.register(fs)
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Int64Var(&maxBody, "server.max-body-bytes", maxBody, "Request body limit")
	fs.Var(&cors, "server.cors", "Allowed CORS origin")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if pretty {
		cfg.Server.Pretty = true
	}
	if timeout > 0 {
		cfg.Server.Timeout = timeout
	}
	if maxBody >= 0 {
		cfg.Server.MaxBodyBytes = maxBody
	}
	if len(cors) > 0 {
		cfg.Server.CORS = cors
	}

	ctx, shutdown, err := setup(cfg, stderr)
	if err != nil {
		return err
	}
	defer shutdown()
	logger := ctxlog.FromContext(ctx)

	sch, err := serviceSchema(cfg)
	if err != nil {
		return err
	}

	h, err := newHandler(sch, cfg.Server)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}
	srv := &http.Server{
		Addr:     cfg.Server.Addr,
		Handler:  h,
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("compiler service listening", "addr", cfg.Server.Addr, "schema", sch != nil)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// serviceSchema loads the schema the service falls back to. A schema named
// by a flag or the config file must load; the default schema.graphql is
// used only when it exists.
func serviceSchema(cfg *config.Config) (*schema.Schema, error) {
	if !cfg.ExplicitSchema {
		for _, p := range cfg.Schema {
			if _, err := os.Stat(p); err != nil {
				return nil, nil
			}
		}
		if len(cfg.Schema) == 0 {
			return nil, nil
		}
	}
	sch, err := schema.Load(cfg.Schema...)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return sch, nil
}

// newHandler mounts the compile handler on its routes.
func newHandler(sch *schema.Schema, opts config.Server) (http.Handler, error) {
	sopts := []server.Option{server.WithMaxBodyBytes(opts.MaxBodyBytes)}
	if opts.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if opts.Timeout > 0 {
		sopts = append(sopts, server.WithTimeout(opts.Timeout))
	}
	if len(opts.CORS) > 0 {
		sopts = append(sopts, server.WithCORS(opts.CORS...))
	}
	h, err := server.New(sch, sopts...)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/compile", h)
	mux.Handle("/passes", h)
	return mux, nil
}
