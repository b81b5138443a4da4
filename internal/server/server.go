// Package server exposes the compiler over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/hanpama/gqlc/internal/compiler"
	"github.com/hanpama/gqlc/internal/ctxlog"
	eventbus "github.com/hanpama/gqlc/internal/eventbus"
	events "github.com/hanpama/gqlc/internal/events"
	"github.com/hanpama/gqlc/internal/ir"
	language "github.com/hanpama/gqlc/internal/language"
	reqid "github.com/hanpama/gqlc/internal/reqid"
	schema "github.com/hanpama/gqlc/internal/schema"
	"github.com/hanpama/gqlc/internal/transforms"
)

// Handler is an http.Handler that compiles GraphQL documents.
//
//	POST .../compile   compile the documents in the JSON body
//	GET  .../passes    list the available passes
type Handler struct {
	schema *schema.Schema
	opt    Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a compile handler. sch is used for requests that carry no
// schema of their own; it may be nil, in which case every request must.
func New(sch *schema.Schema, opts ...Option) (*Handler, error) {
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	if op.MaxBodyBytes < 0 {
		return nil, errors.New("max body bytes must not be negative")
	}
	return &Handler{schema: sch, opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.FromRequest(ctx, r)
	ctx = ctxlog.WithLogger(ctx, ctxlog.FromContext(ctx).With("request_id", rid))
	w.Header().Set(reqid.Header, reqid.Format(reqid.ResponseID(ctx)))
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	switch {
	case r.Method == http.MethodOptions:
		status = http.StatusNoContent
		w.WriteHeader(status)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/passes"):
		writeJSON(w, status, passesResponse{Passes: transforms.Names()}, h.opt.Pretty)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/compile"):
		var res compileResponse
		status, res = h.compile(ctx, r)
		writeJSON(w, status, res, h.opt.Pretty)
	default:
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse(errors.New("method not allowed")), h.opt.Pretty)
	}
}

func (h *Handler) compile(ctx context.Context, r *http.Request) (int, compileResponse) {
	req, err := parseRequest(r, h.opt.MaxBodyBytes)
	if err != nil {
		if err.Error() == errBodyTooLargeMessage {
			return http.StatusRequestEntityTooLarge, errorResponse(err)
		}
		return http.StatusBadRequest, errorResponse(err)
	}

	sch := h.schema
	if req.Schema != "" {
		sch, err = schema.BuildFromSources(&language.Source{Name: "schema.graphql", Input: req.Schema})
		if err != nil {
			return http.StatusUnprocessableEntity, errorResponse(err)
		}
	}
	if sch == nil {
		return http.StatusBadRequest, errorResponse(errors.New("missing 'schema'"))
	}

	passes := transforms.Default()
	if req.Passes != nil {
		if passes, err = transforms.Lookup(req.Passes...); err != nil {
			return http.StatusBadRequest, errorResponse(err)
		}
	}

	srcs := make([]ir.InMemorySource, len(req.Documents))
	for i, d := range req.Documents {
		srcs[i] = ir.InMemorySource{Name: d.Name, Content: d.Content}
	}
	res, err := compiler.Compile(ctx, sch, ir.NewInMemoryDiscovery(srcs), passes...)
	if err != nil {
		var passErr *compiler.PassError
		if errors.As(err, &passErr) {
			return http.StatusInternalServerError, errorResponse(err)
		}
		return http.StatusUnprocessableEntity, errorResponse(err)
	}
	return http.StatusOK, toCompileResponse(res)
}

// ------------------ Request parsing ------------------

type CompileRequest struct {
	Schema    string           `json:"schema,omitempty"`
	Documents []SourceDocument `json:"documents"`
	Passes    []string         `json:"passes"`
}

type SourceDocument struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

const errBodyTooLargeMessage = "body too large"

func parseRequest(r *http.Request, maxBody int64) (CompileRequest, error) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return CompileRequest{}, errors.New("unsupported Content-Type")
	}
	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return CompileRequest{}, errors.New("failed to read body")
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return CompileRequest{}, errors.New(errBodyTooLargeMessage)
	}

	var req CompileRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return CompileRequest{}, errors.New("invalid JSON")
	}
	if len(req.Documents) == 0 {
		return CompileRequest{}, errors.New("missing 'documents'")
	}
	for _, d := range req.Documents {
		if d.Name == "" {
			return CompileRequest{}, errors.New("every document needs a 'name'")
		}
	}
	return req, nil
}

// ------------------ Response formatting ------------------

type responseError struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

type compiledDocument struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Stripped []string `json:"strippedVariables,omitempty"`
}

type compileResponse struct {
	Output    string             `json:"output,omitempty"`
	Documents []compiledDocument `json:"documents,omitempty"`
	Errors    []responseError    `json:"errors,omitempty"`
}

type passesResponse struct {
	Passes []string `json:"passes"`
}

func toCompileResponse(res *compiler.Result) compileResponse {
	stripped := res.StrippedVariables()
	out := compileResponse{Output: res.Print()}
	for doc := range res.Output.All() {
		cd := compiledDocument{Name: doc.DocumentName(), Kind: "fragment"}
		if r, ok := doc.(*ir.Root); ok {
			cd.Kind = string(r.Operation)
			cd.Stripped = stripped[r.Name]
		}
		out.Documents = append(out.Documents, cd)
	}
	return out
}

func errorResponse(err error) compileResponse {
	var verr ir.ValidationError
	if errors.As(err, &verr) {
		out := compileResponse{Errors: make([]responseError, len(verr))}
		for i, v := range verr {
			out.Errors[i] = responseError{Message: v.Message, File: v.File, Line: v.Line, Column: v.Column}
		}
		return out
	}
	var gerr *language.Error
	if errors.As(err, &gerr) {
		re := responseError{Message: gerr.Message}
		re.File, _ = gerr.Extensions["file"].(string)
		if len(gerr.Locations) > 0 {
			re.Line, re.Column = gerr.Locations[0].Line, gerr.Locations[0].Column
		}
		return compileResponse{Errors: []responseError{re}}
	}
	return compileResponse{Errors: []responseError{{Message: err.Error()}}}
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	wildcard := slices.Contains(opts.AllowedOrigins, "*")
	if !wildcard && !slices.Contains(opts.AllowedOrigins, origin) {
		return
	}
	if wildcard {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}
