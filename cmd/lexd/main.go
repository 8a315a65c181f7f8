// Command lexd is a small dev server: a client connects over websocket,
// submits lex source text, and gets back the parsed document (plus any
// diagnostics) as JSON, re-parsed and re-pushed every time it submits an
// edit.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/lexlang/lex/core/lex"
	"github.com/lexlang/lex/internal/config"
	"github.com/lexlang/lex/internal/logging"
	"github.com/lexlang/lex/internal/store"
	"github.com/lexlang/lex/internal/web"
)

// CLI is lexd's entire flag surface: it's a single long-running server,
// not a multi-command tool, so there's no command group to nest these
// under (the teacher's own web/API servers take their flags the same
// way — named, with defaults — just as subcommands of a larger CLI
// rather than flags of their own standalone binary).
var CLI struct {
	Port       int    `help:"TCP port to listen on." default:"4417"`
	ConfigPath string `name:"config" help:"Path to .lexrc.yaml." type:"path"`
}

type parseRequest struct {
	Transform string `json:"transform"` // "ast-json" or "ir-json"
	Source    string `json:"source"`
}

type diagnosticMsg struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Span    lex.Span `json:"span"`
}

type parseResponse struct {
	RunID       string          `json:"run_id"`
	Transform   string          `json:"transform"`
	Diagnostics []diagnosticMsg `json:"diagnostics,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("lexd"),
		kong.Description("Dev server: submit lex source over websocket, get back the parsed document."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(CLI.ConfigPath)
	if err != nil {
		logging.Error("failed to load config", "error", err)
		return
	}

	cache, err := store.Open(cfg.CacheDir)
	if err != nil {
		logging.Error("failed to open parse cache", "error", err)
		return
	}
	defer cache.Close()

	hub := web.NewHub()
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok, %d clients\n", hub.Count())
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		if err := hub.Upgrade(w, r, id, handleParseMessage(cache, cfg)); err != nil {
			logging.Error("websocket upgrade failed", "error", err)
		}
	})
	mux.HandleFunc("/cache/clear", func(w http.ResponseWriter, r *http.Request) {
		if err := cache.Clear(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hub.Broadcast(mustMarshal(parseResponse{RunID: uuid.NewString(), Transform: "cache-cleared"}))
		fmt.Fprintln(w, "ok")
	})

	addr := fmt.Sprintf(":%d", CLI.Port)
	logging.Info("lexd listening", "addr", addr)
	if err := http.ListenAndServe(addr, logging.CombinedMiddleware(mux)); err != nil {
		logging.Error("server stopped", "error", err)
	}
}

// handleParseMessage builds the per-connection message handler passed to
// web.Hub.Upgrade: parse the submitted source, cache the result (full
// parses only; ir-json's pre-inline tree isn't cached, it's cheap to
// redo), and reply with a JSON envelope on the same connection.
func handleParseMessage(cache *store.Store, cfg config.Config) func([]byte) []byte {
	indentOpt := lex.WithIndentConfig(lex.IndentConfig{StepWidth: cfg.IndentStep, TabWidth: cfg.TabWidth})

	return func(raw []byte) []byte {
		runID := uuid.NewString()

		var req parseRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return mustMarshal(parseResponse{RunID: runID, Error: fmt.Sprintf("malformed request: %v", err)})
		}
		if req.Transform == "" {
			req.Transform = cfg.DefaultTransform
		}

		src := []byte(req.Source)
		skipInline := req.Transform == "ir-json"

		var doc *lex.Document
		var diags []lex.Diagnostic
		key := store.Key(src, cfg.IndentStep, cfg.TabWidth)

		if !skipInline {
			if cached, hit, err := cache.Get(key); err == nil && hit {
				doc = cached
			}
		}

		if doc == nil {
			d, dg, err := lex.Parse(src, indentOpt, lex.WithSkipInline(skipInline))
			if err != nil {
				return mustMarshal(parseResponse{RunID: runID, Transform: req.Transform, Error: err.Error()})
			}
			doc, diags = d, dg
			if !skipInline {
				if err := cache.Put(key, doc); err != nil {
					logging.Warn("failed to cache parse result", "run_id", runID, "error", err)
				}
			}
		}

		data, err := lex.MarshalDocumentJSON(doc)
		if err != nil {
			return mustMarshal(parseResponse{RunID: runID, Transform: req.Transform, Error: err.Error()})
		}

		return mustMarshal(parseResponse{
			RunID:       runID,
			Transform:   req.Transform,
			Diagnostics: toDiagnosticMsgs(diags),
			Result:      data,
		})
	}
}

func toDiagnosticMsgs(diags []lex.Diagnostic) []diagnosticMsg {
	if len(diags) == 0 {
		return nil
	}
	out := make([]diagnosticMsg, 0, len(diags))
	for _, d := range diags {
		out = append(out, diagnosticMsg{Kind: d.Kind.String(), Message: d.Message, Span: d.Primary})
	}
	return out
}

func mustMarshal(v parseResponse) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"error":"internal: failed to encode response"}`)
	}
	return data
}
