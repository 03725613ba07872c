package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-qmarimo/internal/quarto"
)

// Response bodies fixed by the Quarto filter protocol.
const (
	msgNoCode = "No code provided"
	msgNoApp  = "No app provided"
	msgNoKey  = "error: No key provided"
)

type runRequest struct {
	App  string  `json:"app"`
	Key  string  `json:"key"`
	Code *string `json:"code"`
}

type lookupRequest struct {
	App           string `json:"app"`
	Key           string `json:"key"`
	MimeSensitive bool   `json:"mime_sensitive"`
}

type appRequest struct {
	App     string          `json:"app"`
	Options json.RawMessage `json:"options"`
}

// handleRun stores a cell under a caller-chosen key. The cell runs on the
// next /execute for its app.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appID, key := strings.TrimSpace(req.App), strings.TrimSpace(req.Key)
	if appID == "" {
		writeError(w, http.StatusBadRequest, msgNoApp)
		return
	}
	if req.Code == nil || key == "" {
		writeError(w, http.StatusBadRequest, msgNoCode)
		return
	}

	opts, code, err := quarto.ExtractOptions(*req.Code)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a := s.store.appFor(appID)
	s.store.put(key, entry{appID: appID, app: a, stub: a.gen.AddCode(code), opts: opts})
	w.WriteHeader(http.StatusOK)
}

// handleLookup renders a stored cell and forgets its key.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := s.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, quarto.Fragment{Type: quarto.TypeHTML, Value: msgNoKey})
		return
	}

	e, ok := s.store.take(strings.TrimSpace(req.Key))
	if !ok {
		writeJSON(w, http.StatusBadRequest, quarto.Fragment{Type: quarto.TypeHTML, Value: msgNoKey})
		return
	}

	frag := quarto.Render(e.app.globalOptions(), e.stub, e.opts, req.MimeSensitive, s.warn)
	writeJSON(w, http.StatusOK, frag)
}

// handleExecute builds every pending cell of an app. Concurrent requests
// for the same app share one build.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req appRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appID := strings.TrimSpace(req.App)
	a, ok := s.store.app(appID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown app: "+appID)
		return
	}

	opts, err := parseOptions(req.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts != nil {
		a.setOptions(opts)
	}

	// The build outlives a canceled request so that callers sharing it
	// still get a result.
	ctx := context.WithoutCancel(r.Context())
	_, err, shared := s.builds.Do(appID, func() (any, error) {
		return nil, a.gen.Build(ctx)
	})
	if err != nil {
		s.log.Error("build failed", zap.String("app", appID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Debug("build done", zap.String("app", appID), zap.Bool("shared", shared))
	w.WriteHeader(http.StatusOK)
}

// handleAssets returns the page head for an app and removes the app.
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	var req appRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appID := strings.TrimSpace(req.App)
	a, ok := s.store.flush(appID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown app: "+appID)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(a.gen.RenderHead(s.cfg.Head)))
}

// handleFlush removes an app without rendering anything.
func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	var req appRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.store.flush(strings.TrimSpace(req.App))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// parseOptions decodes /execute options. A missing value, null or a JSON
// array means no options.
func parseOptions(raw json.RawMessage) (quarto.Options, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || raw[0] == '[' {
		return nil, nil
	}
	var opts quarto.Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}
