package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/buildinfo"
	"github.com/matzehuels/trailmap/pkg/core/trail"
	"github.com/matzehuels/trailmap/pkg/errors"
	"github.com/matzehuels/trailmap/pkg/pipeline"
)

// layoutRequest is the body of POST /v1/layout and POST /v1/render.
// Config is merged over the default geometry, so partial objects work.
type layoutRequest struct {
	Width        *float64        `json:"width"` // nil means DefaultWidth
	Steps        []board.StepDoc `json:"steps"`
	MarkerImages []string        `json:"marker_images"`
	Config       json.RawMessage `json:"config"`
	Theme        string          `json:"theme"`
	Labels       bool            `json:"labels"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Get(),
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	req, opts, err := decodeLayoutRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	l, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), board.Steps{Steps: req.Steps}, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	s.writeLayout(w, r, l)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}

	req, opts, err := decodeLayoutRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}
	opts.Theme = req.Theme
	opts.Labels = req.Labels

	res, err := s.runner.ExecuteSteps(r.Context(), board.Steps{Steps: req.Steps}, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCacheHeader(w, res.CacheInfo.RenderHit)
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) handleCourseLayout(w http.ResponseWriter, r *http.Request) {
	if s.cfg.BackendURL == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no learning backend configured"))
		return
	}

	opts := pipeline.Options{
		BackendURL:   s.cfg.BackendURL,
		BackendToken: s.cfg.BackendToken,
		PageSize:     s.cfg.PageSize,
		Course:       chi.URLParam(r, "course"),
		Refresh:      r.URL.Query().Get("refresh") == "true",
	}
	if q := r.URL.Query(); q.Has("width") {
		raw := q.Get("width")
		width, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidArgument, "width must be a number, got %q", raw))
			return
		}
		if err := pipeline.ValidateWidth(width); err != nil {
			s.writeError(w, r, err)
			return
		}
		opts.Width = width
	}

	steps, partial, err := s.runner.LoadSteps(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), steps, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if partial {
		w.Header().Set("X-Trailmap-Partial", "true")
	}
	setCacheHeader(w, hit)
	s.writeLayout(w, r, l)
}

// decodeLayoutRequest reads the body, checks it against the steps schema
// and turns it into pipeline options.
func decodeLayoutRequest(w http.ResponseWriter, r *http.Request) (layoutRequest, pipeline.Options, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return layoutRequest{}, pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	if err := board.ValidateStepsJSON(data); err != nil {
		return layoutRequest{}, pipeline.Options{}, err
	}

	var req layoutRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return layoutRequest{}, pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode body")
	}

	cfg := trail.DefaultConfig()
	if len(req.Config) > 0 && string(req.Config) != "null" {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return layoutRequest{}, pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode config")
		}
	}

	width := pipeline.DefaultWidth
	if req.Width != nil {
		if err := pipeline.ValidateWidth(*req.Width); err != nil {
			return layoutRequest{}, pipeline.Options{}, err
		}
		width = *req.Width
	}

	return req, pipeline.Options{
		Width:        width,
		Layout:       cfg,
		MarkerImages: req.MarkerImages,
	}, nil
}

func (s *Server) writeLayout(w http.ResponseWriter, r *http.Request, l board.Layout) {
	data, err := board.MarshalLayout(l)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode layout"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
