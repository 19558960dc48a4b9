// Package server exposes the synth engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/cwbudde/algo-chord/internal/cache"
	"github.com/cwbudde/algo-chord/internal/logger"
	"github.com/cwbudde/algo-chord/preset"
	"github.com/cwbudde/algo-chord/synth"
)

// Request defaults when a field is omitted.
const (
	DefaultChord    = "Cmaj7"
	DefaultDuration = 2.0

	maxBodyBytes = 1 << 20
)

// Renderer is the part of *synth.Engine the server needs.
type Renderer interface {
	RenderChordSymbol(symbol, presetName string, duration float64) (*synth.Artifact, []string, error)
	RenderProgressionSymbols(symbols []string, presetName string, perChordDuration float64) (*synth.Artifact, []synth.ChordNotes, error)
	Presets() *preset.Registry
}

// Server routes chord and progression requests to a Renderer and serves the
// resulting WAV artifacts from an in-memory cache.
type Server struct {
	engine  Renderer
	cache   *cache.Cache
	origins []string
}

// New returns a server. An empty origin list allows every origin.
func New(engine Renderer, c *cache.Cache, allowedOrigins []string) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Server{engine: engine, cache: c, origins: allowedOrigins}
}

type chordRequest struct {
	Chord    *string  `json:"chord"`
	Preset   *string  `json:"preset"`
	Duration *float64 `json:"duration"`
}

type progressionRequest struct {
	Chords   []string `json:"chords"`
	Preset   *string  `json:"preset"`
	Duration *float64 `json:"duration"`
}

type chordResponse struct {
	Status   string   `json:"status"`
	Chord    string   `json:"chord"`
	Notes    []string `json:"notes"`
	AudioURL string   `json:"audio_url"`
}

type progressionResponse struct {
	Status   string             `json:"status"`
	Chords   []synth.ChordNotes `json:"chords"`
	AudioURL string             `json:"audio_url"`
}

type presetInfo struct {
	Name      string  `json:"name"`
	Shape     string  `json:"shape"`
	Attack    float64 `json:"attack"`
	Decay     float64 `json:"decay"`
	Sustain   float64 `json:"sustain"`
	Release   float64 `json:"release"`
	RoomMix   float64 `json:"room_mix,omitempty"`
	RoomDecay float64 `json:"room_decay,omitempty"`
}

type presetsResponse struct {
	Default string       `json:"default"`
	Presets []presetInfo `json:"presets"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the routed handler wrapped in CORS.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/api/chord", s.handleChord).Methods("POST")
	router.HandleFunc("/api/progression", s.handleProgression).Methods("POST")
	router.HandleFunc("/api/audio/{id}", s.handleAudio).Methods("GET")
	router.HandleFunc("/api/presets", s.handlePresets).Methods("GET")
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}

// ListenAndServe serves on addr until the listener fails. Requests taking
// longer than timeout get a 503.
func (s *Server) ListenAndServe(addr string, timeout time.Duration) error {
	h := s.Handler()
	if timeout > 0 {
		h = http.TimeoutHandler(h, timeout, `{"error":"request timed out"}`)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("listening on %s", addr)
	return srv.ListenAndServe()
}

func (s *Server) handleChord(w http.ResponseWriter, r *http.Request) {
	var req chordRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	symbol := DefaultChord
	if req.Chord != nil {
		symbol = strings.TrimSpace(*req.Chord)
	}
	presetName, duration := s.defaults(req.Preset, req.Duration)

	key := cache.Key([]string{symbol}, presetName, duration)
	if e, ok := s.cache.Lookup(key); ok && len(e.Notes) == 1 {
		logger.Debug("cache hit %s", key)
		writeJSON(w, http.StatusOK, chordResponse{
			Status:   "ok",
			Chord:    symbol,
			Notes:    e.Notes[0].Notes,
			AudioURL: audioURL(e.ID),
		})
		return
	}

	start := time.Now()
	art, notes, err := s.engine.RenderChordSymbol(symbol, presetName, duration)
	if err != nil {
		s.renderFailed(w, err)
		return
	}
	id := s.cache.Put(key, art, []synth.ChordNotes{{Symbol: symbol, Notes: notes}})
	logger.Info("rendered chord %q preset=%s duration=%.2fs in %v", symbol, presetName, duration, time.Since(start))

	writeJSON(w, http.StatusOK, chordResponse{
		Status:   "ok",
		Chord:    symbol,
		Notes:    notes,
		AudioURL: audioURL(id),
	})
}

func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	var req progressionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	symbols := make([]string, len(req.Chords))
	for i, c := range req.Chords {
		symbols[i] = strings.TrimSpace(c)
	}
	presetName, duration := s.defaults(req.Preset, req.Duration)

	key := cache.Key(symbols, presetName, duration)
	if e, ok := s.cache.Lookup(key); ok && len(e.Notes) == len(symbols) {
		logger.Debug("cache hit %s", key)
		writeJSON(w, http.StatusOK, progressionResponse{Status: "ok", Chords: e.Notes, AudioURL: audioURL(e.ID)})
		return
	}

	start := time.Now()
	art, notes, err := s.engine.RenderProgressionSymbols(symbols, presetName, duration)
	if err != nil {
		s.renderFailed(w, err)
		return
	}
	id := s.cache.Put(key, art, notes)
	logger.Info("rendered progression of %d chords preset=%s in %v", len(symbols), presetName, time.Since(start))

	writeJSON(w, http.StatusOK, progressionResponse{Status: "ok", Chords: notes, AudioURL: audioURL(id)})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	art, ok := s.cache.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", fmt.Sprint(len(art.WAV)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.WAV); err != nil {
		logger.Error("write audio %s: %v", id, err)
	}
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	reg := s.engine.Presets()
	all := reg.All()
	out := presetsResponse{Default: reg.Default().Name, Presets: make([]presetInfo, 0, len(all))}
	for _, p := range all {
		out.Presets = append(out.Presets, presetInfo{
			Name:    p.Name,
			Shape:   p.Shape.String(),
			Attack:  p.ADSR.Attack,
			Decay:   p.ADSR.Decay,
			Sustain: p.ADSR.Sustain,
			Release: p.ADSR.Release,
			RoomMix: p.RoomMix,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) defaults(presetName *string, duration *float64) (string, float64) {
	name := preset.DefaultName
	if presetName != nil && strings.TrimSpace(*presetName) != "" {
		name = strings.TrimSpace(*presetName)
	}
	d := DefaultDuration
	if duration != nil {
		d = *duration
	}
	return name, d
}

// renderFailed maps engine errors to a status: caller mistakes are 400,
// everything else is 500.
func (s *Server) renderFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, synth.ErrInvalidChordSymbol),
		errors.Is(err, synth.ErrInvalidDuration),
		errors.Is(err, synth.ErrEmptyProgression),
		errors.Is(err, synth.ErrProgressionTooLong):
		logger.Debug("rejected request: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("render failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decode reads a JSON body into dst. An empty body leaves dst untouched so
// every field takes its default.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func audioURL(id string) string {
	return "/api/audio/" + id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
