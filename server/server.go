// Package server exposes an exercise over HTTP so a browser front end can
// drive it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/jsphweid/sightread/exercise"
	"github.com/jsphweid/sightread/model"
	"github.com/jsphweid/sightread/theory"
)

const maxBodyBytes = 1 << 16

type EventResponse struct {
	Result   exercise.Result   `json:"result"`
	Snapshot exercise.Snapshot `json:"snapshot"`
}

type Server struct {
	ex     *exercise.Exercise
	logger *slog.Logger
	router *mux.Router
}

func New(ex *exercise.Exercise, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{ex: ex, logger: logger}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/keys", s.handleKeys).Methods(http.MethodGet)
	router.HandleFunc("/keys/{key}", s.handleKey).Methods(http.MethodGet)
	router.HandleFunc("/session", s.handleSession).Methods(http.MethodGet)
	router.HandleFunc("/session", s.handleStart).Methods(http.MethodPost)
	router.HandleFunc("/session", s.handleStop).Methods(http.MethodDelete)
	router.HandleFunc("/session/events", s.handleEvent).Methods(http.MethodPost)
	router.HandleFunc("/latency", s.handleLatency).Methods(http.MethodGet)
	router.HandleFunc("/latency", s.handleUpdateLatency).Methods(http.MethodPut)
	router.HandleFunc("/latency/reset", s.handleResetLatency).Methods(http.MethodPost)
	s.router = router
	return s
}

// Handler is the router wrapped with CORS for browser clients.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	res := make([]model.KeySignatureInfo, 0, len(theory.Keys))
	for _, key := range theory.Keys {
		info, err := theory.KeySignatureInfo(key)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		res = append(res, info)
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	key := model.KeySignature(mux.Vars(r)["key"])
	info, err := theory.KeySignatureInfo(key)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ex.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var input model.StartRequestBody
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := s.ex.Start(input.Key, input.Range)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.ex.Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.NoteEvent
	if err := decodeBody(r, &ev); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if ev.Type != model.NoteOn && ev.Type != model.NoteOff {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown event type %q", ev.Type))
		return
	}
	if ev.Pitch < 0 || ev.Pitch > 127 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("pitch %d out of MIDI range", ev.Pitch))
		return
	}

	res, err := s.ex.HandleEvent(ev)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, EventResponse{Result: res, Snapshot: res.Snapshot})
}

func (s *Server) handleLatency(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ex.Latency().Config())
}

func (s *Server) handleUpdateLatency(w http.ResponseWriter, r *http.Request) {
	var input model.LatencyRequestBody
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	comp := s.ex.Latency()
	comp.Update(func(cfg *model.LatencyConfig) {
		if input.Enabled != nil {
			cfg.Enabled = *input.Enabled
		}
		if input.OffsetMs != nil {
			cfg.OffsetMs = *input.OffsetMs
		}
	})
	s.writeJSON(w, http.StatusOK, comp.Config())
}

func (s *Server) handleResetLatency(w http.ResponseWriter, r *http.Request) {
	comp := s.ex.Latency()
	comp.Reset()
	s.writeJSON(w, http.StatusOK, comp.Config())
}

func decodeBody(r *http.Request, v any) error {
	reqBody, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	if err := json.Unmarshal(reqBody, v); err != nil {
		return fmt.Errorf("could not unmarshal request body: %w", err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, exercise.ErrNotActive):
		return http.StatusConflict
	case errors.Is(err, theory.ErrUnknownKey),
		errors.Is(err, theory.ErrUnknownNote),
		errors.Is(err, theory.ErrInvalidRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("could not write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "err", err)
	}
	s.writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}
