package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/midiscan/config"
	"github.com/jsphweid/midiscan/errs"
	"github.com/jsphweid/midiscan/midi"
	"github.com/jsphweid/midiscan/model"
	"github.com/jsphweid/midiscan/pipeline"
	"github.com/jsphweid/midiscan/store"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// MaxUploadBytes caps the size of a posted midi file.
const MaxUploadBytes = 16 << 20

// Server answers analysis requests. The analyzer can be swapped while
// requests are in flight, each request keeps the one it started with.
type Server struct {
	mu       sync.RWMutex
	analyzer *pipeline.Analyzer

	store store.Store
	log   logrus.FieldLogger
}

func NewServer(cfg config.Config, st store.Store, log logrus.FieldLogger) (*Server, error) {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	a, err := pipeline.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Server{analyzer: a, store: st, log: log}, nil
}

func (s *Server) Analyzer() *pipeline.Analyzer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyzer
}

// SetConfig replaces the analyzer. An invalid config leaves the current one
// in place.
func (s *Server) SetConfig(cfg config.Config) error {
	a, err := pipeline.New(cfg, s.log)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.analyzer = a
	s.mu.Unlock()
	return nil
}

// Reload loads path and swaps it in, keeping the current config on failure.
func (s *Server) Reload(path string) {
	cfg, err := config.Load(path)
	if err == nil {
		err = s.SetConfig(cfg)
	}
	if err != nil {
		s.log.WithError(err).Warn("config reload failed, keeping the current config")
		return
	}
	s.log.WithField("config", path).Info("config reloaded")
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/healthz", s.HandleHealth).Methods("GET")
	router.HandleFunc("/analyze", s.HandleAnalyze).Methods("POST")
	router.HandleFunc("/analyses", s.HandleListAnalyses).Methods("GET")
	router.HandleFunc("/analyses/{id}", s.HandleGetAnalysis).Methods("GET")

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "ok"})
}

// HandleAnalyze takes a raw standard midi file as the request body.
func (s *Server) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	began := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, errors.Wrap(err, "read body"))
		return
	}
	f, err := midi.Read(bytes.NewReader(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.Analyzer().Analyze(f)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	id, _ := res.Metadata["analysis_id"].(string)
	if err := s.store.Put(r.Context(), id, res); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.log.WithFields(logrus.Fields{
		"analysis_id": id,
		"events":      len(res.Events),
		"duration":    time.Since(began).String(),
	}).Info("analyzed upload")
	writeJSON(w, http.StatusCreated, model.AnalyzeResponse{ID: id, Result: res})
}

func (s *Server) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, model.AnalyzeResponse{ID: id, Result: res})
}

// HandleListAnalyses returns the stored results for every ?id= given.
func (s *Server) HandleListAnalyses(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query()["id"]
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("at least one id is required"))
		return
	}
	results, err := s.store.GetMany(r.Context(), ids)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, model.AnalysesResponse{Results: results})
}

func statusFor(err error) int {
	if errs.IsValidation(err) || errs.IsParsing(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}
