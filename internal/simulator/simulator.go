package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mlforge/modelops/internal/logger"
)

type Config struct {
	Port int
}

// Simulator is a standalone serving-gateway stand-in. It exposes the
// prediction-feed contract over HTTP and lets callers inject drift or
// label noise per model.
type Simulator struct {
	config     Config
	models     map[string]*ModelSim
	mu         sync.RWMutex
	httpServer *http.Server
}

func New(cfg Config) *Simulator {
	if cfg.Port == 0 {
		cfg.Port = 9000
	}

	return &Simulator{
		config: cfg,
		models: make(map[string]*ModelSim),
	}
}

func cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Simulator) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", cors(s.healthHandler))
	mux.HandleFunc("/predictions/", cors(s.predictionsHandler))
	mux.HandleFunc("/models", cors(s.listModelsHandler))
	mux.HandleFunc("/drift", cors(s.driftHandler))
	mux.HandleFunc("/noise", cors(s.noiseHandler))

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Infof("Simulator listening on %s", addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Simulator server error: %v", err)
		}
	}()

	return nil
}

func (s *Simulator) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// GetOrCreateModel returns the simulation for the model, creating a
// default one on first request.
func (s *Simulator) GetOrCreateModel(modelName string) *ModelSim {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, exists := s.models[modelName]; exists {
		return m
	}

	m := NewModelSim(modelName, ModelSimConfig{
		ErrorRate: 0.1,
	})
	s.models[modelName] = m

	logger.Infof("Created new simulated model: %s", modelName)
	return m
}

func (s *Simulator) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Simulator) predictionsHandler(w http.ResponseWriter, r *http.Request) {
	modelName := strings.TrimPrefix(r.URL.Path, "/predictions/")
	if modelName == "" {
		http.Error(w, "model name required", http.StatusBadRequest)
		return
	}

	m := s.GetOrCreateModel(modelName)
	writeJSON(w, http.StatusOK, m.Batch())
}

func (s *Simulator) listModelsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type modelInfo struct {
		Name    string `json:"name"`
		Pattern string `json:"pattern"`
	}

	infos := make([]modelInfo, 0, len(s.models))
	for name, m := range s.models {
		infos = append(infos, modelInfo{Name: name, Pattern: m.PatternName()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": infos, "count": len(infos)})
}

type driftRequest struct {
	ModelName string `json:"model_name"`
	Pattern   string `json:"pattern"`
}

// driftHandler switches the model's drift pattern: stable, daily, gradual
// or sudden.
func (s *Simulator) driftHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req driftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ModelName == "" {
		http.Error(w, "model_name and pattern required", http.StatusBadRequest)
		return
	}

	m := s.GetOrCreateModel(req.ModelName)
	m.SetPattern(ParsePattern(req.Pattern))

	logger.Infof("Model %s drift pattern set to %s", req.ModelName, m.PatternName())
	writeJSON(w, http.StatusOK, map[string]string{
		"model_name": req.ModelName,
		"pattern":    m.PatternName(),
	})
}

type noiseRequest struct {
	ModelName string  `json:"model_name"`
	ErrorRate float64 `json:"error_rate"`
}

// noiseHandler changes the fraction of wrong predictions.
func (s *Simulator) noiseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req noiseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ModelName == "" {
		http.Error(w, "model_name and error_rate required", http.StatusBadRequest)
		return
	}
	if req.ErrorRate < 0 || req.ErrorRate > 1 {
		http.Error(w, "error_rate must be in [0, 1]", http.StatusBadRequest)
		return
	}

	m := s.GetOrCreateModel(req.ModelName)
	m.SetErrorRate(req.ErrorRate)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"model_name": req.ModelName,
		"error_rate": req.ErrorRate,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
