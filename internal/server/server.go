// Package server exposes the roll-forward calculator over HTTP: clients
// upload a YAML plan configuration and receive the reconciliation, ledger
// snapshots, and verification results as JSON.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/opeb-rollforward/internal/config"
	"github.com/iwvelando/opeb-rollforward/internal/rollforward"
	"github.com/iwvelando/opeb-rollforward/pkg/constants"
	"github.com/iwvelando/opeb-rollforward/pkg/ledger"
	"github.com/iwvelando/opeb-rollforward/pkg/valuation"
	"github.com/iwvelando/opeb-rollforward/pkg/verify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the roll-forward API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion}

	mux := http.NewServeMux()

	// Roll-forward API endpoint (file upload)
	mux.HandleFunc("/api/rollforward", h.handleRollForward)

	// Roll-forward API endpoint for editor-driven configs (JSON body)
	mux.HandleFunc("/api/editor/rollforward", h.handleRollForwardEditor)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type rollForwardResponse struct {
	Result               *valuation.RollForwardResult  `json:"result"`
	Reconciliation       []valuation.ReconciliationRow `json:"reconciliation"`
	ExperienceBases      []ledger.Entry                `json:"experienceBases"`
	AssumptionBases      []ledger.Entry                `json:"assumptionBases"`
	RecognizedExperience float64                       `json:"recognizedExperience"`
	RecognizedAssumption float64                       `json:"recognizedAssumption"`
	EvictedExperience    *ledger.Entry                 `json:"evictedExperience,omitempty"`
	EvictedAssumption    *ledger.Entry                 `json:"evictedAssumption,omitempty"`
	Verification         verify.Summary                `json:"verification"`
	Warnings             []string                      `json:"warnings,omitempty"`
	Duration             string                        `json:"duration"`
	ConfigYAML           string                        `json:"configYaml,omitempty"`
}

func (h *handler) handleRollForward(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), "server.handleRollForward")
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), "server.handleRollForward")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing configuration file", "server.handleRollForward")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.handleRollForward"),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), "server.handleRollForward")
		return
	}

	h.runRollForward(w, buf.Bytes(), start, "server.handleRollForward")
}

func (h *handler) handleRollForwardEditor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), "server.handleRollForwardEditor")
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	configBytes, err := yaml.Marshal(payload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), "server.handleRollForwardEditor")
		return
	}

	h.runRollForward(w, configBytes, start, "server.handleRollForwardEditor")
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) runRollForward(w http.ResponseWriter, configBytes []byte, start time.Time, op string) {
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	warnings := cfg.ValidateConfiguration()

	experienceLedger, assumptionLedger, err := cfg.BuildLedgers(h.logger)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to build ledgers: %v", err), op)
		return
	}

	engine := rollforward.NewEngine(h.logger)
	engine.SetExperienceAnomalyFraction(cfg.Plan.ExperienceAnomalyFraction)

	result, err := engine.Run(&cfg.Plan.PriorValuation, &cfg.Plan.RollForward)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to compute roll-forward: %v", err), op)
		return
	}

	evictedExp, evictedAssum, err := engine.ApplyToLedgers(result, &cfg.Plan.PriorValuation, experienceLedger, assumptionLedger)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to advance ledgers: %v", err), op)
		return
	}

	verification := verify.RunChecks(result, experienceLedger, assumptionLedger)
	if !verification.Passed() {
		h.logger.Error("verification checks failed",
			zap.String("op", op),
		)
	}

	elapsed := time.Since(start)

	response := rollForwardResponse{
		Result:               result,
		Reconciliation:       result.ReconciliationTable(),
		ExperienceBases:      experienceLedger.Entries(),
		AssumptionBases:      assumptionLedger.Entries(),
		RecognizedExperience: experienceLedger.RecognizedAmountThisPeriod(),
		RecognizedAssumption: assumptionLedger.RecognizedAmountThisPeriod(),
		EvictedExperience:    evictedExp,
		EvictedAssumption:    evictedAssum,
		Verification:         verification,
		Warnings:             warnings,
		Duration:             elapsed.String(),
		ConfigYAML:           string(configBytes),
	}

	h.logger.Info("roll-forward computed",
		zap.String("op", op),
		zap.String("period", fmt.Sprintf("%s -> %s", result.BOYDate, result.EOYDate)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("roll-forward request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
