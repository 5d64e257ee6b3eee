package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/velstore/stockpulse/internal/pipeline"
	"github.com/velstore/stockpulse/internal/service"
)

type opsHandler struct {
	runs *service.RunService
}

func newOpsHandler(runs *service.RunService) *opsHandler {
	return &opsHandler{runs: runs}
}

func (h *opsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/runs", h.TriggerRun).Methods("POST")
}

type triggerRequest struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Stages []string `json:"stages"`
}

// parseStages maps stage names onto the pipeline selection. An empty
// list runs everything.
func parseStages(names []string) (pipeline.Stages, error) {
	if len(names) == 0 {
		return pipeline.AllStages(), nil
	}

	var stages pipeline.Stages
	for _, name := range names {
		switch name {
		case "availability":
			stages.Availability = true
		case "gaps":
			stages.Gaps = true
		case "corrections":
			stages.Corrections = true
		case "all":
			return pipeline.AllStages(), nil
		default:
			return pipeline.Stages{}, fmt.Errorf("unknown stage %q", name)
		}
	}

	return stages, nil
}

// TriggerRun starts a run in the background and returns immediately.
// Progress is visible through the read API's run endpoints.
func (h *opsHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	window, err := h.runs.ResolveWindow(req.From, req.To)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stages, err := parseStages(req.Stages)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.runs.Trigger(window, stages); err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "accepted",
		"window_from": window.From,
		"window_to":   window.To,
	})
}
