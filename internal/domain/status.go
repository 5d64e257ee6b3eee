package domain

import "strings"

// Tier distinguishes the two levels of the distribution network.
type Tier string

const (
	TierHub   Tier = "hub"
	TierStore Tier = "store"
)

// ProbeLevel distinguishes the two sampled out-of-stock signals: the
// fine-grained AB assortment probe and the coarser total-assortment one.
type ProbeLevel string

const (
	ProbeLevelAB    ProbeLevel = "ab"
	ProbeLevelTotal ProbeLevel = "total"
)

// RunStatus is the lifecycle state of a metric run.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

var runStatusLabels = map[RunStatus]string{
	RunStatusPending:    "Pending",
	RunStatusProcessing: "Processing",
	RunStatusCompleted:  "Completed",
	RunStatusFailed:     "Failed",
}

// Label returns a human-readable label for a run status.
func (s RunStatus) Label() string {
	if label, ok := runStatusLabels[s]; ok {
		return label
	}

	return "Unknown"
}

// Terminal reports whether the run can no longer change state.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// ParseTier returns the tier for a given label (case-insensitive).
func ParseTier(label string) (Tier, bool) {
	switch strings.ToLower(label) {
	case "hub", "provider", "storage":
		return TierHub, true
	case "store", "trade_point", "shop":
		return TierStore, true
	}

	return "", false
}
