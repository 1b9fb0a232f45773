package status

import "time"

// LoadPhase represents the current phase of a group load
type LoadPhase string

const (
	// PhaseLoading means a load is currently in progress
	PhaseLoading LoadPhase = "Loading"

	// PhaseReady means the last load completed and the group is served
	PhaseReady LoadPhase = "Ready"

	// PhaseFailed means the last load failed; the previously loaded members
	// stay in place
	PhaseFailed LoadPhase = "Failed"
)

// LoadStatus represents the load state of one catalog group
type LoadStatus struct {
	// Phase is the current load phase
	Phase LoadPhase `yaml:"phase"`

	// Message provides additional information about the load state. This is
	// operator-facing; the user-facing report lives in ErrorTitle and
	// ErrorMessage.
	Message string `yaml:"message,omitempty"`

	// ErrorTitle is the short user-facing heading for a failed group,
	// surfaced verbatim by the API
	ErrorTitle string `yaml:"errorTitle,omitempty"`

	// ErrorMessage is the user-facing HTML body for a failed group,
	// surfaced verbatim by the API
	ErrorMessage string `yaml:"errorMessage,omitempty"`

	// LastAttempt is the timestamp of the last load attempt
	LastAttempt *time.Time `yaml:"lastAttempt,omitempty"`

	// AttemptCount is the number of load attempts since the last success
	AttemptCount int `yaml:"attemptCount,omitempty"`

	// LastLoadTime is the timestamp of the last successful load
	LastLoadTime *time.Time `yaml:"lastLoadTime,omitempty"`

	// LastLoadHash is the content hash of the last successfully loaded
	// source data, used to detect upstream changes
	LastLoadHash string `yaml:"lastLoadHash,omitempty"`

	// LastFilterHash is the hash of the filter rules in force at the last
	// successful load. A changed filter forces a reload even when the
	// source data has not moved.
	LastFilterHash string `yaml:"lastFilterHash,omitempty"`

	// MemberCount is the number of items the last successful load produced
	MemberCount int `yaml:"memberCount,omitempty"`

	// SkippedCount is the number of features the denylist dropped during
	// the last successful load
	SkippedCount int `yaml:"skippedCount,omitempty"`

	// RefreshInterval is the refresh interval from configuration (e.g.
	// "30m", "1h"); empty for groups that only refresh on demand
	RefreshInterval string `yaml:"refreshInterval,omitempty"`
}

// Clone returns a deep copy. Callers handing statuses across goroutines copy
// first so the cached value is never aliased.
func (s *LoadStatus) Clone() *LoadStatus {
	if s == nil {
		return nil
	}
	clone := *s
	if s.LastAttempt != nil {
		t := *s.LastAttempt
		clone.LastAttempt = &t
	}
	if s.LastLoadTime != nil {
		t := *s.LastLoadTime
		clone.LastLoadTime = &t
	}
	return &clone
}
