// Package api provides shared response types for the system endpoints.
package api

// HealthResponse is the body served by /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse is the body served by /readiness once the catalog
// holds data.
type ReadinessResponse struct {
	Status string `json:"status"`
}

// VersionResponse is the build metadata served by /version.
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}
