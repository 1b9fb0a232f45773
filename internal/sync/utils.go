package sync

// IsForcedRefresh checks if the refresh reason indicates a forced refresh
func IsForcedRefresh(reason string) bool {
	return reason == ReasonForcedRefresh
}

// HashPreview shortens a content hash for log lines
func HashPreview(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
