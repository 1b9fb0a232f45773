package coordinator

import (
	"github.com/meridianmaps/catalog-server/internal/config"
)

// effectiveInterval returns the refresh interval string that applies to a
// group: the group's own policy wins over the server-wide default. An empty
// result means the group refreshes only on demand.
func effectiveInterval(defaultPolicy, groupPolicy *config.RefreshPolicyConfig) string {
	if groupPolicy != nil && groupPolicy.Interval != "" {
		return groupPolicy.Interval
	}
	if defaultPolicy != nil && defaultPolicy.Interval != "" {
		return defaultPolicy.Interval
	}
	return ""
}
