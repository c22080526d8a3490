package instance

import (
	"os"

	"github.com/angelmondragon/wedplan-backend/pkg/env"
)

const fallbackID = "wedplan-0"

// GetID names this process for lock ownership and logs. WEDPLAN_INSTANCE_ID
// wins, then the host name (the pod name on Kubernetes).
func GetID() string {
	if id := env.Get("WEDPLAN_INSTANCE_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
