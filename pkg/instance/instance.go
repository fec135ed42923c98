package instance

import (
	"os"

	"github.com/lastbite-ai/lastbite-backend/pkg/env"
)

// ID names this process in logs: the platform dyno, then LASTBITE_INSTANCE_ID, then the hostname.
func ID() string {
	if id := env.First("DYNO", "LASTBITE_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
