// Package instance names the running process for logs and lock ownership.
package instance

import (
	"os"

	"github.com/weglobalmusic/wgme-backend/pkg/env"
)

const fallbackID = "local"

var hostname = os.Hostname

// ID prefers WGME_INSTANCE_ID, then the platform dyno name, then the host name.
func ID() string {
	if id := env.Get("WGME_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
