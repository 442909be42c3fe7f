package controllers

import (
	"context"
	"net/http"
)

// Pinger checks a backing dependency.
type Pinger func(ctx context.Context) error

// Health reports whether the service and its database respond.
func Health(ping Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
