package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"opname/services"
)

// RequireSession rejects requests to the data routes with 503 until the
// sheet session is ready.
func RequireSession(session *services.Session) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if !needsSession(e.Request.URL.Path) {
			return e.Next()
		}
		if err := services.CheckSession(session); err != nil {
			log.Printf("middleware: %s %s: %v", e.Request.Method, e.Request.URL.Path, err)
			if strings.HasPrefix(e.Request.URL.Path, "/api/") {
				return e.JSON(http.StatusServiceUnavailable, message("Data belum siap."))
			}
			return e.String(http.StatusServiceUnavailable, "Data belum siap.")
		}
		return e.Next()
	}
}

// needsSession reports whether path reads the RAB or opname collections.
// The image proxy and pocketbase's own routes do not.
func needsSession(path string) bool {
	switch {
	case path == "/":
		return true
	case strings.HasPrefix(path, "/stores/"):
		return true
	case path == "/api/opname":
		return true
	case strings.HasPrefix(path, "/api/rab"),
		strings.HasPrefix(path, "/api/pic-kontraktor"),
		strings.HasPrefix(path, "/api/toko"),
		strings.HasPrefix(path, "/api/opname/"):
		return true
	}
	return false
}
