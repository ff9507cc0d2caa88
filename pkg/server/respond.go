package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"status": string(bridge.StatusError),
		"error":  message,
	})
}

// writeBridgeError maps dispatch failures to status codes. Anything that is
// not the caller's fault is a 500.
func writeBridgeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, bridge.ErrInvalidArgument) {
		status = http.StatusBadRequest
	}

	writeError(w, status, err.Error())
}

// pathTail returns what follows prefix in the request path. net/http has
// already percent-decoded it once, and rejected invalid escapes with a 400.
func pathTail(r *http.Request, prefix string) string {
	return strings.TrimPrefix(r.URL.Path, prefix)
}
