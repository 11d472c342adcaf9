package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// reloadError logs and reports a failure to read back a record that was
// just written. A nil err means the record was gone.
func reloadError(w http.ResponseWriter, what string, id int64, err error) {
	if err == nil {
		err = fmt.Errorf("%s %d not found after update", what, id)
	}
	slog.Error("failed to reload "+what, "id", id, "error", err)
	jsonError(w, http.StatusInternalServerError, "failed to get "+what)
}

// noContent writes an empty 204 response.
func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path value. It writes a 404 and returns false when
// the value is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusNotFound, what+" not found")
		return 0, false
	}
	return id, true
}
