package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// maxLimit caps page sizes of list and search endpoints.
const maxLimit = 500

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// queryInt reads a non-negative integer query parameter clamped to upper.
// Missing or malformed values yield 0.
func queryInt(r *http.Request, key string, upper int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return min(n, upper)
}
