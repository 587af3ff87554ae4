package apphttp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Plain-text bodies.
const (
	msgOK              = "OK"
	msgSingerNotFound  = "Singer not found"
	msgInvalidSingerID = "Invalid singer ID"
	msgNotFound        = "Not found"
	msgInternal        = "internal server error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal json response", slog.Any("error", err))
		writeText(w, http.StatusInternalServerError, msgInternal)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	fmt.Fprint(w, msg)
}
