package handler

import (
	"net/http"
	"os"

	"dockyard/internal/platform/config"
)

// LogHandler serves the process's own accumulated log text.
type LogHandler struct{}

func NewLogHandler() *LogHandler {
	return &LogHandler{}
}

func (h *LogHandler) ReadLogs(w http.ResponseWriter, r *http.Request) {
	content, err := os.ReadFile(config.AppConfig.LogPath())
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "Log file not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to read log file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}
