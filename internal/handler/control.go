package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"riceinspector/internal/dto"
	"riceinspector/internal/logger"
	"riceinspector/internal/service/control"
)

// RequestTimeout bounds how long a control request waits for the loop.
const RequestTimeout = 5 * time.Second

// Inspector is the part of the inspection loop the HTTP API talks to.
type Inspector interface {
	Status() dto.LiveStatus
	Remote() *control.Remote
}

// LiveHandler returns the statistics of the most recent frame.
func LiveHandler(inspector Inspector, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, inspector.Status(), logger)
	}
}

// SaveHandler asks the loop to save a report of the current frame and returns
// the report stored for this request.
func SaveHandler(inspector Inspector, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
		defer cancel()

		report, err := inspector.Remote().RequestSave(ctx)
		if err != nil {
			logger.Error("Remote save failed: %v", err)
			http.Error(w, err.Error(), statusFor(err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "saved",
			"report": report,
		}, logger)
	}
}

// QuitHandler stops the inspection loop.
func QuitHandler(inspector Inspector, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := request(r.Context(), inspector.Remote(), control.Quit); err != nil {
			logger.Error("Remote quit failed: %v", err)
			http.Error(w, err.Error(), statusFor(err))
			return
		}

		logger.Info("Inspection stopped via API")
		writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"}, logger)
	}
}

func request(ctx context.Context, remote *control.Remote, action control.Action) error {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()
	return remote.Request(ctx, action)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, control.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
