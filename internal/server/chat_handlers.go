package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/onecard-labs/cardassist/internal/errors"
	"github.com/onecard-labs/cardassist/internal/session"
)

type turnRequest struct {
	Message string `json:"message"`
}

// handleTurn runs one dialogue turn. Local rule matches answer as JSON;
// when the fallback streams, the response switches to chunked text/plain
// and the fragments pass straight through. A stream that breaks mid-reply
// simply stops; the transcript carries the finalized outcome either way.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, apperrors.NewSessionError().UserMessage)
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	flusher, canFlush := w.(http.Flusher)
	streaming := false

	res, err := s.chat.Turn(r.Context(), id, req.Message, func(fragment string) {
		if !streaming {
			streaming = true
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
		}

		_, _ = io.WriteString(w, fragment)
		if canFlush {
			flusher.Flush()
		}
	})
	if err != nil {
		if streaming {
			// Headers are gone; nothing more to say on this response.
			return
		}

		switch {
		case errors.Is(err, session.ErrTurnInFlight):
			writeError(w, http.StatusConflict, "Hold on, I'm still working on your last message.")
		default:
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && appErr.Code == "E100" {
				writeError(w, http.StatusUnauthorized, appErr.UserMessage)
				return
			}
			writeError(w, http.StatusInternalServerError, s.errs.Handle(r.Context(), err))
		}
		return
	}

	if streaming {
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionAccount(w, r); !ok {
		return
	}

	history, err := s.chat.History(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, s.errs.Handle(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": history})
}
