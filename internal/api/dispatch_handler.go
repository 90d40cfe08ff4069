package api

import (
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/garyfan1/timegate/internal/logger"
)

// dispatchTokenHeader authenticates the substrate on the internal dispatch
// route.
const dispatchTokenHeader = "dispatch_token"

// handleDispatch processes POST /internal/dispatch. It exists so an
// external substrate can bridge rule firings back over HTTP; end users
// never call it. The body is the stored target input, handed to the
// dispatch target verbatim.
func (a *API) handleDispatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	provided := r.Header.Get(dispatchTokenHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(a.dispatchToken)) != 1 {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, MessageResponse{Msg: "permission denied"})
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil || len(payload) == 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, MessageResponse{Msg: "payload not provided"})
		return
	}

	// Fire-and-forget from the substrate's point of view too: a failed
	// callback is logged here, never retried.
	if err := a.dispatcher.Dispatch(r.Context(), payload); err != nil {
		log.Error("dispatch failed", slog.String("error", err.Error()))
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, MessageResponse{Msg: "dispatched"})
}
