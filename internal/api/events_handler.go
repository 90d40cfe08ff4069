package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/garyfan1/timegate/internal/logger"
	"github.com/garyfan1/timegate/internal/scheduler"
	"github.com/garyfan1/timegate/internal/store"
	"github.com/garyfan1/timegate/internal/substrate"
)

// notOwnedMsg deliberately conflates "not yours" with "does not exist" so
// probing for other tenants' rule names yields nothing.
const notOwnedMsg = "Either you don't have the permission to delete, or the rule does not exist"

// handleCreateEvent processes POST /events. The body is kept verbatim: it
// becomes the target input and is replayed unchanged to the dispatch target
// at trigger time.
func (a *API) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	accountID := accountFromContext(r.Context())

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, MessageResponse{Msg: "invalid request body"})
		return
	}

	var req CreateEventRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, MessageResponse{Msg: "invalid request body"})
		return
	}
	if req.TargetInfo == nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, MessageResponse{Msg: "target_info not provided"})
		return
	}

	scheduled, err := a.engine.Schedule(r.Context(), accountID, scheduler.Request{
		Stamp:    req.TargetInfo.DateTime,
		Callback: req.TargetInfo.Callback,
		Method:   req.TargetInfo.Method,
		Data:     req.Data,
		Raw:      raw,
	})
	if err != nil {
		var vErr *scheduler.ValidationError
		if errors.As(err, &vErr) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, MessageResponse{Msg: vErr.Msg})
			return
		}

		log.Error("failed to schedule event", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, MessageResponse{Msg: "something went wrong when scheduling the event"})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, CreateEventResponse{
		RuleName:     scheduled.RuleName,
		SchExp:       scheduled.Expression,
		FunctionPara: raw,
	})
}

// handleListEvents processes GET /events, enumerating the caller's rules
// from the ownership index.
func (a *API) handleListEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	accountID := accountFromContext(r.Context())

	events, err := a.engine.List(r.Context(), accountID)
	if err != nil {
		log.Error("failed to list events", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, MessageResponse{Msg: "something went wrong when fetching events"})
		return
	}

	if len(events) == 0 {
		render.Status(r, http.StatusOK)
		render.JSON(w, r, MessageResponse{Msg: "no event yet"})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, EventListResponse{EventList: events})
}

// handleGetEvent processes GET /events/{rule_name}, returning the stored
// payload verbatim for rules the caller owns.
func (a *API) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	accountID := accountFromContext(r.Context())
	ruleName := chi.URLParam(r, "rule_name")

	payload, err := a.engine.Get(r.Context(), accountID, ruleName)
	if err != nil {
		a.renderEventError(w, r, log, err, "something went wrong when fetching the event")
		return
	}

	// The payload is replayed byte for byte, not re-serialized.
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// handleDeleteEvent processes DELETE /events/{rule_name}: ownership check,
// full teardown, ownership removal.
func (a *API) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	accountID := accountFromContext(r.Context())
	ruleName := chi.URLParam(r, "rule_name")

	if err := a.engine.Cancel(r.Context(), accountID, ruleName); err != nil {
		a.renderEventError(w, r, log, err, "something went wrong when deleting the event")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Msg: ruleName + " deleted"})
}

// renderEventError maps per-rule failures onto the external contract:
// unowned and nonexistent rules are indistinguishable 403s, everything
// else is a logged 500 with a generic message.
func (a *API) renderEventError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, genericMsg string) {
	if errors.Is(err, store.ErrNotOwned) || errors.Is(err, substrate.ErrRuleNotFound) {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, MessageResponse{Msg: notOwnedMsg})
		return
	}

	log.Error("event operation failed", slog.String("error", err.Error()))
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, MessageResponse{Msg: genericMsg})
}
