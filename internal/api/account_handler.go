package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/garyfan1/timegate/internal/auth"
	"github.com/garyfan1/timegate/internal/logger"
	"github.com/garyfan1/timegate/internal/store"
)

// handleCreateAccount processes POST /account: it generates a write key,
// persists its hash under the caller-chosen account id, and returns the
// plaintext key exactly once. A taken id is rejected without touching the
// stored hash.
func (a *API) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req CreateAccountRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.Account == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, MessageResponse{Msg: "account not provided"})
		return
	}

	writeKey, err := auth.NewWriteKey()
	if err != nil {
		log.Error("failed to generate write key", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, MessageResponse{Msg: "something went wrong when creating account"})
		return
	}

	hash, err := auth.HashWriteKey(writeKey, a.bcryptCost)
	if err != nil {
		log.Error("failed to hash write key", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, MessageResponse{Msg: "something went wrong when creating account"})
		return
	}

	account := &store.Account{ID: req.Account, WriteKeyHash: hash}
	if err := a.accounts.CreateAccount(r.Context(), account); err != nil {
		if errors.Is(err, store.ErrAccountExists) {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, MessageResponse{Msg: "account id taken"})
			return
		}

		log.Error("failed to create account", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, MessageResponse{Msg: "something went wrong when creating account"})
		return
	}

	log.Info("account created", slog.String("account", account.ID))
	render.Status(r, http.StatusOK)
	render.JSON(w, r, CreateAccountResponse{Account: account.ID, WriteKey: writeKey})
}

// handleLogin processes POST /login: it checks the submitted write key
// against the stored hash and issues a time-boxed token.
//
// Unknown account and wrong key produce different messages but the same
// 403 status. That divergence leaks account existence and is kept on
// purpose for compatibility; see DESIGN.md.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.Account == "" || req.WriteKey == "" {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, MessageResponse{Msg: "account name or write_key not provided"})
		return
	}

	account, err := a.accounts.GetAccount(r.Context(), req.Account)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, MessageResponse{Msg: "account name does not exist"})
			return
		}

		log.Error("failed to fetch account", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, MessageResponse{Msg: "something wrong when verifying write key"})
		return
	}

	if err := auth.CheckWriteKey(req.WriteKey, account.WriteKeyHash); err != nil {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, MessageResponse{Msg: "permission denied"})
		return
	}

	token, err := a.tokens.Issue(account.ID)
	if err != nil {
		log.Error("failed to issue token", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, MessageResponse{Msg: "something wrong when verifying write key"})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, LoginResponse{JWTToken: token})
}
