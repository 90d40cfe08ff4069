// Package api implements the REST surface of the callback scheduler.
// It handles HTTP routing, request decoding, validation, and response
// formatting; business rules live in the scheduler engine.
package api

import "encoding/json"

// CreateAccountRequest is the payload for POST /account.
type CreateAccountRequest struct {
	Account string `json:"account"`
}

// CreateAccountResponse returns the caller-chosen account id and the
// server-generated write key. The key is shown exactly once; only its hash
// is persisted.
type CreateAccountResponse struct {
	Account  string `json:"account"`
	WriteKey string `json:"write_key"`
}

// LoginRequest is the payload for POST /login.
type LoginRequest struct {
	Account  string `json:"account"`
	WriteKey string `json:"write_key"`
}

// LoginResponse carries the signed bearer token.
type LoginResponse struct {
	JWTToken string `json:"jwt_token"`
}

// TargetInfo describes when and how the callback fires.
type TargetInfo struct {
	// DateTime is the trigger minute, "YYYYMMDDHHMM" in UTC.
	DateTime string `json:"date_time"`

	// Callback is the URL invoked at trigger time.
	Callback string `json:"callback"`

	// Method is the HTTP method of the callback.
	Method string `json:"method"`
}

// CreateEventRequest is the payload for POST /events. Data stays opaque:
// the scheduler requires its presence but never inspects its structure.
type CreateEventRequest struct {
	TargetInfo *TargetInfo     `json:"target_info"`
	Data       json.RawMessage `json:"data"`
}

// CreateEventResponse echoes the derived rule identity back to the caller.
type CreateEventResponse struct {
	RuleName     string          `json:"rule_name"`
	SchExp       string          `json:"sch_exp"`
	FunctionPara json.RawMessage `json:"function_para"`
}

// EventListResponse enumerates the caller's rule identifiers.
type EventListResponse struct {
	EventList []string `json:"event_list"`
}

// MessageResponse is the uniform {msg} body used for errors and simple
// confirmations.
type MessageResponse struct {
	Msg string `json:"msg"`
}
