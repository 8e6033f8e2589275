// Package envelope implements the platform's fixed wire contract:
//
//	success: {"success": true,  "data": <any>, "requestId"?: string}
//	failure: {"success": false, "error": {"code", "message", "details"?}, "requestId"?: string}
//
// plus the legacy failure shape {"detail": {"code", "message"}} still emitted
// by one older backend.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates a decoded response.
type Kind int

const (
	// KindOK carries the data branch of a well-formed success envelope.
	KindOK Kind = iota
	// KindBusinessError carries a server-side logical rejection.
	KindBusinessError
	// KindTransportError means no interpretable envelope was received.
	KindTransportError
)

// ErrorInfo is the error branch of a failure envelope.
type ErrorInfo struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// Result is a decoded response.
type Result struct {
	Kind Kind

	// Data is the raw data branch; valid only when Kind is KindOK. It may be
	// the JSON literal null.
	Data json.RawMessage

	// Code and Message are set for KindBusinessError.
	Code    string
	Message string
	Details json.RawMessage

	// RequestID is the server-side correlation id, when the envelope carried
	// one. Optional for every kind.
	RequestID string

	// Status is the raw HTTP status. Detail holds transport diagnostics for
	// KindTransportError.
	Status int
	Detail string
}

type wire struct {
	Success   *bool           `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *ErrorInfo      `json:"error"`
	RequestID string          `json:"requestId"`
	Detail    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"detail"`
}

// Decode classifies a raw transport response. Rules, in priority order:
//
//  1. 2xx status and a body with success==true and a data field present
//     (even if null) decodes as KindOK.
//  2. A body with success==false and an error object decodes as
//     KindBusinessError.
//  3. A body matching the legacy {detail:{code,message}} shape decodes as
//     KindBusinessError.
//  4. Everything else is KindTransportError.
//
// Decode has no side effects and never fails; an undecodable body simply
// degrades to a transport error carrying the raw status.
func Decode(status int, body []byte) Result {
	var w wire
	parsed := len(body) > 0 && json.Unmarshal(body, &w) == nil

	if parsed {
		if status >= 200 && status < 300 && w.Success != nil && *w.Success && w.Data != nil {
			return Result{Kind: KindOK, Data: w.Data, RequestID: w.RequestID, Status: status}
		}
		if w.Success != nil && !*w.Success && w.Error != nil {
			return Result{
				Kind:      KindBusinessError,
				Code:      w.Error.Code,
				Message:   w.Error.Message,
				Details:   w.Error.Details,
				RequestID: w.RequestID,
				Status:    status,
			}
		}
		if w.Detail != nil {
			return Result{
				Kind:      KindBusinessError,
				Code:      w.Detail.Code,
				Message:   w.Detail.Message,
				RequestID: w.RequestID,
				Status:    status,
			}
		}
	}

	return Result{
		Kind:   KindTransportError,
		Status: status,
		Detail: fmt.Sprintf("request failed: %d", status),
	}
}

// IsNull reports whether the decoded data branch is the JSON literal null.
func (r Result) IsNull() bool {
	return bytes.Equal(bytes.TrimSpace(r.Data), []byte("null"))
}

// Success builds an encodable success envelope.
func Success(data any, requestID string) map[string]any {
	m := map[string]any{"success": true, "data": data}
	if requestID != "" {
		m["requestId"] = requestID
	}
	return m
}

// Failure builds an encodable failure envelope.
func Failure(code, message, requestID string) map[string]any {
	m := map[string]any{
		"success": false,
		"error":   ErrorInfo{Code: code, Message: message},
	}
	if requestID != "" {
		m["requestId"] = requestID
	}
	return m
}
