// Package httpjson reads and writes the service's JSON request/response
// bodies. All feature handlers go through these helpers so the error body
// shape ({"error": "..."}) stays uniform.
package httpjson

import (
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/civicatlas/notifyhub/internal/app/system/limits"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Decode reads the request body into dst, refusing bodies over the
// standard API ceiling.
func Decode(r *http.Request, dst any) error {
	return DecodeLimit(r, dst, limits.MaxJSONBodySize)
}

// DecodeLimit reads the request body into dst with a caller-chosen
// ceiling, for the few endpoints (notification set saves) that accept
// more than the standard limit.
func DecodeLimit(r *http.Request, dst any, limit int64) error {
	dec := codec.NewDecoder(io.LimitReader(r.Body, limit))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// Respond writes v as JSON with the given status. A nil v writes the
// status line only.
func Respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := codec.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

// Error writes the standard error body.
func Error(w http.ResponseWriter, status int, msg string) {
	Respond(w, status, map[string]string{"error": msg})
}
