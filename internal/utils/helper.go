package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"storefront-core/internal/apierr"
)

// maxBodyBytes bounds every JSON request body the edge accepts.
const maxBodyBytes = 1 << 20

var ErrEmptyBody = errors.New("request body is empty")

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	json.NewEncoder(w).Encode(v)
}

func WriteJSONError(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, map[string]string{"error": message})
}

type errorResponse struct {
	Error    string                   `json:"error"`
	Kind     apierr.Kind              `json:"kind"`
	Conflict *apierr.MerchantConflict `json:"conflict,omitempty"`
}

// WriteError renders err with the status of its kind. Merchant conflicts carry
// their details so the UI can offer to clear the cart and retry.
func WriteError(w http.ResponseWriter, err error) {
	kind := apierr.KindOf(err)
	resp := errorResponse{Error: err.Error(), Kind: kind}
	if c, ok := apierr.ConflictOf(err); ok {
		resp.Conflict = c
	}

	var e *apierr.Error
	if errors.As(err, &e) && e.Message != "" {
		resp.Error = e.Message
	}
	WriteJSON(w, apierr.HTTPStatus(kind), resp)
}

// DecodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// QueryInt returns the positive integer query parameter key, or def.
func QueryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
