package httputil

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/cardiolens/cardiolens-backend/pkg/errors"
)

// ErrorBody is the JSON shape of every error response.
// The analyser frontend reads the "error" key.
type ErrorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// JSON sends data as a bare JSON document
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(data)
}

// Error sends an error response. Non-AppErrors become a generic 500.
func Error(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		JSON(w, appErr.StatusCode, ErrorBody{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	// Default to internal server error
	JSON(w, http.StatusInternalServerError, ErrorBody{
		Error: "an unexpected error occurred",
		Code:  "INTERNAL_ERROR",
	})
}

// DecodeJSON decodes the request body into the provided struct
func DecodeJSON(r *http.Request, v interface{}) error {
	return decode(json.NewDecoder(r.Body), v)
}

// DecodeJSONNumbers is DecodeJSON but keeps numbers as json.Number, so
// untyped targets can tell 45 from 45.0 and avoid float rounding.
func DecodeJSONNumbers(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return decode(dec, v)
}

func decode(dec *json.Decoder, v interface{}) error {
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.BadRequest("request body is empty")
		}
		return errors.BadRequest("invalid JSON body")
	}
	return nil
}
