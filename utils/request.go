package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// unknownFieldPrefix is how encoding/json reports a key rejected by DisallowUnknownFields
const unknownFieldPrefix = "json: unknown field "

// DecodeJSON decodes the request body into dst, rejecting keys dst does not
// declare. Decoding problems come back as a *ValidationError so handlers can
// answer 400 with a field-level message.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		var syntaxErr *json.SyntaxError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr):
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return &ValidationError{
				Message: "Validation failed",
				Fields:  map[string]string{field: fmt.Sprintf("%s must be of type %s", field, jsonTypeName(typeErr.Type.Kind().String()))},
			}
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return &ValidationError{Message: "Malformed JSON body", Fields: map[string]string{"body": "body must be valid JSON"}}
		case errors.Is(err, io.EOF):
			return &ValidationError{Message: "Request body is required", Fields: map[string]string{"body": "body is required"}}
		case errors.As(err, &maxErr):
			return &ValidationError{Message: "Request body too large", Fields: map[string]string{"body": fmt.Sprintf("body must not exceed %d bytes", maxBodyBytes)}}
		case strings.HasPrefix(err.Error(), unknownFieldPrefix):
			field, _ := strconv.Unquote(strings.TrimPrefix(err.Error(), unknownFieldPrefix))
			if field == "" {
				field = "body"
			}
			return &ValidationError{Message: "Validation failed", Fields: map[string]string{field: fmt.Sprintf("%s is not allowed", field)}}
		default:
			return &ValidationError{Message: "Invalid request body", Fields: map[string]string{"body": err.Error()}}
		}
	}
	return nil
}

// QueryInt reads a non-negative integer query parameter, falling back to def
func QueryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, &ValidationError{
			Message: "Validation failed",
			Fields:  map[string]string{key: fmt.Sprintf("%s must be a non-negative integer", key)},
		}
	}
	return v, nil
}

func jsonTypeName(kind string) string {
	switch kind {
	case "slice", "array":
		return "array"
	case "map", "struct":
		return "object"
	case "bool":
		return "boolean"
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "float32", "float64":
		return "number"
	default:
		return kind
	}
}
