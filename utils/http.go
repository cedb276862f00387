package utils

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform JSON body of every response
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"` // field-level validation messages
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful envelope with the given status code
func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) error {
	return WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// WriteOK writes a 200 OK envelope with optional message and data
func WriteOK(w http.ResponseWriter, message string, data interface{}) error {
	return WriteSuccess(w, http.StatusOK, message, data)
}

// WriteCreated writes a 201 Created envelope with optional message and data
func WriteCreated(w http.ResponseWriter, message string, data interface{}) error {
	return WriteSuccess(w, http.StatusCreated, message, data)
}

// WriteBadRequest writes a 400 Bad Request envelope with field-level errors
func WriteBadRequest(w http.ResponseWriter, message string, fields map[string]string) error {
	if message == "" {
		message = "Invalid request"
	}
	return WriteJSON(w, http.StatusBadRequest, Envelope{
		Message: message,
		Errors:  fields,
	})
}

// WriteUnauthorized writes a 401 Unauthorized envelope
func WriteUnauthorized(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Authentication required"
	}
	return WriteError(w, http.StatusUnauthorized, message)
}

// WriteForbidden writes a 403 Forbidden envelope
func WriteForbidden(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return WriteError(w, http.StatusForbidden, message)
}

// WriteNotFound writes a 404 Not Found envelope
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteError(w, http.StatusNotFound, message)
}

// WriteConflict writes a 409 Conflict envelope
func WriteConflict(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Resource already exists"
	}
	return WriteError(w, http.StatusConflict, message)
}

// WriteInternalServerError writes a 500 Internal Server Error envelope
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return WriteError(w, http.StatusInternalServerError, message)
}

// WriteError writes a failed envelope with the given status code
func WriteError(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, Envelope{Message: message})
}
