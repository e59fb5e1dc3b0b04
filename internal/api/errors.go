package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/service"
)

const maxBodyBytes = 1 << 20

// Envelope wraps every JSON response
type Envelope struct {
	Data    interface{}         `json:"data"`
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Respond writes data in a successful envelope
func Respond(w http.ResponseWriter, status int, data interface{}, message string) {
	write(w, status, Envelope{Data: data, Success: true, Message: message})
}

// OK writes a 200 envelope
func OK(w http.ResponseWriter, data interface{}, message string) {
	Respond(w, http.StatusOK, data, message)
}

// Created writes a 201 envelope
func Created(w http.ResponseWriter, data interface{}, message string) {
	Respond(w, http.StatusCreated, data, message)
}

// Fail writes a failed envelope
func Fail(w http.ResponseWriter, status int, message string, fields map[string][]string) {
	write(w, status, Envelope{Success: false, Message: message, Errors: fields})
}

func BadRequest(w http.ResponseWriter, message string) {
	Fail(w, http.StatusBadRequest, message, nil)
}

func NotFound(w http.ResponseWriter, message string) {
	Fail(w, http.StatusNotFound, message, nil)
}

func MethodNotAllowed(w http.ResponseWriter) {
	Fail(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
}

// Error maps a service error onto a status code and envelope. Internal errors
// are logged and replaced by a generic message.
func Error(w http.ResponseWriter, logger *zap.Logger, err error) {
	var se *service.Error
	if !errors.As(err, &se) || se.Kind == service.KindInternal {
		logger.Error("Request failed", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	Fail(w, StatusFor(se.Kind), se.Message, se.Fields)
}

// StatusFor returns the HTTP status for an error kind
func StatusFor(kind service.Kind) int {
	switch kind {
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindTooManyAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON body into v. An empty body leaves v untouched.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

func write(w http.ResponseWriter, status int, envelope Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope)
}
