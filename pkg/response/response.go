// Package response writes the console's JSON envelope.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	"github.com/shashiranjanraj/stockdesk/pkg/logger"
	"github.com/shashiranjanraj/stockdesk/pkg/validate"
)

// Envelope is the body of every console JSON response.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func Write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data interface{}) {
	Write(w, http.StatusOK, Envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(w http.ResponseWriter, data interface{}) {
	Write(w, http.StatusCreated, Envelope{Status: http.StatusCreated, Data: data})
}

func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, Envelope{Status: status, Message: message})
}

// ValidationError sends a 422 with the errors keyed by draft path.
func ValidationError(w http.ResponseWriter, message string, errs validate.Errors) {
	if message == "" {
		message = "Validation failed"
	}
	Write(w, http.StatusUnprocessableEntity, Envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: message,
		Errors:  errs,
	})
}

// Fail maps err onto a status with apperr.HTTPStatus. Field errors travel in
// "errors"; anything unclassified is logged and hidden behind a 500.
func Fail(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	ae, ok := apperr.As(err)
	if !ok {
		logger.Error("response: unclassified error", "error", err)
		Error(w, status, http.StatusText(status))
		return
	}
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		ValidationError(w, ae.Message, fields)
		return
	}
	msg := ae.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	Error(w, status, msg)
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	Error(w, http.StatusUnauthorized, message)
}

func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}
