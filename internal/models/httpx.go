package models

import (
	"encoding/json"
	"net/http"
)

// ErrorBody — содержимое поля error в конверте ответа.
// Stack и Category заполняются только в dev-режиме.
type ErrorBody struct {
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
	Stack    string `json:"stack,omitempty"`
	Category string `json:"category,omitempty"`
}

// Envelope — единый JSON-конверт ответов API.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// WriteError отдаёт {success:false, error:{message, code}}.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, Envelope{Error: &ErrorBody{Message: message, Code: code}})
}

// WriteData отдаёт {success:true, data:...}.
func WriteData(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, Envelope{Success: true, Data: v})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
