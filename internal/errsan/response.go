package errsan

import (
	"errors"

	"lander/internal/models"
)

// StackTracer — ошибки, несущие снимок стека (например, восстановленная паника).
type StackTracer interface {
	StackTrace() string
}

// Response — готовый к сериализации ответ об ошибке.
type Response struct {
	Status int
	Body   models.Envelope
}

// ToResponse строит ответ клиенту. Вне dev-режима в теле нет ни исходного
// текста, ни стека: только канонический текст категории и её код.
func ToResponse(err error, status int, dev bool) Response {
	cat := Classify(err)
	if !dev {
		return Response{
			Status: status,
			Body: models.Envelope{Error: &models.ErrorBody{
				Message: cat.UserMessage(),
				Code:    cat.Code(),
			}},
		}
	}

	var msg, stack string
	if err != nil {
		msg = err.Error()
	}
	var st StackTracer
	if errors.As(err, &st) {
		stack = st.StackTrace()
	}
	return Response{
		Status: status,
		Body: models.Envelope{Error: &models.ErrorBody{
			Message:  Sanitize(msg),
			Stack:    Sanitize(stack),
			Category: string(cat),
		}},
	}
}
