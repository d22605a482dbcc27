package service

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("not authorized for this resource")
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email already registered")

	ErrSessionInactive = errors.New("session is not active")

	ErrNotClosing            = errors.New("question is not closing")
	ErrQuestionNotInSession  = errors.New("question not found in this session")
	ErrQuestionAlreadyClosed = errors.New("question is already closed")
	ErrQuestionAlreadyOpen   = errors.New("question is already open")
	ErrQuestionInactive      = errors.New("question is not accepting responses")
	ErrQuestionNotSelected   = errors.New("question is not currently selected")
	ErrAlreadyResponded      = errors.New("already responded to this question")
)
