package services

import (
	"errors"
	"fmt"
	"log"
	"net/http"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindUpload       ErrorKind = "upload"
	KindPersistence  ErrorKind = "persistence"
)

const (
	msgInvalidInput = "Data yang dikirim tidak valid"
	msgGeneric      = "Terjadi kesalahan. Silakan coba lagi nanti."
	msgAdNotFound   = "Iklan tidak ditemukan atau Anda tidak memiliki akses."
)

// ServiceError is the only error type handlers render. Message and Fields are
// safe to show; Err is for logs.
type ServiceError struct {
	Status  int
	Kind    ErrorKind
	Message string
	Fields  map[string]string
	Err     error
}

func (e ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e ServiceError) Unwrap() error {
	return e.Err
}

func ErrValidation(fields map[string]string) error {
	return ServiceError{Status: http.StatusUnprocessableEntity, Kind: KindValidation, Message: msgInvalidInput, Fields: fields}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Kind: KindValidation, Message: msg}
}

// ErrNotFound is also returned when the row exists but belongs to someone else.
func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

func ErrConflict(msg string) error {
	return ServiceError{Status: http.StatusConflict, Kind: KindConflict, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: http.StatusUnauthorized, Kind: KindUnauthorized, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: http.StatusForbidden, Kind: KindForbidden, Message: msg}
}

func ErrUpload(field, msg string, err error) error {
	return ServiceError{
		Status:  http.StatusUnprocessableEntity,
		Kind:    KindUpload,
		Message: msgInvalidInput,
		Fields:  map[string]string{field: msg},
		Err:     err,
	}
}

// ErrPersistence logs the storage failure and hides it behind a generic message.
func ErrPersistence(op string, err error) error {
	log.Printf("%s: %v", op, err)
	return ServiceError{Status: http.StatusInternalServerError, Kind: KindPersistence, Message: msgGeneric, Err: err}
}

// KindOf returns the kind of a ServiceError anywhere in err's chain.
func KindOf(err error) ErrorKind {
	var serr ServiceError
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return ""
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
