package models

import "errors"

// Общие ошибки доменного уровня. Обработчики сопоставляют их с HTTP-статусами через errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPlan        = errors.New("invalid plan")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidInput       = errors.New("invalid input")
)
