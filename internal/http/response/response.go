// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков: успешных ответов, ошибок
// и сообщений валидации в едином формате, а также сопоставление доменных
// ошибок с HTTP-статусами.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/glanceread/internal/models"
	"github.com/magabrotheeeer/glanceread/internal/paymentprovider"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status статус запроса ("OK" или "Error").
// Поле Error текст ошибки (опционально, при неуспехе).
// Поле Data данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// WriteError отвечает статусом status и сообщением msg.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}

// clientErrors доменные ошибки, текст которых можно показать клиенту.
var clientErrors = []struct {
	err    error
	status int
}{
	{models.ErrInvalidInput, http.StatusBadRequest},
	{models.ErrInvalidPlan, http.StatusBadRequest},
	{models.ErrInvalidStatus, http.StatusBadRequest},
	{paymentprovider.ErrSignatureMismatch, http.StatusBadRequest},
	{paymentprovider.ErrOrderMismatch, http.StatusBadRequest},
	{models.ErrInvalidCredentials, http.StatusUnauthorized},
	{models.ErrNotFound, http.StatusNotFound},
	{models.ErrAlreadyExists, http.StatusConflict},
}

// HTTPStatus сопоставляет ошибку сервиса с HTTP-статусом.
func HTTPStatus(err error) int {
	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			return ce.status
		}
	}
	return http.StatusInternalServerError
}

// ServiceError отвечает на ошибку сервиса. Для клиентских ошибок в ответ попадает
// текст, начиная с доменной ошибки (без цепочки op); для остальных internalMsg.
func ServiceError(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			WriteError(w, r, ce.status, clientMessage(err, ce.err))
			return
		}
	}
	WriteError(w, r, http.StatusInternalServerError, internalMsg)
}

func clientMessage(err, sentinel error) string {
	full := err.Error()
	if i := strings.Index(full, sentinel.Error()); i >= 0 {
		return full[i:]
	}
	return sentinel.Error()
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "url":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid url", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param()))
		case "gte", "lte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is out of range", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// Validation отвечает 400 с описанием ошибок валидации.
func Validation(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusBadRequest)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		render.JSON(w, r, ValidationError(verrs))
		return
	}
	render.JSON(w, r, Error("invalid request"))
}
