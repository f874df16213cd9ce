// Package response содержит конверт JSON-ответов {success, message, error?} и
// отображение доменных ошибок в HTTP-статусы.
package response

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"
)

// Response общий конверт ответа. Обработчики встраивают его в свои структуры,
// чтобы поля полезной нагрузки оказались на верхнем уровне JSON.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK возвращает успешный конверт с сообщением.
func OK(msg string) Response {
	return Response{Success: true, Message: msg}
}

// Fail возвращает конверт ошибки с сообщением для клиента.
func Fail(msg string) Response {
	return Response{Success: false, Message: msg}
}

// Internal возвращает конверт внутренней ошибки с текстом причины.
func Internal(msg string, err error) Response {
	r := Response{Success: false, Message: msg}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Write выставляет статус и пишет тело через render.
func Write(w http.ResponseWriter, r *http.Request, status int, body any) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// ValidationError формирует конверт на основе ошибок валидатора.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s characters long", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s characters long", err.Field(), err.Param()))
		case "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be greater than %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Fail(strings.Join(errsMsgs, ", "))
}

// NotFound отвечает конвертом на неизвестный маршрут.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusNotFound, Fail("Not found"))
}

// MethodNotAllowed отвечает конвертом, если маршрут есть, но метод не поддерживается.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusMethodNotAllowed, Fail("Method not allowed"))
}
