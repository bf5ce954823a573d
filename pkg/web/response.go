// Package web defines common components for a web application.
package web

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Response holds the common response type for all APIs.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Error wraps a given err into json frinedly struct.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// Data wraps a payload into json frinedly struct.
func Data(data any) Response {
	return Response{Data: data}
}

// BindError renders a binding error, naming the first invalid field when the
// error comes from the validator.
func BindError(err error) Response {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		field := ve[0]
		return Response{Error: field.Field() + GetErrorMsg(field)}
	}

	return Response{Error: err.Error()}
}

// GetErrorMsg returns a human readable suffix for a failed validation tag.
func GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return " field is required"
	case "currency":
		return " field must be a currency code of 2 to 10 letters or digits"
	case "positive":
		return " field must be a positive decimal number"
	case "oneof":
		return " field must be one of: " + fe.Param()
	}

	return " field is invalid"
}
