package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidationErrorDetail represents the structure of a single validation error.
type ValidationErrorDetail struct {
	Field    string      `json:"field"`
	Message  string      `json:"message"`
	Expected string      `json:"expected"`
	Received interface{} `json:"received"`
}

// ValidationErrorData represents the data field in the validation error response.
type ValidationErrorData struct {
	Errors []ValidationErrorDetail `json:"errors"`
}

func init() {
	// Request bodies are strict: unknown keys are rejected.
	binding.EnableDecoderDisallowUnknownFields = true
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(JSONTagName)
	}
}

// JSONTagName reports struct fields by their JSON name in validation errors.
func JSONTagName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// BindAndValidate binds the request body to the given object and validates it.
// If validation fails, it sends a formatted error response and returns false.
// If validation succeeds, it returns true.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondValidation(c, DescribeBindError(err))
		return false
	}
	return true
}

// RespondValidation writes a 400 carrying per-field issues.
func RespondValidation(c *gin.Context, details []ValidationErrorDetail) {
	c.JSON(http.StatusBadRequest, NewResponse(http.StatusBadRequest, "Invalid request parameters", ValidationErrorData{
		Errors: details,
	}))
}

// DescribeBindError converts a binding or decoding error into field issues.
func DescribeBindError(err error) []ValidationErrorDetail {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return DescribeValidationErrors(validationErrs)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationErrorDetail{{
			Field:    typeErr.Field,
			Message:  fmt.Sprintf("Field '%s' has invalid type", typeErr.Field),
			Expected: typeErr.Type.String(),
			Received: typeErr.Value,
		}}
	}

	if field, ok := unknownField(err); ok {
		return []ValidationErrorDetail{{
			Field:    field,
			Message:  fmt.Sprintf("Field '%s' is not allowed", field),
			Expected: "absent",
			Received: "present",
		}}
	}

	return []ValidationErrorDetail{{
		Field:    "body",
		Message:  "Malformed JSON or invalid request body",
		Expected: "valid JSON",
		Received: "invalid",
	}}
}

// DescribeValidationErrors renders validator failures with JSON field paths
// such as "variables[2].key".
func DescribeValidationErrors(errs validator.ValidationErrors) []ValidationErrorDetail {
	details := make([]ValidationErrorDetail, 0, len(errs))
	for _, e := range errs {
		field := fieldPath(e)
		detail := ValidationErrorDetail{
			Field:    field,
			Message:  fmt.Sprintf("Field '%s' failed on the '%s' rule", field, e.Tag()),
			Expected: e.Param(),
			Received: e.Value(),
		}
		if detail.Expected == "" {
			detail.Expected = e.Tag()
		}

		switch e.Tag() {
		case "required":
			detail.Message = fmt.Sprintf("Field '%s' is required", field)
			detail.Expected = "not empty"
		case "email":
			detail.Message = fmt.Sprintf("Field '%s' must be a valid email address", field)
			detail.Expected = "email format"
		case "oneof":
			detail.Message = fmt.Sprintf("Field '%s' must be one of: %s", field, e.Param())
		case "min", "max":
			detail.Message, detail.Expected = boundMessage(e, field)
		}

		details = append(details, detail)
	}
	return details
}

func boundMessage(e validator.FieldError, field string) (string, string) {
	word := "at least"
	if e.Tag() == "max" {
		word = "at most"
	}
	unit := "characters"
	switch e.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = "items"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("Field '%s' must be %s %s", field, word, e.Param()),
			fmt.Sprintf("%s %s", e.Tag(), e.Param())
	}
	return fmt.Sprintf("Field '%s' must have %s %s %s", field, word, e.Param(), unit),
		fmt.Sprintf("%s %s %s", e.Tag(), e.Param(), unit)
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func unknownField(err error) (string, bool) {
	const prefix = "json: unknown field "
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(msg, prefix), `"`), true
}
