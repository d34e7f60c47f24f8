package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// message represents an action message from the client
type message struct {
	Action string         `json:"action"`
	Data   map[string]any `json:"data"`
}

// parseMessage parses an action message from websocket or request bytes
func parseMessage(data []byte) (message, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return message{}, fmt.Errorf("failed to parse action: %w", err)
	}
	if msg.Action == "" {
		return message{}, errors.New("failed to parse action: missing action name")
	}

	// Ensure data map is initialized
	if msg.Data == nil {
		msg.Data = make(map[string]any)
	}
	return msg, nil
}

// ActionData wraps action data with utilities for binding and validation
type ActionData struct {
	raw   map[string]any
	bytes []byte // Cached JSON for binding
}

// NewActionData creates ActionData from a decoded payload
func NewActionData(data map[string]any) *ActionData {
	if data == nil {
		data = make(map[string]any)
	}
	return &ActionData{raw: data}
}

// Bind unmarshals the data into a struct
func (a *ActionData) Bind(v any) error {
	if a.bytes == nil {
		var err error
		a.bytes, err = json.Marshal(a.raw)
		if err != nil {
			return fmt.Errorf("failed to marshal data: %w", err)
		}
	}
	return json.Unmarshal(a.bytes, v)
}

// BindAndValidate binds data to struct and validates it in one step
func (a *ActionData) BindAndValidate(v any, validate *validator.Validate) error {
	if err := a.Bind(v); err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		return ValidationToMultiError(err)
	}
	return nil
}

// GetInt extracts an int value (JSON numbers are float64)
func (a *ActionData) GetInt(key string) int {
	if v, ok := a.raw[key].(float64); ok {
		return int(v)
	}
	return 0
}

// Has checks if a key exists
func (a *ActionData) Has(key string) bool {
	_, exists := a.raw[key]
	return exists
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiError is a collection of field errors
type MultiError []FieldError

func (m MultiError) Error() string {
	msgs := make([]string, 0, len(m))
	for _, err := range m {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidationToMultiError converts go-playground/validator errors to MultiError
func ValidationToMultiError(err error) MultiError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return MultiError{{Field: generalErrorField, Message: err.Error()}}
	}

	fieldErrors := make(MultiError, 0, len(validationErrs))
	for _, e := range validationErrs {
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", e.Field())
		case "min", "gte":
			message = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
		case "max", "lte", "ltfield":
			message = fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
		default:
			message = fmt.Sprintf("%s is invalid", e.Field())
		}
		fieldErrors = append(fieldErrors, FieldError{
			Field:   strings.ToLower(e.Field()),
			Message: message,
		})
	}
	return fieldErrors
}

// generalErrorField holds errors that are not tied to a field
const generalErrorField = "_general"

// fieldErrors flattens an action error into the frame's error map.
func fieldErrors(err error) map[string]string {
	errs := make(map[string]string)
	if err == nil {
		return errs
	}

	var multi MultiError
	var field FieldError
	switch {
	case errors.As(err, &multi):
		for _, e := range multi {
			errs[e.Field] = e.Message
		}
	case errors.As(err, &field):
		errs[field.Field] = field.Message
	default:
		errs[generalErrorField] = err.Error()
	}
	return errs
}
