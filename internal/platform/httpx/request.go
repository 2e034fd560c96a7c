package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validator exposes the shared validator instance.
func Validator() *validator.Validate {
	return validate
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", ErrValidation)
		}
		return fmt.Errorf("%w: malformed JSON: %v", ErrValidation, err)
	}
	return nil
}

// Bind decodes the body into target and runs struct validation.
func Bind(r *http.Request, target any) error {
	if err := DecodeJSON(r, target); err != nil {
		return err
	}
	return ValidateStruct(target)
}

// ValidateStruct runs validator tags and converts failures to ErrValidation.
func ValidateStruct(target any) error {
	err := validate.Struct(target)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(parts, "; "))
}

// URLParamID parses a positive integer route parameter.
func URLParamID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrValidation, name, raw)
	}
	return id, nil
}

// QueryInt64 parses an optional integer query parameter.
func QueryInt64(r *http.Request, key string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", ErrValidation, key, raw)
	}
	return &v, nil
}

// QueryInt parses an optional int query parameter, returning def when absent.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrValidation, key, raw)
	}
	return v, nil
}

// QueryString returns a trimmed query value or nil when absent.
func QueryString(r *http.Request, key string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	return &raw
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", ErrValidation, key, raw)
	}
	return &v, nil
}
