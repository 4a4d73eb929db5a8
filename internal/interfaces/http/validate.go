package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeRequest parses the JSON body into dst and applies declared defaults.
func decodeRequest(r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	if err := defaults.Set(dst); err != nil {
		return fmt.Errorf("apply request defaults: %w", err)
	}
	return nil
}

// validateRequest runs struct validation and converts field failures into
// wire-level details. A nil, nil return means the request is valid.
func validateRequest(ctx context.Context, req any) ([]ValidationError, error) {
	err := validate.StructCtx(ctx, req)
	if err == nil {
		return nil, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, fmt.Errorf("validate request: %w", err)
	}

	details := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fieldPath(fe),
			Message: validationMessage(fe),
			Params:  validationParams(fe),
		})
	}
	return details, nil
}

// fieldPath strips the request type name so clients see "bundle.symbol"
// style paths instead of Go struct namespaces.
func fieldPath(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	return strings.ToLower(path)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must have length at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must have length at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation rule %q", fe.Field(), fe.Tag())
	}
}

func validationParams(fe validator.FieldError) map[string]string {
	if fe.Param() == "" {
		return nil
	}
	return map[string]string{fe.Tag(): fe.Param()}
}
