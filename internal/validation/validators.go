package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("notblank", validateNotBlank); err != nil {
		panic(fmt.Sprintf("failed to register notblank validator: %v", err))
	}
	if err := Validate.RegisterValidation("ratelimit", validateRate); err != nil {
		panic(fmt.Sprintf("failed to register ratelimit validator: %v", err))
	}
	if err := Validate.RegisterValidation("origins", validateOrigins); err != nil {
		panic(fmt.Sprintf("failed to register origins validator: %v", err))
	}
}

// validateNotBlank fails strings that are empty after trimming whitespace
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateRate accepts limiter formatted rates such as "10-S" or "1000-H"
func validateRate(fl validator.FieldLevel) bool {
	_, err := limiter.NewRateFromFormatted(fl.Field().String())
	return err == nil
}

// validateOrigins accepts a comma separated list of http(s) origins
func validateOrigins(fl validator.FieldLevel) bool {
	return ValidateOrigins(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateRate validates a rate limit string value
func ValidateRate(value string) error {
	if _, err := limiter.NewRateFromFormatted(value); err != nil {
		return fmt.Errorf("invalid rate: %s (expected <limit>-<S|M|H|D>, e.g. 10-S)", value)
	}
	return nil
}

// ValidateOrigins validates a comma separated list of CORS origins
func ValidateOrigins(value string) error {
	parts := strings.Split(value, ",")
	for _, p := range parts {
		origin := strings.TrimSpace(p)
		if origin == "" {
			continue
		}
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("invalid origin: %s (must start with http:// or https://)", origin)
		}
		if strings.HasSuffix(origin, "/") {
			return fmt.Errorf("invalid origin: %s (must not end with /)", origin)
		}
	}
	return nil
}

// FieldErrors turns validator errors into one readable message per field
func FieldErrors(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return out
}
