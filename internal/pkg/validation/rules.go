package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`

	// Academic group names: department letters, a dash and the intake year, optionally a subgroup ("ИТ-21", "ПИ-22-1").
	GroupNamePattern = `^\p{L}{1,10}-\d{1,4}(-\d{1,2})?$`

	PasswordMinLength = 8
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Email     *regexp.Regexp
	GroupName *regexp.Regexp
}{
	Email:     regexp.MustCompile(EmailPattern),
	GroupName: regexp.MustCompile(GroupNamePattern),
}

// IsEmail reports whether s is a lower-case email address
func IsEmail(s string) bool {
	return CompiledPatterns.Email.MatchString(s)
}

// IsGroupName reports whether s looks like an academic group name
func IsGroupName(s string) bool {
	return CompiledPatterns.GroupName.MatchString(s)
}

func validateGroupName(fl validator.FieldLevel) bool {
	return IsGroupName(strings.TrimSpace(fl.Field().String()))
}

// jsonTagName reports fields by their JSON name so messages match the request body.
func jsonTagName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Register installs the custom rules and JSON field naming on v
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonTagName)
	return v.RegisterValidation("groupname", validateGroupName)
}

// formatFieldError creates a human-readable validation error message
func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "datetime":
		return e.Field() + " must match the layout " + e.Param()
	case "groupname":
		return e.Field() + " must be a group name like ИТ-21"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}

// FieldErrors maps each failing field to a message. It returns nil when err
// is not a validator error.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = formatFieldError(fe)
	}
	return out
}
