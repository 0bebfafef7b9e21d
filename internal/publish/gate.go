package publish

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
)

// Fields with a closed set of permitted values
var enumerated = map[string][]string{
	models.FieldStatus: models.Statuses,
	models.FieldColor:  models.ColorSchemes,
}

// FieldError names a rejected field and the reason
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// GateResult holds the changes allowed through and everything rejected
type GateResult struct {
	Accepted map[string]string
	Errors   []FieldError
}

// Allowed reports whether a field may be written through a commit
func Allowed(field string) bool {
	switch field {
	case models.FieldStatus, models.FieldCategory, models.FieldColor:
		return true
	}
	return models.IsContentField(field)
}

// Validate runs the changes through the allow-list and the
// enumerated value sets. It never touches storage.
func Validate(changes map[string]string) GateResult {

	result := GateResult{Accepted: make(map[string]string, len(changes))}

	// Sorted for a stable error order
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, field := range keys {
		value := changes[field]

		if !Allowed(field) {
			result.Errors = append(result.Errors, FieldError{
				Field:  field,
				Reason: "field is not allowed to be updated",
			})
			continue
		}

		if permitted, ok := enumerated[field]; ok && !slices.Contains(permitted, value) {
			result.Errors = append(result.Errors, FieldError{
				Field: field,
				Reason: fmt.Sprintf(
					"invalid value %q, permitted values: %s",
					value, strings.Join(permitted, ", "),
				),
			})
			continue
		}

		result.Accepted[field] = value
	}

	return result
}
