package util

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidateUUID parses value as the UUID named field, e.g. a run id taken
// from a URL path.
func ValidateUUID(field, value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, fmt.Errorf("%s cannot be empty", field)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid UUID: %w", field, err)
	}
	return id, nil
}
