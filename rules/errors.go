package rules

import (
	"errors"
	"fmt"
)

// DuplicateRuleError indicates a rule id was registered twice.
type DuplicateRuleError struct {
	ID string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %q is already registered", e.ID)
}

// IsDuplicateRuleError checks if an error is a DuplicateRuleError.
func IsDuplicateRuleError(err error) bool {
	var duplicateErr *DuplicateRuleError
	return errors.As(err, &duplicateErr)
}
