package tui

import (
	"fmt"
	"strings"

	"github.com/jaspreet-dot-casa/winrole/pkg/descriptor"
)

// validateRule returns a validator applying a descriptor rule list to a field.
func validateRule(field, rules string) func(string) error {
	return func(s string) error {
		if err := descriptor.ValidateValue(strings.TrimSpace(s), rules); err != nil {
			return fmt.Errorf("%s %v", field, err)
		}
		return nil
	}
}

// validateYesNo accepts y, yes, n, no, true and false.
func validateYesNo(s string) error {
	if _, ok := parseYesNo(s); !ok {
		return fmt.Errorf("answer yes or no")
	}
	return nil
}

func parseYesNo(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true":
		return true, true
	case "n", "no", "false":
		return false, true
	default:
		return false, false
	}
}
