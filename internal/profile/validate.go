package profile

import (
	"fmt"
	"regexp"
)

var codeRegexp = regexp.MustCompile(`^[0-9]{5}$`)

// ValidateCode checks that an operator code is 5 numeric digits, the same
// rule the dispatch API enforces server-side.
func ValidateCode(code string) error {
	if !codeRegexp.MatchString(code) {
		return fmt.Errorf("invalid operator code %q: must be 5 numeric digits", code)
	}
	return nil
}
