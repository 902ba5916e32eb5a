package nc4

import (
	"fmt"
	"regexp"
)

// nameRe matches a valid NetCDF-4 object name: starts with a letter or
// underscore, then any run of letters, digits, underscore, hyphen,
// colon, or space.
var nameRe = regexp.MustCompile(`^[_A-Za-z][-_: A-Za-z0-9]*$`)

func validateName(kind, name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("nc4: invalid %s name %q", kind, name)
	}
	return nil
}
