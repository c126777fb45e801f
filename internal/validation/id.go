package validation

import (
	"unicode/utf8"

	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

// IDLength is the length of the canonical textual form of a UUID.
const IDLength = 36

// ID checks that value is exactly IDLength characters long. Only the length is
// checked; any characters are accepted. field names the parameter in the error
// message, e.g. "enrollmentId".
func ID(field, value string) error {
	if utf8.RuneCountInString(value) != IDLength {
		return appErrors.InvalidID(field)
	}
	return nil
}
