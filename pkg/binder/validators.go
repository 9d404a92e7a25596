package binder

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	extensionRE = regexp.MustCompile(`^\.?[A-Za-z0-9]{1,10}$`)
)

// extensionValidator ensures the value looks like a file extension, e.g. "pdf"
// or ".PDF". Whether the extension is actually supported is decided against
// the file_types table, not here.
func extensionValidator(fl validator.FieldLevel) bool {
	return extensionRE.MatchString(fl.Field().String())
}
