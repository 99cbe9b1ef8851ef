package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	svcErr "github.com/oggyb/connecta/internal/errors"
)

var v *validator.Validate

func init() {
	v = validator.New(validator.WithRequiredStructEnabled())

	// convid: a conversation id usable as a store key segment.
	_ = v.RegisterValidation("convid", func(fl validator.FieldLevel) bool {
		return ConversationID(fl.Field().String())
	})
}

// Struct validates s and converts failures into ErrInvalidInput.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return svcErr.Invalid(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return svcErr.Invalid(strings.Join(msgs, "; "))
}

// ConversationID reports whether id is structurally valid: non-empty, at most
// 128 bytes, no path separators and no whitespace.
func ConversationID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		if r == '/' || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
