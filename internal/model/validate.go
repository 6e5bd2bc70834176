package model

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"skinsignal-api/internal/apperror"

	"github.com/go-playground/validator/v10"
)

var (
	steamIDPattern = regexp.MustCompile(`^[0-9]{17}$`)
	e164Pattern    = regexp.MustCompile(`^[+][0-9]{7,15}$`)
	codePattern    = regexp.MustCompile(`^[0-9]{6}$`)
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance lazily builds the shared validator; validator.Validate is safe for concurrent use.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("steamid", func(fl validator.FieldLevel) bool {
			return steamIDPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("e164", func(fl validator.FieldLevel) bool {
			return e164Pattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("otp6", func(fl validator.FieldLevel) bool {
			return codePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

var tagMessages = map[string]string{
	"steamid":  "invalid_steam_id: expected 17-digit SteamID64",
	"e164":     "invalid_phone",
	"otp6":     "invalid_code",
	"required": "is required",
	"gte":      "is out of range",
	"gt":       "must be positive",
	"lte":      "is out of range",
	"max":      "is too long",
}

// customTags carry a complete message; the rest are prefixed with the field name.
var customTags = map[string]bool{"steamid": true, "e164": true, "otp6": true}

// Validate checks struct tags and converts the first failure into a domain validation error.
func Validate(v interface{}) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Validation("", err.Error())
	}

	fe := verrs[0]
	field := fe.Field()
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		msg = "is invalid"
	}
	if !customTags[fe.Tag()] && field != "" {
		msg = field + " " + msg
	}
	return apperror.Validation(field, msg)
}

// NormalizeSteamID trims whitespace and requires exactly 17 digits.
func NormalizeSteamID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !steamIDPattern.MatchString(s) {
		return "", apperror.Validation("steam_id", tagMessages["steamid"])
	}
	return s, nil
}
