package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// MaxPasswordBytes is bcrypt's input limit; longer passwords cannot be hashed.
const MaxPasswordBytes = 72

// Credentials are the user-supplied registration fields. Field order is report order.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,passwordlen,password"`
	FullName string `json:"full_name" validate:"required,fullname"`
}

// Normalize trims every field and lower-cases email and username.
func (c Credentials) Normalize() Credentials {
	return Credentials{
		Email:    strings.ToLower(strings.TrimSpace(c.Email)),
		Username: strings.ToLower(strings.TrimSpace(c.Username)),
		Password: c.Password,
		FullName: strings.TrimSpace(c.FullName),
	}
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Result struct {
	Errors []FieldError
}

func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Fields lists the failing field names in report order.
func (r Result) Fields() []string {
	fields := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}

var messages = map[string]string{
	"email":     "Invalid email format",
	"username":  "Username must be alphanumeric (with underscores) and between 3-20 characters",
	"password":  "Password must be at least 8 characters with uppercase, lowercase and numbers",
	"full_name": "Full name must be between 2-50 characters and contain only letters, spaces, hyphens and apostrophes",
}

type CredentialValidator struct {
	validate *validator.Validate
}

func NewCredentialValidator() *CredentialValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
	_ = v.RegisterValidation("passwordlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("fullname", func(fl validator.FieldLevel) bool {
		return ValidFullName(fl.Field().String())
	})
	return &CredentialValidator{validate: v}
}

// Validate checks every field and collects all violations; it never stops at the first one.
func (cv *CredentialValidator) Validate(c Credentials) Result {
	err := cv.validate.Struct(c)
	if err == nil {
		return Result{}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Result{Errors: []FieldError{{Field: "payload", Message: "invalid payload"}}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return Result{Errors: out}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return strings.ReplaceAll(fe.Field(), "_", " ") + " is required"
	case "passwordlen":
		return "Password must be at most 72 bytes"
	}
	if msg, ok := messages[fe.Field()]; ok {
		return msg
	}
	return "is invalid"
}

func ValidUsername(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 3 && n <= 20 && usernamePattern.MatchString(s)
}

// StrongPassword requires 8+ characters, at most MaxPasswordBytes bytes, with at least one
// upper, one lower and one digit.
func StrongPassword(s string) bool {
	if utf8.RuneCountInString(s) < 8 || len(s) > MaxPasswordBytes {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// ValidFullName accepts 2-50 letters, spaces, hyphens and apostrophes.
func ValidFullName(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 2 || n > 50 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}
