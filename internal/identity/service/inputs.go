package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	userdomain "airguard/backend/internal/user/domain"
)

// The minimum counts characters; the maximum counts bytes because bcrypt
// rejects input past 72 bytes.
const (
	minPasswordLen = 8
	maxPasswordLen = 72
)

// SignupInput is the typed body of a signup request.
type SignupInput struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	AcceptTerms bool   `json:"acceptTerms"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	Industry    string `json:"industry"`
}

// LoginInput is the typed body of a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ClientInfo describes the caller of an auth operation. It is stored with the session and in audit entries.
type ClientInfo struct {
	UserAgent string
	IP        string
}

// Normalize trims the text fields and normalizes the email. The password is left untouched.
func (in *SignupInput) Normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = userdomain.NormalizeEmail(in.Email)
	in.Country = strings.TrimSpace(in.Country)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Company = strings.TrimSpace(in.Company)
	in.Industry = strings.TrimSpace(in.Industry)
}

// Validate checks required fields and formats. Call Normalize first.
func (in SignupInput) Validate() error {
	return validationError(validation.ValidateStruct(&in,
		validation.Field(&in.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Password, validation.Required, validation.By(passwordLength)),
		validation.Field(&in.AcceptTerms, validation.By(mustBeTrue)),
		validation.Field(&in.Country, validation.Length(0, 100)),
		validation.Field(&in.Phone, validation.Length(0, 32)),
		validation.Field(&in.Company, validation.Length(0, 200)),
		validation.Field(&in.Industry, validation.Length(0, 100)),
	))
}

// Normalize normalizes the email.
func (in *LoginInput) Normalize() {
	in.Email = userdomain.NormalizeEmail(in.Email)
}

// Validate checks that both fields are present. Format is not checked so that a malformed
// email fails as invalid credentials rather than leaking rule details.
func (in LoginInput) Validate() error {
	return validationError(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Password, validation.Required),
	))
}

func passwordLength(value interface{}) error {
	s, _ := value.(string)
	if utf8.RuneCountInString(s) < minPasswordLen {
		return errors.New("must be at least 8 characters")
	}
	if len(s) > maxPasswordLen {
		return errors.New("must be at most 72 bytes")
	}
	return nil
}

func mustBeTrue(value interface{}) error {
	if b, _ := value.(bool); !b {
		return errors.New("must be accepted")
	}
	return nil
}
