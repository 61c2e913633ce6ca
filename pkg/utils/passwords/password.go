package passwords

import (
	"errors"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
)

type Password string

var (
	params = &argon2id.Params{
		Memory:      128 * 1024,
		Iterations:  4,
		Parallelism: uint8(4),
		SaltLength:  32,
		KeyLength:   64,
	}
)

// PasswordInput is a struct for validating password inputs
type PasswordInput struct {
	Password string `validate:"required,min=8,max=512"`
}

var ErrNotArgonEncoded = errors.New("password hash is not argon2id encoded")

// NewPassword creates a new password hash, while enforcing some basic rules
func NewPassword(input PasswordInput) (Password, error) {
	err := validator.New().Struct(input)
	if err != nil {
		return "", err
	}

	hash, err := argon2id.CreateHash(input.Password, params)
	if err != nil {
		return "", err
	}

	return Password(hash), nil
}

// ParseHash wraps an existing argon2id hash, e.g. one read from configuration.
func ParseHash(hash string) (Password, error) {
	hash = strings.TrimSpace(hash)
	if !IsArgonEncoded(hash) {
		return "", ErrNotArgonEncoded
	}
	return Password(hash), nil
}

// ComparePasswordAndHash compares the input to the password hash
func (p *Password) ComparePasswordAndHash(input PasswordInput) (bool, error) {
	return argon2id.ComparePasswordAndHash(input.Password, string(*p))
}

// String returns the string representation of the password
func (p *Password) String() string {
	return string(*p)
}

// IsArgonEncoded returns true if the input is an argon2id hash
func IsArgonEncoded(input string) bool {
	return strings.HasPrefix(input, "$argon2id$")
}

const (
	// MinPasswordLength is the minimum password length
	MinPasswordLength = 8
	// MaxPasswordLength is the maximum password length
	MaxPasswordLength = 512
)
