package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid login or password")

// Credentials is the single operator account configured for the app.
type Credentials struct {
	login        string
	passwordHash []byte
}

// NewCredentials builds the operator account. A bcrypt hash takes precedence
// over a plaintext password, which is hashed once here.
func NewCredentials(login, password, passwordHash string) (*Credentials, error) {
	if login == "" {
		return nil, errors.New("login cannot be empty")
	}
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("parse password hash: %w", err)
		}
		return &Credentials{login: login, passwordHash: []byte(passwordHash)}, nil
	}
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &Credentials{login: login, passwordHash: hash}, nil
}

// Authenticate checks a login attempt.
func (c *Credentials) Authenticate(login, password string) error {
	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(c.login)) == 1
	// bcrypt runs even when the login does not match.
	pwErr := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password))
	if !loginOK || pwErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (c *Credentials) Login() string {
	return c.login
}
