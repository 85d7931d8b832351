package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
	"golang.org/x/crypto/bcrypt"
)

// StaticAuthenticator accepts one configured admin account.
type StaticAuthenticator struct {
	email string
	name  string
	hash  []byte
}

// NewStatic builds the authenticator from a bcrypt hash, or from a plain
// password that is hashed once here when no hash is configured.
func NewStatic(email, name, passwordHash, password string) (*StaticAuthenticator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("admin email is required")
	}
	hash := []byte(passwordHash)
	if len(hash) == 0 {
		if password == "" {
			return nil, errors.New("admin password or password hash is required")
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, err
	}
	if name == "" {
		name = email
	}
	return &StaticAuthenticator{email: email, name: name, hash: hash}, nil
}

func (a *StaticAuthenticator) LoginAdmin(ctx context.Context, email, password string) (string, error) {
	if strings.ToLower(strings.TrimSpace(email)) != a.email {
		return "", quiz.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return "", quiz.ErrUnauthorized
	}
	return a.name, nil
}
