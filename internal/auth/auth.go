// Package auth validates frame auth blocks.
//
// It makes no policy decisions and stores nothing; key distribution is
// the embedding process's concern.
package auth

import (
	"crypto/subtle"
	"errors"
)

var ErrUnauthorized = errors.New("auth: unauthorized")

// Validator checks the auth block carried by a frame. A frame without an
// auth block presents an empty token.
type Validator interface {
	Validate(token []byte) error
}

// StaticToken accepts exactly one shared token. An empty Token rejects
// every frame.
type StaticToken struct {
	Token []byte
}

func (s StaticToken) Validate(token []byte) error {
	if len(s.Token) == 0 {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare(s.Token, token) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(token []byte) error

func (f FuncValidator) Validate(token []byte) error {
	return f(token)
}
