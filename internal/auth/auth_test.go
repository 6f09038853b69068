package auth

import (
	"errors"
	"testing"

	"github.com/danmuck/simwire/internal/testutil/testlog"
	"github.com/rs/zerolog/log"
)

func TestStaticTokenValidate(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "missing block denied", stored: "abc", input: "", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticToken{Token: []byte(tc.stored)}).Validate([]byte(tc.input))
			log.Debug().Msgf("auth.StaticToken stored=%q input=%q err=%v", tc.stored, tc.input, err)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFuncValidator(t *testing.T) {
	testlog.Start(t)
	validator := FuncValidator(func(token []byte) error {
		if string(token) != "ok" {
			return ErrUnauthorized
		}
		return nil
	})

	if err := validator.Validate([]byte("bad")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for bad token, got %v", err)
	}
	if err := validator.Validate([]byte("ok")); err != nil {
		t.Fatalf("expected success for ok token, got %v", err)
	}
}
