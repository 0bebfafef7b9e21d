package publish

import (
	"context"
	"errors"
	"fmt"
	"log"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// ErrTokensExhausted is returned when no unused token could be minted
var ErrTokensExhausted = errors.New("could not mint an unused token")

// TokenMinter mints opaque tokens embedded in page addresses
type TokenMinter interface {
	Mint(ctx context.Context) (string, error)
}

// TokenChecker reports whether a token is already part of some page address
type TokenChecker interface {
	TokenExists(ctx context.Context, token string) (bool, error)
}

// NanoidMinter mints random alphanumeric tokens of fixed length
type NanoidMinter struct {
	Length int
}

func (m NanoidMinter) Mint(ctx context.Context) (string, error) {
	return gonanoid.Generate(tokenAlphabet, m.Length)
}

// UniqueMinter retries the underlying minter until
// it produces a token no page address carries yet.
type UniqueMinter struct {
	minter   TokenMinter
	checker  TokenChecker
	attempts int
}

func NewUniqueMinter(minter TokenMinter, checker TokenChecker, attempts int) *UniqueMinter {
	return &UniqueMinter{
		minter:   minter,
		checker:  checker,
		attempts: max(attempts, 1),
	}
}

func (m *UniqueMinter) Mint(ctx context.Context) (string, error) {
	for range m.attempts {
		token, err := m.minter.Mint(ctx)
		if err != nil {
			return "", err
		}

		exists, err := m.checker.TokenExists(ctx, token)
		if err != nil {
			return "", fmt.Errorf("could not check token %q: %w", token, err)
		}

		if !exists {
			return token, nil
		}

		log.Printf("Token collision on %q, minting another one", token)
	}

	return "", ErrTokensExhausted
}
