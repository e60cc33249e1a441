// Package pathtoken converts file paths to opaque tokens and back.
//
// Tokens are URL-safe base64 of the raw path bytes, so they survive query
// strings, form fields and shell arguments unchanged, and Decode(Encode(p)) == p
// for any path, including ones that are not valid UTF-8.
package pathtoken

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidToken is returned when a token does not decode to a path.
var ErrInvalidToken = errors.New("invalid path token")

var encoding = base64.URLEncoding

// Encode returns the token for path.
func Encode(path string) string {
	return encoding.EncodeToString([]byte(path))
}

// Decode returns the path a token was made from.
func Decode(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	b, err := encoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if len(b) == 0 {
		return "", ErrInvalidToken
	}
	return string(b), nil
}
