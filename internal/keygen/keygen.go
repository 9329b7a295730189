// Package keygen generates master passwords and random keys.
package keygen

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/secprops/internal/errors"
)

// Type selects the key format
type Type string

const (
	TypePassword Type = "password"
	TypeHex      Type = "hex"
	TypeBase64   Type = "base64"
	TypeUUID     Type = "uuid"
)

// Types lists the supported key types
var Types = []Type{TypePassword, TypeHex, TypeBase64, TypeUUID}

// Defaults and limits
const (
	DefaultPasswordLength = 16
	DefaultKeyBytes       = 32
	MaxLength             = 1024
)

// Character sets. The "similar" variants leave out I, O, l, o, 0 and 1.
const (
	upperSimilar = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerSimilar = "abcdefghijkmnpqrstuvwxyz"
	digitSimilar = "23456789"
	upperAll     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAll     = "abcdefghijklmnopqrstuvwxyz"
	digitAll     = "0123456789"
	symbols      = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

// Options controls password composition
type Options struct {
	Uppercase      bool `json:"includeUppercase" yaml:"include_uppercase"`
	Lowercase      bool `json:"includeLowercase" yaml:"include_lowercase"`
	Numbers        bool `json:"includeNumbers" yaml:"include_numbers"`
	Symbols        bool `json:"includeSymbols" yaml:"include_symbols"`
	ExcludeSimilar bool `json:"excludeSimilar" yaml:"exclude_similar"`
}

// DefaultOptions enables every character class and excludes look-alikes
func DefaultOptions() Options {
	return Options{
		Uppercase:      true,
		Lowercase:      true,
		Numbers:        true,
		Symbols:        true,
		ExcludeSimilar: true,
	}
}

// UnmarshalJSON decodes o over DefaultOptions, so omitted classes stay
// enabled.
func (o *Options) UnmarshalJSON(data []byte) error {
	type plain Options
	opts := plain(DefaultOptions())
	if err := json.Unmarshal(data, &opts); err != nil {
		return err
	}
	*o = Options(opts)
	return nil
}

// Request describes a key to generate. Length is characters for passwords
// and random bytes for hex/base64; it is ignored for uuid.
type Request struct {
	Type    Type
	Length  int
	Options *Options
}

// Key is a generated key
type Key struct {
	Type   Type   `json:"type" yaml:"type"`
	Key    string `json:"key" yaml:"key"`
	Length int    `json:"length" yaml:"length"`
}

// Generate creates a key. An empty type means password.
func Generate(req Request) (Key, error) {
	if req.Type == "" {
		req.Type = TypePassword
	}
	if req.Length < 0 || req.Length > MaxLength {
		return Key{}, errors.NewInvalidRequestError(fmt.Sprintf("length must be between 1 and %d", MaxLength))
	}

	var (
		value string
		err   error
	)
	switch req.Type {
	case TypePassword:
		opts := DefaultOptions()
		if req.Options != nil {
			opts = *req.Options
		}
		value, err = Password(orDefault(req.Length, DefaultPasswordLength), opts)
	case TypeHex:
		var b []byte
		if b, err = randomBytes(orDefault(req.Length, DefaultKeyBytes)); err == nil {
			value = hex.EncodeToString(b)
		}
	case TypeBase64:
		var b []byte
		if b, err = randomBytes(orDefault(req.Length, DefaultKeyBytes)); err == nil {
			value = base64.StdEncoding.EncodeToString(b)
		}
	case TypeUUID:
		value = uuid.New().String()
	default:
		return Key{}, errors.NewInvalidRequestError(
			fmt.Sprintf("unsupported key type: %s. Supported types: password, hex, base64, uuid", req.Type))
	}
	if err != nil {
		return Key{}, err
	}

	return Key{Type: req.Type, Key: value, Length: len(value)}, nil
}

// Password returns a random password of length characters drawn from the
// classes enabled in opts.
func Password(length int, opts Options) (string, error) {
	charset := Charset(opts)
	if charset == "" {
		return "", errors.NewInvalidRequestError("at least one character set must be included")
	}

	size := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}

// Charset returns the characters a password may contain under opts
func Charset(opts Options) string {
	upper, lower, digits := upperAll, lowerAll, digitAll
	if opts.ExcludeSimilar {
		upper, lower, digits = upperSimilar, lowerSimilar, digitSimilar
	}

	var charset string
	if opts.Uppercase {
		charset += upper
	}
	if opts.Lowercase {
		charset += lower
	}
	if opts.Numbers {
		charset += digits
	}
	if opts.Symbols {
		charset += symbols
	}
	return charset
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	return b, nil
}

func orDefault(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}
