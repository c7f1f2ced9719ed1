package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	argon2Prefix          = "$argon2id$"
)

var (
	// ErrEmptyPassword is returned by Hash for a zero-length plaintext.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrMalformedHash is returned when a stored digest cannot be decoded.
	ErrMalformedHash = errors.New("malformed password hash")
	// ErrUnsupportedHash is returned when no configured scheme recognises a digest.
	ErrUnsupportedHash = errors.New("unsupported password hash scheme")
)

// Config holds the Argon2id cost parameters. Memory is in KiB.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns the parameters new digests are produced with.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 hashes and verifies passwords as PHC-encoded argon2id digests.
type Argon2 struct {
	config Config
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// NewArgon2 validates cfg and returns a hasher bound to it.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives a fresh salted digest for password. The plaintext bytes are
// used exactly as given; length policy belongs to the caller.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return encodePHC(phc{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        salt,
		key:         key,
	}), nil
}

// Verify reports whether password matches digest. Comparison is constant-time.
func (a *Argon2) Verify(password, digest string) (bool, error) {
	p, err := decodePHC(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1, nil
}

// NeedsUpgrade reports whether digest was produced with weaker parameters
// than the hasher is configured with.
func (a *Argon2) NeedsUpgrade(digest string) (bool, error) {
	p, err := decodePHC(digest)
	if err != nil {
		return false, err
	}

	switch {
	case p.memory < a.config.Memory,
		p.time < a.config.Time,
		p.parallelism < a.config.Parallelism,
		uint32(len(p.key)) != a.config.KeyLength:
		return true, nil
	}
	return false, nil
}

// Recognizes reports whether digest is an argon2id PHC string.
func (a *Argon2) Recognizes(digest string) bool {
	return strings.HasPrefix(digest, argon2Prefix)
}

func encodePHC(p phc) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.time,
		p.parallelism,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.key),
	)
}

func decodePHC(digest string) (phc, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return phc{}, ErrMalformedHash
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return phc{}, ErrMalformedHash
	}
	if version != argon2.Version {
		return phc{}, fmt.Errorf("%w: argon2 version %d", ErrUnsupportedHash, version)
	}

	var out phc
	if err := out.parseParams(parts[3]); err != nil {
		return phc{}, err
	}

	if out.salt, err = decodeB64(parts[4]); err != nil || len(out.salt) < int(minSaltLength) {
		return phc{}, ErrMalformedHash
	}
	if out.key, err = decodeB64(parts[5]); err != nil || len(out.key) == 0 {
		return phc{}, ErrMalformedHash
	}

	return out, nil
}

func (p *phc) parseParams(s string) error {
	seen := 0
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return ErrMalformedHash
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return ErrMalformedHash
		}
		switch k {
		case "m":
			if uint32(n) < minMemoryKB {
				return ErrMalformedHash
			}
			p.memory = uint32(n)
		case "t":
			if uint32(n) < minTimeCost {
				return ErrMalformedHash
			}
			p.time = uint32(n)
		case "p":
			if n < uint64(minParallelism) || n > 255 {
				return ErrMalformedHash
			}
			p.parallelism = uint8(n)
		default:
			return ErrMalformedHash
		}
		seen++
	}
	if seen != 3 {
		return ErrMalformedHash
	}
	return nil
}

// decodeB64 accepts both padded and unpadded standard base64 so digests
// written by older encoders keep verifying.
func decodeB64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func (c Config) validate() error {
	switch {
	case c.Memory < minMemoryKB:
		return errors.New("password memory must be >= 8192 KiB")
	case c.Time < minTimeCost:
		return errors.New("password time must be >= 1")
	case c.Parallelism < minParallelism:
		return errors.New("password parallelism must be >= 1")
	case c.SaltLength < minSaltLength:
		return errors.New("password salt length must be >= 16")
	case c.KeyLength < minKeyLength:
		return errors.New("password key length must be >= 16")
	}
	return nil
}
