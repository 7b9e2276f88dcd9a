// Package password provides password hashing and verification.
//
// The Hasher interface has two implementations: bcrypt (default, widely
// compatible) and argon2id (modern, OWASP-recommended parameters). The
// active implementation is chosen from configuration.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned when a password does not match its hash.
var ErrMismatch = errors.New("password: invalid password")

// Hasher hashes and verifies passwords.
type Hasher interface {
	// Hash returns a hashed representation of the password.
	Hash(password string) (string, error)

	// Verify returns nil when password matches hash, ErrMismatch otherwise.
	Verify(password, hash string) error
}

// NewHasher creates a Hasher from configuration.
func NewHasher(cfg Config) Hasher {
	cfg.ApplyDefaults()
	switch cfg.Algorithm {
	case AlgorithmArgon2id:
		return &argon2Hasher{
			time:      cfg.Argon2Time,
			memory:    cfg.Argon2Memory,
			threads:   cfg.Argon2Threads,
			keyLen:    32,
			saltLen:   16,
			minLength: cfg.MinLength,
		}
	default:
		return &bcryptHasher{cost: cfg.BcryptCost, minLength: cfg.MinLength}
	}
}

// --- bcrypt ---

type bcryptHasher struct {
	cost      int
	minLength int
}

func (h *bcryptHasher) Hash(password string) (string, error) {
	if len(password) < h.minLength {
		return "", fmt.Errorf("password: minimum length is %d characters", h.minLength)
	}
	if len(password) > 72 {
		return "", errors.New("password: maximum length is 72 characters (bcrypt limit)")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hash), nil
}

func (h *bcryptHasher) Verify(password, hash string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrMismatch
	}
	return nil
}

// --- argon2id ---

type argon2Hasher struct {
	time      uint32
	memory    uint32
	threads   uint8
	keyLen    uint32
	saltLen   int
	minLength int
}

func (h *argon2Hasher) Hash(password string) (string, error) {
	if len(password) < h.minLength {
		return "", fmt.Errorf("password: minimum length is %d characters", h.minLength)
	}

	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)

	// Encoded as: $argon2id$v=19$m=MEMORY,t=TIME,p=THREADS$SALT$HASH
	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

func (h *argon2Hasher) Verify(password, encodedHash string) error {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return errors.New("password: invalid argon2id hash format")
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return fmt.Errorf("password: parse argon2id params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("password: decode salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("password: decode hash: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(expected)))
	if subtle.ConstantTimeCompare(hash, expected) != 1 {
		return ErrMismatch
	}
	return nil
}
