package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/quilldesk/quilldesk/config"
	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidHash         = errors.New("invalid argon2id hash")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

type params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

type Service struct {
	params params
}

func NewService(cfg *config.AuthConfig) *Service {
	return &Service{params: params{
		memory:      cfg.Argon2Memory,
		iterations:  cfg.Argon2Iterations,
		parallelism: cfg.Argon2Parallelism,
		saltLength:  cfg.Argon2SaltLength,
		keyLength:   cfg.Argon2KeyLength,
	}}
}

// Hash derives an Argon2id key from password and returns it in the
// standard encoded form:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt>$<key>
func (s *Service) Hash(password string) (string, error) {
	salt := make([]byte, s.params.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, s.params.iterations, s.params.memory, s.params.parallelism, s.params.keyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, s.params.memory, s.params.iterations, s.params.parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify reports whether password matches encodedHash. The hash carries
// its own parameters so older records stay verifiable after a parameter
// bump.
func (s *Service) Verify(encodedHash, password string) (bool, error) {
	p, salt, expected, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	key := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, uint32(len(expected)))

	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

func decodeHash(encoded string) (params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params{}, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return params{}, nil, nil, ErrIncompatibleVersion
	}

	var p params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return params{}, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params{}, nil, nil, ErrInvalidHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params{}, nil, nil, ErrInvalidHash
	}
	if len(key) < 16 || len(key) > 128 {
		return params{}, nil, nil, ErrInvalidHash
	}

	return p, salt, key, nil
}
