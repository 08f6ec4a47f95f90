// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/carterperez-dev/coursehub/internal/config"
)

var ErrMalformedHash = errors.New("malformed password hash")

// ArgonParams is the argon2id cost policy. Hashes made under another
// policy still verify and are reported for rehash.
type ArgonParams struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

var DefaultArgonParams = ArgonParams{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

type PasswordHasher struct {
	params ArgonParams
	decoy  string
}

// NewPasswordHasher builds a hasher for p. Zero fields take the defaults.
func NewPasswordHasher(p ArgonParams) (*PasswordHasher, error) {
	if p.Memory == 0 {
		p.Memory = DefaultArgonParams.Memory
	}
	if p.Time == 0 {
		p.Time = DefaultArgonParams.Time
	}
	if p.Threads == 0 {
		p.Threads = DefaultArgonParams.Threads
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultArgonParams.KeyLen
	}
	if p.SaltLen == 0 {
		p.SaltLen = DefaultArgonParams.SaltLen
	}

	h := &PasswordHasher{params: p}

	decoy, err := h.Hash("coursehub-unknown-account")
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	h.decoy = decoy

	return h, nil
}

func (h *PasswordHasher) Params() ArgonParams {
	return h.params
}

// Hash encodes password in the PHC string format.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt,
		h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against encoded. When it matches but encoded was
// made under a different policy, rehash holds a fresh hash to store.
func (h *PasswordHasher) Verify(password, encoded string) (ok bool, rehash string, err error) {
	stored, salt, key, err := parseHash(encoded)
	if err != nil {
		return false, "", err
	}

	candidate := argon2.IDKey([]byte(password), salt,
		stored.Time, stored.Memory, stored.Threads, stored.KeyLen)
	if subtle.ConstantTimeCompare(key, candidate) != 1 {
		return false, "", nil
	}

	if stored.Memory == h.params.Memory &&
		stored.Time == h.params.Time &&
		stored.Threads == h.params.Threads &&
		stored.KeyLen == h.params.KeyLen {
		return true, "", nil
	}

	fresh, err := h.Hash(password)
	if err != nil {
		//nolint:nilerr // the password matched; the upgrade can wait for the next login
		return true, "", nil
	}
	return true, fresh, nil
}

// VerifyKnown is Verify for a login lookup that may have found no
// account. An empty encoded hash still pays for one argon2 run so unknown
// emails cost the same as wrong passwords.
func (h *PasswordHasher) VerifyKnown(password, encoded string) (bool, string, error) {
	if encoded == "" {
		//nolint:errcheck // decoy result is discarded
		_, _, _ = h.Verify(password, h.decoy)
		return false, "", nil
	}
	return h.Verify(password, encoded)
}

func parseHash(encoded string) (ArgonParams, []byte, []byte, error) {
	var p ArgonParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: version %q", ErrMalformedHash, parts[2])
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: params: %v", ErrMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: key: %v", ErrMalformedHash, err)
	}

	//nolint:gosec // G115: argon2 keys and salts are a few dozen bytes
	p.KeyLen, p.SaltLen = uint32(len(key)), uint32(len(salt))

	return p, salt, key, nil
}

// ArgonParamsFrom maps the configured cost policy onto ArgonParams. Key
// and salt lengths stay at their defaults.
func ArgonParamsFrom(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:  cfg.MemoryKiB,
		Time:    cfg.Iterations,
		Threads: cfg.Parallelism,
	}
}
