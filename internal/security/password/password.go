package password

import (
	"errors"
	"strings"

	"github.com/alexedwards/argon2id"
)

const MinLen = 8

var ErrTooShort = errors.New("weak_password.length")

// Params mirrors argon2id.Params; Memory is in KiB.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams is ~128 MiB, t=3.
var DefaultParams = Params{Memory: 131072, Iterations: 3, Parallelism: 1}

var policy = DefaultParams

// SetParams changes the hashing cost for new hashes. Call once at startup.
func SetParams(p Params) {
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return
	}
	policy = p
}

func argonParams() *argon2id.Params {
	return &argon2id.Params{
		Memory:      policy.Memory,
		Iterations:  policy.Iterations,
		Parallelism: policy.Parallelism,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hash returns a PHC string like `$argon2id$v=19$m=131072,t=3,p=1$...`
func Hash(plain string) (string, error) {
	return argon2id.CreateHash(plain, argonParams())
}

// Verify checks plain against a PHC hash and reports whether the stored
// hash is weaker than the current policy.
func Verify(plain, phc string) (ok bool, needsRehash bool, err error) {
	ok, err = argon2id.ComparePasswordAndHash(plain, phc)
	if err != nil || !ok {
		return ok, false, err
	}
	return ok, NeedsRehash(phc), nil
}

func NeedsRehash(phc string) bool {
	stored, _, _, err := argon2id.DecodeHash(phc)
	if err != nil {
		return true
	}
	return stored.Memory < policy.Memory ||
		stored.Iterations < policy.Iterations ||
		stored.Parallelism < policy.Parallelism
}

type Warning struct {
	Score       int      `json:"score"` // 0..4
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

// Check trims pwd and blocks only on MinLen. Weak but long-enough passwords
// pass with a Warning.
func Check(pwd string, userInputs ...string) (trimmed string, warn *Warning, err error) {
	trimmed = strings.TrimSpace(pwd)
	if len(trimmed) < MinLen {
		return trimmed, nil, ErrTooShort
	}
	score, msg, sugg := strength(trimmed, userInputs...)
	if score < 3 {
		warn = &Warning{Score: score, Message: msg, Suggestions: sugg}
	}
	return trimmed, warn, nil
}

func strength(pwd string, hints ...string) (int, string, []string) {
	var hasL, hasU, hasD, hasS bool
	for _, r := range pwd {
		switch {
		case r >= 'a' && r <= 'z':
			hasL = true
		case r >= 'A' && r <= 'Z':
			hasU = true
		case r >= '0' && r <= '9':
			hasD = true
		default:
			hasS = true
		}
	}
	classes := 0
	for _, has := range []bool{hasL, hasU, hasD, hasS} {
		if has {
			classes++
		}
	}
	l := len(pwd)
	lower := strings.ToLower(pwd)
	for _, h := range hints {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && strings.Contains(lower, h) && l < 16 && classes > 1 {
			classes--
			break
		}
	}
	switch {
	case l >= 14 && classes >= 3:
		return 4, "", nil
	case l >= 12 && classes >= 3:
		return 3, "", []string{"Consider using a 3-4 word passphrase."}
	case l >= 10 && classes >= 2:
		return 2, "Short or low variety.", []string{"Add length and mix letters, numbers and symbols."}
	default:
		return 1, "Too short or predictable.", []string{"Use at least 10-12 chars with mixed types."}
	}
}
