package service

import (
	"fmt"
	"strings"
	"unicode"
)

// Call describes a remote service invocation before normalisation.
type Call struct {
	// Domain is the service namespace (e.g., "light"). Caller-facing
	// casing (camel or Pascal) is accepted and converted to the hub's
	// snake_case wire convention.
	Domain string

	// Service is the action name (e.g., "turnOn" → "turn_on").
	Service string

	// Data is the optional service payload.
	Data map[string]any

	// Target selects the entities the call applies to. Accepted forms:
	// a single identifier (string), a list of identifiers ([]string), or
	// a pre-structured target (map[string]any), passed through unchanged.
	Target any
}

// Normalize validates the call and converts it to the hub's wire form.
//
// Domain and service names are converted to snake_case, and the target is
// wrapped into the structured {"entity_id": [...]} form. Validation
// failures are caller programming errors and are returned synchronously —
// an invalid call must never reach the wire.
//
// Returns:
//   - domain, service: wire-form identifiers
//   - target: structured target map, nil if the call has no target
//   - error: ErrInvalidDomain, ErrInvalidService, or ErrInvalidTarget
func (c Call) Normalize() (domain, service string, target map[string]any, err error) {
	domain = ToSnakeCase(c.Domain)
	if domain == "" {
		return "", "", nil, fmt.Errorf("%w: %q", ErrInvalidDomain, c.Domain)
	}

	service = ToSnakeCase(c.Service)
	if service == "" {
		return "", "", nil, fmt.Errorf("%w: %q", ErrInvalidService, c.Service)
	}

	target, err = NormalizeTarget(c.Target)
	if err != nil {
		return "", "", nil, err
	}

	return domain, service, target, nil
}

// NormalizeTarget converts the accepted caller-facing target forms into the
// hub's structured target.
//
// A single identifier or a sequence of identifiers is wrapped under the
// "entity_id" key; a pre-structured map passes through unchanged; nil means
// no target. Anything else is ErrInvalidTarget.
func NormalizeTarget(target any) (map[string]any, error) {
	switch t := target.(type) {
	case nil:
		return nil, nil
	case string:
		return map[string]any{"entity_id": []string{t}}, nil
	case []string:
		return map[string]any{"entity_id": t}, nil
	case map[string]any:
		return t, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidTarget, target)
	}
}

// ToSnakeCase converts a camelCase or PascalCase identifier to snake_case.
//
// Identifiers already in snake_case pass through unchanged. Consecutive
// capitals are treated as an initialism and kept together ("HVACMode" →
// "hvac_mode"). An identifier containing characters other than letters,
// digits, and underscores normalises to "" — the caller treats that as a
// validation failure.
func ToSnakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			// Word boundary: previous rune is lower/digit, or this capital
			// starts a new word after an initialism run (next is lower).
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLower(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		default:
			// Invalid identifier character
			return ""
		}
	}

	return b.String()
}
