// Package pipeline wires an intercepted data producer into the patcher.
//
// The host intercepts some callable that yields a mapping with an optional
// byte field (a fetched document, a decoded response). Wrapping that
// callable with a [Hook] scrubs the byte field in place with every
// configured fuzzy rule, and runs the plain text substitutions over string
// fields, before the payload reaches the original consumer. The hook has no
// contract with how the payload was obtained or what happens to it after.
package pipeline

import (
	"log/slog"
	"strings"

	"scrub/internal/rules"
	"scrub/pkg/bytepatch"
)

// Payload is the shape of an intercepted call result: a mapping whose
// fields are untyped, one of which may hold a byte sequence.
type Payload map[string]any

// Producer is any callable that yields a payload.
type Producer func() (Payload, error)

// Hook scrubs payloads produced by an intercepted callable.
type Hook struct {
	patterns []*bytepatch.Pattern
	replacer *strings.Replacer
	field    string
	log      *slog.Logger
}

// New builds a hook from a loaded rules config. A nil logger falls back to
// [slog.Default].
func New(cfg rules.Config, logger *slog.Logger) *Hook {
	if logger == nil {
		logger = slog.Default()
	}

	pairs := make([]string, 0, len(cfg.TextRules)*2)
	for _, tr := range cfg.TextRules {
		pairs = append(pairs, tr.Old, tr.New)
	}

	field := cfg.Field
	if field == "" {
		field = rules.DefaultField
	}

	return &Hook{
		patterns: cfg.Patterns(),
		replacer: strings.NewReplacer(pairs...),
		field:    field,
		log:      logger,
	}
}

// Wrap returns a producer that scrubs every payload the wrapped producer
// emits. Errors pass through untouched.
func (h *Hook) Wrap(p Producer) Producer {
	return func() (Payload, error) {
		payload, err := p()
		if err != nil {
			return payload, err
		}

		h.Scrub(payload)

		return payload, nil
	}
}

// Scrub mutates the payload in place: the configured byte field is patched
// with every rule (only when present and non-empty), and every string field
// gets the plain text substitutions. Failing to patch is never an error;
// skipped matches are logged and left alone.
func (h *Hook) Scrub(payload Payload) {
	if payload == nil {
		return
	}

	if buf, ok := payload[h.field].([]byte); ok && len(buf) > 0 {
		for _, p := range h.patterns {
			st := p.Apply(buf)

			if st.Skipped > 0 {
				h.log.Warn("anchor not located, match left unpatched",
					slog.String("phrase", p.Phrase()),
					slog.Int("skipped", st.Skipped))
			}

			if st.Patched > 0 {
				h.log.Debug("patched byte field",
					slog.String("field", h.field),
					slog.String("phrase", p.Phrase()),
					slog.Int("patched", st.Patched),
					slog.Int("erased", st.Erased))
			}
		}
	}

	for key, val := range payload {
		if s, ok := val.(string); ok {
			payload[key] = h.replacer.Replace(s)
		}
	}
}
