// Package resolver maps canonical textual signatures to named callables.
//
// Hosts that patch an opaque, auto-generated codebase cannot reference the
// functions they intercept statically; names churn between builds. What
// stays stable is the serialized source of the function. The resolver holds
// a corpus of named callables and answers resolve(signature) -> name so the
// host can discover its interception targets at runtime.
package resolver

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates no callable in the corpus matches the
	// signature.
	ErrNotFound = errors.New("resolver: no callable matches signature")

	// ErrAmbiguous indicates the signature matches more than one
	// callable. The caller must supply a longer signature.
	ErrAmbiguous = errors.New("resolver: signature matches multiple callables")
)

// Corpus holds named callables keyed by name, each value the callable's
// serialized source.
type Corpus map[string]string

// Resolver answers signature lookups over a fixed corpus.
type Resolver struct {
	names  []string // sorted, for deterministic iteration
	corpus Corpus
	log    *slog.Logger
}

// New builds a resolver over corpus. A nil logger falls back to
// [slog.Default].
func New(corpus Corpus, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	names := make([]string, 0, len(corpus))
	for name := range corpus {
		names = append(names, name)
	}

	sort.Strings(names)

	return &Resolver{names: names, corpus: corpus, log: logger}
}

// Resolve returns the name of the callable whose serialized source matches
// signature. Strategies, in order: exact source equality,
// whitespace-normalized equality, then unique normalized prefix. Returns
// [ErrNotFound] or [ErrAmbiguous] accordingly.
func (r *Resolver) Resolve(signature string) (string, error) {
	if name, ok := r.match(func(src string) bool { return src == signature }); ok {
		r.log.Debug("resolved signature", slog.String("name", name), slog.String("strategy", "exact"))

		return name, nil
	}

	norm := normalize(signature)

	if name, ok := r.match(func(src string) bool { return normalize(src) == norm }); ok {
		r.log.Debug("resolved signature", slog.String("name", name), slog.String("strategy", "normalized"))

		return name, nil
	}

	var hits []string

	for _, name := range r.names {
		if strings.HasPrefix(normalize(r.corpus[name]), norm) {
			hits = append(hits, name)
		}
	}

	switch len(hits) {
	case 0:
		return "", ErrNotFound
	case 1:
		r.log.Debug("resolved signature", slog.String("name", hits[0]), slog.String("strategy", "prefix"))

		return hits[0], nil
	default:
		return "", ErrAmbiguous
	}
}

// match returns the single corpus entry satisfying pred. Multiple
// satisfying entries count as no match so a later, stricter strategy never
// hides ambiguity.
func (r *Resolver) match(pred func(src string) bool) (string, bool) {
	var found string

	for _, name := range r.names {
		if !pred(r.corpus[name]) {
			continue
		}

		if found != "" {
			return "", false
		}

		found = name
	}

	return found, found != ""
}

// normalize collapses all whitespace runs to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
