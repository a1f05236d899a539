package events

import "strings"

const (
	DefaultPrefix = "rating"

	StreamName   = "RATING_EVENTS"
	StreamMaxAge = "2160h" // 90 days
)

// Subjects builds subject names under a common prefix.
type Subjects struct {
	Prefix string
}

func NewSubjects(prefix string) Subjects {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Subjects{Prefix: prefix}
}

// Stream is the wildcard the JetStream stream captures.
func (s Subjects) Stream() string { return s.Prefix + ".>" }

func (s Subjects) Computed(counterpartyID string) string {
	return s.Prefix + "." + token(counterpartyID) + ".computed"
}

func (s Subjects) Rejected(counterpartyID string) string {
	return s.Prefix + "." + token(counterpartyID) + ".rejected"
}

// token makes an arbitrary id safe to use as a single subject token.
func token(id string) string {
	if id == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, id)
}
