package query

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PatternMode selects how Pattern wraps a literal with the '%' wildcard.
type PatternMode int

const (
	// PatternGaps wraps every character position: "cat" ➜ "%c%a%t%".
	// Matches the characters in order with anything between them.
	PatternGaps PatternMode = iota
	// PatternSubstring wraps the whole literal: "cat" ➜ "%cat%".
	PatternSubstring
)

func (m PatternMode) String() string {
	if m == PatternSubstring {
		return "substring"
	}
	return "gaps"
}

// ParsePatternMode accepts "gaps" (also the empty string) or "substring".
func ParsePatternMode(s string) (PatternMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gaps":
		return PatternGaps, nil
	case "substring":
		return PatternSubstring, nil
	}
	return PatternGaps, fmt.Errorf("query: unknown pattern mode %q", s)
}

// Pattern builds a LIKE pattern from a user literal. The literal is NFC
// normalized first so a precomposed character counts as one position, and its
// own '%', '_' and '\' are escaped with '\'.
func Pattern(s string, mode PatternMode) string {
	s = norm.NFC.String(s)

	var sb strings.Builder
	sb.Grow(len(s)*2 + 2)
	sb.WriteByte('%')
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
		if mode == PatternGaps {
			sb.WriteByte('%')
		}
	}
	if mode == PatternSubstring && s != "" {
		sb.WriteByte('%')
	}
	return sb.String()
}
