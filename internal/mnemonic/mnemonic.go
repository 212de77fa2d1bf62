// Package mnemonic assigns single-key shortcuts to a list of labels.
package mnemonic

import (
	"fmt"
	"strings"
	"unicode"
)

// Policy selects how a label's shortcut character is chosen.
type Policy int

const (
	// Greedy picks the first letter or digit of each label not taken by an earlier label.
	Greedy Policy = iota
	// WordStart prefers word-initial letters, then consonants, then any letter or digit.
	WordStart
)

func (p Policy) String() string {
	switch p {
	case Greedy:
		return "greedy"
	case WordStart:
		return "word-start"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses "greedy" or "word-start".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "greedy":
		return Greedy, nil
	case "word-start", "wordstart", "word":
		return WordStart, nil
	default:
		return Greedy, fmt.Errorf("unknown mnemonic policy %q (want greedy or word-start)", s)
	}
}

// Mnemonic is the shortcut assigned to one label.
// Pos is the rune offset of the chosen character in the label, -1 when none was assigned.
type Mnemonic struct {
	Key rune
	Pos int
}

// None is the zero assignment.
var None = Mnemonic{Pos: -1}

// OK reports whether a shortcut was assigned.
func (m Mnemonic) OK() bool { return m.Pos >= 0 }

type options struct {
	policy   Policy
	reserved map[rune]bool
}

// Option configures Assign.
type Option func(*options)

// WithPolicy selects the assignment policy.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithReserved excludes keys from assignment, e.g. a global quit key.
func WithReserved(keys ...rune) Option {
	return func(o *options) {
		for _, k := range keys {
			o.reserved[unicode.ToLower(k)] = true
		}
	}
}

// Assign returns one Mnemonic per label, in order. Earlier labels have priority,
// keys are lowercase and no two labels share a key. Matching is case-insensitive.
func Assign(labels []string, opts ...Option) []Mnemonic {
	o := options{reserved: make(map[rune]bool)}
	for _, opt := range opts {
		opt(&o)
	}
	taken := make(map[rune]bool, len(labels))
	for k := range o.reserved {
		taken[k] = true
	}

	out := make([]Mnemonic, len(labels))
	for i, label := range labels {
		runes := []rune(label)
		m := None
		for _, pos := range candidates(runes, o.policy) {
			k := unicode.ToLower(runes[pos])
			if !taken[k] {
				taken[k] = true
				m = Mnemonic{Key: k, Pos: pos}
				break
			}
		}
		out[i] = m
	}
	return out
}

// Lookup returns the index of the label whose key is k, or -1.
func Lookup(ms []Mnemonic, k rune) int {
	k = unicode.ToLower(k)
	for i, m := range ms {
		if m.OK() && m.Key == k {
			return i
		}
	}
	return -1
}

func eligible(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// candidates lists rune positions in the order the policy tries them.
func candidates(runes []rune, p Policy) []int {
	var all []int
	for i, r := range runes {
		if eligible(r) {
			all = append(all, i)
		}
	}
	if p != WordStart {
		return all
	}

	var starts, consonants []int
	for _, i := range all {
		if i == 0 || !eligible(runes[i-1]) {
			starts = append(starts, i)
		}
		if isConsonant(runes[i]) {
			consonants = append(consonants, i)
		}
	}
	out := make([]int, 0, len(starts)+len(consonants)+len(all))
	out = append(out, starts...)
	out = append(out, consonants...)
	return append(out, all...)
}

func isConsonant(r rune) bool {
	if !unicode.IsLetter(r) {
		return false
	}
	return !strings.ContainsRune("aeiou", unicode.ToLower(r))
}
