package pattern

import (
	"strings"

	"github.com/alecthomas/participle/v2"

	"exo/internal/errors"
)

var parser = participle.MustBuild[Pattern](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace"),
)

// Parse builds a Pattern from a fragment string such as "for i in _: _" or
// "C[_] += _". A malformed fragment yields a *errors.ParseFragmentError.
func Parse(fragment string) (*Pattern, error) {
	p, err := parser.ParseString("<pattern>", fragment)
	if err != nil {
		return nil, errors.NewParseFragmentError(fragment, err)
	}
	return p, nil
}

// Matches reports whether printed (the canonical String() of some TIR node)
// matches pat: literal tokens must appear identically and in order; a hole
// ("_") is a token-level wildcard matching zero or more candidate tokens,
// the same role "*" plays in shell globbing. Matching is classic
// two-pointer wildcard matching over the token sequences rather than the
// raw characters, so a hole can stand in for an entire sub-expression like
// "[0, N)" without the pattern author counting its tokens.
func (pat *Pattern) Matches(printed string) bool {
	candidate, err := Parse(printed)
	if err != nil {
		return false
	}
	return matchTokens(pat.Tokens, candidate.Tokens)
}

func matchTokens(pat, cand []*Token) bool {
	pi, ci := 0, 0
	starPi, starCi := -1, -1
	for ci < len(cand) {
		switch {
		case pi < len(pat) && pat[pi].Hole:
			starPi, starCi = pi, ci
			pi++
		case pi < len(pat) && pat[pi].String() == cand[ci].String():
			pi++
			ci++
		case starPi != -1:
			pi = starPi + 1
			starCi++
			ci = starCi
		default:
			return false
		}
	}
	for pi < len(pat) && pat[pi].Hole {
		pi++
	}
	return pi == len(pat)
}

// String reconstructs a readable form of the pattern, used in error
// messages when a schedule rewrite's find() fails to match anything.
func (pat *Pattern) String() string {
	parts := make([]string, len(pat.Tokens))
	for i, t := range pat.Tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
