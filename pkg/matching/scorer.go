// Package matching implements the cascading identity-matching engine:
// deterministic exact lookup, blended fuzzy similarity, and LLM
// semantic comparison.
package matching

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Scorer provides the string comparison primitives used by the fuzzy
// stage.
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Ratio is the normalized edit-distance similarity between two strings,
// 1.0 for identical input.
func (s *Scorer) Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// TokenSortRatio compares the strings with their whitespace-separated
// tokens sorted, so word order does not matter.
func (s *Scorer) TokenSortRatio(a, b string) float64 {
	return s.Ratio(sortTokens(a), sortTokens(b))
}

// PartialRatio returns the best Ratio of the shorter string against any
// equal-length substring of the longer one, tolerating prefix/suffix
// noise.
func (s *Scorer) PartialRatio(a, b string) float64 {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0.0
	}
	if len(shorter) == len(longer) {
		return s.Ratio(string(shorter), string(longer))
	}

	best := 0.0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		window := string(longer[i : i+len(shorter)])
		if r := s.Ratio(string(shorter), window); r > best {
			best = r
		}
		if best == 1.0 {
			break
		}
	}
	return best
}

// Blend is the weighted lexical similarity used for identifier and name
// comparison: 0.5 exact-alignment + 0.3 token-order-insensitive + 0.2
// substring-tolerant.
func (s *Scorer) Blend(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	return 0.5*s.Ratio(a, b) + 0.3*s.TokenSortRatio(a, b) + 0.2*s.PartialRatio(a, b)
}

// PhoneticMatch returns 1.0 when both names share a Metaphone encoding
func (s *Scorer) PhoneticMatch(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if s.Metaphone(a) == s.Metaphone(b) {
		return 1.0
	}
	return 0.0
}

// Metaphone calculates a simplified Metaphone encoding
func (s *Scorer) Metaphone(str string) string {
	str = strings.ToUpper(str)

	var letters strings.Builder
	for _, r := range str {
		if r >= 'A' && r <= 'Z' {
			letters.WriteRune(r)
		} else if unicode.IsLetter(r) {
			// Non-ASCII letters carry no code; drop them
			continue
		}
	}
	str = letters.String()
	if str == "" {
		return ""
	}

	var encoded strings.Builder
	prevCode := byte(0)
	for i := 0; i < len(str) && encoded.Len() < 6; i++ {
		code := metaphoneCode(str[i], i, str)
		if code != 0 && code != prevCode {
			encoded.WriteByte(code)
			prevCode = code
		}
	}
	return encoded.String()
}

// metaphoneCode returns the Metaphone code for a character
func metaphoneCode(char byte, pos int, word string) byte {
	switch char {
	case 'A', 'E', 'I', 'O', 'U':
		if pos == 0 {
			return char
		}
		return 0
	case 'B':
		return 'B'
	case 'C':
		if pos+1 < len(word) && (word[pos+1] == 'I' || word[pos+1] == 'E' || word[pos+1] == 'Y') {
			return 'S'
		}
		return 'K'
	case 'D':
		return 'T'
	case 'F':
		return 'F'
	case 'G':
		return 'J'
	case 'H':
		return 0 // Usually silent
	case 'J':
		return 'J'
	case 'K':
		return 'K'
	case 'L':
		return 'L'
	case 'M':
		return 'M'
	case 'N':
		return 'N'
	case 'P':
		if pos+1 < len(word) && word[pos+1] == 'H' {
			return 'F'
		}
		return 'P'
	case 'Q':
		return 'K'
	case 'R':
		return 'R'
	case 'S':
		return 'S'
	case 'T':
		return 'T'
	case 'V':
		return 'F'
	case 'W':
		return 0
	case 'X':
		return 'S'
	case 'Y':
		return 0
	case 'Z':
		return 'S'
	default:
		return 0
	}
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
