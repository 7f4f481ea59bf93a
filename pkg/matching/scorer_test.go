package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorerRatio(t *testing.T) {
	s := NewScorer()

	t.Run("identical strings score 1", func(t *testing.T) {
		assert.Equal(t, 1.0, s.Ratio("sara_j", "sara_j"))
	})

	t.Run("empty input scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, s.Ratio("", "sara_j"))
		assert.Equal(t, 0.0, s.Ratio("sara_j", ""))
	})

	t.Run("single edit", func(t *testing.T) {
		// one insertion over seven runes
		got := s.Ratio("sara_j", "sarah_j")
		assert.InDelta(t, 1.0-1.0/7.0, got, 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t, s.Ratio("sara", "sarah"), s.Ratio("sarah", "sara"))
	})

	t.Run("bounded", func(t *testing.T) {
		got := s.Ratio("abc", "xyz")
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	})
}

func TestScorerTokenSortRatio(t *testing.T) {
	s := NewScorer()

	t.Run("word order ignored", func(t *testing.T) {
		assert.Equal(t, 1.0, s.TokenSortRatio("johnson sara", "sara johnson"))
	})

	t.Run("different tokens still penalized", func(t *testing.T) {
		assert.Less(t, s.TokenSortRatio("sara johnson", "sara smith"), 1.0)
	})
}

func TestScorerPartialRatio(t *testing.T) {
	s := NewScorer()

	t.Run("substring scores 1", func(t *testing.T) {
		assert.Equal(t, 1.0, s.PartialRatio("sara", "sara.johnson"))
	})

	t.Run("order independent of argument length", func(t *testing.T) {
		assert.Equal(t, s.PartialRatio("sara", "sara.johnson"), s.PartialRatio("sara.johnson", "sara"))
	})

	t.Run("empty scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, s.PartialRatio("", "sara"))
	})
}

func TestScorerBlend(t *testing.T) {
	s := NewScorer()

	t.Run("identical strings score 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, s.Blend("sara_j", "sara_j"), 1e-9)
	})

	t.Run("empty input scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, s.Blend("", "sara_j"))
	})

	t.Run("near strings score high", func(t *testing.T) {
		assert.Greater(t, s.Blend("sara_j", "sarah_j"), 0.65)
	})

	t.Run("unrelated strings score low", func(t *testing.T) {
		assert.Less(t, s.Blend("sara_j", "zq9x"), 0.4)
	})
}

func TestMetaphone(t *testing.T) {
	s := NewScorer()

	t.Run("sara and sarah encode identically", func(t *testing.T) {
		assert.Equal(t, s.Metaphone("Sara"), s.Metaphone("Sarah"))
	})

	t.Run("phonetic pairs", func(t *testing.T) {
		pairs := [][2]string{
			{"Philip", "Filip"},
			{"Catherine", "Katherine"},
		}
		for _, p := range pairs {
			assert.Equal(t, s.Metaphone(p[0]), s.Metaphone(p[1]), "%s vs %s", p[0], p[1])
		}
	})

	t.Run("different names differ", func(t *testing.T) {
		assert.NotEqual(t, s.Metaphone("Sara"), s.Metaphone("Robert"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", s.Metaphone(""))
		assert.Equal(t, "", s.Metaphone("123"))
	})
}

func TestPhoneticMatch(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 1.0, s.PhoneticMatch("Sara", "Sarah"))
	assert.Equal(t, 0.0, s.PhoneticMatch("Sara", "Robert"))
	assert.Equal(t, 0.0, s.PhoneticMatch("", "Sara"))
}
