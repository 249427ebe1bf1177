package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarSameStoryDifferentWording(t *testing.T) {
	// Shared entity plus shared number.
	assert.True(t, Similar("OpenAI raises $500M", "OpenAI secures $500 million funding"))
	assert.True(t, Similar("Linux 6.9 released", "Linux kernel 6.9 is out"))
}

func TestSimilarSubstring(t *testing.T) {
	assert.True(t, Similar("Rust 2.0", "Rust 2.0 announced today"))
}

func TestSimilarShortTitlesSharedEntity(t *testing.T) {
	assert.True(t, Similar("Apple Vision Pro", "Vision Pro reviews"))
}

func TestSimilarExactAfterNormalization(t *testing.T) {
	assert.True(t, Similar("Hello, World!", "hello world"))
}

func TestNotSimilar(t *testing.T) {
	assert.False(t, Similar("Google announces new phone", "Microsoft quarterly earnings"))
	assert.False(t, Similar("", "anything"))
	assert.False(t, Similar("anything", ""))
}

func TestSimilarIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"OpenAI raises $500M", "OpenAI secures $500 million funding"},
		{"Rust 2.0", "Rust 2.0 announced today"},
		{"Google announces new phone", "Microsoft quarterly earnings"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similar(p[0], p[1]), Similar(p[1], p[0]), "pair %v", p)
	}
}

func TestSimilarWithCustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.ShortTitleLen = 5 // effectively disables the short-title rule
	assert.False(t, SimilarWith("Apple event", "Apple store", th))
}

func TestBigramJaccard(t *testing.T) {
	assert.InDelta(t, 1.0, bigramJaccard("abcd", "abcd"), 1e-9)
	assert.Zero(t, bigramJaccard("abcd", "wxyz"))
	assert.Zero(t, bigramJaccard("", "abcd"))
}
