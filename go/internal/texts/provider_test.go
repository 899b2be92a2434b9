package texts

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsre/keysprint/go/internal/typing"
)

type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Generate(context.Context, typing.Config) (string, error) {
	return g.text, g.err
}

func TestProviderPrefersGenerator(t *testing.T) {
	p := NewProvider(stubGenerator{text: "generated text"}, NewPoolWithSeed(1))
	got := p.Fetch(context.Background(), typing.Config{Mode: typing.ModeWords, DurationSec: 30})
	assert.Equal(t, "generated text", got)
}

func TestProviderFallsBackSilently(t *testing.T) {
	p := NewProvider(stubGenerator{err: fmt.Errorf("boom")}, NewPoolWithSeed(1))
	got := p.Fetch(context.Background(), typing.Config{Mode: typing.ModeWords, DurationSec: 30})
	assert.NotEmpty(t, got, "fallback must never leave the session without text")
}

func TestProviderWithoutGenerator(t *testing.T) {
	p := NewProvider(nil, NewPoolWithSeed(1))
	got := p.Fetch(context.Background(), typing.Config{Mode: typing.ModeQuote, DurationSec: 15})
	assert.NotEmpty(t, got)
}

func TestPoolTiersScaleWithDuration(t *testing.T) {
	pool := NewPoolWithSeed(42)
	short := pool.Select(typing.Config{Mode: typing.ModeWords, DurationSec: 15})
	long := pool.Select(typing.Config{Mode: typing.ModeWords, DurationSec: 120})
	assert.Greater(t, len(strings.Fields(long)), len(strings.Fields(short)))
}

func TestPoolNumbersFlag(t *testing.T) {
	pool := NewPoolWithSeed(7)
	text := pool.Select(typing.Config{Mode: typing.ModeWords, DurationSec: 120, Numbers: true})
	assert.True(t, strings.ContainsAny(text, "0123456789"), "numbers flag should inject digits")
}

func TestPoolPunctuationFlag(t *testing.T) {
	pool := NewPoolWithSeed(7)
	text := pool.Select(typing.Config{Mode: typing.ModeWords, DurationSec: 60, Punctuation: true})
	assert.True(t, strings.ContainsAny(text, ".,;:!?"))
}

func TestPoolQuoteMode(t *testing.T) {
	pool := NewPoolWithSeed(3)
	for i := 0; i < 10; i++ {
		text := pool.Select(typing.Config{Mode: typing.ModeQuote, DurationSec: 30})
		require.NotEmpty(t, text)
	}
}
