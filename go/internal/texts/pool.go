package texts

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/mattsre/keysprint/go/internal/typing"
)

// Length tiers partition the fallback pool by configured test duration.
type lengthTier int

const (
	tierShort lengthTier = iota
	tierMedium
	tierLong
)

func tierFor(durationSec int) lengthTier {
	switch {
	case durationSec <= 15:
		return tierShort
	case durationSec <= 60:
		return tierMedium
	default:
		return tierLong
	}
}

func (t lengthTier) wordCount() int {
	switch t {
	case tierShort:
		return 25
	case tierMedium:
		return 60
	default:
		return 120
	}
}

// Pool produces reference text from fixed local word and quote lists,
// partitioned by mode, punctuation/numbers flags, and duration tier.
type Pool struct {
	rnd *rand.Rand
}

// NewPool returns a pool seeded with the current time.
func NewPool() *Pool {
	return &Pool{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewPoolWithSeed returns a deterministic pool, for tests.
func NewPoolWithSeed(seed int64) *Pool {
	return &Pool{rnd: rand.New(rand.NewSource(seed))}
}

// Select picks a text for the configuration. It never fails and never
// returns an empty string.
func (p *Pool) Select(cfg typing.Config) string {
	if cfg.Mode == typing.ModeQuote {
		return p.selectQuote(tierFor(cfg.DurationSec))
	}
	return p.buildWords(cfg)
}

func (p *Pool) selectQuote(tier lengthTier) string {
	var quotes []string
	switch tier {
	case tierShort:
		quotes = shortQuotes
	case tierMedium:
		quotes = mediumQuotes
	default:
		quotes = longQuotes
	}
	return quotes[p.rnd.Intn(len(quotes))]
}

func (p *Pool) buildWords(cfg typing.Config) string {
	count := tierFor(cfg.DurationSec).wordCount()
	parts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if cfg.Numbers && p.rnd.Float64() < 0.15 {
			parts = append(parts, strconv.Itoa(p.rnd.Intn(1000)))
			continue
		}
		word := commonWords[p.rnd.Intn(len(commonWords))]
		if cfg.Punctuation {
			word = p.decorate(word, i == 0)
		}
		parts = append(parts, word)
	}
	text := strings.Join(parts, " ")
	if cfg.Punctuation && !strings.HasSuffix(text, ".") {
		text += "."
	}
	return text
}

// decorate applies capitalization and trailing punctuation the way the
// punctuation toggle does in the word mode pools.
func (p *Pool) decorate(word string, forceCaps bool) string {
	if forceCaps || p.rnd.Float64() < 0.1 {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		word = string(runes)
	}
	if p.rnd.Float64() < 0.15 {
		word += string(sentencePunctuation[p.rnd.Intn(len(sentencePunctuation))])
	}
	return word
}
