// Package tokens estimates prompt sizes.
//
// DESIGN: Vendors tokenize differently and Bedrock reports usage only after
// the call, so estimates use tiktoken's cl100k_base as a common yardstick.
// When the encoding cannot be loaded (offline, no TIKTOKEN_CACHE_DIR) the
// estimator falls back to roughly four characters per token.
package tokens

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

// Encoding is the tiktoken encoding used for estimates.
const Encoding = "cl100k_base"

// charsPerToken is the fallback ratio.
const charsPerToken = 4

// Estimator counts tokens in text.
type Estimator struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
	load func() (*tiktoken.Tiktoken, error)
}

// NewEstimator returns an estimator that loads the encoding on first use.
func NewEstimator() *Estimator {
	return &Estimator{load: func() (*tiktoken.Tiktoken, error) { return tiktoken.GetEncoding(Encoding) }}
}

// Fallback returns an estimator that never loads an encoding.
func Fallback() *Estimator {
	e := &Estimator{}
	e.once.Do(func() {})
	return e
}

var defaultEstimator = NewEstimator()

// Count estimates the tokens in text with the shared estimator.
func Count(text string) int { return defaultEstimator.Count(text) }

// Count estimates the tokens in text.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	e.once.Do(func() {
		enc, err := e.load()
		if err != nil {
			log.Warn().Err(err).Str("encoding", Encoding).Msg("tiktoken unavailable, using character estimate")
			return
		}
		e.enc = enc
	})
	if e.enc != nil {
		return len(e.enc.Encode(text, nil, nil))
	}
	return Approximate(text)
}

// Exact reports whether counts come from the tokenizer.
func (e *Estimator) Exact() bool {
	return e.enc != nil
}

// Approximate estimates tokens from the rune count, rounding up.
func Approximate(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}
