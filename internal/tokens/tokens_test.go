package tokens

import (
	"errors"
	"testing"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/assert"
)

func TestApproximate(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"éééé", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Approximate(tt.in), tt.in)
	}
}

func TestFallback(t *testing.T) {
	e := Fallback()
	assert.Equal(t, 3, e.Count("hello world!"))
	assert.False(t, e.Exact())
	assert.Zero(t, e.Count(""))
}

func TestEstimator_LoadFailure(t *testing.T) {
	calls := 0
	e := &Estimator{load: func() (*tiktoken.Tiktoken, error) {
		calls++
		return nil, errors.New("offline")
	}}

	assert.Equal(t, 2, e.Count("12345678"))
	assert.Equal(t, 2, e.Count("12345678"))
	assert.Equal(t, 1, calls)
	assert.False(t, e.Exact())
}
