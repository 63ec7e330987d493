package classify

import (
	"strings"
	"testing"

	"thirdeye/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClassify_AddsDefaultScheme(t *testing.T) {
	c := New()

	tests := []string{
		"example.com",
		"example.com/path?q=1",
		"bit.ly/abc",
		"203.0.113.5",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			result := c.Classify(input)
			assert.True(t, strings.HasPrefix(result.CleanTarget, "https://"),
				"clean target should be scheme-prefixed, got %q", result.CleanTarget)
		})
	}
}

func TestClassify_PreservesExistingScheme(t *testing.T) {
	c := New()

	result := c.Classify("http://example.com")
	assert.Equal(t, "http://example.com", result.CleanTarget)
	assert.Equal(t, models.CategoryValid, result.Category)
}

func TestClassify_LocalhostAndPrivateRanges(t *testing.T) {
	c := New()

	tests := []struct {
		name  string
		input string
	}{
		{"localhost name", "localhost"},
		{"localhost with port", "localhost:3000"},
		{"loopback literal", "127.0.0.1"},
		{"rfc1918 class c", "192.168.1.5"},
		{"rfc1918 class a", "10.0.0.1"},
		{"rfc1918 class b", "172.16.4.2"},
		{"link local", "169.254.1.1"},
		{"zero network", "0.0.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(tt.input)
			assert.False(t, result.IsValid)
			assert.Equal(t, models.CategoryLocalhostPrivate, result.Category)
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestClassify_PrivateRangeBeatsIPShape(t *testing.T) {
	c := New()

	// A private IP also matches the bare-IPv4 rule; the block must win.
	result := c.Classify("192.168.0.10")
	assert.False(t, result.IsValid)
	assert.Equal(t, models.CategoryLocalhostPrivate, result.Category)
}

func TestClassify_Shorteners(t *testing.T) {
	c := New()

	tests := []struct {
		name  string
		input string
	}{
		{"exact match", "bit.ly/abc"},
		{"subdomain match", "go.bit.ly/abc"},
		{"tinyurl", "tinyurl.com/xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(tt.input)
			assert.True(t, result.IsValid)
			assert.Equal(t, models.CategoryShortURL, result.Category)
			assert.NotEmpty(t, result.Message, "shortener warning is required")
		})
	}
}

func TestClassify_PublicIPAddress(t *testing.T) {
	c := New()

	result := c.Classify("203.0.113.5")
	assert.True(t, result.IsValid)
	assert.Equal(t, models.CategoryIPAddress, result.Category)
	assert.NotEmpty(t, result.Message)
}

func TestClassify_Malformed(t *testing.T) {
	c := New()

	tests := []struct {
		name  string
		input string
	}{
		{"spaces in host", "not a domain"},
		{"bare word", "justaword"},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(tt.input)
			assert.False(t, result.IsValid)
			assert.Equal(t, models.CategoryMalformed, result.Category)
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestClassify_UnparseableEchoesRawInput(t *testing.T) {
	c := New()

	raw := "not a domain"
	result := c.Classify(raw)
	assert.Equal(t, raw, result.CleanTarget)
}

func TestClassify_SuspiciousLength(t *testing.T) {
	c := New()

	input := "example.com/" + strings.Repeat("a", maxTargetLength)
	result := c.Classify(input)
	assert.False(t, result.IsValid)
	assert.Equal(t, models.CategorySuspicious, result.Category)
}

func TestClassify_Valid(t *testing.T) {
	c := New()

	result := c.Classify("example.com")
	assert.True(t, result.IsValid)
	assert.Equal(t, models.CategoryValid, result.Category)
	assert.Equal(t, "https://example.com", result.CleanTarget)
	assert.Empty(t, result.Message)
}
