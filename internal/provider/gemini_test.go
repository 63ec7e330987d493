package provider

import (
	"context"
	"testing"

	"google.golang.org/genai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiProvider_RequiresAPIKey(t *testing.T) {
	svc, err := NewGeminiProvider(context.Background(), "", "", "")

	assert.Error(t, err)
	assert.Nil(t, svc)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestAnalysisSchema_Shape(t *testing.T) {
	schema := analysisSchema()

	require.NotNil(t, schema)
	assert.Equal(t, genai.TypeObject, schema.Type)

	// The required subset keeps partial provider output usable
	assert.ElementsMatch(t,
		[]string{"status", "backend", "frontend", "security_score", "red_flags"},
		schema.Required,
	)

	// Status values are constrained to the canonical set
	status, ok := schema.Properties["status"]
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"SUCCESS", "UNREACHABLE", "FAILED"}, status.Enum)

	// Every wire field has a schema entry
	for _, field := range []string{
		"error_summary", "database", "is_ecommerce", "ecommerce_platform",
		"checkout_strategy", "ai_content_score", "ai_content_analysis",
		"fonts", "colors", "improvements", "seo_score", "seo_issues",
	} {
		assert.Contains(t, schema.Properties, field)
	}
}
