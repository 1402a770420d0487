package errsan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := map[string]Category{
		"D1_ERROR: no such table":   CategoryDatabase,
		"sql: connection is closed": CategoryDatabase,
		"fetch failed":              CategoryNetwork,
		"upstream timeout":          CategoryNetwork,
		"invalid email":             CategoryValidation,
		"name is required":          CategoryValidation,
		"Unauthorized":              CategoryAuth,
		"forbidden resource":        CategoryAuth,
		"project not found":         CategoryNotFound,
		"HTTP 404":                  CategoryNotFound,
		"rate limit exceeded":       CategoryRateLimit,
		"status 429":                CategoryRateLimit,
		"something odd happened":    CategoryDefault,
	}
	for msg, want := range cases {
		assert.Equal(t, want, Classify(errors.New(msg)), msg)
	}
	assert.Equal(t, CategoryDefault, Classify(nil))
}

func TestCategoryMessagesAndCodes(t *testing.T) {
	assert.Equal(t, "RATE_LIMITED", CategoryRateLimit.Code())
	assert.Equal(t, "INTERNAL_ERROR", Category("bogus").Code())
	assert.Equal(t, CategoryDefault.UserMessage(), Category("bogus").UserMessage())
	assert.Len(t, UserMessages(), 7)
}
