package telemetry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSanitizer(t *testing.T) {
	tests := []struct {
		name  string
		level PIILevel
		salt  string
	}{
		{"none level", PIILevelNone, "km-1"},
		{"hashed level", PIILevelHashed, "km-2"},
		{"full level", PIILevelFull, "km-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSanitizer(tt.level, tt.salt)
			require.NotNil(t, s)
			assert.Equal(t, tt.level, s.level)
			assert.Equal(t, tt.salt, s.salt)
		})
	}
}

func TestSanitizeText_None(t *testing.T) {
	s := NewSanitizer(PIILevelNone, "km")
	assert.Equal(t, "[REDACTED]", s.SanitizeText("remember john@example.com"))
}

func TestSanitizeText_Full(t *testing.T) {
	s := NewSanitizer(PIILevelFull, "km")
	input := "remember john@example.com"
	assert.Equal(t, input, s.SanitizeText(input))
}

func TestSanitizeText_HashedEmail(t *testing.T) {
	s := NewSanitizer(PIILevelHashed, "km")
	result := s.SanitizeText("Contact me at john.doe@example.com for details")

	assert.NotContains(t, result, "john.doe@example.com")
	assert.Contains(t, result, "[EMAIL:")
	assert.Contains(t, result, "for details")
}

func TestSanitizeText_HashedMultiplePII(t *testing.T) {
	s := NewSanitizer(PIILevelHashed, "km")
	input := "Contact John at john@example.com or 555-123-4567. His SSN is 123-45-6789. Host 192.168.1.100"
	result := s.SanitizeText(input)

	assert.NotContains(t, result, "john@example.com")
	assert.NotContains(t, result, "555-123-4567")
	assert.NotContains(t, result, "123-45-6789")
	assert.NotContains(t, result, "192.168.1.100")
	assert.Contains(t, result, "[EMAIL:")
	assert.Contains(t, result, "[PHONE:")
	assert.Contains(t, result, "[SSN:REDACTED]")
	assert.Contains(t, result, "[IP:")
	assert.Contains(t, result, "Contact John at")
}

func TestSanitizeText_HashedCreditCard(t *testing.T) {
	s := NewSanitizer(PIILevelHashed, "km")

	result := s.SanitizeText("Card 4111 1111 1111 1111 on file")
	assert.Contains(t, result, "[CC:REDACTED]")
	assert.NotContains(t, result, "4111")
}

func TestSanitizeText_UTF8AndEmpty(t *testing.T) {
	s := NewSanitizer(PIILevelHashed, "km")

	result := s.SanitizeText("メール test@example.com 日本語タグ")
	assert.NotContains(t, result, "test@example.com")
	assert.Contains(t, result, "日本語タグ")

	assert.Equal(t, "", s.SanitizeText(""))
}

func TestSanitizeText_Truncates(t *testing.T) {
	s := NewSanitizer(PIILevelFull, "km")

	result := s.SanitizeText(strings.Repeat("あ", 1000))
	assert.Equal(t, maxAttributeLength+3, len([]rune(result)))
	assert.True(t, strings.HasSuffix(result, "..."))
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		level PIILevel
		id    string
		want  string
	}{
		{"none", PIILevelNone, "U123", "[REDACTED]"},
		{"full", PIILevelFull, "U123", "U123"},
		{"empty", PIILevelHashed, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSanitizer(tt.level, "km")
			assert.Equal(t, tt.want, s.SanitizeIdentifier(tt.id))
		})
	}

	hashed := NewSanitizer(PIILevelHashed, "km").SanitizeIdentifier("U123")
	assert.Len(t, hashed, 8)
	assert.NotEqual(t, "U123", hashed)
}

func TestHash_DeterministicAndSalted(t *testing.T) {
	s1 := NewSanitizer(PIILevelHashed, "km-1")
	s2 := NewSanitizer(PIILevelHashed, "km-2")

	assert.Equal(t, s1.hash("test@example.com"), s1.hash("test@example.com"))
	assert.NotEqual(t, s1.hash("test@example.com"), s2.hash("test@example.com"))
}

func BenchmarkSanitizeText(b *testing.B) {
	s := NewSanitizer(PIILevelHashed, "km")
	input := "Contact me at john@example.com or call 555-123-4567"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.SanitizeText(input)
	}
}
