package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		ident string
		want  TokenType
	}{
		{"select", SELECT},
		{"procedure", PROCEDURE},
		{"proc", PROC},
		{"go", GO},
		{"apply", IDENT},
		{"offset", IDENT},
		{"customer_id", IDENT},
	}

	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupIdent(tt.ident))
		})
	}
}

func TestTokenType_String(t *testing.T) {
	assert.Equal(t, "SELECT", SELECT.String())
	assert.Equal(t, "<=", LE.String())
	assert.Equal(t, "VARIABLE", VARIABLE.String())
	assert.Equal(t, "TOKEN(5000)", TokenType(5000).String())
}

func TestIsKeyword(t *testing.T) {
	assert.True(t, IsKeyword(ALL))
	assert.True(t, IsKeyword(WITH))
	assert.True(t, IsKeyword(VIEW))
	assert.False(t, IsKeyword(IDENT))
	assert.False(t, IsKeyword(COMMA))
	assert.True(t, IsOperator(COMMA))
	assert.False(t, IsOperator(SELECT))
}

func TestToken_Is(t *testing.T) {
	tok := Token{Type: IDENT, Literal: "Apply"}
	assert.True(t, tok.Is("APPLY"))
	assert.False(t, tok.Is("OFFSET"))

	quoted := Token{Type: IDENT, Literal: "apply", Quoted: true}
	assert.False(t, quoted.Is("APPLY"))

	kw := Token{Type: SELECT, Literal: "select"}
	assert.False(t, kw.Is("SELECT"))
}
