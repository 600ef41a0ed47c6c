package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "awa@terrain.ci", NormalizeEmail("  Awa@Terrain.CI "))
}

func TestIsEmailSyntaxValid(t *testing.T) {
	cases := map[string]bool{
		"awa@terrain.ci":         true,
		"awa.kone+foot@mail.com": true,
		"awa":                    false,
		"awa@":                   false,
		"awa@localhost":          false,
		"Awa <awa@terrain.ci>":   false,
		"":                       false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsEmailSyntaxValid(in), in)
	}
}

func TestIsEmailDomainValidRejectsBadSyntax(t *testing.T) {
	assert.False(t, IsEmailDomainValid("not-an-email"))
}
