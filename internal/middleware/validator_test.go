package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRepoURL(t *testing.T) {
	ok := []string{
		"https://github.com/acme/payments",
		"http://gitlab.example.com/group/app.git",
	}
	for _, u := range ok {
		assert.NoError(t, ValidateRepoURL(u), u)
	}

	bad := []string{
		"",
		"github.com/acme/app",
		"ftp://github.com/acme/app",
		"https://github.com",
		"https://localhost/acme/app",
		"http://127.0.0.1/acme/app",
		"http://10.0.0.8/acme/app",
		"http://192.168.1.2/acme/app",
		"http://[::1]/acme/app",
		"http://169.254.169.254/latest",
		"https://github.com/acme/app;rm",
	}
	for _, u := range bad {
		assert.Error(t, ValidateRepoURL(u), u)
	}
}

func TestValidateAnalysisID(t *testing.T) {
	assert.NoError(t, ValidateAnalysisID("analysis_1712345678"))
	assert.NoError(t, ValidateAnalysisID("3f2b9c1e-aaaa-bbbb-cccc-111122223333"))
	assert.Error(t, ValidateAnalysisID(""))
	assert.Error(t, ValidateAnalysisID("a/b"))
	assert.Error(t, ValidateAnalysisID(strings.Repeat("x", 129)))
}

func TestValidateFixRef(t *testing.T) {
	assert.NoError(t, ValidateFixRef("0"))
	assert.NoError(t, ValidateFixRef("12"))
	assert.NoError(t, ValidateFixRef("0b1e7c9a-0000-5000-8000-000000000000"))
	assert.Error(t, ValidateFixRef(""))
	assert.Error(t, ValidateFixRef("../1"))
	assert.Error(t, ValidateFixRef("-1"))
}

func TestPagination(t *testing.T) {
	assert.Equal(t, 10, ValidateLimit(0))
	assert.Equal(t, 100, ValidateLimit(1000))
	assert.Equal(t, 25, ValidateLimit(25))
	assert.Equal(t, 1, ValidatePage(-3))
	assert.Equal(t, 4, ValidatePage(4))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "https://github.com/a/b", SanitizeString(" https://github.com/a/b\x00\x07 "))
}
