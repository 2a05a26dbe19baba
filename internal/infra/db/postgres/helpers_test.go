package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnHelpers(t *testing.T) {
	assert.Equal(t, "-", stringOrDash(""))
	assert.Equal(t, "fetch", stringOrDash("fetch"))
	assert.Equal(t, "{}", jsonOrEmpty(""))
	assert.Equal(t, `{"code":"HTTP_500"}`, jsonOrEmpty(`{"code":"HTTP_500"}`))
}
