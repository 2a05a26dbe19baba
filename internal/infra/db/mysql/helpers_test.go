package mysql

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringOrDash(t *testing.T) {
	assert.Equal(t, "-", stringOrDash(""))
	assert.Equal(t, "-", stringOrDash("   "))
	assert.Equal(t, "poll", stringOrDash("poll"))
}

func TestJSONOrEmpty(t *testing.T) {
	assert.Equal(t, "{}", jsonOrEmpty(" "))
	assert.Equal(t, `{"a":1}`, jsonOrEmpty(`{"a":1}`))

	wrapped := jsonOrEmpty("not json")
	var m map[string]string
	require.NoError(t, json.Unmarshal([]byte(wrapped), &m))
	assert.Equal(t, "not json", m["raw"])
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id INT);\n\nCREATE TABLE b (id INT);\n")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "TABLE a")
	assert.Contains(t, stmts[1], "TABLE b")
	assert.Empty(t, splitStatements(" ;\n; "))
}
