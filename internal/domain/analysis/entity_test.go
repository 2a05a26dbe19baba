package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus(" Completed ")
	assert.True(t, ok)
	assert.Equal(t, StatusCompleted, st)
	assert.True(t, st.Terminal())

	st, ok = ParseStatus("processing")
	assert.True(t, ok)
	assert.False(t, st.Terminal())

	_, ok = ParseStatus("queued")
	assert.False(t, ok)
}

func TestNewSnapshot(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	r := withCounts(2, 1, 0)
	r.AutoFixes = make([]AutoFix, 3)

	s := NewSnapshot("a1", r, `{}`, at)
	assert.Equal(t, AnalysisID("a1"), s.AnalysisID)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, 35, s.Score)
	assert.Equal(t, SeverityCounts{Critical: 2, High: 1, Total: 3}, s.Counts)
	assert.Equal(t, 3, s.AutoFixes)
	assert.Equal(t, at, s.ObservedAt)
}
