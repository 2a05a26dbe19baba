package prompt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/bryanwahyu/aegis-console/internal/domain/ai"
	"github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

func sample() *analysis.Result {
	return analysis.Normalize(json.RawMessage(`{
		"critical_risks":[{"title":"SQL injection","file":"db.go","line":3}],
		"high_risks":[{"title":"Weak TLS","file":"tls.go","line":9}],
		"auto_fixes":[{"risk_title":"SQL injection"}],
		"summary":{"business_type":"fintech"},
		"compliance":{"gaps":["PCI 6.5.1"]}
	}`))
}

func TestGetUserPrompt(t *testing.T) {
	p := GetUserPrompt("a1", sample())
	i := strings.Index(p, "{")
	require.Greater(t, i, 0)

	var in promptInput
	require.NoError(t, json.Unmarshal([]byte(p[i:]), &in))
	assert.Equal(t, "a1", in.AnalysisID)
	assert.Equal(t, 60, in.Score)
	assert.Equal(t, "fintech", in.BusinessType)
	require.Len(t, in.Risks, 2)
	assert.Equal(t, "critical", in.Risks[0].Severity)
	assert.Equal(t, "db.go:3", in.Risks[0].Location)
	assert.Equal(t, []string{"PCI 6.5.1"}, in.Gaps)
}

func TestGetUserPrompt_CapsRisks(t *testing.T) {
	r := &analysis.Result{CriticalRisks: make([]analysis.Risk, 25)}
	p := GetUserPrompt("a1", r)
	var in promptInput
	require.NoError(t, json.Unmarshal([]byte(p[strings.Index(p, "{"):]), &in))
	assert.Len(t, in.Risks, maxRisksPerSeverity)
}

func TestParseBriefing(t *testing.T) {
	b, err := ParseBriefing("```json\n{\"headline\":\"h\",\"advice\":\"a\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "h", b.Headline)
	assert.Equal(t, "a", b.Advice)
	assert.NotNil(t, b.Priorities)

	_, err = ParseBriefing("sorry, I cannot help")
	assert.ErrorIs(t, err, domai.ErrMalformedBriefing)
}

func TestFallbackBriefing(t *testing.T) {
	b := FallbackBriefing(sample())
	assert.Equal(t, "Compliance score 60/100 with 1 critical, 1 high and 0 medium risks.", b.Headline)
	assert.Equal(t, []string{
		"Fix critical: SQL injection (db.go:3)",
		"Fix high: Weak TLS (tls.go:9)",
		"Review the 1 available auto-fixes",
	}, b.Priorities)
	assert.True(t, strings.HasPrefix(b.Advice, "Immediate action required"))
	assert.Contains(t, b.Advice, "1 compliance gaps")
}

func TestFallbackBriefing_CapsAndClean(t *testing.T) {
	r := &analysis.Result{CriticalRisks: make([]analysis.Risk, 8)}
	assert.Len(t, FallbackBriefing(r).Priorities, maxPriorities)

	clean := FallbackBriefing(nil)
	assert.Contains(t, clean.Headline, "100/100")
	assert.True(t, strings.HasPrefix(clean.Advice, "Maintain good hygiene"))
}
