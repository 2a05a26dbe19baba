package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_EmptyPayload(t *testing.T) {
	for _, raw := range []string{`{}`, `null`, `not json`, `[]`, ``} {
		r := Normalize(json.RawMessage(raw))
		require.NotNil(t, r, raw)
		assert.NotNil(t, r.CriticalRisks)
		assert.NotNil(t, r.HighRisks)
		assert.NotNil(t, r.MediumRisks)
		assert.NotNil(t, r.AutoFixes)
		assert.NotNil(t, r.Explanations)
		assert.NotNil(t, r.Summary.ComplianceRequirements)
		assert.Nil(t, r.Compliance)
		assert.Nil(t, r.Architecture)
		assert.Equal(t, 100, Score(r))
	}
}

func TestNormalize_WrongTypesAreAbsent(t *testing.T) {
	r := Normalize(json.RawMessage(`{
		"critical_risks": "oops",
		"high_risks": {"a": 1},
		"auto_fixes": 3,
		"explanations": ["ok", 4, null],
		"summary": [],
		"compliance": "x"
	}`))
	assert.Empty(t, r.CriticalRisks)
	assert.Empty(t, r.HighRisks)
	assert.Empty(t, r.AutoFixes)
	assert.Equal(t, []string{"ok"}, r.Explanations)
	assert.Equal(t, 0, r.Summary.TotalCritical)
	assert.Nil(t, r.Compliance)
}

func TestNormalize_Fields(t *testing.T) {
	r := Normalize(json.RawMessage(`{
		"critical_risks": [{"file":"db.go","line":12,"title":"SQL injection","description":"d","impact":"i","confidence":1.7,"code_snippet":"q+x"}],
		"high_risks": [{"title":"Weak hash","line":"9","confidence":"0.4"}],
		"medium_risks": [{"title":"Verbose errors","confidence":-3}],
		"auto_fixes": [{"risk_title":"SQL injection","original":"a","fixed":"b","explanation":"e","regulation":"PCI"}],
		"explanations": ["one"],
		"summary": {"total_critical":1,"total_high":1,"total_medium":1,"business_type":"fintech","compliance_requirements":["PCI-DSS"]},
		"compliance": {"standards":["PCI"],"gaps":["g"],"recommendations":[]},
		"architecture": {"overview":"o","strengths":["s"]}
	}`))

	require.Len(t, r.CriticalRisks, 1)
	c := r.CriticalRisks[0]
	assert.Equal(t, "db.go", c.File)
	assert.Equal(t, 12, c.Line)
	assert.Equal(t, 1.0, c.Confidence)
	assert.Equal(t, "q+x", c.CodeSnippet)
	assert.NotEmpty(t, c.ID)

	require.Len(t, r.HighRisks, 1)
	assert.Equal(t, 9, r.HighRisks[0].Line)
	assert.InDelta(t, 0.4, r.HighRisks[0].Confidence, 1e-9)
	require.Len(t, r.MediumRisks, 1)
	assert.Equal(t, 0.0, r.MediumRisks[0].Confidence)

	require.Len(t, r.AutoFixes, 1)
	assert.Equal(t, "PCI", r.AutoFixes[0].Regulation)
	assert.Equal(t, 0, r.AutoFixes[0].ServerIndex)

	assert.Equal(t, "fintech", r.Summary.BusinessType)
	assert.Equal(t, []string{"PCI-DSS"}, r.Summary.ComplianceRequirements)
	require.NotNil(t, r.Compliance)
	assert.Equal(t, []string{"g"}, r.Compliance.Gaps)
	assert.NotNil(t, r.Compliance.Recommendations)
	require.NotNil(t, r.Architecture)
	assert.Equal(t, "o", r.Architecture.Overview)
	assert.NotNil(t, r.Architecture.Concerns)
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := json.RawMessage(`{"critical_risks":[{"title":"a"}],"auto_fixes":[{"risk_title":"a","fixed":"x"}],"summary":{"total_critical":1}}`)
	first := Normalize(raw)
	b, err := json.Marshal(first)
	require.NoError(t, err)
	second := Normalize(b)
	assert.Equal(t, first, second)
}

func TestNormalize_StableFixIDs(t *testing.T) {
	raw := json.RawMessage(`{"auto_fixes":[
		{"risk_title":"A","original":"o","fixed":"f"},
		{"risk_title":"B","original":"o","fixed":"f"},
		{"risk_title":"A","original":"o","fixed":"f"}
	]}`)
	r := Normalize(raw)
	require.Len(t, r.AutoFixes, 3)
	ids := map[string]bool{}
	for _, f := range r.AutoFixes {
		ids[f.ID] = true
	}
	assert.Len(t, ids, 3, "duplicate fixes must still get distinct ids")

	// B moves to the front: its id follows it, its position changes
	shifted := Normalize(json.RawMessage(`{"auto_fixes":[
		{"risk_title":"B","original":"o","fixed":"f"},
		{"risk_title":"A","original":"o","fixed":"f"}
	]}`))
	idx, ok := shifted.FixIndex(r.AutoFixes[1].ID)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	idx, ok = shifted.FixIndex(r.AutoFixes[0].ID)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	_, ok = shifted.FixIndex(r.AutoFixes[2].ID)
	assert.False(t, ok)
}

func TestNormalize_SkippedElementsKeepServerIndex(t *testing.T) {
	r := Normalize(json.RawMessage(`{"auto_fixes":["junk",{"risk_title":"A"}]}`))
	require.Len(t, r.AutoFixes, 1)
	assert.Equal(t, 1, r.AutoFixes[0].ServerIndex)

	f, ok := r.Fix(r.AutoFixes[0].ID)
	require.True(t, ok)
	assert.Equal(t, "A", f.RiskTitle)
}
