package prompt

import (
    "encoding/json"
    "fmt"
    "strings"

    domai "github.com/bryanwahyu/aegis-console/internal/domain/ai"
    "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

// maxRisksPerSeverity keeps the user prompt compact
const maxRisksPerSeverity = 10

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
    return `You are a senior application security lead briefing an engineering manager. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- headline is one sentence stating the overall security posture.
- priorities lists at most 5 concrete actions, most urgent first.
- advice is a short paragraph; mention compliance gaps when present.

Schema (example with empty values):
{
  "headline": "<string>",
  "priorities": ["<string>"],
  "advice": "<string>"
}`
}

type promptRisk struct {
    Severity string  `json:"severity"`
    Title    string  `json:"title"`
    Location string  `json:"location"`
    Impact   string  `json:"impact"`
    Conf     float64 `json:"confidence"`
}

type promptInput struct {
    AnalysisID   string   `json:"analysis_id"`
    Score        int      `json:"compliance_score"`
    BusinessType string   `json:"business_type,omitempty"`
    Risks        []promptRisk `json:"risks"`
    AutoFixes    int      `json:"auto_fixes_available"`
    Gaps         []string `json:"compliance_gaps,omitempty"`
}

// GetUserPrompt builds a compact user message around a normalized result.
func GetUserPrompt(id analysis.AnalysisID, r *analysis.Result) string {
    in := promptInput{
        AnalysisID:   string(id),
        Score:        analysis.Score(r),
        BusinessType: r.Summary.BusinessType,
        Risks:        []promptRisk{},
        AutoFixes:    len(r.AutoFixes),
    }
    add := func(sev string, risks []analysis.Risk) {
        for i, rk := range risks {
            if i >= maxRisksPerSeverity {
                break
            }
            in.Risks = append(in.Risks, promptRisk{
                Severity: sev,
                Title:    rk.Title,
                Location: fmt.Sprintf("%s:%d", rk.File, rk.Line),
                Impact:   rk.Impact,
                Conf:     rk.Confidence,
            })
        }
    }
    add("critical", r.CriticalRisks)
    add("high", r.HighRisks)
    add("medium", r.MediumRisks)
    if r.Compliance != nil {
        in.Gaps = r.Compliance.Gaps
    }
    b, _ := json.Marshal(in)
    return "Brief this security analysis and respond with the JSON per schema. Analysis: " + string(b)
}

// ParseBriefing decodes the model output, tolerating stray code fences.
func ParseBriefing(content string) (domai.Briefing, error) {
    s := strings.TrimSpace(content)
    s = strings.TrimPrefix(s, "```json")
    s = strings.TrimPrefix(s, "```")
    s = strings.TrimSuffix(s, "```")
    var b domai.Briefing
    if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &b); err != nil {
        return domai.Briefing{}, fmt.Errorf("%w: %v", domai.ErrMalformedBriefing, err)
    }
    if b.Priorities == nil {
        b.Priorities = []string{}
    }
    return b, nil
}
