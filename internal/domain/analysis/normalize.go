package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("aegis/analysis"))

// Normalize turns a raw analysis payload into a Result with every list
// present. Wrong types are treated as absent. It never fails.
func Normalize(raw json.RawMessage) *Result {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		doc = map[string]any{}
	}
	return NormalizeMap(doc)
}

// NormalizeMap is Normalize for an already decoded payload.
func NormalizeMap(doc map[string]any) *Result {
	r := &Result{
		CriticalRisks: risks(doc["critical_risks"], "critical"),
		HighRisks:     risks(doc["high_risks"], "high"),
		MediumRisks:   risks(doc["medium_risks"], "medium"),
		AutoFixes:     fixes(doc["auto_fixes"]),
		Explanations:  strList(doc["explanations"]),
		Summary:       summary(doc["summary"]),
	}
	if m, ok := doc["compliance"].(map[string]any); ok {
		r.Compliance = &Compliance{
			Standards:       strList(m["standards"]),
			Gaps:            strList(m["gaps"]),
			Recommendations: strList(m["recommendations"]),
		}
	}
	if m, ok := doc["architecture"].(map[string]any); ok {
		r.Architecture = &Architecture{
			Overview:        str(m["overview"]),
			Strengths:       strList(m["strengths"]),
			Concerns:        strList(m["concerns"]),
			Recommendations: strList(m["recommendations"]),
		}
	}
	return r
}

func risks(v any, severity string) []Risk {
	out := []Risk{}
	arr, ok := v.([]any)
	if !ok {
		return out
	}
	seen := map[string]int{}
	for i, it := range arr {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		r := Risk{
			ServerIndex: i,
			File:        str(m["file"]),
			Line:        integer(m["line"]),
			Title:       str(m["title"]),
			Description: str(m["description"]),
			Impact:      str(m["impact"]),
			Confidence:  unit(number(m["confidence"])),
			CodeSnippet: str(m["code_snippet"]),
		}
		r.ID = stableID(seen, "risk", severity, r.File, strconv.Itoa(r.Line), r.Title, r.Description)
		out = append(out, r)
	}
	return out
}

func fixes(v any) []AutoFix {
	out := []AutoFix{}
	arr, ok := v.([]any)
	if !ok {
		return out
	}
	seen := map[string]int{}
	for i, it := range arr {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		f := AutoFix{
			ServerIndex: i,
			RiskTitle:   str(m["risk_title"]),
			Original:    str(m["original"]),
			Fixed:       str(m["fixed"]),
			Explanation: str(m["explanation"]),
			Regulation:  str(m["regulation"]),
		}
		f.ID = stableID(seen, "fix", f.RiskTitle, f.Original, f.Fixed)
		out = append(out, f)
	}
	return out
}

func summary(v any) Summary {
	s := Summary{ComplianceRequirements: []string{}}
	m, ok := v.(map[string]any)
	if !ok {
		return s
	}
	s.TotalCritical = integer(m["total_critical"])
	s.TotalHigh = integer(m["total_high"])
	s.TotalMedium = integer(m["total_medium"])
	s.BusinessType = str(m["business_type"])
	s.ComplianceRequirements = strList(m["compliance_requirements"])
	return s
}

// stableID derives a content based id; identical entries get an
// occurrence suffix so they stay distinct.
func stableID(seen map[string]int, parts ...string) string {
	key := strings.Join(parts, "\x1f")
	n := seen[key]
	seen[key] = n + 1
	return uuid.NewSHA1(idNamespace, []byte(key+"\x1f"+strconv.Itoa(n))).String()
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return number(f)
	}
	return 0
}

func integer(v any) int {
	return int(number(v))
}

func unit(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func strList(v any) []string {
	out := []string{}
	arr, ok := v.([]any)
	if !ok {
		return out
	}
	for _, it := range arr {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
