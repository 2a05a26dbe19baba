package prompt

import (
    "fmt"

    domai "github.com/bryanwahyu/aegis-console/internal/domain/ai"
    "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

// maxPriorities caps the action list to keep output compact
const maxPriorities = 5

// FallbackBriefing builds a deterministic briefing without calling a model.
func FallbackBriefing(r *analysis.Result) domai.Briefing {
    if r == nil {
        r = &analysis.Result{}
    }
    score := analysis.Score(r)
    c := r.Counts()

    out := domai.Briefing{
        Headline: fmt.Sprintf("Compliance score %d/100 with %d critical, %d high and %d medium risks.",
            score, c.Critical, c.High, c.Medium),
        Priorities: []string{},
    }

    addPriority := func(s string) {
        if len(out.Priorities) < maxPriorities {
            out.Priorities = append(out.Priorities, s)
        }
    }
    for _, rk := range r.CriticalRisks {
        addPriority(fmt.Sprintf("Fix critical: %s (%s:%d)", rk.Title, rk.File, rk.Line))
    }
    for _, rk := range r.HighRisks {
        addPriority(fmt.Sprintf("Fix high: %s (%s:%d)", rk.Title, rk.File, rk.Line))
    }
    if len(r.AutoFixes) > 0 {
        addPriority(fmt.Sprintf("Review the %d available auto-fixes", len(r.AutoFixes)))
    }

    // Compose advice
    if c.Critical > 0 {
        out.Advice = "Immediate action required: address critical risks first, apply the matching auto-fixes, and re-run the analysis to confirm."
    } else if c.High+c.Medium > 0 {
        out.Advice = "No critical risks. Schedule the high and medium findings into the next iteration and keep analyses running on every pull request."
    } else {
        out.Advice = "Maintain good hygiene: keep analyses running on every pull request and review compliance requirements periodically."
    }
    if r.Compliance != nil && len(r.Compliance.Gaps) > 0 {
        out.Advice += fmt.Sprintf(" %d compliance gaps were reported.", len(r.Compliance.Gaps))
    }
    return out
}
