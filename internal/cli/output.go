package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	appanalyses "github.com/bryanwahyu/aegis-console/internal/application/analyses"
	domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

// render writes v as json/yaml, or calls human for the default format.
func render(w io.Writer, format string, v any, human func(io.Writer)) error {
	switch format {
	case "json":
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(output))
	case "yaml":
		// round trip through JSON so yaml keys follow the json tags
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(b, &generic); err != nil {
			return err
		}
		output, err := yaml.Marshal(generic)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(output))
	default:
		human(w)
	}
	return nil
}

func displayResult(w io.Writer, id domain.AnalysisID, score int, r *domain.Result) {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Fprintln(w)
	cyan.Fprintf(w, "🛡  Analysis %s\n", id)
	scoreColor(score).Fprintf(w, "📊 COMPLIANCE SCORE: %d/100\n", score)
	if r == nil {
		return
	}
	c := r.Counts()
	fmt.Fprintf(w, "   critical %d · high %d · medium %d\n\n", c.Critical, c.High, c.Medium)

	if r.Summary.BusinessType != "" {
		fmt.Fprintf(w, "🏢 Business type: %s\n\n", r.Summary.BusinessType)
	}

	printRisks(w, red, "🚨 CRITICAL RISKS:", r.CriticalRisks)
	printRisks(w, yellow, "⚠️  HIGH RISKS:", r.HighRisks)
	printRisks(w, color.New(color.FgWhite, color.Bold), "ℹ️  MEDIUM RISKS:", r.MediumRisks)

	if len(r.AutoFixes) > 0 {
		green.Fprintln(w, "🔧 AUTO FIXES:")
		for _, f := range r.AutoFixes {
			fmt.Fprintf(w, "   [%d] %s\n", f.ServerIndex, f.RiskTitle)
			fmt.Fprintf(w, "       id: %s\n", f.ID)
			if f.Regulation != "" {
				fmt.Fprintf(w, "       regulation: %s\n", f.Regulation)
			}
			if f.Explanation != "" {
				fmt.Fprintf(w, "       %s\n", f.Explanation)
			}
		}
		fmt.Fprintln(w)
	}

	if r.Compliance != nil && len(r.Compliance.Gaps) > 0 {
		yellow.Fprintln(w, "📋 COMPLIANCE GAPS:")
		for _, g := range r.Compliance.Gaps {
			fmt.Fprintf(w, "   • %s\n", g)
		}
		fmt.Fprintln(w)
	}
}

func printRisks(w io.Writer, c *color.Color, title string, risks []domain.Risk) {
	if len(risks) == 0 {
		return
	}
	c.Fprintln(w, title)
	for i, r := range risks {
		fmt.Fprintf(w, "   %d. %s\n", i+1, r.Title)
		if r.File != "" {
			loc := r.File
			if r.Line > 0 {
				loc = fmt.Sprintf("%s:%d", r.File, r.Line)
			}
			fmt.Fprintf(w, "      %s\n", color.CyanString(loc))
		}
		if r.Impact != "" {
			fmt.Fprintf(w, "      Impact: %s\n", r.Impact)
		}
	}
	fmt.Fprintln(w)
}

func displayFix(w io.Writer, notification string, rejected bool, refreshed *domain.Result) {
	fmt.Fprintln(w)
	if rejected {
		color.New(color.FgRed).Fprintln(w, notification)
		return
	}
	color.New(color.FgGreen).Fprintln(w, notification)
	if refreshed != nil {
		score := domain.Score(refreshed)
		scoreColor(score).Fprintf(w, "\n📊 Updated score: %d/100\n", score)
	}
}

func displayPage(w io.Writer, p domain.Page) {
	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(w)
	cyan.Fprintf(w, "Analyses (page %d/%d, %d total)\n", p.Pagination.Page, p.Pagination.TotalPages, p.Pagination.Total)
	if len(p.Data) == 0 {
		fmt.Fprintln(w, "   no analyses yet")
		return
	}
	for i, r := range p.Data {
		c := r.Counts()
		scoreColor(p.Scores[i]).Fprintf(w, "   %3d", p.Scores[i])
		fmt.Fprintf(w, "  critical %d · high %d · medium %d · fixes %d\n", c.Critical, c.High, c.Medium, len(r.AutoFixes))
	}
}

func displayStats(w io.Writer, st appanalyses.Stats) {
	fmt.Fprintln(w)
	color.New(color.FgCyan, color.Bold).Fprintln(w, "📈 Dashboard")
	fmt.Fprintf(w, "   Total scans:      %d\n", st.TotalScans)
	fmt.Fprintf(w, "   Critical issues:  %d\n", st.CriticalIssues)
	fmt.Fprintf(w, "   Auto fixes:       %d\n", st.AutoFixes)
	scoreColor(st.ComplianceScore).Fprintf(w, "   Compliance score: %d\n", st.ComplianceScore)
}

func scoreColor(score int) *color.Color {
	switch {
	case score >= 80:
		return color.New(color.FgGreen, color.Bold)
	case score >= 50:
		return color.New(color.FgYellow, color.Bold)
	}
	return color.New(color.FgRed, color.Bold)
}

func printSuccess(w io.Writer, msg string) {
	green := color.New(color.FgGreen)
	green.Fprintf(w, "✓ %s\n", msg)
}
