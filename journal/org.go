package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatRunOrg renders a run and its positions as an Org-mode block. Facts go
// in a PROPERTIES drawer so they stay searchable.
func FormatRunOrg(r RunRecord, positions []PositionRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("** Attribution run %s (%s)\n", shortID(r.RunID), r.Created.UTC().Format(time.RFC3339)))
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", r.RunID))
	b.WriteString(fmt.Sprintf(":START: %s\n", r.Start.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf(":END: %s\n", r.End.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf(":TARGET: %s\n", r.Target))
	b.WriteString(fmt.Sprintf(":GAP_POLICY: %s\n", r.GapPolicy))
	b.WriteString(fmt.Sprintf(":POSITIONS: %d\n", r.Positions))
	b.WriteString(fmt.Sprintf(":FAILURES: %d\n", r.Failures))
	b.WriteString(":END:\n")

	if len(positions) == 0 {
		return b.String()
	}

	b.WriteString("\n| position | kind | quantity | status | total | points |\n")
	b.WriteString("|-\n")
	for _, p := range positions {
		b.WriteString(fmt.Sprintf("| %s | %s | %.2f | %s | %.2f | %d |\n",
			p.PositionID, p.Kind, p.Quantity, p.Status, p.Total, p.Points))
	}
	for _, p := range positions {
		if p.Error != "" {
			b.WriteString(fmt.Sprintf("- %s: %s\n", p.PositionID, p.Error))
		}
	}
	return b.String()
}

// FormatRunsOrg renders several runs without their positions.
func FormatRunsOrg(runs []RunRecord) string {
	var b strings.Builder
	for i, r := range runs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatRunOrg(r, nil))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
