// Package render draws heatmaps and suggestion rankings for terminal output.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/fairmeet/fairmeet/pkg/heatmap"
	"github.com/fairmeet/fairmeet/pkg/workhours"
)

// tierColor maps a fairness tier to its terminal color.
func tierColor(t workhours.Tier) *color.Color {
	switch t {
	case workhours.TierGreen:
		return color.New(color.FgGreen)
	case workhours.TierOrange:
		return color.New(color.FgYellow)
	case workhours.TierRed:
		return color.New(color.FgRed)
	case workhours.TierCritical:
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgHiBlack)
	}
}

// scoreColor grades an overall equity score.
func scoreColor(score int) *color.Color {
	switch {
	case score >= 80:
		return color.New(color.FgGreen)
	case score >= 50:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// Heatmap renders the 24-hour equity heatmap for one candidate date.
// Each row shows the UTC hour, one tier block per participant, a bar
// proportional to the score, and the tier counts.
func Heatmap(date time.Time, entries []heatmap.Entry) string {
	var out strings.Builder

	participants := 0
	if len(entries) > 0 {
		participants = len(entries[0].Participants)
	}

	out.WriteString(fmt.Sprintf("🌍 Meeting equity for %s (%d participants)\n",
		date.UTC().Format("Monday, 2006-01-02"), participants))
	out.WriteString(strings.Repeat("─", 60) + "\n")

	for _, e := range entries {
		out.WriteString(fmt.Sprintf(" %02d:00 UTC  ", e.Hour))

		for _, ps := range e.Participants {
			out.WriteString(tierColor(ps.Status.Tier).Sprint("█"))
		}
		out.WriteString(strings.Repeat(" ", 12-min(participants, 12)))

		bar := strings.Repeat("▆", e.Result.Score/5)
		out.WriteString(scoreColor(e.Result.Score).Sprintf("%-20s", bar))
		out.WriteString(fmt.Sprintf(" %3d", e.Result.Score))

		out.WriteString(fmt.Sprintf("   g%d o%d r%d c%d\n",
			e.Result.Green, e.Result.Orange, e.Result.Red, e.Result.Critical))
	}

	return out.String()
}

// Suggestions renders a ranked list of the best candidate hours with the
// per-participant local times and reasons behind each.
func Suggestions(ranked []heatmap.Entry) string {
	var out strings.Builder

	out.WriteString("⭐ Best meeting times\n")
	out.WriteString(strings.Repeat("─", 60) + "\n")

	for i, e := range ranked {
		out.WriteString(fmt.Sprintf("%d. %02d:00 UTC — score ", i+1, e.Hour))
		out.WriteString(scoreColor(e.Result.Score).Sprintf("%d", e.Result.Score))
		out.WriteString("\n")

		for _, ps := range e.Participants {
			tier := tierColor(ps.Status.Tier).Sprint(string(ps.Status.Tier))
			out.WriteString(fmt.Sprintf("   • %-12s %s local (%s, %s)\n",
				ps.Participant.ID,
				ps.LocalTime.Format("15:04"),
				tier,
				ps.Status.Reason))
		}
	}

	return out.String()
}
