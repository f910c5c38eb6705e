package session

import (
	"fmt"
	"strings"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
)

// Textos de los avisos, con el formato clásico de los canales de señales de
// Bac Bo (GREEN/RED/GALE) y Markdown de Telegram.

func prepareText(rule domain.Rule) string {
	var b strings.Builder
	b.WriteString("⚠️ *Possible entry detected*\n")
	fmt.Fprintf(&b, "Pattern forming: %s ➕\n", formatPattern(rule.Pattern[:len(rule.Pattern)-1]))
	fmt.Fprintf(&b, "Waiting for the next result to confirm %s %s", rule.Response.Icon(), rule.Response)
	return b.String()
}

func entryText(rule domain.Rule, stakes domain.StakePlan, maxStages int) string {
	var b strings.Builder
	b.WriteString("🎯 *ENTRY CONFIRMED*\n")
	fmt.Fprintf(&b, "Pattern: %s\n", formatPattern(rule.Pattern))
	fmt.Fprintf(&b, "Entry on %s *%s*\n", rule.Response.Icon(), rule.Response)
	b.WriteString("Protect the Tie 🟡\n")
	fmt.Fprintf(&b, "Up to %d gales", maxStages)
	if stakes.Enabled() {
		fmt.Fprintf(&b, "\n💰 Stake: %s", stakes.StakeFor(0).StringFixed(2))
	}
	return b.String()
}

func galeText(stage, maxStages int, stakes domain.StakePlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔁 *GALE %d/%d*", stage, maxStages)
	if stakes.Enabled() {
		fmt.Fprintf(&b, "\n💰 Stake: %s", stakes.StakeFor(stage).StringFixed(2))
		fmt.Fprintf(&b, "\n⚠️ Total risked: %s", stakes.TotalRisk(stage).StringFixed(2))
	}
	return b.String()
}

func winText(o domain.Outcome, score domain.Score) string {
	head := "✅ *GREEN - Win!*"
	if o == domain.Tie {
		head = "🟡 *GREEN - Tie!*"
	}
	return head + "\n\n" + ScoreboardSummary(score)
}

func lossText(score domain.Score) string {
	return "❌ *RED - Gale limit reached.*\n\n" + ScoreboardSummary(score)
}

// ScoreboardSummary formatea la foto del marcador tal como se publica en
// los cierres de ciclo y en el digest diario.
func ScoreboardSummary(score domain.Score) string {
	var b strings.Builder
	b.WriteString("📊 *Scoreboard*\n")
	fmt.Fprintf(&b, "✅ Wins: %d | ❌ Losses: %d\n", score.Wins, score.Losses)
	fmt.Fprintf(&b, "🔥 Streak: %d\n", score.ConsecutiveWins)
	fmt.Fprintf(&b, "🎯 Assertivity: %.2f%%", score.AssertivityRate)
	return b.String()
}

func formatPattern(pattern []domain.Outcome) string {
	icons := make([]string, len(pattern))
	for i, o := range pattern {
		icons[i] = o.Icon()
	}
	return strings.Join(icons, " ")
}
