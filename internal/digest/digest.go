// Package digest renders ranked matches into one notification message.
// Rendering is pure and independent of the delivery transport.
package digest

import (
	"fmt"
	"strings"

	"github.com/rmaia-dev/evradar/internal/models"
)

const delimiter = "━━━━━━━━━━━━━━━"

// Render formats the ranked matches into a Telegram MarkdownV2 block in rank
// order. Callers must not send anything when the input is empty; an empty
// digest is a no-op, not an empty message.
func Render(ranked []models.ScoredMatch) string {
	if len(ranked) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("🚨 *EV Radar*\n")
	b.WriteString(EscapeMarkdownV2(delimiter) + "\n\n")

	for i, sm := range ranked {
		title := EscapeMarkdownV2(fmt.Sprintf("%s – %s", sm.Home, sm.Away))
		if sm.URL != "" {
			title = fmt.Sprintf("[%s](%s)", title, sm.URL)
		}
		b.WriteString(fmt.Sprintf("%d\\. ⚽ %s \\| %s\n",
			i+1, EscapeMarkdownV2(sm.League), EscapeMarkdownV2(fmt.Sprintf("%d'", sm.Minute))))
		b.WriteString(fmt.Sprintf("   %s  %s\n", title, EscapeMarkdownV2(sm.Score)))
		b.WriteString(fmt.Sprintf("   📊 %s\n",
			EscapeMarkdownV2(fmt.Sprintf("xG %.2f | SOT %d | pressure %.0f | liq %.0fk",
				sm.XGTotal, sm.SOT, sm.Pressure, sm.Liquidity/1000))))
		b.WriteString(fmt.Sprintf("   🎯 EV *%d* \\| %s\n", sm.EVScore, decisionTag(sm.Decision)))
		b.WriteString(fmt.Sprintf("   💡 %s\n\n", suggestion(sm)))
	}

	b.WriteString(EscapeMarkdownV2(delimiter))
	return b.String()
}

func decisionTag(d models.Decision) string {
	switch d {
	case models.DecisionEnter:
		return "ENTER"
	case models.DecisionMonitor:
		return "MONITOR"
	default:
		return "IGNORE"
	}
}

func suggestion(sm models.ScoredMatch) string {
	if sm.Decision == models.DecisionEnter && sm.HasOdds() {
		return EscapeMarkdownV2(fmt.Sprintf("Over 2.5 @ %.2f", sm.OddsOver25))
	}
	return EscapeMarkdownV2("watch only")
}

// EscapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
