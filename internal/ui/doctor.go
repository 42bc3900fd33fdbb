package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DoctorCheckRow is one line of the doctor report.
type DoctorCheckRow struct {
	Status     string // "pass", "warn", "fail"
	Category   string
	Message    string
	Suggestion string // shown for warn and fail
}

// RenderDoctorTable renders check results grouped by category, in the
// order categories first appear.
func RenderDoctorTable(rows []DoctorCheckRow) string {
	if len(rows) == 0 {
		return "No checks to display"
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	categories := make(map[string][]DoctorCheckRow)
	var order []string
	for _, row := range rows {
		if _, exists := categories[row.Category]; !exists {
			order = append(order, row.Category)
		}
		categories[row.Category] = append(categories[row.Category], row)
	}

	var sb strings.Builder
	for _, cat := range order {
		sb.WriteString(headerStyle.Render(cat) + "\n")

		for _, row := range categories[cat] {
			var icon string
			switch row.Status {
			case "pass":
				icon = SuccessStyle().Render(SymbolComplete)
			case "warn":
				icon = WarningStyle().Render(SymbolWarning)
			case "fail":
				icon = ErrorStyle().Render(SymbolFail)
			default:
				icon = MutedStyle().Render(SymbolPending)
			}

			sb.WriteString("  " + icon + " " + row.Message + "\n")
			if row.Suggestion != "" && row.Status != "pass" {
				sb.WriteString("    " + MutedStyle().Render(row.Suggestion) + "\n")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
