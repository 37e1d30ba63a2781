package ui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mark3labs/tokencount/internal/models"
)

// ModelRow is one line of the models table.
type ModelRow struct {
	Provider   string
	ID         string
	Name       string
	PricePer1K float64
}

// ModelRows lists the priced models of the given providers, sorted by
// provider then model ID. An empty provider list means all providers.
func ModelRows(reg *models.ModelsRegistry, providers ...string) ([]ModelRow, error) {
	if len(providers) == 0 {
		providers = reg.GetSupportedProviders()
	}

	var rows []ModelRow
	for _, p := range providers {
		catalogue, err := reg.GetModelsForProvider(p)
		if err != nil {
			return nil, err
		}
		for _, m := range catalogue {
			rows = append(rows, ModelRow{Provider: p, ID: m.ID, Name: m.Name, PricePer1K: m.Cost.Input})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Provider != rows[j].Provider {
			return rows[i].Provider < rows[j].Provider
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

// RenderModels renders rows as a bordered table.
func (r *Renderer) RenderModels(rows []ModelRow) string {
	headerStyle := StyleHeader(r.theme).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(r.theme.Text).Padding(0, 1)
	priceStyle := cellStyle.Foreground(r.theme.Primary).Align(lipgloss.Right)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(r.theme.Border)).
		Headers("PROVIDER", "MODEL", "NAME", "USD / 1K TOKENS").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 3:
				return priceStyle
			default:
				return cellStyle
			}
		})

	for _, row := range rows {
		t.Row(row.Provider, row.ID, row.Name, fmt.Sprintf("%.6f", row.PricePer1K))
	}
	return t.Render() + "\n"
}
