package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/wcharczuk/go-chart/v2"
)

const dateFormat = "2006-01-02"

// WriteSummaryTable renders a summary as a terminal table.
func WriteSummaryTable(w io.Writer, s Summary, currency string) {
	fmt.Fprintf(w, "Summary %s to %s (%d transactions)\n",
		s.From.Format(dateFormat), s.To.Format(dateFormat), s.Count)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"", fmt.Sprintf("Amount (%s)", currency)})
	table.Append([]string{"Money in", formatAmount(s.Inflow)})
	table.Append([]string{"Money out", formatAmount(s.Outflow)})
	table.Append([]string{"Net", formatAmount(s.Net)})
	if s.DebtsOut > 0 {
		table.Append([]string{"New debts owed to you", formatAmount(s.DebtsOut)})
	}
	table.Render()

	if len(s.ByCategory) > 0 {
		fmt.Fprintln(w, "Spending by category:")
		cat := tablewriter.NewWriter(w)
		cat.SetHeader([]string{"Category", fmt.Sprintf("Spent (%s)", currency)})
		for _, name := range sortedCategories(s.ByCategory) {
			cat.Append([]string{name, formatAmount(s.ByCategory[name])})
		}
		cat.Render()
	}
}

// WriteDebtsTable renders outstanding debt balances as a terminal table.
func WriteDebtsTable(w io.Writer, balances []DebtBalance, currency string) {
	if len(balances) == 0 {
		fmt.Fprintln(w, "No outstanding debts.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Who", fmt.Sprintf("Owes you (%s)", currency)})
	for _, b := range balances {
		table.Append([]string{b.Counterparty, formatAmount(b.Balance)})
	}
	table.Render()
}

// RenderCategoryChart renders per-category spending as a PNG bar chart.
func RenderCategoryChart(w io.Writer, s Summary, currency string) error {
	if len(s.ByCategory) == 0 {
		return fmt.Errorf("no category spending to chart")
	}

	var bars []chart.Value
	for _, name := range sortedCategories(s.ByCategory) {
		bars = append(bars, chart.Value{
			Label: name,
			Value: s.ByCategory[name],
		})
	}

	barChart := chart.BarChart{
		Title: fmt.Sprintf("Spending by category, %s to %s",
			s.From.Format(dateFormat), s.To.Format(dateFormat)),
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  800,
		Height: 400,
		Bars:   bars,
	}
	barChart.YAxis.ValueFormatter = func(v interface{}) string {
		if vf, isFloat := v.(float64); isFloat {
			return fmt.Sprintf("%s %s", formatAmount(vf), currency)
		}
		return ""
	}

	if err := barChart.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering category chart: %w", err)
	}
	return nil
}

func sortedCategories(byCategory map[string]float64) []string {
	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if byCategory[names[i]] != byCategory[names[j]] {
			return byCategory[names[i]] > byCategory[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
