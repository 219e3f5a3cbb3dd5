package google

import (
	"fmt"
	"strings"
	"time"

	"bilancio/internal/core"
)

// rollupValues renders one row per calendar month: name, revenue, expenses,
// net. Months without a bucket are written as zeros so the block is always
// twelve rows and stale values are overwritten.
func rollupValues(buckets []core.MonthBucket) [][]any {
	byMonth := make(map[time.Month]core.MonthBucket, len(buckets))
	for _, b := range buckets {
		byMonth[b.Month] = b
	}
	rows := make([][]any, 0, 12)
	for m := time.January; m <= time.December; m++ {
		b, ok := byMonth[m]
		if !ok {
			b = core.MonthBucket{Month: m}
		}
		rows = append(rows, []any{
			b.Name(),
			b.Revenue.Float(),
			b.Expenses.Float(),
			b.Net().Float(),
		})
	}
	return rows
}

// parseRollup reads rows produced by rollupValues back into buckets. Rows
// whose first cell is not a month name are skipped; malformed amounts fail.
func parseRollup(values [][]any) ([]core.MonthBucket, error) {
	var out []core.MonthBucket
	for i, row := range values {
		cells := toStrings(row)
		if len(cells) < 3 {
			continue
		}
		m, ok := monthByName(cells[0])
		if !ok {
			continue
		}
		rev, err := core.ParseMoney(cells[1])
		if err != nil {
			return nil, fmt.Errorf("row %d revenue %q: %w", i+2, cells[1], err)
		}
		exp, err := core.ParseMoney(cells[2])
		if err != nil {
			return nil, fmt.Errorf("row %d expenses %q: %w", i+2, cells[2], err)
		}
		out = append(out, core.MonthBucket{Month: m, Revenue: rev, Expenses: exp})
	}
	return out, nil
}

func monthByName(s string) (time.Month, bool) {
	s = strings.TrimSpace(s)
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(s, m.String()) || strings.EqualFold(s, m.String()[:3]) {
			return m, true
		}
	}
	return 0, false
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
