package google

import (
	"fmt"
	"strings"

	"tourney/internal/core"
	ports "tourney/internal/sheets"
)

const lastColumn = "G"

// parseLedger converts a values matrix (as returned by the Sheets API for
// A:G) into rows. The header row and rows without an ID are skipped; amounts
// that do not parse are exported as zero so the row can still be reconciled.
func parseLedger(values [][]interface{}) []ports.LedgerRow {
	var out []ports.LedgerRow
	for i, raw := range values {
		cols := toStrings(raw)
		id := safeGet(cols, 0)
		if id == "" {
			continue
		}
		if i == 0 && strings.EqualFold(id, ports.Header[0]) {
			continue
		}
		cents, _ := parseAmountToCents(safeGet(cols, 6))
		out = append(out, ports.LedgerRow{
			ID:          id,
			Tournament:  safeGet(cols, 1),
			Date:        safeGet(cols, 2),
			Category:    safeGet(cols, 3),
			Team:        safeGet(cols, 4),
			Description: safeGet(cols, 5),
			Amount:      core.Money{Cents: cents},
		})
	}
	return out
}

// findRow returns the 1-based sheet row holding id in column A, or 0.
func findRow(values [][]interface{}, id string) int {
	for i, raw := range values {
		if len(raw) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(raw[0])) == id {
			return i + 1
		}
	}
	return 0
}

func rowValues(r ports.LedgerRow) []interface{} {
	return []interface{}{r.ID, r.Tournament, r.Date, r.Category, r.Team, r.Description, r.Amount.String()}
}

// quoteSheet quotes a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), row, lastColumn, row)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmountToCents accepts the rendered value of the amount column, with
// either decimal separator.
func parseAmountToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0, false
	}
	return cents, true
}
