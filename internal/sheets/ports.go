package sheets

import (
	"context"

	"tourney/internal/core"
)

// LedgerRow is one exported finance transaction. Names are resolved at export
// time so the sheet reads without joins.
type LedgerRow struct {
	ID          string
	Tournament  string
	Date        string
	Category    string
	Team        string
	Description string
	Amount      core.Money
}

// Header is the first row of the ledger sheet.
var Header = []string{"ID", "Tournament", "Date", "Category", "Team", "Description", "Amount"}

// Ports for outbound adapters.
type (
	// LedgerWriter inserts a row or replaces the row with the same ID.
	LedgerWriter interface {
		Upsert(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}

	// LedgerDeleter removes the row with the given ID. Missing rows are not an error.
	LedgerDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	LedgerLister interface {
		ListRows(ctx context.Context) ([]LedgerRow, error)
	}

	LedgerExporter interface {
		LedgerWriter
		LedgerDeleter
		LedgerLister
	}
)
