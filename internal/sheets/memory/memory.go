package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tourney/internal/sheets"
)

// Exporter keeps the exported ledger in process. It backs the worker when no
// spreadsheet is configured and doubles as a test fake.
type Exporter struct {
	mu    sync.Mutex
	order []string
	rows  map[string]sheets.LedgerRow
}

var _ sheets.LedgerExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{rows: make(map[string]sheets.LedgerRow)}
}

// Upsert stores the row and returns a synthetic row reference.
func (e *Exporter) Upsert(_ context.Context, row sheets.LedgerRow) (string, error) {
	if row.ID == "" {
		return "", errors.New("ledger row without ID")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rows[row.ID]; !ok {
		e.order = append(e.order, row.ID)
	}
	e.rows[row.ID] = row
	for i, id := range e.order {
		if id == row.ID {
			return fmt.Sprintf("mem:%d", i+1), nil
		}
	}
	return "", nil
}

func (e *Exporter) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rows[id]; !ok {
		return nil
	}
	delete(e.rows, id)
	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

func (e *Exporter) ListRows(_ context.Context) ([]sheets.LedgerRow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]sheets.LedgerRow, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.rows[id])
	}
	return out, nil
}

// Row returns the stored row for id.
func (e *Exporter) Row(id string) (sheets.LedgerRow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rows[id]
	return r, ok
}
