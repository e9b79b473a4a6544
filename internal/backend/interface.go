package backend

import (
	"context"

	"tourney/internal/sheets"
	"tourney/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and an optional cleanup function
type BackendResult struct {
	Store   *store.Store
	Cleanup CleanupFunc
}

// Factory creates the data backends named in configuration
type Factory interface {
	// CreateStore opens the entity store selected by config.Type
	CreateStore(ctx context.Context, config Config) (*BackendResult, error)
	// CreateExporter returns the ledger exporter: Google Sheets when a
	// spreadsheet is configured, otherwise an in-process exporter.
	CreateExporter(ctx context.Context, config Config) (sheets.LedgerExporter, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string

	// Google Sheets ledger export
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
