package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	"portal-go/internal/config"
	"portal-go/internal/database"
	"portal-go/internal/portal"
)

// NewLedgerFromConfig creates a Ledger implementation based on the ledger config type.
func NewLedgerFromConfig(cfg config.LedgerConfig) (portal.Ledger, error) {
	switch cfg.Type {
	case "csv", "":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir required for csv ledger")
		}
		l, err := NewCSVLedger(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "sqlite":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir required for sqlite ledger")
		}
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
		l, err := database.NewSQLiteLedger(filepath.Join(cfg.Dir, "ledger.db"))
		if err != nil {
			return nil, err
		}
		return l, nil
	case "memory":
		return NewMemoryLedger(), nil
	default:
		return nil, fmt.Errorf("unknown ledger type: %s", cfg.Type)
	}
}
