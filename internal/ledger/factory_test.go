package ledger

import (
	"testing"

	"portal-go/internal/config"
)

func TestNewLedgerFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(t *testing.T) config.LedgerConfig
		wantErr bool
	}{
		{"csv", func(t *testing.T) config.LedgerConfig { return config.LedgerConfig{Type: "csv", Dir: t.TempDir()} }, false},
		{"default type is csv", func(t *testing.T) config.LedgerConfig { return config.LedgerConfig{Dir: t.TempDir()} }, false},
		{"sqlite", func(t *testing.T) config.LedgerConfig { return config.LedgerConfig{Type: "sqlite", Dir: t.TempDir()} }, false},
		{"memory", func(t *testing.T) config.LedgerConfig { return config.LedgerConfig{Type: "memory"} }, false},
		{"csv without dir", func(t *testing.T) config.LedgerConfig { return config.LedgerConfig{Type: "csv"} }, true},
		{"sqlite without dir", func(t *testing.T) config.LedgerConfig { return config.LedgerConfig{Type: "sqlite"} }, true},
		{"unknown", func(t *testing.T) config.LedgerConfig { return config.LedgerConfig{Type: "postgres"} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLedgerFromConfig(tt.cfg(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLedgerFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if got != nil {
					t.Error("NewLedgerFromConfig() should return nil on error")
				}
				return
			}
			if got == nil {
				t.Fatal("NewLedgerFromConfig() returned nil")
			}
			got.Close()
		})
	}
}
