package portal

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
)

// History returns up to limit records of a log, newest first.
// A limit of zero or less returns everything.
func (s *PortalService) History(actor Actor, log LogName, limit int) ([]Record, error) {
	if err := actor.RequireAdmin("read history"); err != nil {
		return nil, err
	}
	recs, err := s.ledger.ReadAll(log)
	if err != nil {
		return nil, fmt.Errorf("reading %s log: %w", log, err)
	}
	slices.Reverse(recs)
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// WriteRecordsCSV writes recs with a header row in RecordHeader layout.
func WriteRecordsCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecordHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range recs {
		if err := cw.Write(r.Fields()); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportLedger snapshots a log as CSV into the vault, encrypted when
// encrypt is set. It returns the stored export name.
func (s *PortalService) ExportLedger(actor Actor, log LogName, encrypt bool) (string, error) {
	if err := actor.RequireAdmin("export ledger"); err != nil {
		return "", err
	}
	if s.vault == nil {
		return "", fmt.Errorf("no export vault configured")
	}
	recs, err := s.ledger.ReadAll(log)
	if err != nil {
		return "", fmt.Errorf("reading %s log: %w", log, err)
	}

	var plain bytes.Buffer
	if err := WriteRecordsCSV(&plain, recs); err != nil {
		return "", fmt.Errorf("encoding %s log: %w", log, err)
	}

	name := fmt.Sprintf("%s_log_%s_%s.csv", log, s.clock.Now().UTC().Format("20060102T150405Z"), ShortID(s.idgen, 8))
	payload := &plain
	if encrypt {
		if s.encryptor == nil || !s.encryptor.IsConfigured() {
			return "", fmt.Errorf("encryption keys not configured")
		}
		var sealed bytes.Buffer
		if err := s.encryptor.Encrypt(&plain, &sealed); err != nil {
			return "", fmt.Errorf("encrypting export: %w", err)
		}
		payload = &sealed
		name += ".age"
	}

	if err := s.vault.Put(name, bytes.NewReader(payload.Bytes()), int64(payload.Len())); err != nil {
		return "", fmt.Errorf("storing export: %w", err)
	}
	s.logger.Info("ledger exported", "log", string(log), "records", len(recs), "export", name, "by", actor.Identity)
	return name, nil
}

// Exports lists stored exports.
func (s *PortalService) Exports(actor Actor) ([]string, error) {
	if err := actor.RequireAdmin("list exports"); err != nil {
		return nil, err
	}
	if s.vault == nil {
		return nil, fmt.Errorf("no export vault configured")
	}
	return s.vault.List()
}

// FetchExport writes a stored export to w. Encrypted exports (".age") need a
// DecryptionContext; plain exports ignore dc.
func (s *PortalService) FetchExport(actor Actor, name string, dc DecryptionContext, w io.Writer) error {
	if err := actor.RequireAdmin("fetch export"); err != nil {
		return err
	}
	if s.vault == nil {
		return fmt.Errorf("no export vault configured")
	}
	if !strings.HasSuffix(name, ".age") {
		return s.vault.Get(name, w)
	}
	if dc == nil {
		return fmt.Errorf("export %s is encrypted: unlock required", name)
	}
	var sealed bytes.Buffer
	if err := s.vault.Get(name, &sealed); err != nil {
		return err
	}
	if err := dc.Decrypt(&sealed, w); err != nil {
		return fmt.Errorf("decrypting export: %w", err)
	}
	return nil
}

// Encryptor returns the configured export encryptor, which may be nil.
func (s *PortalService) Encryptor() Encryptor { return s.encryptor }
