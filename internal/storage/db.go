package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"compensa/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  domain TEXT NOT NULL,
  position INTEGER NOT NULL,
  quantity REAL,
  grp TEXT,
  municipality TEXT NOT NULL,
  endangered INTEGER NOT NULL DEFAULT 0,
  area_m2 REAL,
  unit_compensation REAL,
  total_compensation REAL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_items_domain_position ON items(domain, position);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  domain TEXT NOT NULL,
  itemCount INTEGER NOT NULL,
  applied INTEGER NOT NULL DEFAULT 0,
  unmatched INTEGER NOT NULL DEFAULT 0,
  total REAL,
  status TEXT NOT NULL,
  message TEXT NOT NULL DEFAULT '',
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_domain ON runs(domain, id);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// SaveItems replaces the stored rows of a domain with items, keeping their
// order in the position column.
func (d *DB) SaveItems(domain internal.Domain, items []internal.LineItem) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM items WHERE domain = ?`, string(domain)); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO items (
  id, domain, position, quantity, grp, municipality, endangered, area_m2,
  unit_compensation, total_compensation
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, item := range items {
		if item.Domain != domain {
			return fmt.Errorf("item %s belongs to domain %s, not %s", item.ID, item.Domain, domain)
		}
		var unit, total *float64
		if item.Result != nil {
			unit, total = item.Result.Unit, item.Result.Total
		}
		endangered := 0
		if item.Endangered {
			endangered = 1
		}
		if _, err := stmt.Exec(
			item.ID, string(domain), i, item.Quantity, item.Group, item.Municipality, endangered, item.AreaM2,
			unit, total,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) LoadItems(domain internal.Domain) ([]internal.LineItem, error) {
	rows, err := d.conn.Query(`
SELECT id, quantity, grp, municipality, endangered, area_m2, unit_compensation, total_compensation
FROM items WHERE domain = ? ORDER BY position ASC`, string(domain))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.LineItem
	for rows.Next() {
		var (
			item       internal.LineItem
			qty, area  sql.NullFloat64
			group      sql.NullString
			endangered int
			unit       *float64
			total      *float64
		)
		if err := rows.Scan(&item.ID, &qty, &group, &item.Municipality, &endangered, &area, &unit, &total); err != nil {
			return nil, err
		}
		item.Domain = domain
		item.Quantity = qty.Float64
		item.AreaM2 = area.Float64
		item.Group = group.String
		item.Endangered = endangered != 0
		if unit != nil || total != nil {
			item.Result = &internal.ComputedResult{Unit: unit, Total: total}
		}
		out = append(out, item)
	}

	return out, rows.Err()
}

func (d *DB) ClearItems(domain internal.Domain) (int64, error) {
	res, err := d.conn.Exec(`DELETE FROM items WHERE domain = ?`, string(domain))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) InsertRun(run internal.RunRecord) error {
	timingsJSON, _ := json.Marshal(run.Timings)
	_, err := d.conn.Exec(`
INSERT INTO runs (traceId, domain, itemCount, applied, unmatched, total, status, message, timingsJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.TraceID, string(run.Domain), run.ItemCount, run.Applied, run.Unmatched, run.Total, string(run.Status), run.Message, string(timingsJSON))
	return err
}

// ListRuns returns the most recent runs of a domain, newest first.
func (d *DB) ListRuns(domain internal.Domain, limit int) ([]internal.RunRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, domain, itemCount, applied, unmatched, total, status, message, timingsJson, createdAt
FROM runs WHERE domain = ? ORDER BY id DESC LIMIT ?
`, string(domain), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRecord
	for rows.Next() {
		var (
			run         internal.RunRecord
			dom, status string
			timingsJSON string
		)
		if err := rows.Scan(&run.ID, &run.TraceID, &dom, &run.ItemCount, &run.Applied, &run.Unmatched, &run.Total, &status, &run.Message, &timingsJSON, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Domain = internal.Domain(dom)
		run.Status = internal.RunStatus(status)
		_ = json.Unmarshal([]byte(timingsJSON), &run.Timings)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// GetExportRows returns the stored rows of a domain in display order.
func (d *DB) GetExportRows(domain internal.Domain) ([]internal.ExportRow, error) {
	items, err := d.LoadItems(domain)
	if err != nil {
		return nil, err
	}
	return ExportRows(items), nil
}

// ExportRows flattens items into spreadsheet rows, only filling the input
// columns that belong to each item's domain.
func ExportRows(items []internal.LineItem) []internal.ExportRow {
	out := make([]internal.ExportRow, 0, len(items))
	for i, item := range items {
		row := internal.ExportRow{
			Position:     i + 1,
			Domain:       item.Domain,
			Municipality: item.Municipality,
			Group:        item.Group,
			Endangered:   item.Endangered,
		}
		if item.Domain == internal.DomainPatch {
			area := item.AreaM2
			row.AreaM2 = &area
		} else {
			qty := item.Quantity
			row.Quantity = &qty
		}
		if item.Result != nil {
			row.Unit = item.Result.Unit
			row.Total = item.Result.Total
		}
		out = append(out, row)
	}
	return out
}
