package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteStore implements the Store interface over a SQLite database.
// Serialization of concurrent membership mutations comes from SQLite's
// write transaction locking plus the busy timeout set in New.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a Store backed by the given database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertSheet stores a new sheet record.
func (s *SQLiteStore) InsertSheet(ctx context.Context, sheet *SheetRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sheets (id, title, content_key, size_bytes, content_kind, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sheet.ID, sheet.Title, sheet.ContentKey, sheet.SizeBytes, sheet.ContentKind,
		formatTime(sheet.CreatedAt), formatTime(sheet.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sheet: %w", err)
	}
	return nil
}

// ListSheets returns all sheets, most recently created first, each with the
// number of setlists it belongs to.
func (s *SQLiteStore) ListSheets(ctx context.Context) ([]SheetSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.title, s.content_key, s.size_bytes, s.content_kind, s.created_at, s.updated_at,
		        COUNT(ss.setlist_id)
		 FROM sheets s
		 LEFT JOIN setlist_sheets ss ON s.id = ss.sheet_id
		 GROUP BY s.id
		 ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sheets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sheets []SheetSummary
	for rows.Next() {
		var sum SheetSummary
		var createdAt, updatedAt string
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.ContentKey, &sum.SizeBytes, &sum.ContentKind,
			&createdAt, &updatedAt, &sum.SetlistCount); err != nil {
			return nil, fmt.Errorf("failed to scan sheet: %w", err)
		}
		if sum.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if sum.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		sheets = append(sheets, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sheets: %w", err)
	}
	return sheets, nil
}

// GetSheet fetches a sheet by id. Returns ErrNotFound if absent.
func (s *SQLiteStore) GetSheet(ctx context.Context, id string) (*SheetRecord, error) {
	return scanSheet(s.db.QueryRowContext(ctx,
		`SELECT id, title, content_key, size_bytes, content_kind, created_at, updated_at
		 FROM sheets WHERE id = ?`, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSheet(row rowScanner) (*SheetRecord, error) {
	var sheet SheetRecord
	var createdAt, updatedAt string
	err := row.Scan(&sheet.ID, &sheet.Title, &sheet.ContentKey, &sheet.SizeBytes, &sheet.ContentKind,
		&createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sheet: %w", err)
	}
	if sheet.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if sheet.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &sheet, nil
}

// DeleteSheet removes the sheet and cascades membership removal, renumbering
// every setlist the sheet belonged to, all in one transaction.
func (s *SQLiteStore) DeleteSheet(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM sheets WHERE id = ?", id).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check sheet: %w", err)
		}
		if err := removeSheetEverywhereTx(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM sheets WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete sheet: %w", err)
		}
		return nil
	})
}

// InsertSetlist stores a new setlist record.
func (s *SQLiteStore) InsertSetlist(ctx context.Context, setlist *SetlistRecord) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO setlists (id, name, notes, created_at) VALUES (?, ?, ?, ?)",
		setlist.ID, setlist.Name, setlist.Notes, formatTime(setlist.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert setlist: %w", err)
	}
	return nil
}

// ListSetlists returns all setlists, most recently created first, each with
// its member count.
func (s *SQLiteStore) ListSetlists(ctx context.Context) ([]SetlistSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.name, l.notes, l.created_at, COUNT(ss.sheet_id)
		 FROM setlists l
		 LEFT JOIN setlist_sheets ss ON l.id = ss.setlist_id
		 GROUP BY l.id
		 ORDER BY l.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query setlists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var setlists []SetlistSummary
	for rows.Next() {
		var sum SetlistSummary
		var createdAt string
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Notes, &createdAt, &sum.SheetCount); err != nil {
			return nil, fmt.Errorf("failed to scan setlist: %w", err)
		}
		if sum.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		setlists = append(setlists, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate setlists: %w", err)
	}
	return setlists, nil
}

// GetSetlist fetches a setlist by id. Returns ErrNotFound if absent.
func (s *SQLiteStore) GetSetlist(ctx context.Context, id string) (*SetlistRecord, error) {
	var setlist SetlistRecord
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, notes, created_at FROM setlists WHERE id = ?", id).
		Scan(&setlist.ID, &setlist.Name, &setlist.Notes, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query setlist: %w", err)
	}
	if setlist.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &setlist, nil
}

// UpdateSetlist updates the setlist's name and notes. Membership rows are
// untouched. Returns ErrNotFound if absent.
func (s *SQLiteStore) UpdateSetlist(ctx context.Context, setlist *SetlistRecord) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE setlists SET name = ?, notes = ? WHERE id = ?",
		setlist.Name, setlist.Notes, setlist.ID)
	if err != nil {
		return fmt.Errorf("failed to update setlist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSetlist removes the setlist and all its membership rows in one
// transaction. Returns ErrNotFound if absent.
func (s *SQLiteStore) DeleteSetlist(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM setlist_sheets WHERE setlist_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM setlists WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete setlist: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListOrdered returns the setlist's sheets joined with their positions,
// sorted by position ascending. Returns ErrNotFound if the setlist is absent.
func (s *SQLiteStore) ListOrdered(ctx context.Context, setlistID string) ([]OrderedSheet, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM setlists WHERE id = ?", setlistID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check setlist: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.title, s.content_key, s.size_bytes, s.content_kind, s.created_at, s.updated_at,
		        ss.position
		 FROM sheets s
		 JOIN setlist_sheets ss ON s.id = ss.sheet_id
		 WHERE ss.setlist_id = ?
		 ORDER BY ss.position`, setlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ordered sheets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ordered []OrderedSheet
	for rows.Next() {
		var os OrderedSheet
		var createdAt, updatedAt string
		if err := rows.Scan(&os.ID, &os.Title, &os.ContentKey, &os.SizeBytes, &os.ContentKind,
			&createdAt, &updatedAt, &os.Position); err != nil {
			return nil, fmt.Errorf("failed to scan ordered sheet: %w", err)
		}
		if os.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if os.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		ordered = append(ordered, os)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ordered sheets: %w", err)
	}
	return ordered, nil
}

// UpdateMemberships applies mutate to the setlist's current ordering inside
// a single transaction and persists the result with contiguous positions.
func (s *SQLiteStore) UpdateMemberships(ctx context.Context, setlistID string, mutate MutateFunc) ([]string, error) {
	var committed []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM setlists WHERE id = ?", setlistID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check setlist: %w", err)
		}

		current, err := orderedSheetIDsTx(ctx, tx, setlistID)
		if err != nil {
			return err
		}

		next, err := mutate(current)
		if err != nil {
			return err
		}

		// Every referenced sheet must exist at commit time.
		for _, sheetID := range next {
			var one int
			err := tx.QueryRowContext(ctx, "SELECT 1 FROM sheets WHERE id = ?", sheetID).Scan(&one)
			if err == sql.ErrNoRows {
				return fmt.Errorf("sheet %s: %w", sheetID, ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("failed to check sheet %s: %w", sheetID, err)
			}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM setlist_sheets WHERE setlist_id = ?", setlistID); err != nil {
			return fmt.Errorf("failed to clear memberships: %w", err)
		}
		for i, sheetID := range next {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO setlist_sheets (setlist_id, sheet_id, position) VALUES (?, ?, ?)",
				setlistID, sheetID, i); err != nil {
				return fmt.Errorf("failed to insert membership %s: %w", sheetID, err)
			}
		}
		committed = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

// RemoveSheetEverywhere drops the sheet from every setlist containing it,
// renumbering each affected setlist, in one transaction.
func (s *SQLiteStore) RemoveSheetEverywhere(ctx context.Context, sheetID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return removeSheetEverywhereTx(ctx, tx, sheetID)
	})
}

func removeSheetEverywhereTx(ctx context.Context, tx *sql.Tx, sheetID string) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT DISTINCT setlist_id FROM setlist_sheets WHERE sheet_id = ?", sheetID)
	if err != nil {
		return fmt.Errorf("failed to query containing setlists: %w", err)
	}
	var affected []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan setlist id: %w", err)
		}
		affected = append(affected, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("failed to iterate setlist ids: %w", err)
	}
	_ = rows.Close()

	if _, err := tx.ExecContext(ctx, "DELETE FROM setlist_sheets WHERE sheet_id = ?", sheetID); err != nil {
		return fmt.Errorf("failed to delete memberships: %w", err)
	}
	for _, setlistID := range affected {
		if err := renumberTx(ctx, tx, setlistID); err != nil {
			return err
		}
	}
	return nil
}

// renumberTx reassigns positions 0..n-1 to the setlist's remaining rows in
// their current position order, closing any gaps.
func renumberTx(ctx context.Context, tx *sql.Tx, setlistID string) error {
	ids, err := orderedSheetIDsTx(ctx, tx, setlistID)
	if err != nil {
		return err
	}
	for i, sheetID := range ids {
		if _, err := tx.ExecContext(ctx,
			"UPDATE setlist_sheets SET position = ? WHERE setlist_id = ? AND sheet_id = ?",
			i, setlistID, sheetID); err != nil {
			return fmt.Errorf("failed to renumber membership %s: %w", sheetID, err)
		}
	}
	return nil
}

func orderedSheetIDsTx(ctx context.Context, tx *sql.Tx, setlistID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT sheet_id FROM setlist_sheets WHERE setlist_id = ? ORDER BY position", setlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
