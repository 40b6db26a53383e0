// Package persistence provides SQLite-based colony state storage: a full
// replaceable snapshot of birds and nests, plus an append-only per-day nest
// history.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/nestshare/internal/agents"
	"github.com/talgya/nestshare/internal/colony"
)

// DB wraps a SQLite connection for colony state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS birds (
		id INTEGER PRIMARY KEY,
		kind TEXT NOT NULL,
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		search_share REAL NOT NULL,
		male_count INTEGER NOT NULL,
		owned_nests_json TEXT NOT NULL,
		nest_roles_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nests (
		id INTEGER PRIMARY KEY,
		owner_id INTEGER,
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		female_share REAL NOT NULL,
		home_range_json TEXT NOT NULL,
		male_shares_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nest_days (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		nest_id INTEGER NOT NULL,
		extracted REAL NOT NULL,
		resident_males INTEGER NOT NULL,
		total_male_share REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_nest_days_day ON nest_days(day);
	CREATE INDEX IF NOT EXISTS idx_nest_days_nest ON nest_days(nest_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveBirds writes all birds to the database (full replace).
func (db *DB) SaveBirds(birds []*agents.Bird) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM birds"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO birds
		(id, kind, pos_x, pos_y, search_share, male_count, owned_nests_json, nest_roles_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range birds {
		ownedJSON, _ := json.Marshal(b.OwnedNests())
		rolesJSON, _ := json.Marshal(b.Roles())

		_, err := stmt.Exec(
			b.ID, b.Kind.String(), b.Position.X, b.Position.Y,
			b.SearchShare, b.MaleCount(),
			string(ownedJSON), string(rolesJSON),
		)
		if err != nil {
			return fmt.Errorf("insert bird %d: %w", b.ID, err)
		}
	}

	return tx.Commit()
}

// SaveNests writes all nests to the database (full replace).
func (db *DB) SaveNests(nests []*agents.Nest) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM nests"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO nests
		(id, owner_id, pos_x, pos_y, female_share, home_range_json, male_shares_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, n := range nests {
		rangeJSON, _ := json.Marshal(n.HomeRange)
		sharesJSON, _ := json.Marshal(n.MaleShares())

		var owner any
		if n.Owner != nil {
			owner = *n.Owner
		}

		_, err := stmt.Exec(
			n.ID, owner, n.Position.X, n.Position.Y,
			n.FemaleShare, string(rangeJSON), string(sharesJSON),
		)
		if err != nil {
			return fmt.Errorf("insert nest %d: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// AppendNestDay appends one row per nest for the given day. Called before
// the field resets so the per-day caches are still populated.
func (db *DB) AppendNestDay(day int, nests []*agents.Nest) error {
	if len(nests) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, n := range nests {
		_, err := tx.Exec(
			"INSERT INTO nest_days (day, nest_id, extracted, resident_males, total_male_share) VALUES (?, ?, ?, ?, ?)",
			day, n.ID, n.ResourceCache(), len(n.MaleIDs()), n.TotalMaleShare(),
		)
		if err != nil {
			return fmt.Errorf("insert nest day %d/%d: %w", day, n.ID, err)
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in run metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}

// SaveColony performs a full save of the colony at the end of a day.
func (db *DB) SaveColony(st *colony.State, day int) error {
	birds := st.Birds()
	nests := st.Nests()
	slog.Info("saving colony state", "birds", len(birds), "nests", len(nests), "day", day)

	if err := db.SaveBirds(birds); err != nil {
		return fmt.Errorf("save birds: %w", err)
	}
	if err := db.SaveNests(nests); err != nil {
		return fmt.Errorf("save nests: %w", err)
	}
	if err := db.SaveMeta("last_day", fmt.Sprintf("%d", day)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	return nil
}

// NestDayRow is one nest's stored outcome for one day.
type NestDayRow struct {
	Day            int     `db:"day"`
	NestID         uint64  `db:"nest_id"`
	Extracted      float64 `db:"extracted"`
	ResidentMales  int     `db:"resident_males"`
	TotalMaleShare float64 `db:"total_male_share"`
}

// NestHistory returns the stored per-day rows for a nest, most recent first.
func (db *DB) NestHistory(nestID agents.NestID, limit int) ([]NestDayRow, error) {
	var rows []NestDayRow
	err := db.conn.Select(&rows,
		"SELECT day, nest_id, extracted, resident_males, total_male_share FROM nest_days WHERE nest_id = ? ORDER BY day DESC LIMIT ?",
		nestID, limit,
	)
	return rows, err
}
