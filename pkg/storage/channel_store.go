package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/logging"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/memory"
)

// ChannelStore persists the channel map and group declarations in SQLite so
// the local model survives restarts without re-reading the radio.
type ChannelStore struct {
	db     *sql.DB
	dbPath string
}

// NewChannelStore opens (or creates) the database at dbPath.
func NewChannelStore(dbPath string) (*ChannelStore, error) {
	store := &ChannelStore{dbPath: dbPath}
	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize channel store: %w", err)
	}
	return store, nil
}

// initialize sets up the database connection and creates tables
func (cs *ChannelStore) initialize() error {
	if cs.dbPath == "" {
		cs.dbPath = "./ic7300.db"
	}

	// Create database directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(cs.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	// Build connection string properly with query parameters
	connectionString := cs.dbPath + "?_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=on"

	db, err := sql.Open("sqlite3", connectionString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	cs.db = db

	if err := cs.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	logging.Infof("storage", "channel store initialized: %s", cs.dbPath)
	return nil
}

// createTables creates the database schema
func (cs *ChannelStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS channels (
		slot INTEGER PRIMARY KEY CHECK (slot >= 0 AND slot <= 99),
		name TEXT NOT NULL DEFAULT '',
		rx_frequency INTEGER NOT NULL,
		tx_frequency INTEGER NOT NULL DEFAULT 0,
		mode INTEGER NOT NULL DEFAULT 1,
		filter INTEGER NOT NULL DEFAULT 1,
		duplex INTEGER NOT NULL DEFAULT 0,
		tone_mode INTEGER NOT NULL DEFAULT 0,
		tone_frequency REAL NOT NULL DEFAULT 88.5,
		dtcs_code INTEGER NOT NULL DEFAULT 23,
		tuning_step INTEGER NOT NULL DEFAULT 0,
		channel_group TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS groups (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		base_slot INTEGER NOT NULL CHECK (base_slot >= 0 AND base_slot <= 99)
	);
	`
	_, err := cs.db.Exec(schema)
	return err
}

// SaveAll replaces the persisted state with the given snapshot in one
// transaction. Empty channels are not stored.
func (cs *ChannelStore) SaveAll(channels []memory.Channel, groups []memory.Group) error {
	tx, err := cs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM channels"); err != nil {
		return fmt.Errorf("failed to clear channels: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM groups"); err != nil {
		return fmt.Errorf("failed to clear groups: %w", err)
	}

	chStmt, err := tx.Prepare(`
		INSERT INTO channels (slot, name, rx_frequency, tx_frequency, mode, filter,
			duplex, tone_mode, tone_frequency, dtcs_code, tuning_step, channel_group)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare channel insert: %w", err)
	}
	defer chStmt.Close()

	for _, ch := range channels {
		if ch.Empty {
			continue
		}
		_, err := chStmt.Exec(ch.Slot, ch.Name, ch.RxFrequency, ch.TxFrequency,
			int(ch.Mode), int(ch.Filter), int(ch.Duplex), int(ch.ToneMode),
			ch.ToneFrequency, ch.DTCSCode, ch.TuningStep, ch.Group)
		if err != nil {
			return fmt.Errorf("failed to insert channel %d: %w", ch.Slot, err)
		}
	}

	grpStmt, err := tx.Prepare("INSERT INTO groups (position, id, base_slot) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare group insert: %w", err)
	}
	defer grpStmt.Close()

	for i, g := range groups {
		if _, err := grpStmt.Exec(i, g.ID, g.BaseSlot); err != nil {
			return fmt.Errorf("failed to insert group %q: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// LoadAll reads the persisted channels and groups. Groups come back in the
// declaration order they were saved with.
func (cs *ChannelStore) LoadAll() ([]memory.Channel, []memory.Group, error) {
	rows, err := cs.db.Query(`
		SELECT slot, name, rx_frequency, tx_frequency, mode, filter,
			duplex, tone_mode, tone_frequency, dtcs_code, tuning_step, channel_group
		FROM channels ORDER BY slot`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var channels []memory.Channel
	for rows.Next() {
		var ch memory.Channel
		var mode, filter, duplex, toneMode int
		err := rows.Scan(&ch.Slot, &ch.Name, &ch.RxFrequency, &ch.TxFrequency,
			&mode, &filter, &duplex, &toneMode, &ch.ToneFrequency,
			&ch.DTCSCode, &ch.TuningStep, &ch.Group)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		ch.Mode = memory.Mode(mode)
		ch.Filter = memory.Filter(filter)
		ch.Duplex = memory.Duplex(duplex)
		ch.ToneMode = memory.ToneMode(toneMode)
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read channels: %w", err)
	}

	grpRows, err := cs.db.Query("SELECT id, base_slot FROM groups ORDER BY position")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer grpRows.Close()

	var groups []memory.Group
	for grpRows.Next() {
		var g memory.Group
		if err := grpRows.Scan(&g.ID, &g.BaseSlot); err != nil {
			return nil, nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := grpRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read groups: %w", err)
	}

	return channels, groups, nil
}

// Close closes the database connection.
func (cs *ChannelStore) Close() error {
	if cs.db != nil {
		return cs.db.Close()
	}
	return nil
}
