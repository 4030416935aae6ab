package msh

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// HistoryManager records executed command lines in SQLite.
type HistoryManager struct {
	db *sql.DB
	mu sync.Mutex
}

func NewHistoryManager(dbPath string) (*HistoryManager, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(home, ".msh_history.sqlite")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
    CREATE TABLE IF NOT EXISTS command(
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id VARCHAR(36) NOT NULL,
        cwd VARCHAR(256) NOT NULL,
        command VARCHAR(1000) NOT NULL,
        args VARCHAR(1000) NOT NULL,
        return_code INT NOT NULL,
        start_time INTEGER NOT NULL,
        end_time INTEGER NOT NULL,
        duration INTEGER NOT NULL
    );`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}

	return &HistoryManager{db: db}, nil
}

func (h *HistoryManager) Close() error {
	return h.db.Close()
}

// Insert records one executed line.
func (h *HistoryManager) Insert(cmd *Command, sessionID string) error {
	if len(cmd.Tokens) == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	cwd, _ := os.Getwd()
	insertSQL := `INSERT INTO command
        (session_id, cwd, command, args, return_code, start_time, end_time, duration)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := h.db.Exec(insertSQL,
		sessionID,
		cwd,
		cmd.Tokens[0],
		strings.Join(cmd.Tokens[1:], " "),
		cmd.ReturnCode,
		cmd.StartTime.Unix(),
		cmd.EndTime.Unix(),
		int(cmd.Duration.Seconds()),
	)
	return err
}

// Dump returns every recorded line, oldest first.
func (h *HistoryManager) Dump() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rows, err := h.db.Query(
		"SELECT TRIM(command || ' ' || args) AS cmd FROM command ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []string
	for rows.Next() {
		var cmd string
		if err := rows.Scan(&cmd); err != nil {
			return nil, err
		}
		history = append(history, cmd)
	}
	return history, rows.Err()
}
