package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) Record(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(record_id, symbol, side, qty, price, trail_percent, time, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Symbol, string(t.Side), t.Qty, t.Price,
		t.TrailPercent, t.Time, t.Note,
	)
	return err
}

// GetTrade looks up a single record by its ID.
func (j *SQLiteJournal) GetTrade(id string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT record_id, symbol, side, qty, price, trail_percent, time, note
		FROM trades WHERE record_id = ?`, id)

	var t TradeRecord
	var side string
	err := row.Scan(&t.ID, &t.Symbol, &side, &t.Qty, &t.Price, &t.TrailPercent, &t.Time, &t.Note)
	if err == sql.ErrNoRows {
		return TradeRecord{}, fmt.Errorf("journal: no trade %s", id)
	}
	if err != nil {
		return TradeRecord{}, err
	}
	t.Side = Side(side)
	return t, nil
}

// ListTradesBetween returns records with start <= time < end, oldest first.
func (j *SQLiteJournal) ListTradesBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT record_id, symbol, side, qty, price, trail_percent, time, note
		FROM trades WHERE time >= ? AND time < ? ORDER BY time`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []TradeRecord
	for rows.Next() {
		var t TradeRecord
		var side string
		if err := rows.Scan(&t.ID, &t.Symbol, &side, &t.Qty, &t.Price, &t.TrailPercent, &t.Time, &t.Note); err != nil {
			return nil, err
		}
		t.Side = Side(side)
		recs = append(recs, t)
	}
	return recs, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
