package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fsubgate/internal/bot/models"
	"github.com/dmitrijs2005/fsubgate/internal/common"
	"github.com/dmitrijs2005/fsubgate/internal/dbx"
	_ "modernc.org/sqlite"
)

// SQLiteStorage is the embedded backend: a single local transactional file.
// Claims are serialized through a transaction, so it is suitable for
// single-process deployments only.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (creating if necessary) the database at path and
// bootstraps the schema. Path may be a plain filename or a file: DSN
// (e.g. "file:test?mode=memory&cache=shared" in tests).
func NewSQLiteStorage(ctx context.Context, path string) (*SQLiteStorage, error) {
	if path == "" {
		path = "data.db"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open error: %w", err)
	}

	// SQLite serializes writers anyway; a single connection avoids
	// SQLITE_BUSY under concurrent claims.
	db.SetMaxOpenConns(1)

	if err := bootstrapSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStorage{db: db}, nil
}

func bootstrapSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS files (
			file_id       TEXT PRIMARY KEY,
			db_chat_id    INTEGER NOT NULL,
			db_message_id INTEGER NOT NULL,
			kind          TEXT NOT NULL,
			caption       TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS links (
			code          TEXT PRIMARY KEY,
			file_id       TEXT NOT NULL,
			owner_user_id INTEGER
		)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("schema bootstrap error: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, rec *models.FileRecord) error {
	query := `
		INSERT INTO files(file_id, db_chat_id, db_message_id, kind, caption)
		VALUES(?,?,?,?,?)
		ON CONFLICT(file_id) DO UPDATE SET
		  db_chat_id=excluded.db_chat_id,
		  db_message_id=excluded.db_message_id,
		  kind=excluded.kind,
		  caption=excluded.caption`

	_, err := s.db.ExecContext(ctx, query,
		rec.FileID, rec.Archive.ChatID, rec.Archive.MessageID, string(rec.Kind), rec.Caption)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetFile(ctx context.Context, fileID string) (*models.FileRecord, error) {
	query := `SELECT file_id, db_chat_id, db_message_id, kind, caption FROM files WHERE file_id = ?`

	rec := &models.FileRecord{}
	var kind string
	var caption sql.NullString
	err := s.db.QueryRowContext(ctx, query, fileID).Scan(
		&rec.FileID, &rec.Archive.ChatID, &rec.Archive.MessageID, &kind, &caption)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	rec.Kind = models.MediaKind(kind)
	rec.Caption = caption.String
	return rec, nil
}

func (s *SQLiteStorage) SaveLink(ctx context.Context, code, fileID string) error {
	// On conflict only file_id is updated, so an existing owner survives.
	query := `
		INSERT INTO links(code, file_id, owner_user_id)
		VALUES(?, ?, NULL)
		ON CONFLICT(code) DO UPDATE SET
		  file_id=excluded.file_id`

	if _, err := s.db.ExecContext(ctx, query, code, fileID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetFileIDByCode(ctx context.Context, code string) (string, error) {
	var fileID string
	err := s.db.QueryRowContext(ctx, `SELECT file_id FROM links WHERE code = ?`, code).Scan(&fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return fileID, nil
}

// ClaimLink runs the whole claim inside one transaction: read the link,
// conditionally bind the unset owner, then re-read to learn which claimant
// won. The UPDATE is guarded by "owner_user_id IS NULL" so exactly one
// concurrent first claim can take effect.
func (s *SQLiteStorage) ClaimLink(ctx context.Context, code string, userID int64) (ClaimStatus, string, error) {
	status := ClaimInvalid
	fileID := ""

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var fid string
		var owner sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT file_id, owner_user_id FROM links WHERE code = ?`, code).Scan(&fid, &owner)
		if errors.Is(err, sql.ErrNoRows) {
			status = ClaimInvalid
			return nil
		}
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		if !owner.Valid {
			_, err := tx.ExecContext(ctx,
				`UPDATE links SET owner_user_id = ? WHERE code = ? AND owner_user_id IS NULL`,
				userID, code)
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}

			var winner sql.NullInt64
			err = tx.QueryRowContext(ctx,
				`SELECT owner_user_id FROM links WHERE code = ?`, code).Scan(&winner)
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}

			if winner.Valid && winner.Int64 == userID {
				status, fileID = ClaimOK, fid
			} else {
				status = ClaimNotOwner
			}
			return nil
		}

		if owner.Int64 == userID {
			status, fileID = ClaimOK, fid
			return nil
		}

		status = ClaimNotOwner
		return nil
	})
	if err != nil {
		return ClaimInvalid, "", err
	}

	return status, fileID, nil
}

func (s *SQLiteStorage) Close(ctx context.Context) error {
	return s.db.Close()
}
