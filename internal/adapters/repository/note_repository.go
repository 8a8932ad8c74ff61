package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/domain/query"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

const noteColumns = `id, title, content, category, is_archived, is_pinned,
	reminder_at, due_date, created_at, updated_at, version`

// NoteRepositoryImpl implements the NoteRepository interface
type NoteRepositoryImpl struct {
	db *sqlx.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *sqlx.DB) ports.NoteRepository {
	return &NoteRepositoryImpl{db: db}
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, note *entities.Note) error {
	query := `
		INSERT INTO notes (id, title, content, category, is_archived, is_pinned,
			reminder_at, due_date, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0)
		RETURNING version`

	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		note.ID, note.Title, note.Content, note.Category, note.IsArchived, note.IsPinned,
		note.ReminderAt, note.DueDate, note.CreatedAt, note.UpdatedAt,
	).Scan(&note.Version)
	if err != nil {
		return fmt.Errorf("create note: %w", mapPQError(err))
	}

	return nil
}

func (r *NoteRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`

	var note entities.Note
	if err := r.db.GetContext(ctx, &note, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrNoteNotFound
		}
		return nil, fmt.Errorf("get note by id: %w", err)
	}

	return &note, nil
}

func (r *NoteRepositoryImpl) Update(ctx context.Context, note *entities.Note) error {
	query := `
		UPDATE notes
		SET title = $2, content = $3, category = $4, is_archived = $5, is_pinned = $6,
			reminder_at = $7, due_date = $8, updated_at = $9, version = version + 1
		WHERE id = $1
		RETURNING version`

	err := r.db.QueryRowContext(ctx, query,
		note.ID, note.Title, note.Content, note.Category, note.IsArchived, note.IsPinned,
		note.ReminderAt, note.DueDate, note.UpdatedAt,
	).Scan(&note.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.ErrNoteNotFound
		}
		return fmt.Errorf("update note: %w", mapPQError(err))
	}

	return nil
}

func (r *NoteRepositoryImpl) SetArchived(ctx context.Context, id uuid.UUID, archived bool) (*entities.Note, error) {
	return r.setFlag(ctx, "is_archived", id, archived)
}

func (r *NoteRepositoryImpl) SetPinned(ctx context.Context, id uuid.UUID, pinned bool) (*entities.Note, error) {
	return r.setFlag(ctx, "is_pinned", id, pinned)
}

// setFlag is a single-row atomic update; column is never caller supplied
func (r *NoteRepositoryImpl) setFlag(ctx context.Context, column string, id uuid.UUID, value bool) (*entities.Note, error) {
	query := fmt.Sprintf(`
		UPDATE notes
		SET %s = $2, updated_at = $3, version = version + 1
		WHERE id = $1
		RETURNING %s`, column, noteColumns)

	var note entities.Note
	if err := r.db.GetContext(ctx, &note, query, id, value, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrNoteNotFound
		}
		return nil, fmt.Errorf("set note %s: %w", column, err)
	}

	return &note, nil
}

func (r *NoteRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if rows == 0 {
		return entities.ErrNoteNotFound
	}

	return nil
}

func (r *NoteRepositoryImpl) List(ctx context.Context, q *query.NoteQuery) ([]*entities.Note, error) {
	stmt, args, err := buildNoteList(q)
	if err != nil {
		return nil, err
	}

	notes := []*entities.Note{}
	if err := r.db.SelectContext(ctx, &notes, stmt, args...); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	return notes, nil
}

func (r *NoteRepositoryImpl) Count(ctx context.Context, filter query.Filter) (int64, error) {
	stmt, args, err := buildNoteCount(filter)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, stmt, args...); err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}

	return count, nil
}

func buildNoteList(q *query.NoteQuery) (string, []interface{}, error) {
	args := &sqlArgs{}
	where, err := renderWhere(query.NoteSchema, q.Filter, args)
	if err != nil {
		return "", nil, fmt.Errorf("list notes: %w", err)
	}
	order, err := renderOrder(query.NoteSchema, q.Sort)
	if err != nil {
		return "", nil, fmt.Errorf("list notes: %w", err)
	}

	stmt := fmt.Sprintf("SELECT %s FROM notes %s %s LIMIT %s OFFSET %s",
		noteColumns, where, order, args.add(q.Limit), args.add(q.Skip()))
	return stmt, args.values, nil
}

func buildNoteCount(filter query.Filter) (string, []interface{}, error) {
	args := &sqlArgs{}
	where, err := renderWhere(query.NoteSchema, filter, args)
	if err != nil {
		return "", nil, fmt.Errorf("count notes: %w", err)
	}
	return "SELECT COUNT(*) FROM notes " + where, args.values, nil
}

// mapPQError turns constraint violations into validation errors
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Name() {
	case "check_violation", "not_null_violation", "string_data_right_truncation":
		return entities.NewValidationError(pqErr.Column, pqErr.Message)
	}
	return err
}
