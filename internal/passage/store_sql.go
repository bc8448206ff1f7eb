package passage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/ielts-studio/internal/zones"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, now: time.Now}
}

func (s *SQLStore) Put(ctx context.Context, p Passage) (Passage, error) {
	if err := p.Validate(); err != nil {
		return Passage{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO passages (id,kind,title,content,highlight_content,audio_key,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
		ON CONFLICT (id) DO UPDATE SET kind=EXCLUDED.kind, title=EXCLUDED.title, content=EXCLUDED.content,
			highlight_content=EXCLUDED.highlight_content, audio_key=EXCLUDED.audio_key, updated_at=EXCLUDED.updated_at`,
		p.ID, string(p.Kind), p.Title, p.Content, p.HighlightContent, p.AudioKey, now)
	if err != nil {
		return Passage{}, fmt.Errorf("put passage %s: %w", p.ID, err)
	}
	return s.Get(ctx, p.ID)
}

func (s *SQLStore) Get(ctx context.Context, id string) (Passage, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,kind,title,content,highlight_content,audio_key,created_at,updated_at
		FROM passages WHERE id=$1`, id)
	var p Passage
	var kind string
	if err := row.Scan(&p.ID, &kind, &p.Title, &p.Content, &p.HighlightContent, &p.AudioKey, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Passage{}, ErrNotFound
		}
		return Passage{}, err
	}
	p.Kind = Kind(kind)
	return p, nil
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Summary, error) {
	var (
		where []string
		args  []any
	)
	if opts.Kind != "" {
		args = append(args, string(opts.Kind))
		where = append(where, fmt.Sprintf("kind=$%d", len(args)))
	}
	if q := strings.TrimSpace(opts.Q); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		where = append(where, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)))
	}
	query := `SELECT id,kind,title,content,updated_at FROM passages`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, normalizeLimit(opts.Limit), max(opts.Offset, 0))
	query += fmt.Sprintf(" ORDER BY updated_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sm      Summary
			kind    string
			content string
		)
		if err := rows.Scan(&sm.ID, &kind, &sm.Title, &content, &sm.UpdatedAt); err != nil {
			return nil, err
		}
		sm.Kind = Kind(kind)
		sm.ZoneCount = len(zones.ExtractIDs(content))
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM passages WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) SetAudio(ctx context.Context, id, key string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Kind != KindListening {
		return ErrNotListening
	}
	_, err = s.db.ExecContext(ctx, `UPDATE passages SET audio_key=$1, updated_at=$2 WHERE id=$3`,
		key, s.now().Unix(), id)
	return err
}

func (s *SQLStore) SetText(ctx context.Context, id string, dt zones.DualText) (Passage, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE passages SET content=$1, highlight_content=$2, updated_at=$3 WHERE id=$4`,
		dt.Primary, dt.Highlight, s.now().Unix(), id)
	if err != nil {
		return Passage{}, fmt.Errorf("set text %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Passage{}, ErrNotFound
	}
	return s.Get(ctx, id)
}
