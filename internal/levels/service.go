// Package levels serves the level library and its score boards.
package levels

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/polypixel/polypixel/backend-go/internal/db"
	"github.com/polypixel/polypixel/backend-go/internal/level"
	"github.com/polypixel/polypixel/backend-go/internal/play"
	"github.com/polypixel/polypixel/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("level not found")
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid score")
)

const (
	defaultScoreLimit = 20
	maxScoreLimit     = 100
)

// Store is the persistence the service needs; *db.Queries implements it.
type Store interface {
	CreateLevel(ctx context.Context, arg db.CreateLevelParams) (db.Level, error)
	GetLevel(ctx context.Context, id string) (db.Level, error)
	ListLevels(ctx context.Context) ([]db.Level, error)
	DeleteLevel(ctx context.Context, id string) error
	CreateScore(ctx context.Context, arg db.CreateScoreParams) (db.Score, error)
	ListScoresForLevel(ctx context.Context, arg db.ListScoresForLevelParams) ([]db.ListScoresForLevelRow, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Summary describes a level without its geometry.
type Summary struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	AuthorID  string         `json:"authorId,omitempty"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Goals     level.GameInfo `json:"goals"`
	CreatedAt string         `json:"createdAt,omitempty"`
}

// ScoreEntry is one line of a score board.
type ScoreEntry struct {
	ID          string  `json:"id"`
	PlayerID    string  `json:"playerId"`
	DisplayName string  `json:"displayName"`
	Lines       int     `json:"lines"`
	Parts       int     `json:"parts"`
	Gap         float64 `json:"gap"`
	Stars       int     `json:"stars"`
	CreatedAt   string  `json:"createdAt"`
}

func summarize(l *level.Level, authorID string, createdAt pgtype.Timestamptz) Summary {
	s := Summary{
		ID:       l.ID,
		Name:     l.Name,
		AuthorID: authorID,
		Width:    l.Width,
		Height:   l.Height,
		Goals:    l.Info,
	}
	if createdAt.Valid {
		s.CreatedAt = createdAt.Time.UTC().Format(time.RFC3339)
	}
	return s
}

// List returns the built-in level followed by the stored ones. Rows whose
// document no longer decodes are skipped.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.store.ListLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}

	out := make([]Summary, 0, len(rows)+1)
	out = append(out, summarize(level.NewSampleLevel(), "", pgtype.Timestamptz{}))
	for _, row := range rows {
		l, err := decodeRow(row)
		if err != nil {
			continue
		}
		out = append(out, summarize(l, row.AuthorID.String, row.CreatedAt))
	}
	return out, nil
}

// Get returns a full level.
func (s *Service) Get(ctx context.Context, levelID string) (*level.Level, error) {
	if levelID == level.SampleLevelID {
		return level.NewSampleLevel(), nil
	}

	row, err := s.store.GetLevel(ctx, levelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get level: %w", err)
	}
	return decodeRow(row)
}

// Loader adapts Get for play rooms.
func (s *Service) Loader() play.LevelLoader {
	return s.Get
}

// Create decodes and stores a new level. The stored id is always freshly
// generated.
func (s *Service) Create(ctx context.Context, document []byte, authorID string) (*level.Level, error) {
	l, err := level.Decode(document)
	if err != nil {
		return nil, err
	}
	l.ID = typeid.NewLevelID()
	l.AuthorID = authorID

	doc, err := l.Encode()
	if err != nil {
		return nil, err
	}

	if _, err := s.store.CreateLevel(ctx, db.CreateLevelParams{
		ID:       l.ID,
		Name:     l.Name,
		AuthorID: pgtype.Text{String: authorID, Valid: authorID != ""},
		Document: doc,
	}); err != nil {
		return nil, fmt.Errorf("create level: %w", err)
	}
	return l, nil
}

// Delete removes a level. Only its author may do so.
func (s *Service) Delete(ctx context.Context, levelID, playerID string) error {
	if levelID == level.SampleLevelID {
		return ErrForbidden
	}

	row, err := s.store.GetLevel(ctx, levelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get level: %w", err)
	}
	if !row.AuthorID.Valid || row.AuthorID.String != playerID {
		return ErrForbidden
	}

	if err := s.store.DeleteLevel(ctx, levelID); err != nil {
		return fmt.Errorf("delete level: %w", err)
	}
	return nil
}

// SubmitScore records a finished run. The level must exist.
func (s *Service) SubmitScore(ctx context.Context, score play.Score) (*ScoreEntry, error) {
	if score.PlayerID == "" {
		return nil, fmt.Errorf("%w: missing player", ErrInvalid)
	}
	if score.Stars < 0 || score.Stars > 4 || score.Lines < 0 || score.Parts < 0 || score.Gap < 0 {
		return nil, fmt.Errorf("%w: values out of range", ErrInvalid)
	}
	if _, err := s.Get(ctx, score.LevelID); err != nil {
		return nil, err
	}

	row, err := s.store.CreateScore(ctx, db.CreateScoreParams{
		ID:        typeid.NewScoreID(),
		LevelID:   score.LevelID,
		PlayerID:  score.PlayerID,
		SessionID: score.SessionID,
		Lines:     int32(score.Lines),
		Parts:     int32(score.Parts),
		Gap:       score.Gap,
		Stars:     int32(score.Stars),
	})
	if err != nil {
		return nil, fmt.Errorf("create score: %w", err)
	}

	e := toScoreEntry(row, "")
	return &e, nil
}

// Saver adapts SubmitScore for play rooms.
func (s *Service) Saver() play.ScoreSaver {
	return func(ctx context.Context, score play.Score) error {
		_, err := s.SubmitScore(ctx, score)
		return err
	}
}

// ListScores returns the best runs of a level, most stars first, then
// smallest gap.
func (s *Service) ListScores(ctx context.Context, levelID string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = defaultScoreLimit
	}
	limit = min(limit, maxScoreLimit)

	rows, err := s.store.ListScoresForLevel(ctx, db.ListScoresForLevelParams{
		LevelID: levelID,
		Limit:   int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	out := make([]ScoreEntry, len(rows))
	for i, r := range rows {
		out[i] = toScoreEntry(r.Score, r.DisplayName)
	}
	return out, nil
}

func decodeRow(row db.Level) (*level.Level, error) {
	l, err := level.Decode(row.Document)
	if err != nil {
		return nil, fmt.Errorf("decode level %s: %w", row.ID, err)
	}
	l.ID = row.ID
	l.AuthorID = row.AuthorID.String
	return l, nil
}

func toScoreEntry(s db.Score, displayName string) ScoreEntry {
	e := ScoreEntry{
		ID:          s.ID,
		PlayerID:    s.PlayerID,
		DisplayName: displayName,
		Lines:       int(s.Lines),
		Parts:       int(s.Parts),
		Gap:         s.Gap,
		Stars:       int(s.Stars),
	}
	if s.CreatedAt.Valid {
		e.CreatedAt = s.CreatedAt.Time.UTC().Format(time.RFC3339)
	}
	return e
}
