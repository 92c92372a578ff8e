package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createPlayer = `INSERT INTO players (id, email, password, display_name)
VALUES ($1, $2, $3, $4)
RETURNING id, email, password, display_name, created_at`

type CreatePlayerParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

func (q *Queries) CreatePlayer(ctx context.Context, arg CreatePlayerParams) (Player, error) {
	row := q.db.QueryRow(ctx, createPlayer, arg.ID, arg.Email, arg.Password, arg.DisplayName)
	var i Player
	err := row.Scan(&i.ID, &i.Email, &i.Password, &i.DisplayName, &i.CreatedAt)
	return i, err
}

const getPlayerByEmail = `SELECT id, email, password, display_name, created_at FROM players WHERE email = $1`

func (q *Queries) GetPlayerByEmail(ctx context.Context, email string) (Player, error) {
	row := q.db.QueryRow(ctx, getPlayerByEmail, email)
	var i Player
	err := row.Scan(&i.ID, &i.Email, &i.Password, &i.DisplayName, &i.CreatedAt)
	return i, err
}

const getPlayerByID = `SELECT id, email, password, display_name, created_at FROM players WHERE id = $1`

func (q *Queries) GetPlayerByID(ctx context.Context, id string) (Player, error) {
	row := q.db.QueryRow(ctx, getPlayerByID, id)
	var i Player
	err := row.Scan(&i.ID, &i.Email, &i.Password, &i.DisplayName, &i.CreatedAt)
	return i, err
}

const createLevel = `INSERT INTO levels (id, name, author_id, document)
VALUES ($1, $2, $3, $4)
RETURNING id, name, author_id, document, created_at, updated_at`

type CreateLevelParams struct {
	ID       string
	Name     string
	AuthorID pgtype.Text
	Document []byte
}

func (q *Queries) CreateLevel(ctx context.Context, arg CreateLevelParams) (Level, error) {
	row := q.db.QueryRow(ctx, createLevel, arg.ID, arg.Name, arg.AuthorID, arg.Document)
	var i Level
	err := row.Scan(&i.ID, &i.Name, &i.AuthorID, &i.Document, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getLevel = `SELECT id, name, author_id, document, created_at, updated_at FROM levels WHERE id = $1`

func (q *Queries) GetLevel(ctx context.Context, id string) (Level, error) {
	row := q.db.QueryRow(ctx, getLevel, id)
	var i Level
	err := row.Scan(&i.ID, &i.Name, &i.AuthorID, &i.Document, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listLevels = `SELECT id, name, author_id, document, created_at, updated_at FROM levels ORDER BY created_at DESC`

func (q *Queries) ListLevels(ctx context.Context) ([]Level, error) {
	rows, err := q.db.Query(ctx, listLevels)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Level
	for rows.Next() {
		var i Level
		if err := rows.Scan(&i.ID, &i.Name, &i.AuthorID, &i.Document, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// Scores have no foreign key on levels, so they go in the same statement.
const deleteLevel = `WITH dropped AS (DELETE FROM scores WHERE level_id = $1)
DELETE FROM levels WHERE id = $1`

func (q *Queries) DeleteLevel(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteLevel, id)
	return err
}

const createScore = `INSERT INTO scores (id, level_id, player_id, session_id, lines, parts, gap, stars)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, level_id, player_id, session_id, lines, parts, gap, stars, created_at`

type CreateScoreParams struct {
	ID        string
	LevelID   string
	PlayerID  string
	SessionID string
	Lines     int32
	Parts     int32
	Gap       float64
	Stars     int32
}

func (q *Queries) CreateScore(ctx context.Context, arg CreateScoreParams) (Score, error) {
	row := q.db.QueryRow(ctx, createScore,
		arg.ID, arg.LevelID, arg.PlayerID, arg.SessionID, arg.Lines, arg.Parts, arg.Gap, arg.Stars,
	)
	var i Score
	err := row.Scan(&i.ID, &i.LevelID, &i.PlayerID, &i.SessionID, &i.Lines, &i.Parts, &i.Gap, &i.Stars, &i.CreatedAt)
	return i, err
}

const listScoresForLevel = `SELECT s.id, s.level_id, s.player_id, s.session_id, s.lines, s.parts, s.gap, s.stars, s.created_at,
       p.display_name
FROM scores s
JOIN players p ON p.id = s.player_id
WHERE s.level_id = $1
ORDER BY s.stars DESC, s.gap ASC, s.created_at ASC
LIMIT $2`

type ListScoresForLevelParams struct {
	LevelID string
	Limit   int32
}

type ListScoresForLevelRow struct {
	Score
	DisplayName string
}

func (q *Queries) ListScoresForLevel(ctx context.Context, arg ListScoresForLevelParams) ([]ListScoresForLevelRow, error) {
	rows, err := q.db.Query(ctx, listScoresForLevel, arg.LevelID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListScoresForLevelRow
	for rows.Next() {
		var i ListScoresForLevelRow
		if err := rows.Scan(
			&i.ID, &i.LevelID, &i.PlayerID, &i.SessionID, &i.Lines, &i.Parts, &i.Gap, &i.Stars, &i.CreatedAt,
			&i.DisplayName,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
