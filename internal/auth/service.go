package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/polypixel/polypixel/backend-go/internal/db"
	"github.com/polypixel/polypixel/backend-go/internal/typeid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("player not found")
	ErrInvalidToken       = errors.New("invalid token")
)

// PlayerStore is the persistence the service needs; *db.Queries implements it.
type PlayerStore interface {
	CreatePlayer(ctx context.Context, arg db.CreatePlayerParams) (db.Player, error)
	GetPlayerByEmail(ctx context.Context, email string) (db.Player, error)
	GetPlayerByID(ctx context.Context, id string) (db.Player, error)
}

const tokenTTL = 24 * time.Hour

type Service struct {
	store      PlayerStore
	jwtSecret  []byte
	bcryptCost int
	now        func() time.Time
}

func NewService(store PlayerStore, jwtSecret string) *Service {
	return &Service{
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: 12,
		now:        time.Now,
	}
}

type AuthResult struct {
	Token  string `json:"token"`
	Player Player `json:"player"`
}

type Player struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func toPlayer(p db.Player) Player {
	return Player{ID: p.ID, Email: p.Email, DisplayName: p.DisplayName}
}

func (s *Service) Register(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	dbPlayer, err := s.store.CreatePlayer(ctx, db.CreatePlayerParams{
		ID:          typeid.NewPlayerID(),
		Email:       email,
		Password:    string(hash),
		DisplayName: displayName,
	})
	if err != nil {
		// Check for unique violation on email
		if isDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create player: %w", err)
	}

	token, err := s.issueToken(dbPlayer.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, Player: toPlayer(dbPlayer)}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	dbPlayer, err := s.store.GetPlayerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get player: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(dbPlayer.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(dbPlayer.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, Player: toPlayer(dbPlayer)}, nil
}

// ValidateToken returns the player id carried by a bearer token.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	playerID, ok := claims["sub"].(string)
	if !ok || playerID == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return playerID, nil
}

func (s *Service) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	dbPlayer, err := s.store.GetPlayerByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get player: %w", err)
	}
	p := toPlayer(dbPlayer)
	return &p, nil
}

func (s *Service) issueToken(playerID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": playerID,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
