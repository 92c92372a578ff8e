package levels

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/polypixel/polypixel/backend-go/internal/auth"
	"github.com/polypixel/polypixel/backend-go/internal/db"
	"github.com/polypixel/polypixel/backend-go/internal/level"
	"github.com/polypixel/polypixel/backend-go/internal/play"
)

type fakeStore struct {
	levels map[string]db.Level
	order  []string
	scores []db.Score
}

func newFakeStore() *fakeStore {
	return &fakeStore{levels: map[string]db.Level{}}
}

func (f *fakeStore) CreateLevel(_ context.Context, arg db.CreateLevelParams) (db.Level, error) {
	l := db.Level{ID: arg.ID, Name: arg.Name, AuthorID: arg.AuthorID, Document: arg.Document}
	f.levels[l.ID] = l
	f.order = append(f.order, l.ID)
	return l, nil
}

func (f *fakeStore) GetLevel(_ context.Context, id string) (db.Level, error) {
	l, ok := f.levels[id]
	if !ok {
		return db.Level{}, pgx.ErrNoRows
	}
	return l, nil
}

func (f *fakeStore) ListLevels(_ context.Context) ([]db.Level, error) {
	var out []db.Level
	for _, id := range f.order {
		if l, ok := f.levels[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteLevel(_ context.Context, id string) error {
	delete(f.levels, id)
	return nil
}

func (f *fakeStore) CreateScore(_ context.Context, arg db.CreateScoreParams) (db.Score, error) {
	s := db.Score{
		ID: arg.ID, LevelID: arg.LevelID, PlayerID: arg.PlayerID, SessionID: arg.SessionID,
		Lines: arg.Lines, Parts: arg.Parts, Gap: arg.Gap, Stars: arg.Stars,
	}
	f.scores = append(f.scores, s)
	return s, nil
}

func (f *fakeStore) ListScoresForLevel(_ context.Context, arg db.ListScoresForLevelParams) ([]db.ListScoresForLevelRow, error) {
	var rows []db.ListScoresForLevelRow
	for _, s := range f.scores {
		if s.LevelID == arg.LevelID {
			rows = append(rows, db.ListScoresForLevelRow{Score: s, DisplayName: "name-" + s.PlayerID})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Stars != rows[j].Stars {
			return rows[i].Stars > rows[j].Stars
		}
		return rows[i].Gap < rows[j].Gap
	})
	if int(arg.Limit) < len(rows) {
		rows = rows[:arg.Limit]
	}
	return rows, nil
}

func sampleDocument(t *testing.T) []byte {
	t.Helper()
	doc, err := level.NewSampleLevel().Encode()
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestCreateGetDelete(t *testing.T) {
	store := newFakeStore()
	s := NewService(store)
	ctx := context.Background()

	l, err := s.Create(ctx, sampleDocument(t), "player_a")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == level.SampleLevelID || !strings.HasPrefix(l.ID, "lvl_") {
		t.Errorf("created id = %q, want a fresh lvl_ id", l.ID)
	}

	got, err := s.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != l.ID || got.AuthorID != "player_a" || len(got.Polygons) != 2 {
		t.Errorf("Get = %+v", got)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != level.SampleLevelID || list[1].ID != l.ID {
		t.Errorf("List = %+v", list)
	}

	if err := s.Delete(ctx, l.ID, "player_b"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete by other err = %v, want ErrForbidden", err)
	}
	if err := s.Delete(ctx, level.SampleLevelID, "player_a"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete sample err = %v, want ErrForbidden", err)
	}
	if err := s.Delete(ctx, l.ID, "player_a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, l.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
}

func TestCreateRejectsInvalidLevel(t *testing.T) {
	s := NewService(newFakeStore())
	_, err := s.Create(context.Background(), []byte(`{"width":10,"height":10,"polygons":[]}`), "player_a")
	if !errors.Is(err, level.ErrInvalidLevel) {
		t.Errorf("err = %v, want ErrInvalidLevel", err)
	}
}

func TestListSkipsBrokenDocuments(t *testing.T) {
	store := newFakeStore()
	store.CreateLevel(context.Background(), db.CreateLevelParams{ID: "lvl_broken", Name: "broken", Document: []byte(`{`)})
	list, err := NewService(store).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("List len = %d, want 1", len(list))
	}
}

func TestScores(t *testing.T) {
	s := NewService(newFakeStore())
	ctx := context.Background()

	runs := []play.Score{
		{LevelID: level.SampleLevelID, PlayerID: "p1", Lines: 3, Parts: 4, Gap: 5, Stars: 3},
		{LevelID: level.SampleLevelID, PlayerID: "p2", Lines: 3, Parts: 4, Gap: 0.5, Stars: 4},
		{LevelID: level.SampleLevelID, PlayerID: "p3", Lines: 3, Parts: 4, Gap: 2, Stars: 3},
	}
	save := s.Saver()
	for _, r := range runs {
		if err := save(ctx, r); err != nil {
			t.Fatalf("save %s: %v", r.PlayerID, err)
		}
	}

	board, err := s.ListScores(ctx, level.SampleLevelID, 0)
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, e := range board {
		order = append(order, e.PlayerID)
	}
	if strings.Join(order, ",") != "p2,p3,p1" {
		t.Errorf("order = %v, want [p2 p3 p1]", order)
	}
	if board[0].DisplayName != "name-p2" {
		t.Errorf("display name = %q", board[0].DisplayName)
	}

	invalid := []struct {
		name  string
		score play.Score
		want  error
	}{
		{"no player", play.Score{LevelID: level.SampleLevelID}, ErrInvalid},
		{"too many stars", play.Score{LevelID: level.SampleLevelID, PlayerID: "p", Stars: 5}, ErrInvalid},
		{"negative gap", play.Score{LevelID: level.SampleLevelID, PlayerID: "p", Gap: -1}, ErrInvalid},
		{"unknown level", play.Score{LevelID: "lvl_missing", PlayerID: "p"}, ErrNotFound},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.SubmitScore(ctx, tt.score); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func newTestRouter(s *Service) *mux.Router {
	h := NewHandler(s)
	r := mux.NewRouter()
	r.HandleFunc("/levels", h.List).Methods(http.MethodGet)
	r.HandleFunc("/levels/{levelId}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/levels/{levelId}/preview.png", h.Preview).Methods(http.MethodGet)
	r.HandleFunc("/levels/{levelId}/scores", h.ListScores).Methods(http.MethodGet)

	withPlayer := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			next(w, r.WithContext(auth.WithPlayerID(r.Context(), r.Header.Get("X-Player"))))
		}
	}
	r.HandleFunc("/api/levels", withPlayer(h.Create)).Methods(http.MethodPost)
	r.HandleFunc("/api/levels/{levelId}", withPlayer(h.Delete)).Methods(http.MethodDelete)
	r.HandleFunc("/api/levels/{levelId}/scores", withPlayer(h.SubmitScore)).Methods(http.MethodPost)
	return r
}

func TestHandlers(t *testing.T) {
	store := newFakeStore()
	s := NewService(store)
	router := newTestRouter(s)

	created, err := s.Create(context.Background(), sampleDocument(t), "player_a")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		player string
		body   string
		want   int
	}{
		{"list", http.MethodGet, "/levels", "", "", http.StatusOK},
		{"get sample", http.MethodGet, "/levels/" + level.SampleLevelID, "", "", http.StatusOK},
		{"get missing", http.MethodGet, "/levels/lvl_missing", "", "", http.StatusNotFound},
		{"preview bad scale", http.MethodGet, "/levels/" + level.SampleLevelID + "/preview.png?scale=9", "", "", http.StatusBadRequest},
		{"scores", http.MethodGet, "/levels/" + level.SampleLevelID + "/scores", "", "", http.StatusOK},
		{"scores bad limit", http.MethodGet, "/levels/" + level.SampleLevelID + "/scores?limit=x", "", "", http.StatusBadRequest},
		{"create invalid", http.MethodPost, "/api/levels", "player_a", `{"width":0}`, http.StatusBadRequest},
		{"submit score", http.MethodPost, "/api/levels/" + created.ID + "/scores", "player_b", `{"lines":3,"parts":4,"gap":1.5,"stars":3}`, http.StatusCreated},
		{"submit bad body", http.MethodPost, "/api/levels/" + created.ID + "/scores", "player_b", `{`, http.StatusBadRequest},
		{"delete forbidden", http.MethodDelete, "/api/levels/" + created.ID, "player_b", "", http.StatusForbidden},
		{"delete", http.MethodDelete, "/api/levels/" + created.ID, "player_a", "", http.StatusNoContent},
		{"delete missing", http.MethodDelete, "/api/levels/" + created.ID, "player_a", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("X-Player", tt.player)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCreateHandler(t *testing.T) {
	router := newTestRouter(NewService(newFakeStore()))

	req := httptest.NewRequest(http.MethodPost, "/api/levels", strings.NewReader(string(sampleDocument(t))))
	req.Header.Set("X-Player", "player_a")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var l level.Level
	if err := json.Unmarshal(rec.Body.Bytes(), &l); err != nil {
		t.Fatal(err)
	}
	if l.AuthorID != "player_a" || l.ID == level.SampleLevelID {
		t.Errorf("created = id %q author %q", l.ID, l.AuthorID)
	}
}

func TestPreviewHandler(t *testing.T) {
	router := newTestRouter(NewService(newFakeStore()))

	req := httptest.NewRequest(http.MethodGet, "/levels/"+level.SampleLevelID+"/preview.png?scale=0.5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}

	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	sample := level.NewSampleLevel()
	if got, want := img.Bounds().Dx(), sample.Width/2; got != want {
		t.Errorf("width = %d, want %d", got, want)
	}
}

func TestSummaryTimestamps(t *testing.T) {
	var ts pgtype.Timestamptz
	if got := summarize(level.NewSampleLevel(), "", ts); got.CreatedAt != "" {
		t.Errorf("CreatedAt = %q, want empty", got.CreatedAt)
	}
}
