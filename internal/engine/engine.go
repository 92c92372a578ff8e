package engine

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/polypixel/polypixel/backend-go/internal/deviation"
	"github.com/polypixel/polypixel/backend-go/internal/geometry"
	"github.com/polypixel/polypixel/backend-go/internal/level"
	"github.com/polypixel/polypixel/backend-go/internal/slicer"
	"github.com/polypixel/polypixel/backend-go/internal/typeid"
)

var (
	ErrNoLevel      = errors.New("no level loaded")
	ErrLevelEnded   = errors.New("level has ended")
	ErrNoStroke     = errors.New("no stroke in progress")
	ErrStrokeActive = errors.New("a stroke is already in progress")
)

// Engine is the cutting engine of one play session. It owns the polygon set
// and the disposable flags of the loaded level; callers only ever get copies.
// An Engine is not safe for concurrent use: hosts serialize stroke events.
type Engine struct {
	// Level state
	level  *level.Level
	pieces []slicer.Piece
	scene  *deviation.Scene
	ledger *slicer.Ledger
	info   GameInfo

	resolver *deviation.Resolver
	slicer   *slicer.Slicer

	// Stroke state
	stroke *stroke
	last   *Attempt

	logger *slog.Logger
}

type settings struct {
	logger  *slog.Logger
	maxHops int
	tol     slicer.Tolerances
	newID   func() string
}

// Option customizes an Engine.
type Option func(*settings)

// WithLogger replaces slog.Default as the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMaxHops bounds reflections and teleports per stroke.
func WithMaxHops(n int) Option {
	return func(s *settings) { s.maxHops = n }
}

// WithTolerances sets the sliver thresholds of the splitter.
func WithTolerances(t slicer.Tolerances) Option {
	return func(s *settings) { s.tol = t }
}

// WithIDGenerator names the pieces created by cuts.
func WithIDGenerator(f func() string) Option {
	return func(s *settings) { s.newID = f }
}

// NewEngine creates an engine with no level loaded.
func NewEngine(opts ...Option) *Engine {
	s := settings{
		logger:  slog.Default(),
		maxHops: deviation.DefaultMaxHops,
		tol:     slicer.DefaultTolerances(),
		newID:   typeid.NewPieceID,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Engine{
		resolver: deviation.NewResolver(s.maxHops),
		slicer:   slicer.NewSlicer(s.tol, s.newID),
		logger:   s.logger,
	}
}

// --- Commands ---

// LoadLevel validates l and starts a fresh session on a copy of it.
func (e *Engine) LoadLevel(l *level.Level) error {
	if err := l.Validate(); err != nil {
		return err
	}
	e.level = l.Clone()
	e.scene = BuildScene(e.level)
	e.reset()
	return nil
}

// LoadLevelJSON decodes and loads a level.
func (e *Engine) LoadLevelJSON(data []byte) error {
	l, err := level.Decode(data)
	if err != nil {
		return err
	}
	return e.LoadLevel(l)
}

// LoadSampleLevel loads the built-in level.
func (e *Engine) LoadSampleLevel() error {
	return e.LoadLevel(level.NewSampleLevel())
}

// Restart puts the original polygons back and makes every disposable object
// available again.
func (e *Engine) Restart() error {
	if e.level == nil {
		return ErrNoLevel
	}
	e.reset()
	return nil
}

func (e *Engine) reset() {
	e.pieces = BuildPieces(e.level)
	e.scene.Reset()
	e.ledger = slicer.NewLedger(e.pieces)
	e.info = newGameInfo(e.level.Info, len(e.pieces))
	e.stroke = nil
	e.last = nil
}

// Slice runs one complete cut: resolve, classify, split and score. The
// polygon set only changes on a GoodCut.
func (e *Engine) Slice(raw geometry.Segment) (Result, error) {
	if err := e.ready(); err != nil {
		return Result{}, err
	}
	return e.commit(e.evaluate(raw)), nil
}

func (e *Engine) ready() error {
	if e.level == nil {
		return ErrNoLevel
	}
	if e.info.Ended {
		return ErrLevelEnded
	}
	return nil
}

// --- Cut pipeline ---

// Attempt is the dry-run evaluation of a stroke. Nothing in the engine changes
// until it is committed.
type Attempt struct {
	Raw       geometry.Segment   `json:"raw"`
	Lines     []geometry.Segment `json:"lines"`
	Blocked   bool               `json:"blocked"`
	BlockedBy string             `json:"blockedBy,omitempty"`
	Hops      int                `json:"hops"`
	Consumed  []string           `json:"consumed,omitempty"`
	Verdict   slicer.Verdict     `json:"verdict"`
	Affected  []string           `json:"affected,omitempty"`
	Rejected  []slicer.Rejection `json:"rejected,omitempty"`
	Created   []string           `json:"created,omitempty"`
	// Shares are the area shares the pieces would have after a GoodCut.
	Shares []float64 `json:"shares,omitempty"`

	pieces []slicer.Piece
}

// commitsDisposables reports whether the disposable objects met by the
// stroke are used up when it is committed.
func (a Attempt) commitsDisposables() bool {
	return len(a.Consumed) > 0 && (a.Verdict != slicer.NoCut || a.Blocked)
}

// Result is a committed attempt along with the session progress after it.
type Result struct {
	Attempt
	Info GameInfo `json:"info"`
}

func (e *Engine) evaluate(raw geometry.Segment) Attempt {
	a := Attempt{Raw: raw, Verdict: slicer.NoCut}

	res, err := e.ResolveCut(raw)
	a.Lines = res.Lines
	a.Blocked = res.Blocked
	a.BlockedBy = res.BlockedBy
	a.Hops = res.Hops
	a.Consumed = res.Consumed

	switch {
	case errors.Is(err, deviation.ErrDegenerateInput):
		return a
	case errors.Is(err, deviation.ErrUnresolvableDeviation):
		e.logger.Debug("stroke dropped", "error", err, "hops", res.Hops)
		a.Consumed = nil
		return a
	case err != nil:
		e.logger.Error("resolve stroke", "error", err)
		return a
	case res.Blocked:
		return a
	}

	c := e.slicer.ClassifyCut(res.Lines, e.pieces)
	a.Verdict = c.Verdict
	a.Affected = c.Affected()
	a.Rejected = c.Rejected
	if c.Verdict == slicer.GoodCut {
		a.Created = c.Created
		a.pieces = c.Pieces
		a.Shares = e.ledger.ComputeAreas(c.Pieces).Shares
	}
	return a
}

func (e *Engine) commit(a Attempt) Result {
	if a.commitsDisposables() {
		e.scene.MarkUsed(a.Consumed...)
	}

	if a.Verdict == slicer.GoodCut {
		e.pieces = a.pieces
		if err := e.ledger.Verify(e.pieces); err != nil {
			e.logger.Warn("area ledger reset", "error", err)
			e.ledger.Reset(e.pieces)
		}
		e.info.LinesCount++
		e.info.PartsCount = len(e.pieces)
		e.info.Gap = e.ledger.ComputeAreas(e.pieces).Gap()
		e.checkWinning()
	}

	e.last = &a
	return Result{Attempt: a, Info: e.info}
}

func (e *Engine) checkWinning() {
	if !e.info.GoalReached() {
		return
	}
	e.info.Stars = ComputeStars(e.info.PartsCount, e.info.PartsGoal, e.info.Gap, e.info.MaxGapToWin, e.info.Tolerance)
	e.info.Ended = true
	e.logger.Info("level ended",
		"level", e.level.ID,
		"lines", e.info.LinesCount,
		"parts", e.info.PartsCount,
		"gap", e.info.Gap,
		"stars", e.info.Stars,
	)
}

// ResolveCut follows raw through the scene of the loaded level without
// consuming anything.
func (e *Engine) ResolveCut(raw geometry.Segment) (deviation.Resolution, error) {
	scene := e.scene
	if scene == nil {
		scene = deviation.NewScene()
	}
	return e.resolver.Resolve(raw, scene)
}

// ClassifyCut tests effective lines against the current pieces without
// applying the result.
func (e *Engine) ClassifyCut(lines []geometry.Segment) slicer.Classification {
	return e.slicer.ClassifyCut(lines, e.pieces)
}

// ApplySplit splits a polygon with the engine tolerances.
func (e *Engine) ApplySplit(poly geometry.Polygon, entry, exit geometry.Point) (geometry.Polygon, geometry.Polygon, error) {
	return slicer.ApplySplit(poly, entry, exit, e.slicer.Tolerances())
}

// ComputeAreas breaks the current pieces down against the level total.
func (e *Engine) ComputeAreas() slicer.Areas {
	if e.ledger == nil {
		return slicer.Areas{}
	}
	return e.ledger.ComputeAreas(e.pieces)
}

// --- Queries ---

// Level returns the loaded level, or nil.
func (e *Engine) Level() *level.Level {
	return e.level
}

// Info returns the session progress.
func (e *Engine) Info() GameInfo {
	return e.info
}

// LastAttempt returns the most recent evaluated stroke, if any.
func (e *Engine) LastAttempt() (Attempt, bool) {
	if e.last == nil {
		return Attempt{}, false
	}
	return *e.last, true
}

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	LevelID     string         `json:"levelId"`
	Name        string         `json:"name"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Background  string         `json:"background"`
	Pieces      []slicer.Piece `json:"pieces"`
	Areas       slicer.Areas   `json:"areas"`
	TotalArea   float64        `json:"totalArea"`
	Objects     []ObjectState  `json:"objects"`
	// UsedObjects lists the consumed disposable objects, sorted.
	UsedObjects []string       `json:"usedObjects"`
	Info        GameInfo       `json:"info"`
}

// Snapshot copies the current state for read-only consumers.
func (e *Engine) Snapshot() Snapshot {
	if e.level == nil {
		return Snapshot{}
	}
	return Snapshot{
		LevelID:     e.level.ID,
		Name:        e.level.Name,
		Width:       e.level.Width,
		Height:      e.level.Height,
		Background:  e.level.Background,
		Pieces:      slicer.ClonePieces(e.pieces),
		Areas:       e.ledger.ComputeAreas(e.pieces),
		TotalArea:   e.ledger.Total(),
		Objects:     objectStates(e.scene),
		UsedObjects: e.scene.UsedIDs(),
		Info:        e.info,
	}
}

// Render compiles the current state and the last stroke into draw commands.
func (e *Engine) Render() []DrawCommand {
	return CompileDrawCommands(e.Snapshot(), e.last)
}

// RenderJSON is Render serialized for hosts that speak JSON.
func (e *Engine) RenderJSON() string {
	result, _ := DrawCommandsToJSON(e.Render())
	return result
}

// SnapshotJSON is Snapshot serialized for hosts that speak JSON.
func (e *Engine) SnapshotJSON() string {
	data, _ := json.Marshal(e.Snapshot())
	return string(data)
}
