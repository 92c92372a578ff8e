package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixPlayer  = "player"
	PrefixLevel   = "lvl"
	PrefixPiece   = "piece"
	PrefixObject  = "obj"
	PrefixSession = "sess"
	PrefixScore   = "score"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewPlayerID() string  { return New(PrefixPlayer) }
func NewLevelID() string   { return New(PrefixLevel) }
func NewPieceID() string   { return New(PrefixPiece) }
func NewObjectID() string  { return New(PrefixObject) }
func NewSessionID() string { return New(PrefixSession) }
func NewScoreID() string   { return New(PrefixScore) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
