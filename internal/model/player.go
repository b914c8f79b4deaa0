package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// ErrPlayerNotFound is returned when the Chess.com API does not know a player,
// either through a non-success HTTP status or a "code": 0 payload.
var ErrPlayerNotFound = errors.New("player not found")

// DefaultAvatarURL is used when a profile carries no avatar.
const DefaultAvatarURL = "https://www.chess.com/bundles/web/images/user-image.svg"

// UnratedLabel is rendered in place of a rating the player does not have.
const UnratedLabel = "N/A"

// PlayerProfile holds the fields of the Chess.com player profile response a card uses.
// Everything else in the payload is ignored.
type PlayerProfile struct {
	Code   *int // Set to 0 by the API for unknown players
	Avatar string
}

// UnmarshalJSON decodes code and avatar. A field of an unexpected type counts as absent.
func (p *PlayerProfile) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	*p = PlayerProfile{Code: decodeInt(fields["code"])}
	decodeOptional(fields["avatar"], &p.Avatar)
	return nil
}

// NotFound reports whether the payload carries the "code": 0 sentinel.
func (p *PlayerProfile) NotFound() bool {
	return p.Code != nil && *p.Code == 0
}

// AvatarURL returns the avatar, falling back to DefaultAvatarURL when it is missing or empty.
func (p *PlayerProfile) AvatarURL() string {
	if p == nil || p.Avatar == "" {
		return DefaultAvatarURL
	}
	return p.Avatar
}

// PlayerStats holds the ratings a card shows from the Chess.com player stats response.
// Every mode is optional and so is every level beneath it.
type PlayerStats struct {
	Code   *int
	Rapid  *GameModeStats
	Blitz  *GameModeStats
	Bullet *GameModeStats
}

// UnmarshalJSON decodes code and chess_{rapid,blitz,bullet}.last.rating. A level
// of an unexpected type counts as absent, so the schema can drift anywhere
// without failing the whole payload.
func (s *PlayerStats) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	*s = PlayerStats{
		Code:   decodeInt(fields["code"]),
		Rapid:  decodeMode(fields["chess_rapid"]),
		Blitz:  decodeMode(fields["chess_blitz"]),
		Bullet: decodeMode(fields["chess_bullet"]),
	}
	return nil
}

// NotFound reports whether the payload carries the "code": 0 sentinel.
func (s *PlayerStats) NotFound() bool {
	return s.Code != nil && *s.Code == 0
}

// GameModeStats holds the rating history of a single time control.
type GameModeStats struct {
	Last *RatingRecord
}

// RatingRecord is a rating at a point in time.
type RatingRecord struct {
	Rating *int
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// decodeOptional decodes raw into v and reports whether it held a value of the right type.
// Missing fields and JSON null are absent.
func decodeOptional(raw json.RawMessage, v interface{}) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	return json.Unmarshal(trimmed, v) == nil
}

// decodeInt accepts any JSON number, so 1500.0 reads as 1500.
func decodeInt(raw json.RawMessage) *int {
	var f float64
	if !decodeOptional(raw, &f) || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	v := int(math.Round(f))
	return &v
}

func decodeMode(raw json.RawMessage) *GameModeStats {
	var mode map[string]json.RawMessage
	if !decodeOptional(raw, &mode) {
		return nil
	}
	var last map[string]json.RawMessage
	if !decodeOptional(mode["last"], &last) {
		return &GameModeStats{}
	}
	return &GameModeStats{Last: &RatingRecord{Rating: decodeInt(last["rating"])}}
}

// lastRating walks mode.last.rating, returning nil when any level is absent.
func lastRating(mode *GameModeStats) *int {
	if mode == nil || mode.Last == nil {
		return nil
	}
	return mode.Last.Rating
}

// Ratings are the last recorded ratings shown on a card. A nil field means the
// player has no rating in that mode, which is not the same as a rating of 0.
type Ratings struct {
	Rapid  *int
	Blitz  *int
	Bullet *int
}

// Ratings extracts the last recorded rapid, blitz and bullet ratings.
func (s *PlayerStats) Ratings() Ratings {
	if s == nil {
		return Ratings{}
	}
	return Ratings{
		Rapid:  lastRating(s.Rapid),
		Blitz:  lastRating(s.Blitz),
		Bullet: lastRating(s.Bullet),
	}
}

// FormatRating renders a rating for display, using UnratedLabel only when it is absent.
func FormatRating(rating *int) string {
	if rating == nil {
		return UnratedLabel
	}
	return strconv.Itoa(*rating)
}
