package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gbasileGP/chess-card/internal/card"
	"github.com/gbasileGP/chess-card/internal/model"
	"github.com/sirupsen/logrus"
)

// ErrUsernameRequired is returned when a card is requested without a username.
var ErrUsernameRequired = errors.New("username not specified")

// PlayerSource fetches player data from the Chess.com API.
type PlayerSource interface {
	GetProfile(ctx context.Context, username string) (*model.PlayerProfile, error)
	GetStats(ctx context.Context, username string) (*model.PlayerStats, error)
}

// Rasterizer paints a card tree at the given pixel size.
type Rasterizer interface {
	Render(ctx context.Context, root *card.Node, size card.Size) ([]byte, error)
}

// RenderTally counts rendered cards per player.
type RenderTally interface {
	IncrRenderCount(ctx context.Context, username string) (int64, error)
}

// CardArchive keeps a copy of every rendered card.
type CardArchive interface {
	PutCard(ctx context.Context, username string, width, height int, png []byte) (string, error)
}

// CardService renders player profile cards.
type CardService struct {
	players    PlayerSource
	rasterizer Rasterizer
	tally      RenderTally
	archive    CardArchive
	logger     *logrus.Logger
}

// Option configures optional CardService collaborators.
type Option func(*CardService)

// WithTally records every successful render in tally.
func WithTally(tally RenderTally) Option {
	return func(cs *CardService) { cs.tally = tally }
}

// WithArchive stores every successful render in archive.
func WithArchive(archive CardArchive) Option {
	return func(cs *CardService) { cs.archive = archive }
}

// NewCardService creates a new service for card rendering.
func NewCardService(players PlayerSource, rasterizer Rasterizer, logger *logrus.Logger, opts ...Option) *CardService {
	if logger == nil {
		logger = logrus.New()
	}
	cs := &CardService{
		players:    players,
		rasterizer: rasterizer,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// playerData is the joined result of the profile and stats fetches.
type playerData struct {
	profile    *model.PlayerProfile
	stats      *model.PlayerStats
	profileErr error
	statsErr   error
}

// fetchPlayer requests the profile and the stats concurrently and returns once both have completed.
func (cs *CardService) fetchPlayer(ctx context.Context, username string) playerData {
	var (
		data playerData
		wg   sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		data.profile, data.profileErr = cs.players.GetProfile(ctx, username)
	}()
	go func() {
		defer wg.Done()
		data.stats, data.statsErr = cs.players.GetStats(ctx, username)
	}()
	wg.Wait()
	return data
}

// err folds both fetch results into one error. Failures other than an unknown
// player win, since they say nothing about whether the player exists.
func (d playerData) err() error {
	for _, err := range []error{d.profileErr, d.statsErr} {
		if err != nil && !errors.Is(err, model.ErrPlayerNotFound) {
			return err
		}
	}
	if d.profileErr != nil {
		return d.profileErr
	}
	return d.statsErr
}

// RenderCard fetches a player's profile and stats and renders them as a PNG card at size.
func (cs *CardService) RenderCard(ctx context.Context, username string, size card.Size) ([]byte, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	log := cs.logger.WithFields(logrus.Fields{
		"username": username,
		"width":    size.Width,
		"height":   size.Height,
	})

	data := cs.fetchPlayer(ctx, username)
	if err := data.err(); err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			log.WithError(err).Info("svc: RenderCard - Player not found")
		} else {
			log.WithError(err).Error("svc: RenderCard - Failed to fetch player from Chess.com API")
		}
		return nil, fmt.Errorf("svc: RenderCard - fetch %q: %w", username, err)
	}

	root := card.Layout(card.NewProfile(username, data.profile, data.stats))

	png, err := cs.rasterizer.Render(ctx, root, size)
	if err != nil {
		log.WithError(err).Error("svc: RenderCard - Failed to render card")
		return nil, fmt.Errorf("svc: RenderCard - render %q: %w", username, err)
	}

	cs.record(ctx, log, username, size, png)

	log.Info("svc: RenderCard - Card rendered")
	return png, nil
}

// record feeds the optional tally and archive. Their failures are logged and never fail the render.
func (cs *CardService) record(ctx context.Context, log *logrus.Entry, username string, size card.Size, png []byte) {
	if cs.tally != nil {
		if _, err := cs.tally.IncrRenderCount(ctx, username); err != nil {
			log.WithError(err).Warn("svc: RenderCard - Failed to update render tally, but card was rendered")
		}
	}
	if cs.archive != nil {
		key, err := cs.archive.PutCard(ctx, username, size.Width, size.Height, png)
		if err != nil {
			log.WithError(err).Warn("svc: RenderCard - Failed to archive card, but card was rendered")
		} else {
			log.WithField("key", key).Debug("svc: RenderCard - Card archived")
		}
	}
}
