package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gbasileGP/chess-card/internal/config"
	"github.com/gbasileGP/chess-card/internal/model"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

type ChessClient struct {
	client *resty.Client
	config *config.Config
	logger *logrus.Logger
}

func NewChessClient(cfg *config.Config, logger *logrus.Logger) *ChessClient {
	client := resty.New().
		SetTimeout(cfg.UpstreamTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent)

	if logger == nil {
		logger = logrus.New()
	}

	return &ChessClient{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// GetProfile fetches the public profile of a player.
func (c *ChessClient) GetProfile(ctx context.Context, username string) (*model.PlayerProfile, error) {
	profile := &model.PlayerProfile{}
	endpoint := fmt.Sprintf("%s/player/%s", c.config.ChessAPIEndpoint, url.PathEscape(username))
	if err := c.getJSON(ctx, username, endpoint, profile); err != nil {
		return nil, err
	}
	if profile.NotFound() {
		return nil, fmt.Errorf("chessclient: GetProfile - %q: %w", username, model.ErrPlayerNotFound)
	}
	return profile, nil
}

// GetStats fetches the rating statistics of a player.
func (c *ChessClient) GetStats(ctx context.Context, username string) (*model.PlayerStats, error) {
	stats := &model.PlayerStats{}
	endpoint := fmt.Sprintf("%s/player/%s/stats", c.config.ChessAPIEndpoint, url.PathEscape(username))
	if err := c.getJSON(ctx, username, endpoint, stats); err != nil {
		return nil, err
	}
	if stats.NotFound() {
		return nil, fmt.Errorf("chessclient: GetStats - %q: %w", username, model.ErrPlayerNotFound)
	}
	return stats, nil
}

// getJSON performs a GET and decodes a JSON object body into out.
// Non-success statuses and non-object payloads are reported as model.ErrPlayerNotFound;
// transport failures and invalid JSON are returned as-is.
func (c *ChessClient) getJSON(ctx context.Context, username, endpoint string, out interface{}) error {
	fields := logrus.Fields{
		"username": username,
		"endpoint": endpoint,
	}
	c.logger.WithFields(fields).Debug("chessclient - Fetching from Chess.com API")

	resp, err := c.client.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		c.logger.WithError(err).WithFields(fields).Error("chessclient - Request failed")
		return fmt.Errorf("chessclient: request %s: %w", endpoint, err)
	}

	if !resp.IsSuccess() {
		c.logger.WithFields(fields).WithField("status", resp.StatusCode()).Info("chessclient - Non-success status from Chess.com API")
		return fmt.Errorf("chessclient: %s returned %s: %w", endpoint, resp.Status(), model.ErrPlayerNotFound)
	}

	body := resp.Body()
	var object map[string]json.RawMessage
	if err := json.Unmarshal(body, &object); err != nil || object == nil {
		if json.Valid(body) {
			c.logger.WithFields(fields).Warn("chessclient - Payload is not a JSON object")
			return fmt.Errorf("chessclient: %s returned a non-object payload: %w", endpoint, model.ErrPlayerNotFound)
		}
		c.logger.WithError(err).WithFields(fields).Error("chessclient - Invalid JSON from Chess.com API")
		return fmt.Errorf("chessclient: decode %s: %w", endpoint, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.WithError(err).WithFields(fields).Error("chessclient - Unexpected payload shape")
		return fmt.Errorf("chessclient: decode %s: %w", endpoint, err)
	}
	return nil
}
