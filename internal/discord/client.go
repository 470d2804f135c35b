package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/neos-mentors/mentor-queue/internal/config"
	"github.com/neos-mentors/mentor-queue/internal/domain"
)

// Channel is the remote display surface for tickets. Send creates a new
// message and returns its id; Update edits an existing one in place.
type Channel interface {
	Send(ctx context.Context, payload domain.DisplayPayload) (string, error)
	Update(ctx context.Context, messageID string, payload domain.DisplayPayload) error
}

// WebhookChannel posts ticket embeds through a Discord webhook.
type WebhookChannel struct {
	webhookURL string
	client     *http.Client
	ready      atomic.Bool
}

// NewWebhookChannel builds a channel client from configuration.
func NewWebhookChannel(cfg config.DiscordConfig) *WebhookChannel {
	return &WebhookChannel{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: cfg.Timeout()},
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Timestamp   string       `json:"timestamp"`
}

type messageBody struct {
	Embeds []embed `json:"embeds"`
}

type messageResponse struct {
	ID string `json:"id"`
}

func renderEmbed(payload domain.DisplayPayload) embed {
	fields := []embedField{
		{Name: "Status", Value: string(payload.Status), Inline: true},
	}
	if payload.Mentor != "" {
		fields = append(fields, embedField{Name: "Mentor", Value: payload.Mentor, Inline: true})
	}
	if payload.ResolvedAt != nil {
		fields = append(fields, embedField{
			Name:  "Resolved",
			Value: payload.ResolvedAt.UTC().Format(time.RFC3339),
		})
	}
	return embed{
		Title:       payload.Title,
		Description: payload.Description,
		Color:       payload.Color,
		Fields:      fields,
		Timestamp:   payload.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Send posts a new message and returns the Discord message id.
func (c *WebhookChannel) Send(ctx context.Context, payload domain.DisplayPayload) (string, error) {
	if c.webhookURL == "" {
		return "", errors.New("discord webhook not configured")
	}
	body, err := json.Marshal(messageBody{Embeds: []embed{renderEmbed(payload)}})
	if err != nil {
		return "", err
	}
	// wait=true makes Discord return the created message object.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL+"?wait=true", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.ready.Store(false)
		return "", fmt.Errorf("discord send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.ready.Store(false)
		return "", fmt.Errorf("discord send returned status %d", resp.StatusCode)
	}

	var message messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
		return "", fmt.Errorf("decode discord response: %w", err)
	}
	c.ready.Store(true)
	return message.ID, nil
}

// Update edits an existing webhook message in place.
func (c *WebhookChannel) Update(ctx context.Context, messageID string, payload domain.DisplayPayload) error {
	if c.webhookURL == "" {
		return errors.New("discord webhook not configured")
	}
	body, err := json.Marshal(messageBody{Embeds: []embed{renderEmbed(payload)}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.webhookURL+"/messages/"+messageID, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.ready.Store(false)
		return fmt.Errorf("discord update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.ready.Store(false)
		return fmt.Errorf("discord update returned status %d", resp.StatusCode)
	}
	c.ready.Store(true)
	return nil
}

// Ping verifies the webhook is reachable.
func (c *WebhookChannel) Ping(ctx context.Context) error {
	if c.webhookURL == "" {
		return errors.New("discord webhook not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.webhookURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.ready.Store(false)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.ready.Store(false)
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	c.ready.Store(true)
	return nil
}

// Ready reports the result of the most recent webhook interaction.
func (c *WebhookChannel) Ready() bool {
	return c.ready.Load()
}
