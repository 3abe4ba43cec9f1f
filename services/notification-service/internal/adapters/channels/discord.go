package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/floroz/gavel-live/services/notification-service/internal/domain/notifications"
)

// Discord posts an embed to a webhook URL.
type Discord struct {
	url    string
	client *http.Client
}

func NewDiscord(webhookURL string, client *http.Client) *Discord {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Discord{url: webhookURL, client: client}
}

func (d *Discord) Name() string { return "discord" }

type discordPayload struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title     string         `json:"title"`
	Color     int            `json:"color"`
	Fields    []discordField `json:"fields"`
	Timestamp string         `json:"timestamp,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func toDiscordPayload(msg notifications.Message) discordPayload {
	fields := make([]discordField, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		fields = append(fields, discordField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	embed := discordEmbed{
		Title:  msg.Title,
		Color:  msg.Color,
		Fields: fields,
	}
	if !msg.OccurredAt.IsZero() {
		embed.Timestamp = msg.OccurredAt.UTC().Format(time.RFC3339)
	}
	return discordPayload{
		Content: "**" + msg.Headline + "**",
		Embeds:  []discordEmbed{embed},
	}
}

func (d *Discord) Deliver(ctx context.Context, msg notifications.Message) error {
	body, err := json.Marshal(toDiscordPayload(msg))
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
