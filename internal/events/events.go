// Package events publishes claim lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects.
const (
	SubjectClaimCreated = "lostfound.claims.created"
	SubjectClaimStatus  = "lostfound.claims.status"
)

// ClaimCreated is published after a claim is stored.
type ClaimCreated struct {
	ClaimID int64   `json:"claim_id"`
	UserID  int64   `json:"user_id"`
	ItemID  int64   `json:"item_id"`
	Matched bool    `json:"matched"`
	Ratio   float64 `json:"ratio"`
}

// ClaimStatusChanged is published when staff change a claim's status.
type ClaimStatusChanged struct {
	ClaimID int64  `json:"claim_id"`
	UserID  int64  `json:"user_id"`
	Status  string `json:"status"`
}

// Publisher sends an event payload to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, any) error { return nil }

// NATS publishes JSON events over a NATS connection.
type NATS struct {
	conn *nats.Conn
}

// Connect dials the NATS server at url.
func Connect(url string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("lostfound"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return &NATS{conn: nc}, nil
}

// Publish implements Publisher.
func (n *NATS) Publish(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(v)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing %s: %w", subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return fmt.Errorf("draining nats connection: %w", err)
	}
	return nil
}

// Encode marshals an event payload.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}
	return data, nil
}

// Emit publishes an event and logs failures instead of returning them.
func Emit(ctx context.Context, p Publisher, subject string, v any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, v); err != nil {
		slog.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
