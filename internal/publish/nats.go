// Package publish fans finished scan results out to NATS.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docguard/internal/logging"
	"github.com/fyrsmithlabs/docguard/internal/scan"
)

// DefaultSubject is the subject prefix results are published under.
const DefaultSubject = "docguard.results"

// Message headers carrying correlation IDs.
const (
	HeaderBatchID   = "Docguard-Batch-Id"
	HeaderRequestID = "Docguard-Request-Id"
)

// NATS publishes one JSON message per file result to <subject>.<status>.
type NATS struct {
	nc      *nats.Conn
	subject string
	owned   bool
}

// New wraps an existing connection. The caller keeps ownership of nc.
func New(nc *nats.Conn, subject string) (*NATS, error) {
	if nc == nil {
		return nil, errors.New("nats connection is required")
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATS{nc: nc, subject: subject}, nil
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url, subject string, logger *zap.Logger) (*NATS, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.Name("docguard"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	p, err := New(nc, subject)
	if err != nil {
		nc.Close()
		return nil, err
	}
	p.owned = true
	return p, nil
}

// Subject returns the subject a result with status is published to.
func (p *NATS) Subject(status scan.Status) string {
	return p.subject + "." + string(status)
}

// Publish sends res as JSON, tagged with the batch and request IDs in ctx.
func (p *NATS) Publish(ctx context.Context, res scan.FileResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	msg := nats.NewMsg(p.Subject(res.Status))
	msg.Data = data
	if id := logging.BatchIDFromContext(ctx); id != "" {
		msg.Header.Set(HeaderBatchID, id)
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Header.Set(HeaderRequestID, id)
	}

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	return nil
}

// Close drains the connection if the publisher owns it.
func (p *NATS) Close() error {
	if !p.owned {
		return nil
	}
	return p.nc.Drain()
}
