package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"github.com/you/accountsvc/domain"
)

// LogAuditor writes audit events to the structured log.
type LogAuditor struct {
	log zerolog.Logger
}

// NewLogAuditor creates an auditor that logs at info level.
func NewLogAuditor(log zerolog.Logger) *LogAuditor {
	return &LogAuditor{log: log.With().Str("component", "audit").Logger()}
}

// LogEvent implements domain.AuditLogger
func (a *LogAuditor) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	e := a.log.Info()
	if !event.Success {
		e = a.log.Warn().Str("error", event.ErrorMsg)
	}
	e.Ctx(ctx).
		Str("event_type", string(event.EventType)).
		Uint("user_id", event.UserID).
		Str("email", event.Email).
		Uint("session_id", event.SessionID).
		Str("ip_address", event.IPAddress).
		Str("user_agent", event.UserAgent).
		Fields(event.Metadata).
		Bool("success", event.Success).
		Time("at", event.Timestamp).
		Msg("audit")
	return nil
}

// publisher is the part of *nats.Conn the auditor needs.
type publisher interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher publishes audit events as JSON on
// <prefix>.<event type in lower case>.
type NATSPublisher struct {
	conn   publisher
	prefix string
}

// NewNATSPublisher connects to url. The returned close func drains the connection.
func NewNATSPublisher(url, prefix string, opts ...nats.Option) (*NATSPublisher, func(), error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, nil, oops.Code("NATS_CONNECT_FAILED").With("url", url).Wrap(err)
	}
	closeFn := func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	}
	return newNATSPublisher(nc, prefix), closeFn, nil
}

func newNATSPublisher(conn publisher, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(eventType domain.AuditEventType) string {
	return p.prefix + "." + strings.ToLower(string(eventType))
}

// LogEvent implements domain.AuditLogger
func (p *NATSPublisher) LogEvent(_ context.Context, event *domain.AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return oops.Code("AUDIT_ENCODE_FAILED").Wrap(err)
	}
	subject := p.Subject(event.EventType)
	if err := p.conn.Publish(subject, data); err != nil {
		return oops.Code("AUDIT_PUBLISH_FAILED").With("subject", subject).Wrap(err)
	}
	return nil
}

// MultiAuditor fans an event out to every sink and joins their errors.
type MultiAuditor []domain.AuditLogger

// LogEvent implements domain.AuditLogger
func (m MultiAuditor) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.LogEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ domain.AuditLogger = (*LogAuditor)(nil)
	_ domain.AuditLogger = (*NATSPublisher)(nil)
	_ domain.AuditLogger = MultiAuditor(nil)
)
