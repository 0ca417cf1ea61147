package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/you/accountsvc/domain"
)

// Observers groups the side channels every service reports to.
// Nil members are skipped.
type Observers struct {
	Audit   domain.AuditLogger
	Metrics domain.MetricsRecorder
	Log     zerolog.Logger
}

func (o Observers) audit(ctx context.Context, event *domain.AuditEvent) {
	if o.Audit == nil {
		return
	}
	event.WithClientContext(domain.ClientFromContext(ctx))
	if err := o.Audit.LogEvent(ctx, event); err != nil {
		o.Log.Warn().Ctx(ctx).Err(err).Str("event", string(event.EventType)).Msg("audit event dropped")
	}
}

func (o Observers) record(operation string, err error) {
	if o.Metrics != nil {
		o.Metrics.OperationCompleted(operation, err)
	}
}

// deliver sends an email and reports the outcome without failing the caller.
func (o Observers) deliver(ctx context.Context, notifier domain.NotificationService, msg email) domain.Delivery {
	delivery := domain.Delivery{Template: msg.template}
	if err := notifier.SendEmail(ctx, msg.to, msg.subject, msg.body); err != nil {
		delivery.Err = err
		o.Log.Warn().Ctx(ctx).Err(err).Str("template", msg.template).Msg("email delivery failed")
		if o.Metrics != nil {
			o.Metrics.EmailFailed(msg.template)
		}
	}
	return delivery
}
