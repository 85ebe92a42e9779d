package usecase

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type metrics struct {
	issued   metric.Int64Counter
	verified metric.Int64Counter
	failed   metric.Int64Counter
	swept    metric.Int64Counter
}

func newMetrics(m metric.Meter) metrics {
	return metrics{
		issued:   counter(m, "otp.challenges.issued", "Challenges delivered to a destination"),
		verified: counter(m, "otp.challenges.verified", "Challenges verified and consumed"),
		failed:   counter(m, "otp.challenges.failed", "Issue or verification failures by reason"),
		swept:    counter(m, "otp.janitor.deleted", "Challenges removed by the janitor"),
	}
}

func counter(m metric.Meter, name, desc string) metric.Int64Counter {
	c, err := m.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		c, _ = noop.Meter{}.Int64Counter(name)
	}
	return c
}

func (m metrics) fail(ctx context.Context, p entity.Purpose, reason entity.Counter) {
	m.failed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("purpose", p.String()),
		attribute.String("reason", string(reason)),
	))
}

func purposeAttr(p entity.Purpose) metric.AddOption {
	return metric.WithAttributes(attribute.String("purpose", p.String()))
}
