package otp

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/otp/inbound"
	"github.com/shandysiswandi/otpgate/internal/otp/outbound/cache"
	"github.com/shandysiswandi/otpgate/internal/otp/outbound/email"
	"github.com/shandysiswandi/otpgate/internal/otp/outbound/report"
	"github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

// New builds the otp engine, registers its endpoints and starts the janitor.
// The returned usecase still needs Bind before codes can be verified.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	notifier, err := email.New(dep.Mail, dep.Config, dep.Instrument)
	if err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		Store:      cache.NewCache(dep.CacheConn, dep.HMAC, dep.Instrument),
		Limiter:    ratelimit.NewCooldown(dep.CacheConn, "{otp}:cooldown:", dep.Config.GetSecond("modules.otp.cooldown_seconds")),
		Notifier:   notifier,
		Exporter:   report.New(dep.Storage, dep.Config, dep.UUID, dep.Instrument),
		Validator:  dep.Validator,
		Config:     dep.Config,
		HMAC:       dep.HMAC,
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	janitor := inbound.NewJanitor(uc, dep.Config.GetSecond("modules.otp.janitor.interval_seconds"))
	janitor.Start(dep.Ctx, dep.Goroutine)

	inbound.RegisterHTTPEndpoint(dep.Router, uc, janitor)

	return uc, nil
}
