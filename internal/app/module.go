package app

import (
	"fmt"

	"github.com/shandysiswandi/otpgate/internal/identity"
	"github.com/shandysiswandi/otpgate/internal/notification"
	"github.com/shandysiswandi/otpgate/internal/order"
	"github.com/shandysiswandi/otpgate/internal/otp"
	otpusecase "github.com/shandysiswandi/otpgate/internal/otp/usecase"
)

// initModules builds the otp engine first, then the modules that own the
// transitions, and binds them before any request is served.
func (a *App) initModules() error {
	engine, err := otp.New(otp.Dependency{
		Ctx:        a.ctx,
		CacheConn:  a.cacheConn,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Mail:       a.mail,
		Storage:    a.storage,
		Config:     a.config,
		Instrument: a.ins,
		UUID:       a.uuid,
		HMAC:       a.hmac,
		Clock:      a.clock,
		Validator:  a.validator,
	})
	if err != nil {
		return fmt.Errorf("otp: %w", err)
	}

	identityUC, err := identity.New(identity.Dependency{
		DBConn:     a.dbConn,
		CacheConn:  a.cacheConn,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Messaging:  a.messaging,
		OTP:        engine,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		UUID:       a.uuid,
		Tokens:     a.tokens,
		HMAC:       a.hmac,
		Password:   a.password,
		Clock:      a.clock,
		Validator:  a.validator,
		JWT:        a.jwt,
	})
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}

	orderUC, err := order.New(order.Dependency{
		DBConn:     a.dbConn,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Messaging:  a.messaging,
		OTP:        engine,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		UUID:       a.uuid,
		Clock:      a.clock,
		Validator:  a.validator,
	})
	if err != nil {
		return fmt.Errorf("order: %w", err)
	}

	if err := engine.Bind(otpusecase.Binders{
		Registration:      identityUC,
		Login:             identityUC,
		OrderConfirmation: orderUC,
	}); err != nil {
		return fmt.Errorf("bind otp transitions: %w", err)
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			CacheConn:  a.cacheConn,
			Messaging:  a.messaging,
			Mail:       a.mail,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
		}); err != nil {
			return fmt.Errorf("notification: %w", err)
		}
	}

	return nil
}
