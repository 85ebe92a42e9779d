package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/rs/cors"
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

// rbacModel allows a subject when it holds the exact (obj, act) pair or a
// "*" wildcard for either.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// adminPolicies are granted to every address in modules.otp.admin_emails.
var adminPolicies = [][2]string{
	{"otp_stats", "read"},
	{"otp_stats", "export"},
	{"otp_challenges", "sweep"},
}

// configPath resolves CONFIG_PATH, falling back to the container path or,
// with LOCAL=true, the repository copy.
func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}
	return "/config/config.yaml"
}

func (a *App) initConfig() error {
	cfg, err := config.NewViper(configPath())
	if err != nil {
		return err
	}
	a.config = cfg
	a.onClose("config", func(context.Context) error { return cfg.Close() })

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // only fails on an invalid key
		os.Setenv("TZ", tz)
	}
	return nil
}

func (a *App) initInstrument() error {
	c := a.config
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          c.GetBool("instrument.enabled"),
		ServiceName:      c.GetString("instrument.service_name"),
		ServiceVersion:   c.GetString("instrument.service_version"),
		Environment:      c.GetString("instrument.env"),
		OTLPEndpoint:     c.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       c.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: c.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  c.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       c.GetArray("instrument.log_mask_fields"),
		LogLevel:         c.GetString("instrument.log_level"),
	})
	if err != nil {
		return err
	}
	a.ins = ins
	a.onClose("instrument", ins.Shutdown)
	return nil
}

func (a *App) initLibraries() error {
	c := a.config

	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.tokens = uid.NewToken()
	a.goroutine = goroutine.NewManager(c.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(c.GetString("hash.hmac.secret"), c.GetArray("hash.hmac.previous_secrets")...)

	pepper := c.GetString("hash.password.pepper")
	algorithm := c.GetString("hash.password.algorithm")
	password, err := hash.NewPassword(algorithm,
		hash.NewArgon2id(hash.Argon2idConfig{
			MemoryKiB:     uint32(c.GetInt("hash.argon2id.memory_kib")),
			Iterations:    uint32(c.GetInt("hash.argon2id.iterations")),
			Parallelism:   uint8(c.GetInt("hash.argon2id.parallelism")),
			MaxConcurrent: c.GetInt("hash.argon2id.max_concurrent"),
			Pepper:        pepper,
		}),
		hash.NewBcrypt(c.GetInt("hash.bcrypt.cost"), pepper),
	)
	if err != nil {
		return fmt.Errorf("password hasher %q: %w", algorithm, err)
	}
	a.password = password

	if a.validator, err = validator.NewV10Validator(); err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	if a.uid, err = uid.NewSnowflake(); err != nil {
		return fmt.Errorf("snowflake: %w", err)
	}
	return nil
}

func (a *App) initJWT() error {
	c := a.config
	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(c.GetString("jwt.secret")),
		Issuer:    c.GetString("jwt.issuer"),
		Audiences: c.GetArray("jwt.audiences"),
		TTL:       c.GetMinute("jwt.ttl_minutes"),
		Leeway:    c.GetSecond("jwt.leeway_seconds"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		return err
	}
	a.jwt = signer
	return nil
}

// initCasbin loads the admin grants into an in-memory enforcer. The policy
// set is small and derived from config, so it has no storage adapter.
func (a *App) initCasbin() error {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return err
	}

	admins := lo.Uniq(lo.Map(a.config.GetArray("modules.otp.admin_emails"), func(s string, _ int) string {
		return strings.ToLower(s)
	}))
	for _, email := range admins {
		for _, p := range adminPolicies {
			if _, err := e.AddPolicy(email, p[0], p[1]); err != nil {
				return fmt.Errorf("policy %s %s: %w", p[0], p[1], err)
			}
		}
	}

	a.casbin = e
	return nil
}

func (a *App) initHTTPServer() error {
	c := a.config
	a.router = router.NewRouter(router.Config{
		Config:     c,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
		Enforcer:   a.casbin,
	})
	a.router.GET("/health", a.health)

	handler := cors.New(cors.Options{
		AllowedOrigins:   c.GetArray("app.server.cors"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Correlation-ID"},
		ExposedHeaders:   []string{"X-Correlation-ID", "Retry-After"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              c.GetString("app.server.http.address"),
		Handler:           handler,
		ReadTimeout:       c.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: c.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      c.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       c.GetSecond("app.server.http.idle_timeout_seconds"),
	}
	return nil
}
