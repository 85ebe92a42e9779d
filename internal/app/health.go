package app

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type healthResponse struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func (healthResponse) Message() string {
	return "service is healthy"
}

// health pings postgres and redis.
func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.dbConn.Ping(ctx); err != nil {
		return nil, goerror.NewBusiness("Database is unavailable", goerror.CodeUnavailable)
	}
	if err := a.cacheConn.Ping(ctx).Err(); err != nil {
		return nil, goerror.NewBusiness("Redis is unavailable", goerror.CodeUnavailable)
	}

	return healthResponse{Database: "up", Redis: "up"}, nil
}
