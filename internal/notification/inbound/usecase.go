package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/notification/usecase"
)

type uc interface {
	ConsumeAccountActivated(ctx context.Context, in usecase.ConsumeAccountActivatedInput) error
	ConsumeOrderConfirmed(ctx context.Context, in usecase.ConsumeOrderConfirmedInput) error
}
