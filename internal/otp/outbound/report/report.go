package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"go.opentelemetry.io/otel/codes"
)

// Report writes stats snapshots as JSON objects and links to them.
type Report struct {
	client storage.Storage
	cfg    config.Config
	uuid   uid.StringID
	ins    instrument.Instrumentation
}

func New(client storage.Storage, cfg config.Config, uuid uid.StringID, ins instrument.Instrumentation) *Report {
	return &Report{client: client, cfg: cfg, uuid: uuid, ins: ins}
}

// Export uploads stats under otp-stats/YYYY/MM/DD/ and returns a presigned
// download URL together with its expiry.
func (r *Report) Export(ctx context.Context, stats entity.Stats) (_ string, _ time.Time, err error) {
	ctx, span := r.ins.Tracer("otp.outbound.report").Start(ctx, "Export")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", time.Time{}, err
	}

	bucket := r.cfg.GetString("modules.otp.stats_bucket")
	key := fmt.Sprintf("otp-stats/%s/%s.json", stats.GeneratedAt.UTC().Format("2006/01/02"), r.uuid.Generate())

	if err := r.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return "", time.Time{}, err
	}

	expiry := r.cfg.GetMinute("modules.otp.stats_url_expiry_minutes")
	url, err := r.client.PresignGet(ctx, bucket, key, expiry)
	if err != nil {
		return "", time.Time{}, err
	}

	return url, stats.GeneratedAt.Add(expiry), nil
}
