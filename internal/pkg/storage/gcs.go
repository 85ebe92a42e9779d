package storage

import (
	"context"
	"errors"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// ErrMissingSigner is returned when a signed URL is requested from a GCS
// client configured without a service account key.
var ErrMissingSigner = errors.New("storage: gcs signer is not configured")

// GCSOptions configures the Google Cloud Storage client.
type GCSOptions struct {
	// CredentialsJSON is a service account key. Empty uses application
	// default credentials.
	CredentialsJSON []byte
	// Endpoint overrides the API endpoint, e.g. for fake-gcs-server.
	Endpoint string
	// WithoutAuth disables authentication, for emulators only.
	WithoutAuth bool
	// GoogleAccessID and PrivateKey sign download URLs.
	GoogleAccessID string
	PrivateKey     []byte
}

// GCS implements Storage on Google Cloud Storage.
type GCS struct {
	client         *gcs.Client
	googleAccessID string
	privateKey     []byte
	now            func() time.Time
}

// NewGCS builds the client from opts.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCS, error) {
	var copts []option.ClientOption
	if opts.WithoutAuth {
		copts = append(copts, option.WithoutAuthentication())
	}
	if len(opts.CredentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, opts.CredentialsJSON, gcs.ScopeReadWrite)
		if err != nil {
			return nil, err
		}
		copts = append(copts, option.WithCredentials(creds))
	}
	if opts.Endpoint != "" {
		copts = append(copts, option.WithEndpoint(opts.Endpoint))
	}

	client, err := gcs.NewClient(ctx, copts...)
	if err != nil {
		return nil, err
	}

	return &GCS{
		client:         client,
		googleAccessID: opts.GoogleAccessID,
		privateKey:     opts.PrivateKey,
		now:            time.Now,
	}, nil
}

// PutObject streams r into bucket/key. size is advisory for GCS.
func (g *GCS) PutObject(ctx context.Context, bucket, key string, r io.Reader, _ int64, contentType string) error {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		return errors.Join(err, w.Close())
	}
	return w.Close()
}

// PresignGet signs a V4 GET for the object.
func (g *GCS) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if g.googleAccessID == "" || len(g.privateKey) == 0 {
		return "", ErrMissingSigner
	}

	return gcs.SignedURL(bucket, key, &gcs.SignedURLOptions{
		Scheme:         gcs.SigningSchemeV4,
		Method:         "GET",
		Expires:        g.now().Add(expiry),
		GoogleAccessID: g.googleAccessID,
		PrivateKey:     g.privateKey,
	})
}

// Close closes the client.
func (g *GCS) Close() error {
	return g.client.Close()
}
