package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESConfig configures the Amazon SES sender.
type SESConfig struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	From      string
	// ConfigurationSet is attached to every message when set.
	ConfigurationSet string
}

type sesAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SES sends mail with the SES SendEmail API.
type SES struct {
	api         sesAPI
	defaultFrom string
	configSet   string
}

// NewSES loads the AWS default config chain, overridden by cfg.
func NewSES(ctx context.Context, cfg SESConfig) (*SES, error) {
	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: ses config: %w", err)
	}

	client := ses.NewFromConfig(awsCfg, func(o *ses.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &SES{api: client, defaultFrom: cfg.From, configSet: cfg.ConfigurationSet}, nil
}

// Send delivers msg.
func (s *SES) Send(ctx context.Context, msg Message) error {
	if len(recipients(msg)) == 0 {
		return ErrNoRecipients
	}
	from, err := senderOf(msg, s.defaultFrom)
	if err != nil {
		return err
	}

	body := &types.Body{}
	if msg.TextBody != "" {
		body.Text = utf8Content(msg.TextBody)
	}
	if msg.HTMLBody != "" {
		body.Html = utf8Content(msg.HTMLBody)
	}

	in := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.Cc,
			BccAddresses: msg.Bcc,
		},
		Message: &types.Message{
			Subject: utf8Content(msg.Subject),
			Body:    body,
		},
	}
	if s.configSet != "" {
		in.ConfigurationSetName = aws.String(s.configSet)
	}

	if _, err := s.api.SendEmail(ctx, in); err != nil {
		return fmt.Errorf("mail: ses send: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *SES) Close() error { return nil }

func utf8Content(v string) *types.Content {
	return &types.Content{Data: aws.String(v), Charset: aws.String("UTF-8")}
}
