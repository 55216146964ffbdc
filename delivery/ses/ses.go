// Package ses delivers messages through the AWS SES v2 API.
//
// Messages always go out as raw MIME built by delivery.RawMessage, so the
// attachments and Message-ID match what the SMTP transport would send.
package ses

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/delivery"
	"github.com/spetersoncode/phantommail/internal/status"
)

// Config holds the SES settings. Empty keys fall back to the default AWS
// credential chain.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	// ConfigurationSet is attached to every send when set.
	ConfigurationSet string
}

// SendEmailAPI is the subset of the SES v2 client used here.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Sender sends raw messages via SES.
type Sender struct {
	client SendEmailAPI
	cfg    Config
}

// New loads AWS configuration and builds an SES client.
func New(ctx context.Context, cfg Config) (*Sender, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ses: load aws config: %w", err)
	}
	return NewWithClient(sesv2.NewFromConfig(awsCfg), cfg), nil
}

// NewWithClient uses client instead of building one.
func NewWithClient(client SendEmailAPI, cfg Config) *Sender {
	return &Sender{client: client, cfg: cfg}
}

// Name returns "ses".
func (s *Sender) Name() string { return "ses" }

// Send submits msg as a raw message.
func (s *Sender) Send(ctx context.Context, msg *phantommail.FinalMessage) error {
	raw, err := delivery.RawMessage(msg)
	if err != nil {
		return err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.Sender),
		Destination:      &types.Destination{ToAddresses: msg.Recipients},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	}
	if s.cfg.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(s.cfg.ConfigurationSet)
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return wrapError(err)
	}
	return nil
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

func wrapError(err error) error {
	var hc httpStatusCoder
	if errors.As(err, &hc) {
		return status.Wrap("ses: send email", hc.HTTPStatusCode(), nil, err)
	}
	var throttled *types.TooManyRequestsException
	if errors.As(err, &throttled) {
		return status.Wrap("ses: send email", 429, nil, err)
	}
	return fmt.Errorf("ses: send email: %w", err)
}
