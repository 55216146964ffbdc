// Package blob archives messages as .eml files in Azure Blob Storage.
//
// A drop container stands in for a mailbox: downstream intake jobs that
// watch the container pick the files up exactly as if they had arrived by
// SMTP.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	azblobblob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/google/uuid"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/delivery"
	"github.com/spetersoncode/phantommail/internal/status"
)

const contentTypeRFC822 = "message/rfc822"

// Config holds the storage settings.
type Config struct {
	ConnectionString string
	Container        string

	// Prefix is prepended to every key, e.g. "inbox".
	Prefix string
}

// Uploader is the subset of *azblob.Client used here.
type Uploader interface {
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
	UploadStream(ctx context.Context, containerName string, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error)
}

// Sender uploads one blob per message.
type Sender struct {
	client    Uploader
	container string
	prefix    string
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Sender.
type Option func(*Sender)

// WithClock sets the time source used for key dates.
func WithClock(now func() time.Time) Option {
	return func(s *Sender) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) { s.logger = l }
}

// New builds a Sender from a connection string.
func New(cfg Config, opts ...Option) (*Sender, error) {
	if cfg.Container == "" {
		return nil, errors.New("blob: container is required")
	}
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("blob: create client: %w", err)
	}
	return NewWithClient(client, cfg, opts...), nil
}

// NewWithClient uses client instead of building one.
func NewWithClient(client Uploader, cfg Config, opts ...Option) *Sender {
	s := &Sender{
		client:    client,
		container: cfg.Container,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "delivery", "transport", "blob")
	return s
}

// Name returns "blob".
func (s *Sender) Name() string { return "blob" }

// EnsureContainer creates the container unless it already exists.
func (s *Sender) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return wrapError("blob: create container "+s.container, err)
	}
	s.logger.Info("drop container ready", "container", s.container)
	return nil
}

// Key returns the blob name for a message stored at t.
func (s *Sender) Key(t time.Time, id string) string {
	return path.Join(s.prefix, t.UTC().Format("2006/01/02"), id+".eml")
}

// Send uploads msg as message/rfc822.
func (s *Sender) Send(ctx context.Context, msg *phantommail.FinalMessage) error {
	raw, err := delivery.RawMessage(msg)
	if err != nil {
		return err
	}

	key := s.Key(s.now(), uuid.NewString())
	contentType := contentTypeRFC822
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &azblobblob.HTTPHeaders{BlobContentType: &contentType},
	}
	if _, err := s.client.UploadStream(ctx, s.container, key, bytes.NewReader(raw), opts); err != nil {
		return wrapError("blob: upload "+key, err)
	}
	s.logger.Debug("message archived", "key", key, "bytes", len(raw))
	return nil
}

func wrapError(msg string, err error) error {
	var re *azcore.ResponseError
	if errors.As(err, &re) {
		return status.Wrap(msg, re.StatusCode, re.RawResponse, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
