package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/internal/retry"
)

type fakeUploader struct {
	createErr error
	uploadErr error

	created     []string
	container   string
	key         string
	body        string
	contentType string
}

func (f *fakeUploader) CreateContainer(_ context.Context, name string, _ *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error) {
	f.created = append(f.created, name)
	return azblob.CreateContainerResponse{}, f.createErr
}

func (f *fakeUploader) UploadStream(_ context.Context, container, key string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error) {
	if f.uploadErr != nil {
		return azblob.UploadStreamResponse{}, f.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return azblob.UploadStreamResponse{}, err
	}
	f.container, f.key, f.body = container, key, string(data)
	if o != nil && o.HTTPHeaders != nil && o.HTTPHeaders.BlobContentType != nil {
		f.contentType = *o.HTTPHeaders.BlobContentType
	}
	return azblob.UploadStreamResponse{}, nil
}

func responseError(code int, errorCode string) *azcore.ResponseError {
	req := httptest.NewRequest(http.MethodPut, "https://acct.blob.core.windows.net/drop", nil)
	return &azcore.ResponseError{
		StatusCode:  code,
		ErrorCode:   errorCode,
		RawResponse: &http.Response{StatusCode: code, Header: http.Header{}, Request: req, Body: http.NoBody},
	}
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)
}

func testMessage() *phantommail.FinalMessage {
	return &phantommail.FinalMessage{
		Sender:     "noreply@vectrans.example",
		Recipients: []string{"intake@vectrans.example"},
		Subject:    "Question about shipment",
		BodyHTML:   "<p>Where is my pallet?</p>",
	}
}

func TestSend(t *testing.T) {
	up := &fakeUploader{}
	s := NewWithClient(up, Config{Container: "drop", Prefix: "/inbox/"}, WithClock(fixedClock))

	require.NoError(t, s.Send(context.Background(), testMessage()))

	assert.Equal(t, "drop", up.container)
	assert.True(t, strings.HasPrefix(up.key, "inbox/2026/03/09/"), up.key)
	assert.True(t, strings.HasSuffix(up.key, ".eml"), up.key)
	assert.Equal(t, "message/rfc822", up.contentType)
	assert.Contains(t, up.body, "Subject: Question about shipment")
	assert.Equal(t, "blob", s.Name())
}

func TestKey(t *testing.T) {
	s := NewWithClient(&fakeUploader{}, Config{Container: "drop"})
	local := time.Date(2026, 1, 2, 1, 0, 0, 0, time.FixedZone("CET", 3600*2))
	assert.Equal(t, "2026/01/01/abc.eml", s.Key(local, "abc"))
}

func TestSend_UploadError(t *testing.T) {
	t.Run("server busy", func(t *testing.T) {
		cause := responseError(http.StatusServiceUnavailable, "ServerBusy")
		s := NewWithClient(&fakeUploader{uploadErr: cause}, Config{Container: "drop"}, WithClock(fixedClock))
		err := s.Send(context.Background(), testMessage())
		require.Error(t, err)
		assert.True(t, retry.IsTransient(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("other", func(t *testing.T) {
		s := NewWithClient(&fakeUploader{uploadErr: errors.New("boom")}, Config{Container: "drop"})
		err := s.Send(context.Background(), testMessage())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "blob: upload ")
	})
}

func TestEnsureContainer(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		up := &fakeUploader{}
		require.NoError(t, NewWithClient(up, Config{Container: "drop"}).EnsureContainer(context.Background()))
		assert.Equal(t, []string{"drop"}, up.created)
	})

	t.Run("already exists", func(t *testing.T) {
		up := &fakeUploader{createErr: responseError(http.StatusConflict, string(bloberror.ContainerAlreadyExists))}
		assert.NoError(t, NewWithClient(up, Config{Container: "drop"}).EnsureContainer(context.Background()))
	})

	t.Run("forbidden", func(t *testing.T) {
		up := &fakeUploader{createErr: responseError(http.StatusForbidden, "AuthorizationFailure")}
		err := NewWithClient(up, Config{Container: "drop"}).EnsureContainer(context.Background())
		require.Error(t, err)
		assert.False(t, retry.IsTransient(err))
	})
}

func TestNew_RequiresContainer(t *testing.T) {
	_, err := New(Config{ConnectionString: "UseDevelopmentStorage=true"})
	assert.EqualError(t, err, "blob: container is required")
}
