package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mockEndpoint    = "https://cos.mock.local"
	mockIAMEndpoint = "https://iam.mock.local/identity/token"
	mockBucket      = "employees-bucket"
)

// fakeCOS is an http.RoundTripper emulating the handful of path-style S3
// calls the store makes, plus the IAM token endpoint.
type fakeCOS struct {
	mu         sync.Mutex
	objects    map[string][]byte
	tokenCalls int
	lastAuth   string
	lastInst   string
}

func newFakeCOS() *fakeCOS { return &fakeCOS{objects: make(map[string][]byte)} }

func (f *fakeCOS) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req.URL.Host == "iam.mock.local" {
		f.tokenCalls++
		_ = req.ParseForm()
		if req.PostForm.Get("apikey") != "good-key" {
			return respond(http.StatusBadRequest, `{"errorMessage":"bad key"}`, nil), nil
		}
		body := fmt.Sprintf(`{"access_token":"tok-%d","token_type":"Bearer","expires_in":3600}`, f.tokenCalls)
		return respond(http.StatusOK, body, http.Header{"Content-Type": {"application/json"}}), nil
	}

	f.lastAuth = req.Header.Get("Authorization")
	f.lastInst = req.Header.Get(instanceIDHeader)

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] != mockBucket {
		return respond(http.StatusNotFound, `<Error><Code>NoSuchBucket</Code><Message>no bucket</Message></Error>`,
			http.Header{"Content-Type": {"application/xml"}}), nil
	}
	key := parts[1]

	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[key] = body
		return respond(http.StatusOK, "", http.Header{"ETag": {`"etag-put"`}}), nil
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, `<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`,
				http.Header{"Content-Type": {"application/xml"}}), nil
		}
		return respond(http.StatusOK, string(body), http.Header{
			"Content-Length": {fmt.Sprintf("%d", len(body))},
			"Content-Type":   {"application/octet-stream"},
			"ETag":           {`"etag-get"`},
			"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
		}), nil
	}
	return respond(http.StatusNotImplemented, "", nil), nil
}

// respond canonicalizes header keys the way net/http does for real responses.
func respond(status int, body string, header http.Header) *http.Response {
	h := http.Header{}
	for k, vs := range header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	return &http.Response{
		StatusCode:    status,
		Header:        h,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

func newTestS3Store(t *testing.T, fake *fakeCOS, mutate func(*S3Config)) *S3Store {
	t.Helper()
	cfg := S3Config{
		Endpoint:    mockEndpoint,
		Bucket:      mockBucket,
		Region:      "us-standard",
		APIKey:      "good-key",
		InstanceID:  "crn:v1:instance",
		IAMEndpoint: mockIAMEndpoint,
		PathStyle:   true,
		HTTPClient:  &http.Client{Transport: fake},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	store, err := NewS3Store(context.Background(), cfg)
	require.NoError(t, err)
	return store
}

func TestS3Config_Validate(t *testing.T) {
	err := S3Config{}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.Contains(t, err.Error(), "endpoint")
	assert.Contains(t, err.Error(), "bucket")
	assert.Contains(t, err.Error(), "api_key")

	hmac := S3Config{Endpoint: mockEndpoint, Bucket: mockBucket, AccessKeyID: "AKID", SecretAccessKey: "SECRET"}
	assert.NoError(t, hmac.Validate())

	iam := S3Config{Endpoint: mockEndpoint, Bucket: mockBucket, APIKey: "key"}
	assert.NoError(t, iam.Validate())
}

func TestNewS3Store_RejectsIncompleteConfig(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{Endpoint: mockEndpoint})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestS3Store_PutGet_IAMMode(t *testing.T) {
	fake := newFakeCOS()
	store := newTestS3Store(t, fake, nil)
	ctx := context.Background()

	assert.Equal(t, DriverS3, store.Driver())

	payload := []byte("spreadsheet bytes")
	info, err := store.Put(ctx, "employees.xlsx", bytes.NewReader(payload), PutOptions{ContentType: "application/octet-stream"})
	require.NoError(t, err)
	assert.Equal(t, "employees.xlsx", info.Key)
	assert.Equal(t, "etag-put", info.ETag)

	assert.Equal(t, "Bearer tok-1", fake.lastAuth)
	assert.Equal(t, "crn:v1:instance", fake.lastInst)

	got, rc, err := store.Get(ctx, "employees.xlsx")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, int64(len(payload)), got.Size)
	assert.Equal(t, "etag-get", got.ETag)

	// the token is reused until it expires
	assert.Equal(t, 1, fake.tokenCalls)
	assert.Equal(t, "Bearer tok-1", fake.lastAuth)
}

func TestS3Store_HMACModeSignsRequests(t *testing.T) {
	fake := newFakeCOS()
	store := newTestS3Store(t, fake, func(c *S3Config) {
		c.APIKey = ""
		c.AccessKeyID = "AKID"
		c.SecretAccessKey = "SECRET"
	})

	_, err := store.Put(context.Background(), "employees.xlsx", bytes.NewReader([]byte("x")), PutOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, fake.tokenCalls)
	assert.True(t, strings.HasPrefix(fake.lastAuth, "AWS4-HMAC-SHA256"), fake.lastAuth)
	assert.Empty(t, fake.lastInst)
}

func TestS3Store_GetMissingObject(t *testing.T) {
	store := newTestS3Store(t, newFakeCOS(), nil)

	_, _, err := store.Get(context.Background(), "absent.xlsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3Store_IAMFailureSurfaces(t *testing.T) {
	fake := newFakeCOS()
	store := newTestS3Store(t, fake, func(c *S3Config) { c.APIKey = "bad-key" })

	_, err := store.Put(context.Background(), "employees.xlsx", bytes.NewReader([]byte("x")), PutOptions{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
	assert.Contains(t, err.Error(), "IAM")
	assert.Empty(t, fake.objects)
}
