package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"golang.org/x/oauth2"
)

const (
	defaultRegion = "us-east-1"

	instanceIDHeader = "ibm-service-instance-id"
)

// S3Config holds the connection parameters of an S3-compatible store.
// Either APIKey (IAM bearer auth) or AccessKeyID and SecretAccessKey
// (SigV4) must be set. When both are present the HMAC pair is used.
type S3Config struct {
	Endpoint        string
	Bucket          string
	Region          string
	APIKey          string
	InstanceID      string
	IAMEndpoint     string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
	Timeout         time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

func (c S3Config) hmac() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// Validate reports which required settings are missing.
func (c S3Config) Validate() error {
	var missing []string
	if c.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if c.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if c.APIKey == "" && !c.hmac() {
		missing = append(missing, "api_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

// S3Store implements Store on top of an S3-compatible bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds a client for cfg. No network call is made until the
// first operation.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	var (
		creds   aws.CredentialsProvider
		apiOpts []func(*middleware.Stack) error
	)
	if cfg.hmac() {
		creds = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	} else {
		// Bearer auth replaces SigV4, so requests go out unsigned.
		creds = aws.AnonymousCredentials{}
		ts, err := NewIAMTokenSource(cfg.IAMEndpoint, cfg.APIKey, httpClient)
		if err != nil {
			return nil, err
		}
		apiOpts = append(apiOpts, withBearerAuth(ts, cfg.InstanceID))
	}

	client := s3.New(s3.Options{
		Region:                     region,
		BaseEndpoint:               aws.String(cfg.Endpoint),
		UsePathStyle:               cfg.PathStyle,
		Credentials:                creds,
		HTTPClient:                 httpClient,
		APIOptions:                 apiOpts,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	})

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// Driver returns the store driver identifier.
func (s *S3Store) Driver() Driver { return DriverS3 }

// Get streams the object stored under key. The caller closes the reader.
func (s *S3Store) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return Info{}, nil, classify(err, key)
	}
	info := Info{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}
	return info, out.Body, nil
}

// Put uploads r under key, replacing any existing object.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if opts.ContentType != "" {
		input.ContentType = &opts.ContentType
	}
	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		return Info{}, classify(err, key)
	}
	return Info{
		Key:          key,
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		ContentType:  opts.ContentType,
		LastModified: time.Now().UTC(),
	}, nil
}

// classify maps missing-object responses onto ErrObjectNotFound.
func classify(err error, key string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
	}
	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) && statusErr.HTTPStatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return fmt.Errorf("object %s: %w", key, err)
}

// withBearerAuth adds the IAM bearer token and the service instance header
// to every request before it is sent.
func withBearerAuth(ts oauth2.TokenSource, instanceID string) func(*middleware.Stack) error {
	return func(stack *middleware.Stack) error {
		return stack.Build.Add(middleware.BuildMiddlewareFunc("IAMBearerAuth",
			func(ctx context.Context, in middleware.BuildInput, next middleware.BuildHandler) (middleware.BuildOutput, middleware.Metadata, error) {
				req, ok := in.Request.(*smithyhttp.Request)
				if !ok {
					return middleware.BuildOutput{}, middleware.Metadata{}, fmt.Errorf("unexpected request type %T", in.Request)
				}
				tok, err := ts.Token()
				if err != nil {
					return middleware.BuildOutput{}, middleware.Metadata{}, fmt.Errorf("failed to obtain IAM token: %w", err)
				}
				tok.SetAuthHeader(req.Request)
				if instanceID != "" {
					req.Header.Set(instanceIDHeader, instanceID)
				}
				return next.HandleBuild(ctx, in)
			}), middleware.After)
	}
}
