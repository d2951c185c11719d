package cos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	cossdk "github.com/tencentyun/cos-go-sdk-v5"
)

const (
	EnvSecretID  = "COS_SECRETID"
	EnvSecretKey = "COS_SECRETKEY"

	defaultTimeout = 60 * time.Second
)

// client is the subset of the COS object API the store needs.
type client interface {
	PutObject(ctx context.Context, name string, data []byte, contentType string) error
	GetObject(ctx context.Context, name string) ([]byte, error)
	DeleteObject(ctx context.Context, name string) error
}

type ClientOptions struct {
	BucketURL string
	SecretID  string
	SecretKey string
	Timeout   time.Duration
}

// newClient builds an authorized COS client. Empty credentials fall back to
// COS_SECRETID and COS_SECRETKEY.
func newClient(opts ClientOptions) (*sdkClient, error) {
	if opts.BucketURL == "" {
		return nil, errors.New("cos bucket url is required")
	}
	u, err := url.Parse(opts.BucketURL)
	if err != nil {
		return nil, fmt.Errorf("parse cos bucket url: %w", err)
	}
	if opts.SecretID == "" {
		opts.SecretID = os.Getenv(EnvSecretID)
	}
	if opts.SecretKey == "" {
		opts.SecretKey = os.Getenv(EnvSecretKey)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	httpClient := &http.Client{
		Timeout: opts.Timeout,
		Transport: &cossdk.AuthorizationTransport{
			SecretID:  opts.SecretID,
			SecretKey: opts.SecretKey,
		},
	}
	return &sdkClient{cos: cossdk.NewClient(&cossdk.BaseURL{BucketURL: u}, httpClient)}, nil
}

type sdkClient struct {
	cos *cossdk.Client
}

func (c *sdkClient) PutObject(ctx context.Context, name string, data []byte, contentType string) error {
	opts := &cossdk.ObjectPutOptions{
		ObjectPutHeaderOptions: &cossdk.ObjectPutHeaderOptions{ContentType: contentType},
	}
	_, err := c.cos.Object.Put(ctx, name, bytes.NewReader(data), opts)
	return err
}

func (c *sdkClient) GetObject(ctx context.Context, name string) ([]byte, error) {
	resp, err := c.cos.Object.Get(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *sdkClient) DeleteObject(ctx context.Context, name string) error {
	_, err := c.cos.Object.Delete(ctx, name)
	return err
}
