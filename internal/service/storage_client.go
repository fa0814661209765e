package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// StoredObject one entry of an object-store listing.
type StoredObject struct {
	Name      string    `json:"name"`
	ID        string    `json:"id,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// DocumentStore the subset of the managed object store this API needs.
type DocumentStore interface {
	List(ctx context.Context, bucket, prefix string) ([]StoredObject, error)
	Remove(ctx context.Context, bucket string, paths []string) error
}

// StorageClient REST client for the managed object store.
type StorageClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

var _ DocumentStore = (*StorageClient)(nil)

func NewStorageClient(baseURL, serviceKey string, timeout time.Duration, logger *zap.Logger) *StorageClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetAuthToken(serviceKey).
		SetHeader("apikey", serviceKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &StorageClient{httpClient: client, logger: logger}
}

type storageError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e storageError) String() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// List objects directly under prefix ("{agencyID}/").
func (c *StorageClient) List(ctx context.Context, bucket, prefix string) ([]StoredObject, error) {
	var (
		objects []StoredObject
		apiErr  storageError
	)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"prefix": prefix, "limit": 100, "offset": 0}).
		SetResult(&objects).
		SetError(&apiErr).
		Post("/object/list/" + bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage objects: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("Storage list returned error",
			zap.String("bucket", bucket),
			zap.String("prefix", prefix),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", apiErr.String()),
		)
		return nil, fmt.Errorf("storage list error: %s (status: %d)", apiErr.String(), resp.StatusCode())
	}
	if objects == nil {
		objects = []StoredObject{}
	}
	return objects, nil
}

// Remove deletes each object by path; the first failure stops the loop.
func (c *StorageClient) Remove(ctx context.Context, bucket string, paths []string) error {
	for _, p := range paths {
		var apiErr storageError
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetError(&apiErr).
			Delete("/object/" + bucket + "/" + strings.TrimLeft(p, "/"))
		if err != nil {
			return fmt.Errorf("failed to remove storage object %s: %w", p, err)
		}
		if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
			return fmt.Errorf("storage remove error: %s (status: %d)", apiErr.String(), resp.StatusCode())
		}
	}
	return nil
}
