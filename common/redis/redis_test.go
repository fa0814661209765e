package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undesputed/senior-care-central-sub001/common/config"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), &config.RedisConfig{Addr: mr.Addr()}, time.Second)
	require.NoError(t, err)
	defer Close(client)

	addr := mr.Addr()
	mr.Close()
	_, err = Connect(context.Background(), &config.RedisConfig{Addr: addr}, 200*time.Millisecond)
	require.Error(t, err)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}

func TestPublishJSONToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), &config.RedisConfig{Addr: mr.Addr()}, time.Second)
	require.NoError(t, err)
	defer Close(client)

	ctx := context.Background()
	_, err = PublishJSONToStream(ctx, client, "events", "notification.created", map[string]string{"id": "n-1"})
	require.NoError(t, err)

	entries, err := client.XRange(ctx, "events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notification.created", entries[0].Values["type"])

	var data map[string]string
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["data"].(string)), &data))
	assert.Equal(t, "n-1", data["id"])
	assert.NotEmpty(t, entries[0].Values["timestamp"])
}

func TestPublishToStream_EncodesValues(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), &config.RedisConfig{Addr: mr.Addr()}, time.Second)
	require.NoError(t, err)
	defer Close(client)

	ctx := context.Background()
	_, err = PublishToStream(ctx, client, "events", map[string]interface{}{
		"count": 3,
		"ok":    true,
		"tags":  []string{"a", "b"},
	})
	require.NoError(t, err)

	entries, err := client.XRange(ctx, "events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "3", entries[0].Values["count"])
	assert.Equal(t, "true", entries[0].Values["ok"])
	assert.Equal(t, `["a","b"]`, entries[0].Values["tags"])
}
