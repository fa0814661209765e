package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ChatUser external chat-service user
type ChatUser struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// ChatProvider operations the bridge needs from the managed chat service.
type ChatProvider interface {
	APIKey() string
	UpsertUsers(ctx context.Context, users ...ChatUser) error
	// CreateChannel is get-or-create on the service side for a given channel id.
	CreateChannel(ctx context.Context, channelID, createdBy string, members []string, data map[string]any) error
	SendMessage(ctx context.Context, channelID, userID, text string) error
	UserToken(userID string) (string, error)
}

// ChatClient REST client for the managed chat service.
type ChatClient struct {
	httpClient *resty.Client
	apiKey     string
	apiSecret  []byte
	tokenTTL   time.Duration
	logger     *zap.Logger
}

var _ ChatProvider = (*ChatClient)(nil)

func NewChatClient(baseURL, apiKey, apiSecret string, timeout, tokenTTL time.Duration, logger *zap.Logger) *ChatClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetQueryParam("api_key", apiKey).
		SetHeader("Stream-Auth-Type", "jwt").
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ChatClient{
		httpClient: client,
		apiKey:     apiKey,
		apiSecret:  []byte(apiSecret),
		tokenTTL:   tokenTTL,
		logger:     logger,
	}
}

func (c *ChatClient) APIKey() string { return c.apiKey }

// serverToken authenticates server-side calls.
func (c *ChatClient) serverToken() (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"server": true}).SignedString(c.apiSecret)
}

// UserToken client token for the chat SDK, carrying user_id.
func (c *ChatClient) UserToken(userID string) (string, error) {
	claims := jwt.MapClaims{"user_id": userID, "iat": time.Now().Unix()}
	if c.tokenTTL > 0 {
		claims["exp"] = time.Now().Add(c.tokenTTL).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.apiSecret)
}

type chatAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *ChatClient) post(ctx context.Context, path string, body any, op string) error {
	token, err := c.serverToken()
	if err != nil {
		return fmt.Errorf("failed to sign chat server token: %w", err)
	}
	var apiErr chatAPIError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", token).
		SetBody(body).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		c.logger.Error("Chat API call failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("failed to call chat API (%s): %w", op, err)
	}
	if resp.IsError() {
		c.logger.Error("Chat API returned error",
			zap.String("op", op),
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("code", apiErr.Code),
			zap.String("msg", apiErr.Message),
		)
		return fmt.Errorf("chat API error (%s): %s (status: %d)", op, apiErr.Message, resp.StatusCode())
	}
	return nil
}

func (c *ChatClient) UpsertUsers(ctx context.Context, users ...ChatUser) error {
	byID := make(map[string]ChatUser, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return c.post(ctx, "/users", map[string]any{"users": byID}, "upsert_users")
}

func (c *ChatClient) CreateChannel(ctx context.Context, channelID, createdBy string, members []string, data map[string]any) error {
	payload := map[string]any{"created_by_id": createdBy, "members": members}
	for k, v := range data {
		payload[k] = v
	}
	return c.post(ctx, "/channels/messaging/"+channelID+"/query",
		map[string]any{"data": payload, "state": false}, "create_channel")
}

func (c *ChatClient) SendMessage(ctx context.Context, channelID, userID, text string) error {
	return c.post(ctx, "/channels/messaging/"+channelID+"/message",
		map[string]any{"message": map[string]any{"text": text, "user_id": userID}}, "send_message")
}
