// Package social связывает аккаунт с соцсетью (LinkedIn) и публикует баннеры.
// Обмен кода и публикация синтетические: внешний API не вызывается.
package social

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/magabrotheeeer/banner-generator/internal/config"
)

const (
	authorizeURL = "https://www.linkedin.com/oauth/v2/authorization"
	scope        = "r_liteprofile w_member_social"
	mockPostURL  = "https://linkedin.com/feed/update/urn:li:share:mock123"
)

// ErrEmptyCode код авторизации не передан.
var ErrEmptyCode = errors.New("authorization code is empty")

// Token результат обмена кода авторизации.
type Token struct {
	AccessToken string
	ProfileID   string
}

// Post содержимое публикации.
type Post struct {
	ImageURL string `json:"image_url"`
	Text     string `json:"text"`
}

// Client OAuth-клиент соцсети.
type Client struct {
	clientID    string
	redirectURI string
}

// NewClient создаёт клиента из настроек.
func NewClient(cfg config.Social) *Client {
	return &Client{
		clientID:    cfg.ClientID,
		redirectURI: cfg.RedirectURI,
	}
}

// AuthURL возвращает адрес, на который фронтенд отправляет пользователя за согласием.
func (c *Client) AuthURL() string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("scope", scope)
	return authorizeURL + "?" + q.Encode()
}

// ExchangeCode меняет код авторизации на токен доступа.
func (c *Client) ExchangeCode(ctx context.Context, code string) (Token, error) {
	const op = "social.ExchangeCode"

	if err := ctx.Err(); err != nil {
		return Token{}, fmt.Errorf("%s: %w", op, err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Token{}, fmt.Errorf("%s: %w", op, ErrEmptyCode)
	}
	return Token{
		AccessToken: "mock_linkedin_token_" + code,
		ProfileID:   "mock_profile_id",
	}, nil
}

// Publish публикует пост от имени владельца токена и возвращает ссылку на него.
func (c *Client) Publish(ctx context.Context, accessToken string, _ Post) (string, error) {
	const op = "social.Publish"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if accessToken == "" {
		return "", fmt.Errorf("%s: empty access token", op)
	}
	return mockPostURL, nil
}
