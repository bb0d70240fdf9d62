// Package oauth 实现了基于 Google 的第三方登录流程。
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"alumniverse/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleUser 是从 Google userinfo 接口获取的用户基本信息。
type GoogleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleClient 封装了 Google OAuth 的授权跳转与授权码交换。
type GoogleClient struct {
	cfg *oauth2.Config
}

// NewGoogleClient 根据配置创建一个 GoogleClient。
func NewGoogleClient(cfg config.OAuthConfig) *GoogleClient {
	return &GoogleClient{
		cfg: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
	}
}

// AuthCodeURL 构造带防 CSRF state 参数的授权跳转地址。
func (g *GoogleClient) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// FetchUser 用授权码换取 access token，并从 userinfo 接口获取用户信息。
func (g *GoogleClient) FetchUser(ctx context.Context, code string) (*GoogleUser, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google token exchange failed: %w", err)
	}

	client := g.cfg.Client(ctx, tok)
	resp, err := client.Get(userinfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("google userinfo returned status %d: %s", resp.StatusCode, string(body))
	}

	var gu GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, fmt.Errorf("failed to decode google userinfo: %w", err)
	}
	if gu.ID == "" || gu.Email == "" {
		return nil, errors.New("google userinfo missing required fields")
	}
	return &gu, nil
}
