package lms

import (
	"context"
	"fmt"
	"net/http"

	"github.com/snowlatte/manabi/internal/domain"
	"github.com/snowlatte/manabi/internal/log"
)

// LoginResult carries the token and profile returned by a successful login
type LoginResult struct {
	Token string
	User  domain.User
}

// Login exchanges student credentials for a bearer token.  The client adopts
// the token for all subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	body := map[string]string{
		"email":    email,
		"password": password,
	}

	// Token field name varies between backend versions
	var response struct {
		Access string `json:"access"`
		Token  string `json:"token"`
		User   struct {
			ID       int    `json:"id"`
			FullName string `json:"full_name"`
			Email    string `json:"email"`
		} `json:"user"`
	}

	if err := c.do(ctx, http.MethodPost, "/auth/student/login/", body, &response); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	token := response.Access
	if token == "" {
		token = response.Token
	}
	if token == "" {
		return nil, fmt.Errorf("login response contained no token")
	}

	c.SetToken(token)

	log.Info("Logged in", "user_id", response.User.ID)

	return &LoginResult{
		Token: token,
		User: domain.User{
			ID:       response.User.ID,
			FullName: response.User.FullName,
			Email:    response.User.Email,
		},
	}, nil
}
