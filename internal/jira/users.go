package jira

import (
	"context"
	"net/url"

	"go.uber.org/zap"
)

// UserByEmail returns the account id of the first user matching email, or ""
// when none is found or the lookup fails. Hits are cached for the life of the
// client.
func (c *Client) UserByEmail(ctx context.Context, email string) string {
	if email == "" {
		return ""
	}
	c.mu.Lock()
	id, ok := c.users[email]
	c.mu.Unlock()
	if ok {
		return id
	}

	var users []User
	if err := c.do(ctx, "GET", "/user/search?query="+url.QueryEscape(email), nil, &users); err != nil {
		c.log.Warn("user lookup failed", zap.String("email", email), zap.Error(err))
		return ""
	}
	if len(users) == 0 || users[0].AccountID == "" {
		c.log.Warn("user not found", zap.String("email", email))
		return ""
	}

	c.mu.Lock()
	c.users[email] = users[0].AccountID
	c.mu.Unlock()
	return users[0].AccountID
}
