package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/naveenspark/haven/internal/logger"
	"github.com/naveenspark/haven/pkg/domain"
)

// validate checks request payloads that carry validate tags.
var validate = validator.New()

// listItems decodes a list response, logging the elements it had to skip.
func listItems[T any](c *Client, op string, body []byte) ([]T, error) {
	items, skipped, err := decodeList[T](body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, e := range skipped {
		c.log.Warn("skipping list item", logger.String("op", op), logger.Error(e))
	}
	return items, nil
}

// --- Session ---

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	body, err := c.Post(ctx, "/auth/login", creds)
	if err != nil {
		return "", fmt.Errorf("client.Login: %w", err)
	}
	var out struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := decodeObject(body, &out); err != nil {
		return "", fmt.Errorf("client.Login: %w", err)
	}
	tok := firstNonEmpty(out.Token, out.AccessToken)
	if tok == "" {
		return "", fmt.Errorf("client.Login: %w", &ValidationError{Reason: "token missing"})
	}
	return tok, nil
}

// Logout revokes the current token server-side.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.Post(ctx, "/auth/logout", nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// GetProfile returns the authenticated user's profile.
func (c *Client) GetProfile(ctx context.Context) (*domain.User, error) {
	body, err := c.Get(ctx, "/user/profile")
	if err != nil {
		return nil, fmt.Errorf("client.GetProfile: %w", err)
	}
	var u domain.User
	if err := decodeObject(body, &u); err != nil {
		return nil, fmt.Errorf("client.GetProfile: %w", err)
	}
	return &u, nil
}

// --- Bookmarks ---

// ListBookmarks returns the user's bookmarks with denormalized content.
func (c *Client) ListBookmarks(ctx context.Context) ([]domain.Bookmark, error) {
	body, err := c.Get(ctx, "/content/bookmarks")
	if err != nil {
		return nil, fmt.Errorf("client.ListBookmarks: %w", err)
	}
	out, err := listItems[domain.Bookmark](c, "client.ListBookmarks", body)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToggleBookmark adds the bookmark if absent and removes it if present.
func (c *Client) ToggleBookmark(ctx context.Context, t domain.ContentType, id domain.ID) error {
	payload := struct {
		Type domain.ContentType `json:"type"`
		ID   domain.ID          `json:"id"`
	}{t, id}
	if _, err := c.Post(ctx, "/content/bookmark", payload); err != nil {
		return fmt.Errorf("client.ToggleBookmark: %w", err)
	}
	return nil
}

// --- Notifications ---

// ListNotifications returns notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	body, err := c.Get(ctx, "/notifications")
	if err != nil {
		return nil, fmt.Errorf("client.ListNotifications: %w", err)
	}
	out, err := listItems[domain.Notification](c, "client.ListNotifications", body)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadCount returns the server's unread notification count.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	body, err := c.Get(ctx, "/notifications/unread-count")
	if err != nil {
		return 0, fmt.Errorf("client.UnreadCount: %w", err)
	}
	n, err := decodeCount(body)
	if err != nil {
		return 0, fmt.Errorf("client.UnreadCount: %w", err)
	}
	return n, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id domain.ID) error {
	if _, err := c.Post(ctx, "/notifications/"+url.PathEscape(id.String())+"/read", nil); err != nil {
		return fmt.Errorf("client.MarkNotificationRead: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := c.Post(ctx, "/notifications/read-all", nil); err != nil {
		return fmt.Errorf("client.MarkAllNotificationsRead: %w", err)
	}
	return nil
}

// --- Content ---

// ListContent fetches one page of articles, videos or exercises with an optional search filter.
func (c *Client) ListContent(ctx context.Context, t domain.ContentType, search string, page int) ([]domain.Content, error) {
	params := url.Values{}
	if s := strings.TrimSpace(search); s != "" {
		params.Set("search", s)
	}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
	path := "/content/" + t.Plural()
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	body, err := c.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("client.ListContent: %w", err)
	}
	out, err := listItems[domain.Content](c, "client.ListContent", body)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Type == "" {
			out[i].Type = t
		}
	}
	return out, nil
}

// --- Mood ---

// ListMoods returns the user's mood history, newest first.
func (c *Client) ListMoods(ctx context.Context) ([]domain.MoodEntry, error) {
	body, err := c.Get(ctx, "/moods")
	if err != nil {
		return nil, fmt.Errorf("client.ListMoods: %w", err)
	}
	out, err := listItems[domain.MoodEntry](c, "client.ListMoods", body)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LogMood records a mood check-in. The entry is validated before sending.
func (c *Client) LogMood(ctx context.Context, entry domain.MoodEntry) (*domain.MoodEntry, error) {
	if err := validate.Struct(entry); err != nil {
		return nil, fmt.Errorf("client.LogMood: %w", &ValidationError{Reason: err.Error()})
	}
	body, err := c.Post(ctx, "/moods", entry)
	if err != nil {
		return nil, fmt.Errorf("client.LogMood: %w", err)
	}
	created := entry
	if len(body) > 0 {
		if err := decodeObject(body, &created); err != nil {
			return nil, fmt.Errorf("client.LogMood: %w", err)
		}
	}
	return &created, nil
}
