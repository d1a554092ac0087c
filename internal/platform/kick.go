package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// KickClient talks to the public Kick channel API. Identifiers are channel
// slugs. Kick has no team concept, so GetTeamMembers is not supported.
type KickClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ Client = (*KickClient)(nil)

// NewKickClient builds a client against the given API base URL.
func NewKickClient(baseURL string) *KickClient {
	return &KickClient{BaseURL: baseURL}
}

func (kc *KickClient) http() *http.Client {
	if kc.HTTPClient != nil {
		return kc.HTTPClient
	}
	return http.DefaultClient
}

type kickChannel struct {
	ID   int64 `json:"id"`
	User struct {
		Username   string `json:"username"`
		ProfilePic string `json:"profile_pic"`
	} `json:"user"`
	Livestream *struct {
		SessionTitle string `json:"session_title"`
		ViewerCount  int    `json:"viewer_count"`
		Categories   []struct {
			Name string `json:"name"`
		} `json:"categories"`
		Thumbnail struct {
			URL string `json:"url"`
		} `json:"thumbnail"`
	} `json:"livestream"`
}

// getChannel fetches a channel by slug. Returns nil on 404.
func (kc *KickClient) getChannel(ctx context.Context, slug string) (*kickChannel, error) {
	if slug == "" {
		return nil, fmt.Errorf("identifier empty")
	}
	endpoint := fmt.Sprintf("%s/channels/%s", kc.BaseURL, url.PathEscape(slug))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := kc.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("kick channel request failed: %s: %s", resp.Status, string(b))
	}
	var ch kickChannel
	if err := json.NewDecoder(resp.Body).Decode(&ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetStreamDetails returns details for the current broadcast, or nil when the
// channel is offline or does not exist.
func (kc *KickClient) GetStreamDetails(ctx context.Context, identifier string) (*StreamDetails, error) {
	ch, err := kc.getChannel(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if ch == nil || ch.Livestream == nil {
		return nil, nil
	}
	game := ""
	if len(ch.Livestream.Categories) > 0 {
		game = ch.Livestream.Categories[0].Name
	}
	return &StreamDetails{
		Title:        ch.Livestream.SessionTitle,
		Game:         game,
		ViewerCount:  ch.Livestream.ViewerCount,
		ThumbnailURL: ch.Livestream.Thumbnail.URL,
	}, nil
}

// IsLive reports whether the channel is currently broadcasting.
func (kc *KickClient) IsLive(ctx context.Context, identifier string) (bool, error) {
	details, err := kc.GetStreamDetails(ctx, identifier)
	if err != nil {
		return false, err
	}
	return details != nil, nil
}

// GetUser resolves a channel slug to its account. Returns nil when no such
// channel exists.
func (kc *KickClient) GetUser(ctx context.Context, identifier string) (*User, error) {
	ch, err := kc.getChannel(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, nil
	}
	return &User{
		PlatformUserID: fmt.Sprintf("%d", ch.ID),
		Username:       ch.User.Username,
		AvatarURL:      ch.User.ProfilePic,
	}, nil
}

// GetTeamMembers is not supported on Kick.
func (kc *KickClient) GetTeamMembers(ctx context.Context, teamName string) ([]User, error) {
	return nil, ErrNotSupported
}
