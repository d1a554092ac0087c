package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const helixBaseURL = "https://api.twitch.tv/helix"

// TwitchTokenSource fetches and caches a Twitch app access (client
// credentials) token.
type TwitchTokenSource struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	HTTPClient   *http.Client

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// Get returns a valid (fresh or cached) app access token.
func (ts *TwitchTokenSource) Get(ctx context.Context) (string, error) {
	ts.mu.RLock()
	if ts.token != "" && time.Until(ts.expiresAt) > 60*time.Second { // 1 min buffer
		tok := ts.token
		ts.mu.RUnlock()
		return tok, nil
	}
	ts.mu.RUnlock()
	return ts.refresh(ctx)
}

func (ts *TwitchTokenSource) refresh(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.token != "" && time.Until(ts.expiresAt) > 60*time.Second {
		return ts.token, nil
	}
	if ts.ClientID == "" || ts.ClientSecret == "" {
		return "", errors.New("missing client id/secret for twitch app token")
	}
	tokenURL := ts.TokenURL
	if tokenURL == "" {
		tokenURL = "https://id.twitch.tv/oauth2/token"
	}
	form := url.Values{}
	form.Set("client_id", ts.ClientID)
	form.Set("client_secret", ts.ClientSecret)
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	hc := ts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("twitch token request failed: %s: %s", resp.Status, string(b))
	}
	var at struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&at); err != nil {
		return "", err
	}
	if at.AccessToken == "" {
		return "", errors.New("empty access_token in twitch response")
	}
	ts.token = at.AccessToken
	ts.expiresAt = time.Now().Add(time.Duration(at.ExpiresIn) * time.Second)
	return ts.token, nil
}

// TwitchClient talks to the Helix API. Identifiers are login names.
type TwitchClient struct {
	TokenSource *TwitchTokenSource
	ClientID    string
	BaseURL     string
	HTTPClient  *http.Client
}

var _ Client = (*TwitchClient)(nil)

// NewTwitchClient builds a Helix client with an app token source.
func NewTwitchClient(clientID, clientSecret string) *TwitchClient {
	return &TwitchClient{
		TokenSource: &TwitchTokenSource{ClientID: clientID, ClientSecret: clientSecret},
		ClientID:    clientID,
	}
}

func (tc *TwitchClient) http() *http.Client {
	if tc.HTTPClient != nil {
		return tc.HTTPClient
	}
	return http.DefaultClient
}

func (tc *TwitchClient) base() string {
	if tc.BaseURL != "" {
		return tc.BaseURL
	}
	return helixBaseURL
}

func (tc *TwitchClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	tok, err := tc.TokenSource.Get(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tc.base()+path, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Client-Id", tc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := tc.http().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("helix %s failed: %s: %s", path, resp.Status, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetStreamDetails returns details for a live broadcast, or nil when the
// login is not streaming. Only a successful empty response means offline.
func (tc *TwitchClient) GetStreamDetails(ctx context.Context, identifier string) (*StreamDetails, error) {
	if identifier == "" {
		return nil, fmt.Errorf("identifier empty")
	}
	q := url.Values{}
	q.Set("user_login", identifier)
	var body struct {
		Data []struct {
			Title        string `json:"title"`
			GameName     string `json:"game_name"`
			ViewerCount  int    `json:"viewer_count"`
			ThumbnailURL string `json:"thumbnail_url"`
		} `json:"data"`
	}
	if err := tc.get(ctx, "/streams", q, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, nil
	}
	d := body.Data[0]
	thumb := strings.NewReplacer("{width}", "1280", "{height}", "720").Replace(d.ThumbnailURL)
	return &StreamDetails{
		Title:        d.Title,
		Game:         d.GameName,
		ViewerCount:  d.ViewerCount,
		ThumbnailURL: thumb,
	}, nil
}

// IsLive reports whether the login is currently streaming.
func (tc *TwitchClient) IsLive(ctx context.Context, identifier string) (bool, error) {
	details, err := tc.GetStreamDetails(ctx, identifier)
	if err != nil {
		return false, err
	}
	return details != nil, nil
}

// GetUser resolves a login name. Returns nil when the account does not exist.
func (tc *TwitchClient) GetUser(ctx context.Context, identifier string) (*User, error) {
	if identifier == "" {
		return nil, fmt.Errorf("identifier empty")
	}
	q := url.Values{}
	q.Set("login", identifier)
	var body struct {
		Data []struct {
			ID              string `json:"id"`
			Login           string `json:"login"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := tc.get(ctx, "/users", q, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, nil
	}
	u := body.Data[0]
	return &User{PlatformUserID: u.ID, Username: u.Login, AvatarURL: u.ProfileImageURL}, nil
}

// GetTeamMembers returns the roster of a Twitch team.
func (tc *TwitchClient) GetTeamMembers(ctx context.Context, teamName string) ([]User, error) {
	if teamName == "" {
		return nil, fmt.Errorf("team name empty")
	}
	q := url.Values{}
	q.Set("name", teamName)
	var body struct {
		Data []struct {
			Users []struct {
				UserID    string `json:"user_id"`
				UserLogin string `json:"user_login"`
			} `json:"users"`
		} `json:"data"`
	}
	if err := tc.get(ctx, "/teams", q, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("team not found: %s", teamName)
	}
	members := make([]User, 0, len(body.Data[0].Users))
	for _, u := range body.Data[0].Users {
		members = append(members, User{PlatformUserID: u.UserID, Username: u.UserLogin})
	}
	return members, nil
}
