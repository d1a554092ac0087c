package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testTwitchClient(t *testing.T, handler http.HandlerFunc) *TwitchClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ts := &TwitchTokenSource{ClientID: "test-client-id", ClientSecret: "test-secret"}
	ts.token = "test-token"
	ts.expiresAt = time.Now().Add(time.Hour)

	return &TwitchClient{
		TokenSource: ts,
		ClientID:    "test-client-id",
		BaseURL:     server.URL,
	}
}

func TestTwitchClient_GetStreamDetails(t *testing.T) {
	tests := []struct {
		name        string
		login       string
		response    interface{}
		statusCode  int
		wantLive    bool
		wantErr     bool
		errContains string
	}{
		{
			name:  "live stream",
			login: "streamer1",
			response: map[string]interface{}{
				"data": []map[string]interface{}{
					{
						"title":         "playing games",
						"game_name":     "Tetris",
						"viewer_count":  42,
						"thumbnail_url": "https://example.com/{width}x{height}.jpg",
					},
				},
			},
			statusCode: http.StatusOK,
			wantLive:   true,
		},
		{
			name:       "offline stream",
			login:      "streamer2",
			response:   map[string]interface{}{"data": []map[string]interface{}{}},
			statusCode: http.StatusOK,
			wantLive:   false,
		},
		{
			name:        "empty login",
			login:       "",
			wantErr:     true,
			errContains: "identifier empty",
		},
		{
			name:        "server error is an error, not offline",
			login:       "streamer3",
			statusCode:  http.StatusInternalServerError,
			wantErr:     true,
			errContains: "helix /streams failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := testTwitchClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Client-Id") != "test-client-id" {
					t.Errorf("missing or wrong Client-Id header")
				}
				if r.Header.Get("Authorization") != "Bearer test-token" {
					t.Errorf("missing or wrong Authorization header")
				}
				if tt.login != "" && r.URL.Query().Get("user_login") != tt.login {
					t.Errorf("user_login = %s, want %s", r.URL.Query().Get("user_login"), tt.login)
				}
				w.WriteHeader(tt.statusCode)
				if tt.response != nil {
					json.NewEncoder(w).Encode(tt.response)
				}
			})

			details, err := tc.GetStreamDetails(context.Background(), tt.login)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (details != nil) != tt.wantLive {
				t.Errorf("details != nil = %v, want %v", details != nil, tt.wantLive)
			}
			if details != nil {
				if details.Game != "Tetris" {
					t.Errorf("Game = %s, want Tetris", details.Game)
				}
				if details.ViewerCount != 42 {
					t.Errorf("ViewerCount = %d, want 42", details.ViewerCount)
				}
				if strings.Contains(details.ThumbnailURL, "{width}") {
					t.Errorf("ThumbnailURL template not expanded: %s", details.ThumbnailURL)
				}
			}
		})
	}
}

func TestTwitchClient_GetUser(t *testing.T) {
	tc := testTwitchClient(t, func(w http.ResponseWriter, r *http.Request) {
		login := r.URL.Query().Get("login")
		if login == "knownuser" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]string{
					{"id": "12345", "login": "knownuser", "profile_image_url": "https://example.com/a.png"},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []map[string]string{}})
	})

	user, err := tc.GetUser(context.Background(), "knownuser")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.PlatformUserID != "12345" {
		t.Errorf("user = %+v, want id 12345", user)
	}

	user, err = tc.GetUser(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil for unknown login", user)
	}
}

func TestTwitchClient_GetTeamMembers(t *testing.T) {
	tc := testTwitchClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "theteam" {
			json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"users": []map[string]string{
						{"user_id": "1", "user_login": "alpha"},
						{"user_id": "2", "user_login": "beta"},
					},
				},
			},
		})
	})

	members, err := tc.GetTeamMembers(context.Background(), "theteam")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("len(members) = %d, want 2", len(members))
	}
	if members[0].Username != "alpha" || members[1].Username != "beta" {
		t.Errorf("members = %+v", members)
	}

	if _, err := tc.GetTeamMembers(context.Background(), "nosuchteam"); err == nil {
		t.Error("expected error for missing team")
	}
}
