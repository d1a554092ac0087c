// Package platform defines the capability interface a streaming platform
// exposes to the rest of the system, and a typed registry of implementations.
package platform

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Platform identifies a supported streaming platform.
type Platform string

const (
	Twitch Platform = "twitch"
	Kick   Platform = "kick"
)

// ErrNotSupported is returned for capabilities a platform does not offer
// (e.g. team rosters on Kick).
var ErrNotSupported = errors.New("operation not supported on this platform")

// StreamDetails describes a live broadcast.
type StreamDetails struct {
	Title        string
	Game         string
	ViewerCount  int
	ThumbnailURL string
}

// User is a platform account as the platform reports it.
type User struct {
	PlatformUserID string
	Username       string
	AvatarURL      string
}

// Client is the capability interface every platform adapter implements.
// Calls are fallible remote calls; callers treat errors as "unknown", never
// as "offline".
type Client interface {
	// IsLive reports whether the identified account is currently broadcasting.
	IsLive(ctx context.Context, identifier string) (bool, error)

	// GetStreamDetails returns details for the current broadcast, or nil when
	// the account is confirmed offline.
	GetStreamDetails(ctx context.Context, identifier string) (*StreamDetails, error)

	// GetUser resolves an account by username. Returns nil when no such
	// account exists.
	GetUser(ctx context.Context, identifier string) (*User, error)

	// GetTeamMembers returns the current roster of a named team.
	GetTeamMembers(ctx context.Context, teamName string) ([]User, error)
}

// Registry maps platforms to their client implementations. Adding a platform
// is a registration, not a string-keyed lookup into ambient state.
type Registry struct {
	mu      sync.RWMutex
	clients map[Platform]Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[Platform]Client),
	}
}

// Register adds a client for a platform, replacing any previous registration.
func (r *Registry) Register(p Platform, c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[p] = c
}

// Get retrieves the client for a platform.
func (r *Registry) Get(p Platform) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[p]
	if !ok {
		return nil, fmt.Errorf("unknown platform: %s", p)
	}
	return c, nil
}

// Platforms returns the registered platforms.
func (r *Registry) Platforms() []Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Platform, 0, len(r.clients))
	for p := range r.clients {
		out = append(out, p)
	}
	return out
}
