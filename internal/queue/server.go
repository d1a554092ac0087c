package queue

import (
	"context"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
)

// Handlers bundles the system task implementations. Each runs a full cycle of
// its job and returns an error only for infrastructure failures; per-item
// problems are handled and logged inside the cycle.
type Handlers struct {
	CheckStreams       func(ctx context.Context) error
	SyncTeams          func(ctx context.Context) error
	SyncUsers          func(ctx context.Context) error
	CollectServerStats func(ctx context.Context) error
}

// Server wraps an asynq server processing the system queue with a single
// worker. Serialization is the point: poll cycles must not overlap each other
// or the sync jobs they share tables with.
type Server struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
}

// NewServer creates the system task processing server.
func NewServer(redisURL string, handlers Handlers) (*Server, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				QueueSystem: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Server] Task failed: type=%s, error=%v", task.Type(), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeCheckStreams, adapt(handlers.CheckStreams))
	mux.HandleFunc(TypeSyncTeams, adapt(handlers.SyncTeams))
	mux.HandleFunc(TypeSyncUsers, adapt(handlers.SyncUsers))
	mux.HandleFunc(TypeCollectServerStats, adapt(handlers.CollectServerStats))

	return &Server{
		asynqServer: srv,
		mux:         mux,
	}, nil
}

func adapt(fn func(ctx context.Context) error) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		if fn == nil {
			return fmt.Errorf("no handler registered for %s", task.Type())
		}
		return fn(ctx)
	}
}

// Start starts the server.
func (s *Server) Start() error {
	log.Println("[Server] Starting system task server...")
	return s.asynqServer.Start(s.mux)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	log.Println("[Server] Shutting down system task server...")
	s.asynqServer.Shutdown()
}
