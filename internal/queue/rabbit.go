package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/streamkit/stream-announcer-go/internal/config"
	"github.com/streamkit/stream-announcer-go/pkg/logger"
)

const publishConfirmTimeout = 5 * time.Second

// OfflinePublisher publishes offline jobs to a durable topic exchange with
// publisher confirms. A job that is not confirmed is an error; the poll cycle
// will re-enqueue it next round because the announcement row still exists.
type OfflinePublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	mu      sync.RWMutex
}

// NewOfflinePublisher connects and declares the exchange/queue topology.
func NewOfflinePublisher(cfg *config.RabbitMQConfig) (*OfflinePublisher, error) {
	p := &OfflinePublisher{
		config: cfg,
	}

	if err := p.connect(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *OfflinePublisher) connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, ch, err := dialAndDeclare(p.config)
	if err != nil {
		return err
	}

	// Enable publisher confirms
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	p.conn = conn
	p.channel = ch

	logger.Log.Info("Connected to RabbitMQ",
		zap.String("exchange", p.config.Exchange),
		zap.String("queue", p.config.Queue),
	)

	return nil
}

// dialAndDeclare opens a connection and channel and asserts the offline queue
// topology. Both publisher and consumer declare it so either side can start
// first.
func dialAndDeclare(cfg *config.RabbitMQConfig) (*amqp.Connection, *amqp.Channel, error) {
	connURL := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		cfg.User, cfg.Password, cfg.Host, cfg.Port)

	conn, err := amqp.Dial(connURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		amqp.Table{
			"x-message-ttl": 86400000, // 24 hours
		},
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(
		cfg.Queue,      // queue name
		cfg.RoutingKey, // routing key
		cfg.Exchange,   // exchange
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return conn, ch, nil
}

// Publish sends one offline job and waits for the broker confirm. The
// confirmation is tracked per publish via a deferred confirmation rather
// than a NotifyPublish listener: the library fans every confirm out to every
// registered listener with blocking sends, so a fresh listener per call
// would fill up abandoned channels and wedge the confirm dispatcher.
func (p *OfflinePublisher) Publish(ctx context.Context, job *OfflineJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.channel == nil {
		return fmt.Errorf("channel is not initialized")
	}

	body, err := job.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal offline job: %w", err)
	}

	confirmation, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		p.config.Exchange,   // exchange
		p.config.RoutingKey, // routing key
		true,                // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	select {
	case <-confirmation.Done():
		if !confirmation.Acked() {
			return fmt.Errorf("message was not acknowledged by broker")
		}
	case <-time.After(publishConfirmTimeout):
		return fmt.Errorf("timeout waiting for publish confirmation")
	case <-ctx.Done():
		return ctx.Err()
	}

	logger.Log.Debug("Published offline job",
		zap.String("guildId", job.GuildID),
		zap.Int64("streamerId", job.StreamerID),
		zap.String("channelId", job.ChannelID),
	)

	return nil
}

// Close closes the channel and connection.
func (p *OfflinePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %v", errs)
	}

	logger.Log.Info("RabbitMQ publisher closed")
	return nil
}

// IsHealthy reports whether the connection is usable.
func (p *OfflinePublisher) IsHealthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil
}

// OfflineHandler processes one offline job. The returned error is logged but
// the delivery is acked either way: the job carries a snapshot, and if the
// underlying announcement row survived, the next poll cycle re-enqueues it.
type OfflineHandler func(ctx context.Context, job *OfflineJob) error

// OfflineConsumer pulls offline jobs from the queue and fans them out to a
// bounded pool of workers with manual acks.
type OfflineConsumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	handler OfflineHandler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOfflineConsumer connects and declares the topology. Call Start to begin
// consuming.
func NewOfflineConsumer(cfg *config.RabbitMQConfig, handler OfflineHandler) (*OfflineConsumer, error) {
	conn, ch, err := dialAndDeclare(cfg)
	if err != nil {
		return nil, err
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 10
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &OfflineConsumer{
		conn:    conn,
		channel: ch,
		config:  cfg,
		handler: handler,
	}, nil
}

// Start begins consuming with the given number of worker goroutines.
func (c *OfflineConsumer) Start(workers int) error {
	if workers <= 0 {
		workers = 1
	}

	deliveries, err := c.channel.Consume(
		c.config.Queue, // queue
		"",             // consumer tag
		false,          // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, deliveries)
	}

	logger.Log.Info("Offline consumer started",
		zap.String("queue", c.config.Queue),
		zap.Int("workers", workers),
	)

	return nil
}

func (c *OfflineConsumer) worker(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			c.process(ctx, d)
		}
	}
}

func (c *OfflineConsumer) process(ctx context.Context, d amqp.Delivery) {
	job, err := UnmarshalOfflineJob(d.Body)
	if err != nil {
		// Undecodable payload: requeueing would loop forever
		logger.Log.Error("Rejecting undecodable offline job", zap.Error(err))
		_ = d.Reject(false)
		return
	}

	if err := c.handler(ctx, job); err != nil {
		logger.Log.Error("Offline job failed",
			zap.String("guildId", job.GuildID),
			zap.Int64("streamerId", job.StreamerID),
			zap.Error(err),
		)
	}

	if err := d.Ack(false); err != nil {
		logger.Log.Error("Failed to ack offline job", zap.Error(err))
	}
}

// Stop cancels the workers and closes the connection.
func (c *OfflineConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.wg.Wait()
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing consumer: %v", errs)
	}

	logger.Log.Info("Offline consumer stopped")
	return nil
}
