package webhook

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// DeliveryStatus represents the status of a webhook delivery.
type DeliveryStatus string

const (
	StatusPending    DeliveryStatus = "pending"
	StatusDelivered  DeliveryStatus = "delivered"
	StatusFailed     DeliveryStatus = "failed"
	StatusDeadLetter DeliveryStatus = "dead_letter"
)

// SenderConfig holds retry configuration for outbound deliveries.
type SenderConfig struct {
	MaxRetries        int           `json:"maxRetries" yaml:"maxRetries"`
	InitialBackoff    time.Duration `json:"initialBackoff" yaml:"initialBackoff"`
	MaxBackoff        time.Duration `json:"maxBackoff" yaml:"maxBackoff"`
	BackoffMultiplier float64       `json:"backoffMultiplier" yaml:"backoffMultiplier"`
	JitterFraction    float64       `json:"jitterFraction" yaml:"jitterFraction"`
	Timeout           time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultSenderConfig returns a SenderConfig with sensible defaults.
func DefaultSenderConfig() SenderConfig {
	return SenderConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
		Timeout:           10 * time.Second,
	}
}

// Delivery tracks a single outbound delivery and its attempts.
type Delivery struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	Payload     []byte            `json:"payload"`
	Headers     map[string]string `json:"headers,omitempty"`
	Status      DeliveryStatus    `json:"status"`
	Attempts    int               `json:"attempts"`
	MaxRetries  int               `json:"maxRetries"`
	LastError   string            `json:"lastError,omitempty"`
	StatusCode  int               `json:"statusCode,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	LastAttempt *time.Time        `json:"lastAttempt,omitempty"`
	DeliveredAt *time.Time        `json:"deliveredAt,omitempty"`
}

// Sender posts payloads with exponential backoff and jitter. Deliveries
// that exhaust their retries land in the dead letter store.
type Sender struct {
	config SenderConfig
	client *http.Client
	store  *DeadLetterStore
}

// NewSender creates a Sender with the given config and dead letter store.
func NewSender(config SenderConfig, store *DeadLetterStore) *Sender {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}
	if config.JitterFraction < 0 {
		config.JitterFraction = 0
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &Sender{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		store:  store,
	}
}

// SetClient sets a custom HTTP client (useful for testing).
func (s *Sender) SetClient(client *http.Client) {
	s.client = client
}

// Send delivers a payload to url with retry. On exhausting retries the
// delivery is dead-lettered and the last error returned.
func (s *Sender) Send(ctx context.Context, url string, payload []byte, headers map[string]string) (*Delivery, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("generate delivery id: %w", err)
	}

	d := &Delivery{
		ID:         id,
		URL:        url,
		Payload:    payload,
		Headers:    headers,
		Status:     StatusPending,
		MaxRetries: s.config.MaxRetries,
		CreatedAt:  time.Now(),
	}

	if err := s.deliver(ctx, d); err != nil {
		d.Status = StatusDeadLetter
		d.LastError = err.Error()
		s.store.Add(d)
		return d, err
	}
	return d, nil
}

// Replay retries a dead-lettered delivery.
func (s *Sender) Replay(ctx context.Context, id string) (*Delivery, error) {
	d, ok := s.store.Remove(id)
	if !ok {
		return nil, fmt.Errorf("dead letter %q not found", id)
	}

	d.Status = StatusPending
	d.Attempts = 0
	d.LastError = ""
	d.StatusCode = 0

	if err := s.deliver(ctx, d); err != nil {
		d.Status = StatusDeadLetter
		d.LastError = err.Error()
		s.store.Add(d)
		return d, err
	}
	return d, nil
}

func (s *Sender) deliver(ctx context.Context, d *Delivery) error {
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		d.Attempts = attempt + 1
		now := time.Now()
		d.LastAttempt = &now

		if attempt > 0 {
			select {
			case <-time.After(s.backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := s.post(ctx, d)
		if err == nil {
			t := time.Now()
			d.Status = StatusDelivered
			d.DeliveredAt = &t
			return nil
		}
		lastErr = err
	}

	d.Status = StatusFailed
	return lastErr
}

func (s *Sender) post(ctx context.Context, d *Delivery) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(d.Payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	d.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("webhook returned status %d", resp.StatusCode)
}

func (s *Sender) backoff(attempt int) time.Duration {
	base := float64(s.config.InitialBackoff) * math.Pow(s.config.BackoffMultiplier, float64(attempt-1))
	if base > float64(s.config.MaxBackoff) {
		base = float64(s.config.MaxBackoff)
	}
	if s.config.JitterFraction > 0 {
		jitter := base * s.config.JitterFraction * (cryptoFloat64()*2 - 1)
		base += jitter
		if base < 0 {
			base = 0
		}
	}
	return time.Duration(base)
}

// cryptoFloat64 returns a cryptographically random float64 in [0.0, 1.0).
func cryptoFloat64() float64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return float64(binary.BigEndian.Uint64(b[:])>>(64-53)) / float64(1<<53)
}

func generateID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "wh-" + hex.EncodeToString(b), nil
}
