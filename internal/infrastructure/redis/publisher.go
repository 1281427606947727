// Package redis publica los eventos del ledger en un canal Pub/Sub para otros servicios.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

var _ inventory.EventPublisher = (*Publisher)(nil)

// Publisher PUBLISH de cada evento, serializado como dto.MovementEventMessage.
type Publisher struct {
	client  *goredis.Client
	channel string
	log     zerolog.Logger
}

// NewPublisher conecta y verifica con PING.
func NewPublisher(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar redis: %w", err)
	}

	log.Info().Str("addr", cfg.Addr).Str("channel", cfg.Channel).Msg("redis conectado")
	return &Publisher{client: client, channel: cfg.Channel, log: log}, nil
}

// Publish envía el evento al canal configurado.
func (p *Publisher) Publish(ctx context.Context, event inventory.MovementEvent) error {
	payload, err := json.Marshal(dto.ToMovementEventMessage(event))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	p.log.Debug().Str("event", event.Type).Int64("receivers", receivers).Msg("evento publicado")
	return nil
}

// Close cierra la conexión.
func (p *Publisher) Close() error {
	return p.client.Close()
}
