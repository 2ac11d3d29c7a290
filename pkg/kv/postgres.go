/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/devicetrust/pkg/logger"
)

const (
	postgresTable          = "devicetrust_kv"
	postgresNotifyChannel  = "devicetrust_kv_changes"
	postgresListenRetryGap = time.Second
	postgresListenReadyMax = 5 * time.Second
)

// The trigger publishes every changed key so that writers outside this
// process are observed as well.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS devicetrust_kv
		( key TEXT PRIMARY KEY
		, value BYTEA NOT NULL
		, updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	`CREATE OR REPLACE FUNCTION devicetrust_kv_notify() RETURNS trigger AS $$
	BEGIN
		IF TG_OP = 'DELETE' THEN
			PERFORM pg_notify('devicetrust_kv_changes', OLD.key);
			RETURN OLD;
		END IF;
		PERFORM pg_notify('devicetrust_kv_changes', NEW.key);
		RETURN NEW;
	END
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS devicetrust_kv_notify ON devicetrust_kv`,
	`CREATE TRIGGER devicetrust_kv_notify
		AFTER INSERT OR UPDATE OR DELETE ON devicetrust_kv
		FOR EACH ROW EXECUTE FUNCTION devicetrust_kv_notify()`,
}

// PostgresStore is a KVStore backed by a single Postgres table. Change
// notifications are delivered through LISTEN/NOTIFY.
type PostgresStore struct {
	pool    *pgxpool.Pool
	log     logger.Logger
	watches *watchers

	listenOnce sync.Once
	readyOnce  sync.Once
	ready      chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewPostgresStore connects to connString and ensures the schema exists.
func NewPostgresStore(ctx context.Context, connString string, log logger.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to initialize pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("postgres: ping failed: %w", err)
	}

	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()

			return nil, fmt.Errorf("postgres: failed to initialize schema: %w", err)
		}
	}

	listenCtx, cancel := context.WithCancel(context.Background())

	return &PostgresStore{
		pool:    pool,
		log:     logger.OrNop(log),
		watches: newWatchers(),
		ready:   make(chan struct{}),
		ctx:     listenCtx,
		cancel:  cancel,
	}, nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte

	err := p.pool.QueryRow(ctx, `SELECT value FROM `+postgresTable+` WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return value, true, nil
}

func (p *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}

	_, err := p.pool.Exec(ctx, `INSERT INTO `+postgresTable+` (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value)
	if err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}

	return nil
}

func (p *PostgresStore) Create(ctx context.Context, key string, value []byte) (bool, error) {
	if value == nil {
		value = []byte{}
	}

	tag, err := p.pool.Exec(ctx, `INSERT INTO `+postgresTable+` (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING`, key, value)
	if err != nil {
		return false, fmt.Errorf("failed to create key %s: %w", key, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM `+postgresTable+` WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

func (p *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT key FROM `+postgresTable)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	return keys, nil
}

func (p *PostgresStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	p.listenOnce.Do(func() {
		p.wg.Add(1)

		go p.listen()
	})

	select {
	case <-p.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(postgresListenReadyMax):
		p.log.Warn().Str("key", key).Msg("postgres change listener not ready, early changes may be missed")
	}

	return p.watches.add(ctx, key)
}

// listen holds one connection in LISTEN mode and reconnects until Close.
func (p *PostgresStore) listen() {
	defer p.wg.Done()

	for {
		err := p.listenOnConn()
		if p.ctx.Err() != nil {
			return
		}

		p.log.Warn().Err(err).Msg("postgres change listener interrupted, retrying")

		select {
		case <-p.ctx.Done():
			return
		case <-time.After(postgresListenRetryGap):
		}
	}
}

func (p *PostgresStore) listenOnConn() error {
	conn, err := p.pool.Acquire(p.ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	channel := pgx.Identifier{postgresNotifyChannel}.Sanitize()
	if _, err := conn.Exec(p.ctx, "LISTEN "+channel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	p.readyOnce.Do(func() { close(p.ready) })

	for {
		notification, err := conn.Conn().WaitForNotification(p.ctx)
		if err != nil {
			return err
		}

		p.dispatch(notification.Payload)
	}
}

func (p *PostgresStore) dispatch(key string) {
	if !p.watches.has(key) {
		return
	}

	value, found, err := p.Get(p.ctx, key)
	if err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("failed to read changed key")
		return
	}

	if !found {
		value = nil
	}

	p.watches.notify(key, value)
}

func (p *PostgresStore) Close() error {
	p.cancel()
	p.wg.Wait()
	p.watches.closeAll()
	p.pool.Close()

	return nil
}

var _ KVStore = (*PostgresStore)(nil)
