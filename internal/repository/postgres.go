// Package repository содержит журнал аудита игр в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/checkout-sim/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrGameExists возвращается при повторной записи игры с тем же идентификатором.
	ErrGameExists = errors.New("game already exists")
	// ErrGameNotFound возвращается, если игра не записана в журнал.
	ErrGameNotFound = errors.New("game not found")
)

// retryDelays задаёт паузы между повторными попытками.
var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// PostgresRepository пишет журнал игр в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет fn при временных ошибках базы данных.
func withRetry(ctx context.Context, delays []time.Duration, fn func() error) error {
	var err error
	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !retryable(err) || i == len(delays) {
			break
		}

		timer := time.NewTimer(delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// SaveGame записывает начало игры.
func (r *PostgresRepository) SaveGame(ctx context.Context, gameID string, startedAt time.Time) error {
	err := withRetry(ctx, retryDelays, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO games (id, started_at) VALUES ($1, $2)`,
			gameID, startedAt,
		)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrGameExists, gameID)
		}
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

// SaveCheckout записывает завершённую продажу вместе со строками чека.
func (r *PostgresRepository) SaveCheckout(ctx context.Context, gameID string, rc model.Receipt) error {
	err := withRetry(ctx, retryDelays, func() error {
		return r.saveCheckout(ctx, gameID, rc)
	})
	if err != nil {
		return fmt.Errorf("save checkout: %w", err)
	}
	return nil
}

func (r *PostgresRepository) saveCheckout(ctx context.Context, gameID string, rc model.Receipt) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO checkouts (
			transaction_id, game_id, customer_id, customer_type, total, cost, item_profit,
			method, paid, expected_change, given_change, fake_change_credited, matched, flat_total, game_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (transaction_id) DO NOTHING`,
		rc.TransactionID, gameID, rc.CustomerID, rc.CustomerType.String(), rc.Total, rc.Cost, rc.ItemProfit,
		rc.Method.String(), rc.Paid, rc.ExpectedChange, rc.GivenChange, rc.FakeChangeCredited, rc.Matched,
		sum(rc.FlatEntries), rc.At.Milliseconds(),
	)
	if err != nil {
		return translateFK(fmt.Errorf("insert checkout: %w", err), gameID)
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	batch := &pgx.Batch{}
	for i, l := range rc.Lines {
		batch.Queue(
			`INSERT INTO checkout_lines (
				transaction_id, position, instance_id, name, product_type, brand, is_fake, displayed_price, real_cost, rescan
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			rc.TransactionID, i, l.InstanceID, l.Name, l.Type.String(), l.Brand.String(), l.IsFake,
			l.DisplayedPrice, l.RealCost, l.Rescan,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert checkout lines: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE games
		 SET transactions = transactions + 1,
		     total_sales = total_sales + $2,
		     total_profit = total_profit + $3
		 WHERE id = $1`,
		gameID, rc.Total, rc.Profit(),
	)
	if err != nil {
		return fmt.Errorf("update game totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SaveMistake записывает ошибку игрока.
func (r *PostgresRepository) SaveMistake(ctx context.Context, gameID string, m model.Mistake) error {
	err := withRetry(ctx, retryDelays, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO mistakes (game_id, kind, detail, game_time_ms) VALUES ($1, $2, $3, $4)`,
			gameID, m.Type.String(), m.Detail, m.At.Milliseconds(),
		)
		return err
	})
	if err != nil {
		return translateFK(fmt.Errorf("insert mistake: %w", err), gameID)
	}
	return nil
}

// FinishGame записывает итог игры. cause заполняется, если игра закончилась по ошибкам.
func (r *PostgresRepository) FinishGame(ctx context.Context, gameID string, finishedAt time.Time, stats model.Stats, cause *model.Mistake) error {
	var causeKind *string
	if cause != nil {
		k := cause.Type.String()
		causeKind = &k
	}

	var affected int64
	err := withRetry(ctx, retryDelays, func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE games
			 SET finished_at = $2, wallet = $3, transactions = $4, total_sales = $5, total_profit = $6, game_over_cause = $7
			 WHERE id = $1`,
			gameID, finishedAt, stats.Wallet, stats.Transactions, stats.TotalSales, stats.TotalProfit, causeKind,
		)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("finish game: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return nil
}

// translateFK превращает нарушение внешнего ключа в ErrGameNotFound.
func translateFK(err error, gameID string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return err
}

func sum(values []int64) int64 {
	var total int64
	for _, v := range values {
		total += v
	}
	return total
}
