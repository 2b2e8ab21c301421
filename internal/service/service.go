// Package service управляет запущенными играми: у каждой игры своя горутина,
// которая по очереди выполняет намерения игрока и тики таймера.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mmeshcher/checkout-sim/internal/catalog"
	"github.com/mmeshcher/checkout-sim/internal/customer"
	"github.com/mmeshcher/checkout-sim/internal/game"
	"github.com/mmeshcher/checkout-sim/internal/model"
	"github.com/mmeshcher/checkout-sim/internal/pricing"
)

var (
	// ErrGameNotFound возвращается для неизвестной или удалённой игры.
	ErrGameNotFound = errors.New("game not found")
	// ErrServiceClosed возвращается после остановки сервиса.
	ErrServiceClosed = errors.New("service closed")
)

// Journal описывает журнал аудита игр. Журнал только пишет: в игру из него ничего не читается.
type Journal interface {
	Close() error
	SaveGame(ctx context.Context, gameID string, startedAt time.Time) error
	SaveCheckout(ctx context.Context, gameID string, r model.Receipt) error
	SaveMistake(ctx context.Context, gameID string, m model.Mistake) error
	FinishGame(ctx context.Context, gameID string, finishedAt time.Time, stats model.Stats, cause *model.Mistake) error
}

// Config содержит параметры сервиса.
type Config struct {
	Settings     game.Settings
	TickInterval time.Duration
	IdleTTL      time.Duration
}

const (
	defaultTickInterval = 100 * time.Millisecond
	defaultIdleTTL      = 30 * time.Minute
	finishedGameTTL     = time.Minute
	janitorSchedule     = "@every 1m"
	journalBuffer       = 256
	journalTimeout      = 10 * time.Second
)

// Service содержит реестр запущенных игр.
type Service struct {
	catalog *catalog.Catalog
	pricing *pricing.Engine
	cfg     Config
	journal Journal
	logger  *zap.Logger
	newRand func() customer.Rand
	janitor string

	mu     sync.RWMutex
	games  map[string]*runner
	closed bool

	recMu     sync.RWMutex
	recClosed bool
	records   chan journalEntry
}

// NewService создаёт сервис. Если journal равен nil, журнал не ведётся.
func NewService(cat *catalog.Catalog, engine *pricing.Engine, cfg Config, journal Journal, logger *zap.Logger) *Service {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if journal == nil {
		journal = nopJournal{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		catalog: cat,
		pricing: engine,
		cfg:     cfg,
		journal: journal,
		logger:  logger,
		newRand: func() customer.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		janitor: janitorSchedule,
		games:   make(map[string]*runner),
		records: make(chan journalEntry, journalBuffer),
	}
}

// Close закрывает журнал.
func (s *Service) Close() error {
	if s.journal != nil {
		return s.journal.Close()
	}
	return nil
}

// Run запускает запись журнала и уборщика игр и ждёт отмены контекста.
// После возврата все игры остановлены, а новые не создаются.
func (s *Service) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.janitor, func() { s.evictIdle(time.Now()) }); err != nil {
		return fmt.Errorf("schedule janitor: %w", err)
	}

	journalDone := make(chan struct{})
	go func() {
		defer close(journalDone)
		s.writeJournal()
	}()
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()

	s.mu.Lock()
	s.closed = true
	runners := s.games
	s.games = make(map[string]*runner)
	s.mu.Unlock()

	for _, r := range runners {
		r.stop()
		s.finish(r)
	}

	s.recMu.Lock()
	s.recClosed = true
	close(s.records)
	s.recMu.Unlock()
	<-journalDone
	return nil
}

// CreateGame запускает новую игру и возвращает её идентификатор.
func (s *Service) CreateGame(ctx context.Context) (string, error) {
	id := uuid.NewString()
	g := game.New(id, s.catalog, s.pricing, s.cfg.Settings, s.newRand())
	r := newRunner(s, g)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrServiceClosed
	}
	s.games[id] = r
	go r.loop(s.cfg.TickInterval)
	s.mu.Unlock()

	startedAt := time.Now()
	s.record(id, "save game", func(ctx context.Context, j Journal) error {
		return j.SaveGame(ctx, id, startedAt)
	})
	s.logger.Info("game created", zap.String("game_id", id))
	return id, nil
}

func (s *Service) lookup(id string) (*runner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return r, nil
}

func (s *Service) intent(ctx context.Context, id string, fn func(g *game.Game) game.Outcome) (game.Outcome, error) {
	r, err := s.lookup(id)
	if err != nil {
		return game.Outcome{}, err
	}

	var out game.Outcome
	if err := r.do(ctx, func(g *game.Game) { out = fn(g) }); err != nil {
		return game.Outcome{}, err
	}
	return out, nil
}

// Snapshot возвращает состояние игры.
func (s *Service) Snapshot(ctx context.Context, id string) (game.Snapshot, error) {
	r, err := s.lookup(id)
	if err != nil {
		return game.Snapshot{}, err
	}

	var snap game.Snapshot
	err = r.do(ctx, func(g *game.Game) { snap = g.Snapshot() })
	return snap, err
}

// Events забирает накопленные события игры.
func (s *Service) Events(ctx context.Context, id string) ([]game.Event, error) {
	r, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	var events []game.Event
	err = r.do(ctx, func(g *game.Game) { events = g.DrainEvents() })
	return events, err
}

// Receipts возвращает чеки игры.
func (s *Service) Receipts(ctx context.Context, id string) ([]model.Receipt, error) {
	r, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	var receipts []model.Receipt
	err = r.do(ctx, func(g *game.Game) { receipts = g.Receipts() })
	return receipts, err
}

// Mistakes возвращает журнал ошибок игры.
func (s *Service) Mistakes(ctx context.Context, id string) ([]model.Mistake, error) {
	r, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	var mistakes []model.Mistake
	err = r.do(ctx, func(g *game.Game) { mistakes = g.Mistakes() })
	return mistakes, err
}

// Scan пробивает единицу товара.
func (s *Service) Scan(ctx context.Context, id, instanceID string) (game.Outcome, error) {
	return s.intent(ctx, id, func(g *game.Game) game.Outcome {
		return g.ScanProduct(instanceID)
	})
}

// ScanFlat пробивает наклейку с фиксированной суммой.
func (s *Service) ScanFlat(ctx context.Context, id string, value int64) (game.Outcome, error) {
	return s.intent(ctx, id, func(g *game.Game) game.Outcome {
		return g.ScanFlatBarcode(value)
	})
}

// SwapBarcode переклеивает ценник.
func (s *Service) SwapBarcode(ctx context.Context, id, instanceID string, label model.BarcodeLabel) (game.Outcome, error) {
	return s.intent(ctx, id, func(g *game.Game) game.Outcome {
		return g.SwapBarcode(instanceID, label)
	})
}

// SwapBrand взводит подмену марки.
func (s *Service) SwapBrand(ctx context.Context, id, instanceID string, target model.BrandGrade) (game.Outcome, error) {
	return s.intent(ctx, id, func(g *game.Game) game.Outcome {
		return g.SwapBrand(instanceID, target)
	})
}

// CancelBrandSwap отменяет взведённую подмену марки.
func (s *Service) CancelBrandSwap(ctx context.Context, id string) (game.Outcome, error) {
	return s.intent(ctx, id, (*game.Game).CancelBrandSwap)
}

// Deposit кладёт деньги в лоток сдачи.
func (s *Service) Deposit(ctx context.Context, id string, amount int64, fake bool) (game.Outcome, error) {
	return s.intent(ctx, id, func(g *game.Game) game.Outcome {
		return g.DepositChangeMoney(amount, fake)
	})
}

// Withdraw забирает деньги из лотка сдачи.
func (s *Service) Withdraw(ctx context.Context, id string, amount int64, fake bool) (game.Outcome, error) {
	return s.intent(ctx, id, func(g *game.Game) game.Outcome {
		return g.WithdrawChangeMoney(amount, fake)
	})
}

// Checkout продвигает оплату.
func (s *Service) Checkout(ctx context.Context, id string) (game.Outcome, error) {
	return s.intent(ctx, id, (*game.Game).AttemptCheckout)
}

// ToggleFraudMode переключает режим махинаций.
func (s *Service) ToggleFraudMode(ctx context.Context, id string) (game.Outcome, error) {
	return s.intent(ctx, id, (*game.Game).ToggleFraudMode)
}

// evictIdle останавливает игры, к которым давно не обращались.
func (s *Service) evictIdle(now time.Time) {
	var evicted []*runner

	s.mu.Lock()
	for id, r := range s.games {
		idle := now.Sub(r.lastSeen())
		if idle > s.cfg.IdleTTL || (r.over.Load() && idle > finishedGameTTL) {
			delete(s.games, id)
			evicted = append(evicted, r)
		}
	}
	s.mu.Unlock()

	for _, r := range evicted {
		r.stop()
		s.finish(r)
		s.logger.Info("game evicted", zap.String("game_id", r.id))
	}
}

// finish записывает итог игры, если он ещё не записан. Вызывается после остановки горутины игры.
func (s *Service) finish(r *runner) {
	if r.finished {
		return
	}
	r.finished = true

	var cause *model.Mistake
	if c, ok := r.game.Cause(); ok {
		cause = &c
	}
	s.recordFinish(r.id, r.game.Stats(), cause)
}

func (s *Service) recordFinish(id string, stats model.Stats, cause *model.Mistake) {
	finishedAt := time.Now()
	s.record(id, "finish game", func(ctx context.Context, j Journal) error {
		return j.FinishGame(ctx, id, finishedAt, stats, cause)
	})
}
