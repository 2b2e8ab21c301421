package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/checkout-sim/internal/game"
	"github.com/mmeshcher/checkout-sim/internal/model"
)

// runner владеет одной игрой. Game трогает только горутина loop.
type runner struct {
	id   string
	svc  *Service
	game *game.Game

	cmds   chan func(*game.Game)
	quit   chan struct{}
	exited chan struct{}
	once   sync.Once

	seen atomic.Int64
	over atomic.Bool

	// Поля ниже принадлежат горутине loop, а после её выхода - вызывающему stop.
	receipts int
	mistakes int
	finished bool
}

func newRunner(s *Service, g *game.Game) *runner {
	r := &runner{
		id:     g.ID,
		svc:    s,
		game:   g,
		cmds:   make(chan func(*game.Game)),
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	r.touch()
	return r
}

func (r *runner) touch() {
	r.seen.Store(time.Now().UnixNano())
}

func (r *runner) lastSeen() time.Time {
	return time.Unix(0, r.seen.Load())
}

func (r *runner) loop(interval time.Duration) {
	defer close(r.exited)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.cmds:
			cmd(r.game)
			r.flush()
		case now := <-ticker.C:
			r.game.Tick(now.Sub(last))
			last = now
			r.flush()
		}
	}
}

// do выполняет fn в горутине игры и ждёт завершения.
func (r *runner) do(ctx context.Context, fn func(g *game.Game)) error {
	r.touch()

	done := make(chan struct{})
	cmd := func(g *game.Game) {
		fn(g)
		close(done)
	}

	select {
	case r.cmds <- cmd:
	case <-r.quit:
		return ErrGameNotFound
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-r.exited:
		return ErrGameNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop останавливает горутину игры и ждёт её выхода.
func (r *runner) stop() {
	r.once.Do(func() { close(r.quit) })
	<-r.exited
}

// flush отправляет в журнал новые чеки и ошибки, а при конце игры - итог.
func (r *runner) flush() {
	s := r.svc

	if receipts := r.game.Receipts(); len(receipts) > r.receipts {
		for _, rc := range receipts[r.receipts:] {
			s.record(r.id, "save checkout", func(ctx context.Context, j Journal) error {
				return j.SaveCheckout(ctx, r.id, rc)
			})
		}
		r.receipts = len(receipts)
	}

	if mistakes := r.game.Mistakes(); len(mistakes) > r.mistakes {
		for _, m := range mistakes[r.mistakes:] {
			s.record(r.id, "save mistake", func(ctx context.Context, j Journal) error {
				return j.SaveMistake(ctx, r.id, m)
			})
		}
		r.mistakes = len(mistakes)
	}

	if r.finished || !r.game.Over() {
		return
	}
	r.finished = true
	r.over.Store(true)

	cause, _ := r.game.Cause()
	s.logger.Info("game over",
		zap.String("game_id", r.id),
		zap.Stringer("cause", cause.Type),
		zap.Int64("wallet", r.game.Wallet()),
	)
	s.recordFinish(r.id, r.game.Stats(), &cause)
}

var _ Journal = nopJournal{}

// nopJournal используется, когда база данных не настроена.
type nopJournal struct{}

func (nopJournal) Close() error { return nil }

func (nopJournal) SaveGame(context.Context, string, time.Time) error { return nil }

func (nopJournal) SaveCheckout(context.Context, string, model.Receipt) error { return nil }

func (nopJournal) SaveMistake(context.Context, string, model.Mistake) error { return nil }

func (nopJournal) FinishGame(context.Context, string, time.Time, model.Stats, *model.Mistake) error {
	return nil
}
