package service

import (
	"context"

	"go.uber.org/zap"
)

type journalEntry struct {
	gameID string
	what   string
	write  func(ctx context.Context, j Journal) error
}

// record ставит запись в очередь журнала. При переполненной очереди запись теряется:
// журнал не должен тормозить игру.
func (s *Service) record(gameID, what string, write func(ctx context.Context, j Journal) error) {
	s.recMu.RLock()
	defer s.recMu.RUnlock()

	if s.recClosed {
		return
	}

	select {
	case s.records <- journalEntry{gameID: gameID, what: what, write: write}:
	default:
		s.logger.Warn("journal queue is full, record dropped",
			zap.String("game_id", gameID),
			zap.String("record", what),
		)
	}
}

// writeJournal пишет записи из очереди, пока очередь не закрыта.
func (s *Service) writeJournal() {
	for e := range s.records {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		if err := e.write(ctx, s.journal); err != nil {
			s.logger.Error("journal write failed",
				zap.String("game_id", e.gameID),
				zap.String("record", e.what),
				zap.Error(err),
			)
		}
		cancel()
	}
}
