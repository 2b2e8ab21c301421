// Package mistake ведёт журнал ошибок игрока и определяет конец игры.
package mistake

import (
	"errors"
	"time"

	"github.com/mmeshcher/checkout-sim/internal/model"
)

// DefaultMaxMistakes - порог ошибок по умолчанию.
const DefaultMaxMistakes = 3

// ErrGameOver возвращается при попытке добавить ошибку после окончания игры.
var ErrGameOver = errors.New("game is over")

// Tracker - журнал ошибок только на добавление.
type Tracker struct {
	max   int
	log   []model.Mistake
	cause *model.Mistake
}

// NewTracker создаёт журнал с порогом max. Неположительный порог заменяется значением по умолчанию.
func NewTracker(max int) *Tracker {
	if max <= 0 {
		max = DefaultMaxMistakes
	}
	return &Tracker{max: max}
}

// Add записывает ошибку. Когда количество ошибок достигает порога, игра заканчивается
// и дальнейшие записи отклоняются с ErrGameOver.
func (t *Tracker) Add(kind model.MistakeType, detail string, at time.Duration) (model.Mistake, error) {
	if t.cause != nil {
		return model.Mistake{}, ErrGameOver
	}

	m := model.Mistake{Type: kind, Detail: detail, At: at}
	t.log = append(t.log, m)

	if len(t.log) >= t.max {
		cause := m
		t.cause = &cause
	}
	return m, nil
}

// Count возвращает количество ошибок.
func (t *Tracker) Count() int {
	return len(t.log)
}

// Max возвращает порог ошибок.
func (t *Tracker) Max() int {
	return t.max
}

// GameOver сообщает, закончилась ли игра.
func (t *Tracker) GameOver() bool {
	return t.cause != nil
}

// Cause возвращает ошибку, на которой закончилась игра.
func (t *Tracker) Cause() (model.Mistake, bool) {
	if t.cause == nil {
		return model.Mistake{}, false
	}
	return *t.cause, true
}

// Log возвращает копию журнала.
func (t *Tracker) Log() []model.Mistake {
	out := make([]model.Mistake, len(t.log))
	copy(out, t.log)
	return out
}
