package game

import (
	"time"

	"github.com/mmeshcher/checkout-sim/internal/model"
)

// CustomerView - состояние покупателя для отображения.
type CustomerView struct {
	ID                string              `json:"id"`
	Type              model.CustomerType  `json:"type"`
	State             model.CustomerState `json:"state"`
	OnPhone           bool                `json:"on_phone"`
	Remaining         time.Duration       `json:"remaining"`
	RemainingFraction float64             `json:"remaining_fraction"`
	Wanted            []model.WantedItem  `json:"wanted,omitempty"`
}

// TrayView - содержимое лотка сдачи.
type TrayView struct {
	Real int64 `json:"real"`
	Fake int64 `json:"fake"`
}

// Snapshot - полное состояние игры для отображения.
type Snapshot struct {
	ID               string                  `json:"id"`
	Clock            time.Duration           `json:"clock"`
	Phase            Phase                   `json:"phase"`
	Total            int64                   `json:"total"`
	PaymentMethod    model.PaymentMethod     `json:"payment_method"`
	Paid             int64                   `json:"paid,omitempty"`
	ExpectedChange   int64                   `json:"expected_change,omitempty"`
	Tray             TrayView                `json:"tray"`
	Mistakes         int                     `json:"mistakes"`
	MaxMistakes      int                     `json:"max_mistakes"`
	GameOver         bool                    `json:"game_over"`
	GameOverCause    *model.Mistake          `json:"game_over_cause,omitempty"`
	Stats            model.Stats             `json:"stats"`
	FraudMode        bool                    `json:"fraud_mode"`
	CCTVWatching     bool                    `json:"cctv_watching"`
	BrandSwapPending bool                    `json:"brand_swap_pending"`
	Customer         *CustomerView           `json:"customer,omitempty"`
	Shelf            []model.ProductInstance `json:"shelf"`
	Labels           []model.BarcodeLabel    `json:"labels"`
}

// Snapshot возвращает текущее состояние игры.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		ID:               g.ID,
		Clock:            g.clock,
		Phase:            g.phase,
		PaymentMethod:    g.method,
		Paid:             g.paid,
		Tray:             TrayView{Real: g.tray.Real(), Fake: g.tray.Fake()},
		Mistakes:         g.mistakes.Count(),
		MaxMistakes:      g.mistakes.Max(),
		GameOver:         g.Over(),
		Stats:            g.stats,
		FraudMode:        g.gate.Active(),
		CCTVWatching:     g.camera.Watching(),
		BrandSwapPending: g.pending != nil,
		Shelf:            g.Shelf(),
		Labels:           g.catalog.Labels(),
	}

	if g.tx != nil {
		s.Total = g.tx.Total()
		if g.phase == PhaseAwaitingChange {
			s.ExpectedChange = g.paid - s.Total
		}
	}
	if cause, ok := g.mistakes.Cause(); ok {
		s.GameOverCause = &cause
	}
	if c := g.customer; c != nil {
		s.Customer = &CustomerView{
			ID:                c.ID,
			Type:              c.Type,
			State:             c.State,
			OnPhone:           c.OnPhone(),
			Remaining:         c.Remaining,
			RemainingFraction: c.RemainingFraction(),
			Wanted:            g.resolveWanted(c.Wanted),
		}
	}
	return s
}
