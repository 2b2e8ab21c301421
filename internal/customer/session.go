// Package customer реализует состояние покупателя: список покупок, таймер, терпимость
// к обсчёту, отвлечение на телефон и штрафы за подозрительное поведение.
package customer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/checkout-sim/internal/model"
)

// Rand - источник случайных чисел. *rand.Rand из math/rand/v2 удовлетворяет интерфейсу.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Profile задаёт диапазоны лимита времени и терпимости к обсчёту для типа покупателя.
type Profile struct {
	TimeLimitMin time.Duration
	TimeLimitMax time.Duration
	ToleranceMin float64
	ToleranceMax float64
}

// Settings содержит настройки покупателей.
type Settings struct {
	Normal           Profile
	Drunk            Profile
	SuspicionPenalty time.Duration
	ShoppingTime     time.Duration
	PhoneCheckMin    time.Duration
	PhoneCheckMax    time.Duration
	PhoneChance      float64
	PhoneDurationMin time.Duration
	PhoneDurationMax time.Duration
	Debug            bool
}

// DefaultSettings возвращает настройки по умолчанию.
func DefaultSettings() Settings {
	return Settings{
		Normal:           Profile{TimeLimitMin: 40 * time.Second, TimeLimitMax: 50 * time.Second, ToleranceMin: 0.8, ToleranceMax: 1.0},
		Drunk:            Profile{TimeLimitMin: 50 * time.Second, TimeLimitMax: 70 * time.Second, ToleranceMin: 2.5, ToleranceMax: 3.0},
		SuspicionPenalty: 20 * time.Second,
		ShoppingTime:     7 * time.Second,
		PhoneCheckMin:    time.Second,
		PhoneCheckMax:    3 * time.Second,
		PhoneChance:      0.7,
		PhoneDurationMin: 3 * time.Second,
		PhoneDurationMax: 6 * time.Second,
	}
}

func (s Settings) profile(t model.CustomerType) Profile {
	if t == model.CustomerDrunk {
		return s.Drunk
	}
	return s.Normal
}

// Update описывает изменения за один тик.
type Update struct {
	ShoppingDone bool
	PhoneChanged bool
	TimedOut     bool
}

// Session - состояние одного покупателя.
type Session struct {
	ID    string
	Type  model.CustomerType
	State model.CustomerState

	Wanted    []model.WantedItem
	TimeLimit time.Duration
	Remaining time.Duration
	Tolerance float64
	Debug     bool

	// LeaveReason заполняется при уходе покупателя.
	LeaveReason string

	onPhone      bool
	phoneLeft    time.Duration
	shoppingLeft time.Duration

	settings Settings
	rnd      Rand
}

// NewSession создаёт покупателя в состоянии Shopping.
func NewSession(id string, t model.CustomerType, s Settings, rnd Rand) *Session {
	p := s.profile(t)
	limit := durationBetween(rnd, p.TimeLimitMin, p.TimeLimitMax)

	sess := &Session{
		ID:           id,
		Type:         t,
		State:        model.CustomerShopping,
		TimeLimit:    limit,
		Remaining:    limit,
		Tolerance:    floatBetween(rnd, p.ToleranceMin, p.ToleranceMax),
		Debug:        s.Debug,
		shoppingLeft: s.ShoppingTime,
		settings:     s,
		rnd:          rnd,
	}
	if t == model.CustomerNormal {
		sess.phoneLeft = durationBetween(rnd, s.PhoneCheckMin, s.PhoneCheckMax)
	}
	return sess
}

// OnPhone сообщает, разговаривает ли покупатель по телефону.
func (s *Session) OnPhone() bool {
	return s.Type == model.CustomerOnPhone || s.onPhone
}

// Distracted сообщает, что покупатель не замечает махинаций.
func (s *Session) Distracted() bool {
	return s.Type == model.CustomerDrunk || s.OnPhone()
}

// RemainingFraction возвращает долю оставшегося времени для индикатора.
func (s *Session) RemainingFraction() float64 {
	if s.TimeLimit <= 0 {
		return 0
	}
	f := float64(s.Remaining) / float64(s.TimeLimit)
	if f < 0 {
		return 0
	}
	return f
}

// Tick продвигает таймеры покупателя на dt.
func (s *Session) Tick(dt time.Duration) Update {
	var u Update
	if dt <= 0 || s.State.Terminal() {
		return u
	}

	if s.State == model.CustomerShopping {
		s.shoppingLeft -= dt
		if s.shoppingLeft <= 0 {
			u.ShoppingDone = true
		}
		return u
	}

	u.PhoneChanged = s.tickPhone(dt)

	s.Remaining -= dt
	if s.Remaining <= 0 {
		s.Remaining = 0
		s.State = model.CustomerLeftAngry
		s.LeaveReason = "ran out of patience"
		u.TimedOut = true
	}
	return u
}

func (s *Session) tickPhone(dt time.Duration) bool {
	if s.Type != model.CustomerNormal {
		return false
	}

	changed := false
	s.phoneLeft -= dt
	for s.phoneLeft <= 0 {
		if s.onPhone {
			s.onPhone = false
			changed = !changed
			s.phoneLeft += phoneStep(durationBetween(s.rnd, s.settings.PhoneCheckMin, s.settings.PhoneCheckMax))
			continue
		}
		if s.rnd.Float64() < s.settings.PhoneChance {
			s.onPhone = true
			changed = !changed
			s.phoneLeft += phoneStep(durationBetween(s.rnd, s.settings.PhoneDurationMin, s.settings.PhoneDurationMax))
			continue
		}
		s.phoneLeft += phoneStep(durationBetween(s.rnd, s.settings.PhoneCheckMin, s.settings.PhoneCheckMax))
	}
	return changed
}

// phoneStep не даёт циклу телефона зависнуть при нулевых интервалах.
func phoneStep(d time.Duration) time.Duration {
	if d < time.Millisecond {
		return time.Millisecond
	}
	return d
}

// ArriveAtCheckout назначает список покупок. Пустой список означает уход без покупок.
func (s *Session) ArriveAtCheckout(wanted []model.WantedItem) {
	if s.State != model.CustomerShopping {
		return
	}
	if len(wanted) == 0 {
		s.State = model.CustomerLeaving
		s.LeaveReason = "nothing worth buying"
		return
	}
	s.Wanted = wanted
	s.State = model.CustomerReadyForCheckout
}

// ActualTotal возвращает сумму истинных цен списка покупок.
func (s *Session) ActualTotal() int64 {
	var total int64
	for _, w := range s.Wanted {
		total += w.TruePrice
	}
	return total
}

// CheckFraudLimit сравнивает отсканированную сумму с истинной стоимостью покупок.
// Если доля переплаты превышает терпимость, покупатель уходит и метод возвращает false.
func (s *Session) CheckFraudLimit(scannedTotal int64) bool {
	actual := s.ActualTotal()
	if actual == 0 {
		return true
	}

	actualDec := decimal.NewFromInt(actual)
	ratio := decimal.NewFromInt(scannedTotal).Sub(actualDec).Div(actualDec)
	if !ratio.GreaterThan(decimal.NewFromFloat(s.Tolerance)) {
		return true
	}

	s.State = model.CustomerLeftAngry
	s.LeaveReason = fmt.Sprintf("overcharged by %d (%s%%)", scannedTotal-actual, ratio.Mul(decimal.NewFromInt(100)).StringFixed(1))
	return false
}

// SuspicionResult описывает реакцию покупателя на подозрительное действие.
type SuspicionResult struct {
	Noticed   bool
	LeftAngry bool
}

// OnSuspiciousBehaviorDetected штрафует покупателя у кассы временем, если он не отвлечён.
func (s *Session) OnSuspiciousBehaviorDetected(reason string) SuspicionResult {
	var r SuspicionResult
	if !s.State.AtCounter() || s.Distracted() {
		return r
	}

	r.Noticed = true
	s.Remaining -= s.settings.SuspicionPenalty
	if s.Remaining <= 0 {
		s.Remaining = 0
		s.State = model.CustomerLeftAngry
		s.LeaveReason = "noticed: " + reason
		r.LeftAngry = true
	}
	return r
}

// StartPaying переводит покупателя к оплате.
func (s *Session) StartPaying() {
	if s.State == model.CustomerReadyForCheckout {
		s.State = model.CustomerPaying
	}
}

// Complete завершает визит после оплаты.
func (s *Session) Complete() {
	if !s.State.Terminal() {
		s.State = model.CustomerCompleted
	}
}

func durationBetween(rnd Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rnd.Float64()*float64(max-min))
}

func floatBetween(rnd Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rnd.Float64()*(max-min)
}
