package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmeshcher/checkout-sim/internal/model"
)

var (
	// ErrInsufficientChange возвращается при попытке забрать из лотка больше, чем там лежит.
	ErrInsufficientChange = errors.New("not enough money in change tray")
	// ErrInvalidAmount возвращается для неположительной суммы.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Denominations - номиналы купюр для разбивки оплаты, по убыванию.
var Denominations = []int64{50000, 10000, 5000, 1000}

// PaymentOptions возвращает варианты суммы, которой покупатель может расплатиться.
func PaymentOptions(total int64) []int64 {
	var opts []int64
	switch {
	case total <= 5000:
		opts = []int64{5000, 10000}
	case total <= 10000:
		opts = []int64{10000, 15000, 20000}
	case total <= 20000:
		opts = []int64{20000, 30000, 50000}
	case total <= 50000:
		opts = []int64{50000, 60000, 100000}
	default:
		opts = []int64{100000, 150000}
	}

	out := opts[:0]
	for _, o := range opts {
		if o >= total {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = append(out, roundUp(total, Denominations[len(Denominations)-1]))
	}
	return out
}

// Rand выбирает вариант оплаты.
type Rand interface {
	IntN(n int) int
}

// ChoosePayment выбирает случайный вариант оплаты для суммы.
func ChoosePayment(total int64, rnd Rand) int64 {
	opts := PaymentOptions(total)
	return opts[rnd.IntN(len(opts))]
}

// Note - количество купюр одного номинала.
type Note struct {
	Value int64 `json:"value"`
	Count int   `json:"count"`
}

// Breakdown раскладывает сумму по номиналам жадно, от крупного к мелкому.
// Остаток меньше минимального номинала не выдаётся.
func Breakdown(amount int64) []Note {
	var notes []Note
	for _, d := range Denominations {
		if amount < d {
			continue
		}
		n := amount / d
		notes = append(notes, Note{Value: d, Count: int(n)})
		amount -= n * d
	}
	return notes
}

// FormatNotes возвращает строку вида "50000x1 + 10000x2".
func FormatNotes(notes []Note) string {
	parts := make([]string, 0, len(notes))
	for _, n := range notes {
		parts = append(parts, fmt.Sprintf("%dx%d", n.Value, n.Count))
	}
	return strings.Join(parts, " + ")
}

func roundUp(v, step int64) int64 {
	if v%step == 0 {
		return v
	}
	return (v/step + 1) * step
}

// Tray - лоток сдачи, куда игрок кладёт настоящие и фальшивые деньги.
type Tray struct {
	real          int64
	fake          int64
	fakeWitnessed int64
}

// Deposit кладёт деньги в лоток. witnessed отмечает фальшивку, которую заметил покупатель.
func (t *Tray) Deposit(amount int64, fake, witnessed bool) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !fake {
		t.real += amount
		return nil
	}
	t.fake += amount
	if witnessed {
		t.fakeWitnessed += amount
	}
	return nil
}

// Withdraw забирает деньги из лотка. Незамеченные фальшивки забираются первыми.
func (t *Tray) Withdraw(amount int64, fake bool) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !fake {
		if amount > t.real {
			return fmt.Errorf("%w: real %d, requested %d", ErrInsufficientChange, t.real, amount)
		}
		t.real -= amount
		return nil
	}
	if amount > t.fake {
		return fmt.Errorf("%w: fake %d, requested %d", ErrInsufficientChange, t.fake, amount)
	}
	t.fake -= amount
	if t.fakeWitnessed > t.fake {
		t.fakeWitnessed = t.fake
	}
	return nil
}

// Real возвращает сумму настоящих денег в лотке.
func (t *Tray) Real() int64 { return t.real }

// Fake возвращает сумму фальшивых денег в лотке.
func (t *Tray) Fake() int64 { return t.fake }

// FakeWitnessed возвращает сумму замеченных фальшивок.
func (t *Tray) FakeWitnessed() int64 { return t.fakeWitnessed }

// Total возвращает всю сумму в лотке.
func (t *Tray) Total() int64 { return t.real + t.fake }

// Reset опустошает лоток.
func (t *Tray) Reset() {
	*t = Tray{}
}

// FakeChangePolicy определяет, когда фальшивая сдача засчитывается в прибыль.
type FakeChangePolicy int

const (
	// CreditUnlessWitnessed засчитывает только незамеченные фальшивки.
	CreditUnlessWitnessed FakeChangePolicy = iota
	// CreditAlways засчитывает все фальшивки.
	CreditAlways
	// CreditUnlessMistake засчитывает фальшивки, только если сдача дана без ошибки.
	CreditUnlessMistake
)

var policyNames = map[FakeChangePolicy]string{
	CreditUnlessWitnessed: "unless_witnessed",
	CreditAlways:          "always",
	CreditUnlessMistake:   "unless_mistake",
}

func (p FakeChangePolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("FakeChangePolicy(%d)", int(p))
}

// ParseFakeChangePolicy разбирает название политики.
func ParseFakeChangePolicy(s string) (FakeChangePolicy, error) {
	for p, name := range policyNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return CreditUnlessWitnessed, fmt.Errorf("unknown fake change policy %q", s)
}

// Settlement - итог расчёта сдачи.
type Settlement struct {
	Paid         int64
	Expected     int64
	RealGiven    int64
	FakeGiven    int64
	Mistake      bool
	FakeCredited int64
}

// Given возвращает всю выданную сдачу.
func (s Settlement) Given() int64 {
	return s.RealGiven + s.FakeGiven
}

// Settle сверяет содержимое лотка с ожидаемой сдачей. Пьяный покупатель сдачу не проверяет.
func Settle(paid, total int64, tray *Tray, customer model.CustomerType, policy FakeChangePolicy) Settlement {
	s := Settlement{
		Paid:      paid,
		Expected:  paid - total,
		RealGiven: tray.Real(),
		FakeGiven: tray.Fake(),
	}
	s.Mistake = customer != model.CustomerDrunk && s.Given() != s.Expected

	switch policy {
	case CreditAlways:
		s.FakeCredited = s.FakeGiven
	case CreditUnlessMistake:
		if !s.Mistake {
			s.FakeCredited = s.FakeGiven
		}
	default:
		s.FakeCredited = s.FakeGiven - tray.FakeWitnessed()
	}
	return s
}
