// Package game собирает симуляцию кассы воедино: полку, покупателей, транзакцию,
// сдачу, журнал ошибок, камеру и режим махинаций. Game не потокобезопасен:
// все вызовы должны идти из одной горутины-владельца.
package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/checkout-sim/internal/catalog"
	"github.com/mmeshcher/checkout-sim/internal/cctv"
	"github.com/mmeshcher/checkout-sim/internal/checkout"
	"github.com/mmeshcher/checkout-sim/internal/customer"
	"github.com/mmeshcher/checkout-sim/internal/fraudmode"
	"github.com/mmeshcher/checkout-sim/internal/mistake"
	"github.com/mmeshcher/checkout-sim/internal/model"
	"github.com/mmeshcher/checkout-sim/internal/pricing"
	"github.com/mmeshcher/checkout-sim/internal/scan"
)

// Settings содержит параметры одной игры.
type Settings struct {
	MaxMistakes                 int
	Customer                    customer.Settings
	DrunkSpawnChance            float64
	CardPaymentChance           float64
	FirstSpawnDelay             time.Duration
	SpawnInterval               time.Duration
	HoverDelay                  time.Duration
	CCTVIdle                    time.Duration
	CCTVWatch                   time.Duration
	FakeChangePolicy            checkout.FakeChangePolicy
	MistakeOnWitnessedBrandSwap bool
	SuspectFlatBarcode          bool
}

// DefaultSettings возвращает параметры по умолчанию.
func DefaultSettings() Settings {
	return Settings{
		MaxMistakes:        mistake.DefaultMaxMistakes,
		Customer:           customer.DefaultSettings(),
		DrunkSpawnChance:   0.2,
		CardPaymentChance:  0.5,
		FirstSpawnDelay:    2 * time.Second,
		SpawnInterval:      15 * time.Second,
		HoverDelay:         20 * time.Millisecond,
		CCTVIdle:           5 * time.Second,
		CCTVWatch:          3 * time.Second,
		FakeChangePolicy:   checkout.CreditUnlessWitnessed,
		SuspectFlatBarcode: true,
	}
}

// Phase - стадия обслуживания покупателя у кассы.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseScanning
	PhaseAwaitingCard
	PhaseAwaitingChange
)

func (p Phase) String() string {
	switch p {
	case PhaseScanning:
		return "scanning"
	case PhaseAwaitingCard:
		return "awaiting_card"
	case PhaseAwaitingChange:
		return "awaiting_change"
	default:
		return "idle"
	}
}

// MarshalText реализует encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

type pendingSwap struct {
	instanceID string
	target     model.BrandGrade
	left       time.Duration
}

// Option настраивает игру.
type Option func(*Game)

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(fn func() string) Option {
	return func(g *Game) {
		g.newID = fn
	}
}

// Game - состояние одной игры.
type Game struct {
	ID string

	settings Settings
	catalog  *catalog.Catalog
	pricing  *pricing.Engine
	rnd      customer.Rand
	newID    func() string

	clock time.Duration
	shelf []string
	stock map[string]*model.ProductInstance

	customer *customer.Session
	spawnIn  time.Duration

	tx     *checkout.Transaction
	ledger *scan.Ledger
	tray   checkout.Tray
	phase  Phase
	method model.PaymentMethod
	paid   int64

	pending *pendingSwap

	mistakes *mistake.Tracker
	gate     fraudmode.Gate
	camera   *cctv.Camera

	receipts []model.Receipt
	stats    model.Stats

	events []Event
}

// New создаёт игру и выкладывает товары на полку.
func New(id string, cat *catalog.Catalog, engine *pricing.Engine, s Settings, rnd customer.Rand, opts ...Option) *Game {
	g := &Game{
		ID:       id,
		settings: s,
		catalog:  cat,
		pricing:  engine,
		rnd:      rnd,
		newID:    uuid.NewString,
		stock:    make(map[string]*model.ProductInstance),
		spawnIn:  s.FirstSpawnDelay,
		ledger:   scan.NewLedger(""),
		mistakes: mistake.NewTracker(s.MaxMistakes),
		camera:   cctv.NewCamera(s.CCTVIdle, s.CCTVWatch),
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, slot := range cat.Shelf() {
		def, ok := cat.Get(slot.Product)
		if !ok {
			continue
		}
		for i := 0; i < slot.Units; i++ {
			g.stockUnit(def, len(g.shelf))
		}
	}
	return g
}

func (g *Game) stockUnit(def model.ProductDefinition, at int) {
	inst := &model.ProductInstance{
		ID:            g.newID(),
		Definition:    def,
		CurrentBrand:  def.Brand,
		OriginalBrand: def.Brand,
		Label:         g.pricing.OriginalLabel(def),
	}
	g.stock[inst.ID] = inst

	g.shelf = append(g.shelf, "")
	copy(g.shelf[at+1:], g.shelf[at:])
	g.shelf[at] = inst.ID
}

// consume снимает проданную единицу с полки и ставит на её место новую.
func (g *Game) consume(id string) {
	inst, ok := g.stock[id]
	if !ok {
		return
	}
	delete(g.stock, id)

	at := len(g.shelf)
	for i, sid := range g.shelf {
		if sid == id {
			at = i
			g.shelf = append(g.shelf[:i], g.shelf[i+1:]...)
			break
		}
	}

	def, ok := g.catalog.Get(inst.Definition.Name)
	if !ok {
		def = inst.Definition
	}
	g.stockUnit(def, min(at, len(g.shelf)))
}

// Shelf возвращает копию полки по порядку.
func (g *Game) Shelf() []model.ProductInstance {
	out := make([]model.ProductInstance, 0, len(g.shelf))
	for _, id := range g.shelf {
		out = append(out, *g.stock[id])
	}
	return out
}

// Instance возвращает единицу товара по идентификатору.
func (g *Game) Instance(id string) (model.ProductInstance, bool) {
	inst, ok := g.stock[id]
	if !ok {
		return model.ProductInstance{}, false
	}
	return *inst, true
}

// Over сообщает, закончилась ли игра.
func (g *Game) Over() bool {
	return g.mistakes.GameOver()
}

// Cause возвращает ошибку, на которой закончилась игра.
func (g *Game) Cause() (model.Mistake, bool) {
	return g.mistakes.Cause()
}

// Clock возвращает игровое время.
func (g *Game) Clock() time.Duration {
	return g.clock
}

// Wallet возвращает баланс кошелька.
func (g *Game) Wallet() int64 {
	return g.stats.Wallet
}

// Stats возвращает сводку продаж.
func (g *Game) Stats() model.Stats {
	return g.stats
}

// Receipts возвращает чеки завершённых продаж.
func (g *Game) Receipts() []model.Receipt {
	out := make([]model.Receipt, len(g.receipts))
	copy(out, g.receipts)
	return out
}

// Mistakes возвращает журнал ошибок.
func (g *Game) Mistakes() []model.Mistake {
	return g.mistakes.Log()
}

// Customer возвращает текущего покупателя или nil.
func (g *Game) Customer() *customer.Session {
	return g.customer
}

// Phase возвращает стадию обслуживания.
func (g *Game) Phase() Phase {
	return g.phase
}

// Tick продвигает игру на dt. После конца игры время заморожено.
func (g *Game) Tick(dt time.Duration) {
	if dt <= 0 || g.Over() {
		return
	}
	g.clock += dt

	if g.camera.Tick(dt) {
		state := "idle"
		if g.camera.Watching() {
			state = "watching"
		}
		g.emit(EventCCTVChanged, state, 0)
	}

	g.tickPendingSwap(dt)
	if g.Over() {
		return
	}
	g.tickCustomer(dt)
}

func (g *Game) tickCustomer(dt time.Duration) {
	if g.customer == nil {
		g.spawnIn -= dt
		if g.spawnIn <= 0 {
			g.spawn()
		}
		return
	}

	c := g.customer
	u := c.Tick(dt)
	if u.PhoneChanged {
		state := "off_phone"
		if c.OnPhone() {
			state = "on_phone"
		}
		g.emit(EventPhoneChanged, state, 0)
	}
	if u.ShoppingDone {
		g.arrive()
		return
	}
	if u.TimedOut {
		g.emit(EventCustomerDialogue, "I've waited long enough!", 0)
		g.emit(EventCustomerLeftAngry, c.LeaveReason, 0)
		g.release()
		g.addMistake(model.MistakeCustomerTimeout, fmt.Sprintf("%s customer waited %s", c.Type, c.TimeLimit.Round(time.Second)))
	}
}

func (g *Game) spawn() {
	ct := model.CustomerNormal
	if g.rnd.Float64() < g.settings.DrunkSpawnChance {
		ct = model.CustomerDrunk
	}
	g.customer = customer.NewSession(g.newID(), ct, g.settings.Customer, g.rnd)
	g.emit(EventCustomerSpawned, ct.String(), 0)
}

func (g *Game) arrive() {
	c := g.customer
	c.ArriveAtCheckout(customer.SelectWanted(g.Shelf(), g.rnd, c.Debug))

	if c.State == model.CustomerLeaving {
		g.emit(EventCustomerLeft, c.LeaveReason, 0)
		g.release()
		return
	}
	g.openCounter()
}

// openCounter начинает новую транзакцию для покупателя у кассы.
func (g *Game) openCounter() {
	c := g.customer
	txID := g.newID()
	g.tx = checkout.NewTransaction(txID, g.pricing)
	g.ledger.Reset(txID)
	g.tray.Reset()
	g.phase = PhaseScanning

	names := make([]string, 0, len(c.Wanted))
	for _, w := range c.Wanted {
		names = append(names, w.Name)
	}
	g.emit(EventCustomerReady, strings.Join(names, ", "), int64(len(c.Wanted)))
}

// release освобождает место у кассы и сбрасывает незавершённую транзакцию.
func (g *Game) release() {
	g.customer = nil
	g.tx = nil
	g.ledger.Reset("")
	g.tray.Reset()
	g.phase = PhaseIdle
	g.method = model.PaymentNone
	g.paid = 0
	g.spawnIn = g.settings.SpawnInterval
}

// attentive сообщает, что у кассы стоит покупатель, который всё замечает.
func (g *Game) attentive() bool {
	c := g.customer
	return c != nil && c.State.AtCounter() && !c.Distracted()
}

// suspect сообщает покупателю о подозрительном действии. Возвращает true, если он заметил.
func (g *Game) suspect(reason, line string) bool {
	c := g.customer
	if c == nil {
		return false
	}

	r := c.OnSuspiciousBehaviorDetected(reason)
	if !r.Noticed {
		return false
	}

	g.emit(EventCustomerDialogue, line, 0)
	if r.LeftAngry {
		g.emit(EventCustomerLeftAngry, c.LeaveReason, 0)
		g.release()
	}
	return true
}

func (g *Game) addMistake(kind model.MistakeType, detail string) {
	if _, err := g.mistakes.Add(kind, detail, g.clock); err != nil {
		return
	}
	g.emit(EventMistakeAdded, kind.String()+": "+detail, int64(g.mistakes.Count()))

	if cause, over := g.mistakes.Cause(); over {
		g.pending = nil
		g.emit(EventGameOver, cause.Type.String(), int64(g.mistakes.Count()))
	}
}

// resolveWanted берёт тип и марку позиций списка покупок из живых единиц товара.
func (g *Game) resolveWanted(wanted []model.WantedItem) []model.WantedItem {
	out := make([]model.WantedItem, len(wanted))
	for i, w := range wanted {
		if inst, ok := g.stock[w.InstanceID]; ok {
			w.Type = inst.Definition.Type
			w.Brand = inst.CurrentBrand
		}
		out[i] = w
	}
	return out
}
