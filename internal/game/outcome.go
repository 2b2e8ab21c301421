package game

import "time"

// Status - результат обработки намерения игрока.
type Status int

const (
	Accepted Status = iota
	NoOp
	NotAllowed
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case NoOp:
		return "noop"
	default:
		return "not_allowed"
	}
}

// MarshalText реализует encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome описывает результат намерения. Отклонённое намерение не меняет состояние.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func accepted() Outcome {
	return Outcome{Status: Accepted}
}

func noOp(reason string) Outcome {
	return Outcome{Status: NoOp, Reason: reason}
}

func notAllowed(reason string) Outcome {
	return Outcome{Status: NotAllowed, Reason: reason}
}

// EventKind - тип события для отображения.
type EventKind string

const (
	EventCustomerSpawned   EventKind = "customer_spawned"
	EventCustomerReady     EventKind = "customer_ready"
	EventCustomerDialogue  EventKind = "customer_dialogue"
	EventCustomerLeftAngry EventKind = "customer_left_angry"
	EventCustomerLeft      EventKind = "customer_left"
	EventPhoneChanged      EventKind = "phone_changed"
	EventCCTVChanged       EventKind = "cctv_changed"
	EventFraudModeChanged  EventKind = "fraud_mode_changed"
	EventTotalChanged      EventKind = "total_changed"
	EventBrandSwapped      EventKind = "brand_swapped"
	EventBarcodeSwapped    EventKind = "barcode_swapped"
	EventPaymentStarted    EventKind = "payment_started"
	EventMistakeAdded      EventKind = "mistake_added"
	EventWalletChanged     EventKind = "wallet_changed"
	EventCheckoutCompleted EventKind = "checkout_completed"
	EventGameOver          EventKind = "game_over"
)

// maxPendingEvents ограничивает очередь событий, которую никто не забирает.
const maxPendingEvents = 256

// Event - событие игры.
type Event struct {
	Kind    EventKind     `json:"kind"`
	At      time.Duration `json:"at"`
	Message string        `json:"message,omitempty"`
	Amount  int64         `json:"amount,omitempty"`
}

func (g *Game) emit(kind EventKind, message string, amount int64) {
	if len(g.events) >= maxPendingEvents {
		g.events = g.events[1:]
	}
	g.events = append(g.events, Event{Kind: kind, At: g.clock, Message: message, Amount: amount})
}

// DrainEvents возвращает накопленные события и очищает очередь.
func (g *Game) DrainEvents() []Event {
	out := g.events
	g.events = nil
	return out
}
