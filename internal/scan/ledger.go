// Package scan отслеживает отсканированные единицы товара в текущей транзакции.
package scan

import "github.com/mmeshcher/checkout-sim/internal/model"

// Result описывает итог сканирования.
type Result int

const (
	FirstScan Result = iota
	Duplicate
)

func (r Result) String() string {
	if r == Duplicate {
		return "Duplicate"
	}
	return "FirstScan"
}

// Ledger хранит сканирования одной транзакции. Повторное сканирование не отклоняется.
type Ledger struct {
	transactionID string
	seen          map[string]struct{}
	records       []model.ScanRecord
}

// NewLedger создаёт журнал для транзакции.
func NewLedger(transactionID string) *Ledger {
	return &Ledger{
		transactionID: transactionID,
		seen:          make(map[string]struct{}),
	}
}

// RecordScan фиксирует сканирование единицы товара.
func (l *Ledger) RecordScan(instanceID string) Result {
	l.records = append(l.records, model.ScanRecord{InstanceID: instanceID, TransactionID: l.transactionID})

	if _, ok := l.seen[instanceID]; ok {
		return Duplicate
	}
	l.seen[instanceID] = struct{}{}
	return FirstScan
}

// Scanned сообщает, сканировалась ли единица товара в этой транзакции.
func (l *Ledger) Scanned(instanceID string) bool {
	_, ok := l.seen[instanceID]
	return ok
}

// Distinct возвращает количество различных отсканированных единиц.
func (l *Ledger) Distinct() int {
	return len(l.seen)
}

// Records возвращает все сканирования, включая повторные.
func (l *Ledger) Records() []model.ScanRecord {
	out := make([]model.ScanRecord, len(l.records))
	copy(out, l.records)
	return out
}

// TransactionID возвращает идентификатор текущей транзакции.
func (l *Ledger) TransactionID() string {
	return l.transactionID
}

// Reset очищает журнал и привязывает его к новой транзакции.
func (l *Ledger) Reset(transactionID string) {
	l.transactionID = transactionID
	l.seen = make(map[string]struct{})
	l.records = nil
}
