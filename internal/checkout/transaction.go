// Package checkout содержит корзину кассы, сверку со списком покупок и расчёт сдачи.
package checkout

import (
	"github.com/mmeshcher/checkout-sim/internal/model"
)

// Coster вычисляет себестоимость единицы товара.
type Coster interface {
	RealCost(inst model.ProductInstance) int64
}

// Entry - строка корзины.
type Entry struct {
	Instance model.ProductInstance
	RealCost int64
	// Rescan отмечает повторное сканирование уже пробитой единицы. Строка входит
	// в сумму и себестоимость, но не в сверку со списком покупок.
	Rescan bool
}

// Transaction накапливает пробитые товары и наклейки с фиксированной суммой.
type Transaction struct {
	ID string

	coster    Coster
	entries   []Entry
	flat      []int64
	total     int64
	costTotal int64
}

// NewTransaction создаёт пустую транзакцию.
func NewTransaction(id string, coster Coster) *Transaction {
	return &Transaction{ID: id, coster: coster}
}

// AddItem добавляет единицу товара по цене её ценника.
func (t *Transaction) AddItem(inst model.ProductInstance) {
	cost := t.coster.RealCost(inst)
	t.entries = append(t.entries, Entry{Instance: inst, RealCost: cost})
	t.total += inst.Label.DisplayedPrice
	t.costTotal += cost
}

// AddRescan добавляет повторно пробитую единицу: цена и себестоимость учитываются снова.
func (t *Transaction) AddRescan(inst model.ProductInstance) {
	cost := t.coster.RealCost(inst)
	t.entries = append(t.entries, Entry{Instance: inst, RealCost: cost, Rescan: true})
	t.total += inst.Label.DisplayedPrice
	t.costTotal += cost
}

// AddFlatPrice добавляет фиксированную сумму без товара.
func (t *Transaction) AddFlatPrice(value int64) {
	t.flat = append(t.flat, value)
	t.total += value
}

// Total возвращает текущую сумму к оплате.
func (t *Transaction) Total() int64 {
	return t.total
}

// CostTotal возвращает себестоимость пробитых товаров.
func (t *Transaction) CostTotal() int64 {
	return t.costTotal
}

// Empty сообщает, что ничего не пробито.
func (t *Transaction) Empty() bool {
	return len(t.entries) == 0 && len(t.flat) == 0
}

// ItemCount возвращает количество строк с товаром, включая повторные сканирования.
func (t *Transaction) ItemCount() int {
	return len(t.entries)
}

// Entries возвращает строки корзины.
func (t *Transaction) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// FlatEntries возвращает фиксированные суммы.
func (t *Transaction) FlatEntries() []int64 {
	out := make([]int64, len(t.flat))
	copy(out, t.flat)
	return out
}

type bucket struct {
	t model.ProductType
	b model.BrandGrade
}

// Match сверяет физическое содержимое корзины со списком покупок по типу и марке.
// Признак подделки не учитывается: покупатель не отличает подделку от оригинала.
func (t *Transaction) Match(wanted []model.WantedItem) bool {
	counts := make(map[bucket]int)
	for _, e := range t.entries {
		if e.Rescan {
			continue
		}
		counts[bucket{e.Instance.Definition.Type, e.Instance.CurrentBrand}]++
	}
	for _, w := range wanted {
		counts[bucket{w.Type, w.Brand}]--
	}
	for _, n := range counts {
		if n != 0 {
			return false
		}
	}
	return true
}

// Result - итог закрытия транзакции.
type Result struct {
	Matched bool
	Total   int64
	Cost    int64
	Profit  int64
}

// Finalize сверяет корзину и считает прибыль: сумма ценников минус себестоимость.
func (t *Transaction) Finalize(wanted []model.WantedItem) Result {
	return Result{
		Matched: t.Match(wanted),
		Total:   t.total,
		Cost:    t.costTotal,
		Profit:  t.total - t.costTotal,
	}
}
