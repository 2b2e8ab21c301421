// Package pricing рассчитывает цены, себестоимость и прибыль от подделок.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/checkout-sim/internal/model"
)

// Multipliers задаёт ценовые множители марок.
type Multipliers struct {
	Low  float64
	High float64
}

// DefaultMultipliers возвращает множители Low=1.0, High=1.5.
func DefaultMultipliers() Multipliers {
	return Multipliers{Low: 1.0, High: 1.5}
}

// Engine вычисляет цены товаров. Все методы чистые.
type Engine struct {
	low  decimal.Decimal
	high decimal.Decimal
}

// NewEngine создаёт калькулятор цен с указанными множителями.
func NewEngine(m Multipliers) *Engine {
	return &Engine{
		low:  decimal.NewFromFloat(m.Low),
		high: decimal.NewFromFloat(m.High),
	}
}

func (e *Engine) multiplier(g model.BrandGrade) decimal.Decimal {
	if g == model.BrandHigh {
		return e.high
	}
	return e.low
}

// Multiplier возвращает множитель марки.
func (e *Engine) Multiplier(g model.BrandGrade) float64 {
	return e.multiplier(g).InexactFloat64()
}

// AdjustedPrice возвращает базовую цену, умноженную на множитель марки, округлённую до целого.
func (e *Engine) AdjustedPrice(def model.ProductDefinition, g model.BrandGrade) int64 {
	return decimal.NewFromInt(def.BasePrice).Mul(e.multiplier(g)).Round(0).IntPart()
}

// RealCost возвращает себестоимость единицы товара. Базовая цена определения
// относится к его собственной марке, поэтому для подделки она пересчитывается
// с марки определения на исходную марку единицы.
func (e *Engine) RealCost(inst model.ProductInstance) int64 {
	def := inst.Definition
	if !inst.IsFake || inst.OriginalBrand == def.Brand {
		return def.BasePrice
	}

	own := e.multiplier(def.Brand)
	if own.IsZero() {
		return def.BasePrice
	}
	return decimal.NewFromInt(def.BasePrice).Div(own).Mul(e.multiplier(inst.OriginalBrand)).Round(0).IntPart()
}

// FakeProfit возвращает наценку подделки над себестоимостью, для настоящего товара ноль.
func (e *Engine) FakeProfit(inst model.ProductInstance) int64 {
	if !inst.IsFake {
		return 0
	}
	return inst.Label.DisplayedPrice - e.RealCost(inst)
}

// OriginalLabel возвращает заводской ценник для новой единицы товара.
// Базовая цена определения уже соответствует его собственной марке.
func (e *Engine) OriginalLabel(def model.ProductDefinition) model.PriceLabel {
	inst := model.ProductInstance{Definition: def, CurrentBrand: def.Brand, OriginalBrand: def.Brand}
	return model.PriceLabel{
		BarcodeID:      model.OriginalBarcodeID,
		DisplayedPrice: def.BasePrice,
		RealCost:       e.RealCost(inst),
	}
}
