package customer

import (
	"math"

	"github.com/mmeshcher/checkout-sim/internal/model"
)

const (
	baseProbability   = 0.6
	bargainBonus      = 0.3
	maxProbability    = 0.95
	minProbability    = 0.05
	overpriceSlope    = 0.6
	maxWantedTypes    = 3
	maxWantedItems    = 5
	singleQuantityCut = 0.5
	doubleQuantityCut = 0.85
)

// PurchaseProbability возвращает вероятность покупки товара по базовой и текущей цене.
// Товар не дороже базовой цены берут с вероятностью 90%, дорогой - реже, но не реже 5%.
func PurchaseProbability(basePrice, currentPrice int64) float64 {
	if currentPrice <= basePrice {
		return math.Min(baseProbability+bargainBonus, maxProbability)
	}
	if basePrice <= 0 {
		return minProbability
	}

	penalty := float64(currentPrice-basePrice) / float64(basePrice) * overpriceSlope
	return math.Max(baseProbability-penalty, minProbability)
}

// SelectWanted формирует список покупок по полке. Подделки не рассматриваются.
// Вне отладочного режима берётся не больше трёх типов товара, по 1-3 единицы, всего не больше пяти.
func SelectWanted(shelf []model.ProductInstance, rnd Rand, debug bool) []model.WantedItem {
	var picked []model.ProductInstance
	for _, inst := range shelf {
		if inst.IsFake {
			continue
		}
		if rnd.Float64() <= PurchaseProbability(inst.Definition.BasePrice, inst.Label.DisplayedPrice) {
			picked = append(picked, inst)
		}
	}

	if debug {
		wanted := make([]model.WantedItem, 0, len(picked))
		for _, inst := range picked {
			wanted = append(wanted, wantedFrom(inst))
		}
		return wanted
	}

	var types []model.ProductType
	anchors := make(map[model.ProductType]model.ProductInstance)
	for _, inst := range picked {
		t := inst.Definition.Type
		if _, ok := anchors[t]; ok {
			continue
		}
		anchors[t] = inst
		types = append(types, t)
	}

	for i := len(types) - 1; i > 0; i-- {
		j := rnd.IntN(i + 1)
		types[i], types[j] = types[j], types[i]
	}
	if len(types) > maxWantedTypes {
		types = types[:maxWantedTypes]
	}

	var wanted []model.WantedItem
	for _, t := range types {
		room := maxWantedItems - len(wanted)
		if room <= 0 {
			break
		}

		anchor := anchors[t]
		units := append([]model.ProductInstance{anchor}, sameProduct(shelf, anchor)...)
		q := min(sampleQuantity(rnd), room, len(units))
		for _, inst := range units[:q] {
			wanted = append(wanted, wantedFrom(inst))
		}
	}
	return wanted
}

func sampleQuantity(rnd Rand) int {
	r := rnd.Float64()
	switch {
	case r < singleQuantityCut:
		return 1
	case r < doubleQuantityCut:
		return 2
	default:
		return 3
	}
}

func sameProduct(shelf []model.ProductInstance, anchor model.ProductInstance) []model.ProductInstance {
	var out []model.ProductInstance
	for _, inst := range shelf {
		if inst.IsFake || inst.ID == anchor.ID || inst.Definition.Name != anchor.Definition.Name {
			continue
		}
		out = append(out, inst)
	}
	return out
}

func wantedFrom(inst model.ProductInstance) model.WantedItem {
	return model.WantedItem{
		InstanceID: inst.ID,
		Name:       inst.Definition.Name,
		Type:       inst.Definition.Type,
		Brand:      inst.CurrentBrand,
		TruePrice:  inst.Label.RealCost,
	}
}
