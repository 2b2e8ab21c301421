package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmeshcher/checkout-sim/internal/model"
	"github.com/mmeshcher/checkout-sim/internal/pricing"
)

func instance(id string, tp model.ProductType, base int64, brand model.BrandGrade) model.ProductInstance {
	def := model.ProductDefinition{Name: id, Type: tp, BasePrice: base, Brand: brand}
	return model.ProductInstance{
		ID:            id,
		Definition:    def,
		CurrentBrand:  brand,
		OriginalBrand: brand,
		Label:         model.PriceLabel{BarcodeID: model.OriginalBarcodeID, DisplayedPrice: base, RealCost: base},
	}
}

func fakeHigh(id string, base int64) model.ProductInstance {
	inst := instance(id, model.ProductTypeCannedPork, base, model.BrandLow)
	inst.IsFake = true
	inst.CurrentBrand = model.BrandHigh
	inst.Label = model.PriceLabel{BarcodeID: model.FakeBarcodeID, DisplayedPrice: base * 3 / 2, RealCost: base}
	return inst
}

func newTx() *Transaction {
	return NewTransaction("tx", pricing.NewEngine(pricing.DefaultMultipliers()))
}

func TestTransaction_Totals(t *testing.T) {
	tx := newTx()
	assert.True(t, tx.Empty())

	tx.AddItem(instance("a", model.ProductTypePantry, 800, model.BrandLow))
	tx.AddItem(fakeHigh("b", 1000))
	tx.AddFlatPrice(2000)

	assert.False(t, tx.Empty())
	assert.Equal(t, int64(800+1500+2000), tx.Total())
	assert.Equal(t, int64(800+1000), tx.CostTotal())
	assert.Equal(t, []int64{2000}, tx.FlatEntries())
	assert.Len(t, tx.Entries(), 2)
}

func TestTransaction_RescanChargesPriceAndCost(t *testing.T) {
	tx := newTx()
	inst := instance("a", model.ProductTypePantry, 800, model.BrandLow)

	tx.AddItem(inst)
	tx.AddRescan(inst)

	assert.Equal(t, int64(1600), tx.Total())
	assert.Equal(t, int64(1600), tx.CostTotal())

	wanted := []model.WantedItem{{InstanceID: "a", Type: model.ProductTypePantry, Brand: model.BrandLow}}
	res := tx.Finalize(wanted)
	assert.True(t, res.Matched, "rescans are not part of the physical basket")
	assert.Zero(t, res.Profit)

	entries := tx.Entries()
	assert.True(t, entries[1].Rescan)
	assert.Equal(t, int64(800), entries[1].RealCost)
}

func TestTransaction_MatchIgnoresFakeFlag(t *testing.T) {
	tx := newTx()
	tx.AddItem(fakeHigh("p", 1000))

	wanted := []model.WantedItem{{Type: model.ProductTypeCannedPork, Brand: model.BrandHigh}}
	res := tx.Finalize(wanted)

	assert.True(t, res.Matched)
	assert.Equal(t, int64(500), res.Profit)
}

func TestTransaction_Match(t *testing.T) {
	porkLow := model.WantedItem{Type: model.ProductTypeCannedPork, Brand: model.BrandLow}
	porkHigh := model.WantedItem{Type: model.ProductTypeCannedPork, Brand: model.BrandHigh}
	lunch := model.WantedItem{Type: model.ProductTypePackedLunch, Brand: model.BrandLow}

	tests := []struct {
		name   string
		basket []model.ProductInstance
		wanted []model.WantedItem
		want   bool
	}{
		{
			name:   "exact multiset",
			basket: []model.ProductInstance{instance("1", model.ProductTypeCannedPork, 1000, model.BrandLow), instance("2", model.ProductTypeCannedPork, 1000, model.BrandLow), instance("3", model.ProductTypePackedLunch, 3500, model.BrandLow)},
			wanted: []model.WantedItem{lunch, porkLow, porkLow},
			want:   true,
		},
		{
			name:   "shortfall",
			basket: []model.ProductInstance{instance("1", model.ProductTypeCannedPork, 1000, model.BrandLow)},
			wanted: []model.WantedItem{porkLow, porkLow},
			want:   false,
		},
		{
			name:   "surplus",
			basket: []model.ProductInstance{instance("1", model.ProductTypeCannedPork, 1000, model.BrandLow), instance("2", model.ProductTypePackedLunch, 3500, model.BrandLow)},
			wanted: []model.WantedItem{porkLow},
			want:   false,
		},
		{
			name:   "wrong brand",
			basket: []model.ProductInstance{instance("1", model.ProductTypeCannedPork, 1000, model.BrandLow)},
			wanted: []model.WantedItem{porkHigh},
			want:   false,
		},
		{
			name:   "empty both",
			basket: nil,
			wanted: nil,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := newTx()
			for _, inst := range tt.basket {
				tx.AddItem(inst)
			}
			assert.Equal(t, tt.want, tx.Match(tt.wanted))
		})
	}
}

func TestTransaction_FinalizeProfitIncludesFlatEntries(t *testing.T) {
	tx := newTx()
	tx.AddItem(instance("a", model.ProductTypePantry, 800, model.BrandLow))
	tx.AddFlatPrice(1000)

	res := tx.Finalize([]model.WantedItem{{Type: model.ProductTypePantry, Brand: model.BrandLow}})

	assert.True(t, res.Matched)
	assert.Equal(t, int64(1800), res.Total)
	assert.Equal(t, int64(800), res.Cost)
	assert.Equal(t, int64(1000), res.Profit)
}
