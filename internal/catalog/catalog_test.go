package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/checkout-sim/internal/model"
)

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		def     model.ProductDefinition
		wantErr error
	}{
		{
			name: "valid product",
			def:  model.ProductDefinition{Name: "pork", Type: model.ProductTypeCannedPork, BasePrice: 1000},
		},
		{
			name:    "empty name",
			def:     model.ProductDefinition{Type: model.ProductTypeCannedPork, BasePrice: 1000},
			wantErr: ErrInvalidProduct,
		},
		{
			name:    "no type",
			def:     model.ProductDefinition{Name: "thing", BasePrice: 1000},
			wantErr: ErrInvalidProduct,
		},
		{
			name:    "zero price real product",
			def:     model.ProductDefinition{Name: "free", Type: model.ProductTypePantry},
			wantErr: ErrInvalidProduct,
		},
		{
			name: "fake template without price",
			def:  model.ProductDefinition{Name: "fake", Type: model.ProductTypePantry, Brand: model.BrandHigh, IsFake: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			err := c.Register(tt.def)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			got, ok := c.Get(tt.def.Name)
			require.True(t, ok)
			assert.Equal(t, tt.def, got)
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	c := New()
	def := model.ProductDefinition{Name: "pork", Type: model.ProductTypeCannedPork, BasePrice: 1000}

	require.NoError(t, c.Register(def))
	err := c.Register(def)
	assert.True(t, errors.Is(err, ErrDuplicateProduct))
}

func TestLookups(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(model.ProductDefinition{Name: "pork-low", Type: model.ProductTypeCannedPork, BasePrice: 1000}))
	require.NoError(t, c.Register(model.ProductDefinition{Name: "pork-high", Type: model.ProductTypeCannedPork, Brand: model.BrandHigh, BasePrice: 1800}))
	require.NoError(t, c.Register(model.ProductDefinition{Name: "pork-fake", Type: model.ProductTypeCannedPork, Brand: model.BrandHigh, BasePrice: 1500, IsFake: true}))
	require.NoError(t, c.Register(model.ProductDefinition{Name: "noodles", Type: model.ProductTypePantry, BasePrice: 800}))

	assert.Len(t, c.All(), 4)
	assert.Len(t, c.Real(), 3)
	assert.Len(t, c.Fakes(), 1)
	assert.Len(t, c.ByType(model.ProductTypeCannedPork), 2)

	fake, ok := c.FindFake(model.ProductTypeCannedPork, model.BrandHigh)
	require.True(t, ok)
	assert.Equal(t, "pork-fake", fake.Name)

	_, ok = c.FindFake(model.ProductTypeCannedPork, model.BrandLow)
	assert.False(t, ok)
	_, ok = c.FindFake(model.ProductTypePantry, model.BrandHigh)
	assert.False(t, ok)
}

func TestAddShelf(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(model.ProductDefinition{Name: "pork", Type: model.ProductTypeCannedPork, BasePrice: 1000}))
	require.NoError(t, c.Register(model.ProductDefinition{Name: "pork-fake", Type: model.ProductTypeCannedPork, Brand: model.BrandHigh, IsFake: true}))

	require.NoError(t, c.AddShelf("pork", 2))
	assert.ErrorIs(t, c.AddShelf("missing", 1), ErrUnknownProduct)
	assert.ErrorIs(t, c.AddShelf("pork-fake", 1), ErrInvalidProduct)
	assert.ErrorIs(t, c.AddShelf("pork", 0), ErrInvalidProduct)

	assert.Equal(t, []ShelfSlot{{Product: "pork", Units: 2}}, c.Shelf())
}

func TestAddLabel(t *testing.T) {
	c := New()

	require.NoError(t, c.AddLabel(model.BarcodeLabel{ID: "8801000000012", Price: 500}))
	assert.ErrorIs(t, c.AddLabel(model.BarcodeLabel{ID: "8801000000012", Price: 700}), ErrDuplicateLabel)
	assert.ErrorIs(t, c.AddLabel(model.BarcodeLabel{ID: "BC001", Price: 500}), ErrInvalidLabel)
	assert.ErrorIs(t, c.AddLabel(model.BarcodeLabel{ID: "8801000000029", Price: 0}), ErrInvalidLabel)

	l, ok := c.Label("8801000000012")
	require.True(t, ok)
	assert.Equal(t, int64(500), l.Price)
	assert.Len(t, c.Labels(), 1)
}

func TestLoad(t *testing.T) {
	src := `
products:
  - name: pork
    type: cannedpork
    brand: low
    price: 1000
  - name: pork-fake
    type: CannedPork
    brand: High
    price: 1500
    fake: true
shelf:
  - product: pork
    units: 3
labels:
  - barcode: "4006381333931"
    price: 2000
    flat: true
`
	c, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	pork, ok := c.Get("pork")
	require.True(t, ok)
	assert.Equal(t, model.ProductTypeCannedPork, pork.Type)
	assert.Equal(t, model.BrandLow, pork.Brand)
	assert.Equal(t, int64(1000), pork.BasePrice)

	fake, ok := c.FindFake(model.ProductTypeCannedPork, model.BrandHigh)
	require.True(t, ok)
	assert.Equal(t, int64(1500), fake.BasePrice)

	assert.Equal(t, []ShelfSlot{{Product: "pork", Units: 3}}, c.Shelf())

	label, ok := c.Label("4006381333931")
	require.True(t, ok)
	assert.True(t, label.Flat)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "unknown type", src: "products:\n  - name: x\n    type: Candy\n    price: 1\n"},
		{name: "unknown field", src: "products:\n  - name: x\n    type: Pantry\n    price: 1\n    color: red\n"},
		{name: "shelf of unknown product", src: "shelf:\n  - product: ghost\n    units: 1\n"},
		{name: "bad barcode", src: "labels:\n  - barcode: \"123\"\n    price: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - name: rice\n    type: Pantry\n    price: 900\n"), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	_, ok := c.Get("rice")
	assert.True(t, ok)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, c.Shelf())
	assert.NotEmpty(t, c.Labels())
	for _, tp := range []model.ProductType{model.ProductTypeCannedPork, model.ProductTypePantry, model.ProductTypePackedLunch} {
		_, ok := c.FindFake(tp, model.BrandHigh)
		assert.True(t, ok, "fake template for %s", tp)
	}
}
