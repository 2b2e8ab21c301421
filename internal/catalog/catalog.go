// Package catalog хранит определения товаров, раскладку полки и инвентарь наклеек.
package catalog

import (
	"errors"
	"fmt"

	"github.com/mmeshcher/checkout-sim/internal/model"
	"github.com/mmeshcher/checkout-sim/internal/validation"
)

var (
	// ErrDuplicateProduct возвращается при повторной регистрации товара с тем же именем.
	ErrDuplicateProduct = errors.New("product already registered")
	// ErrUnknownProduct возвращается, если товар не найден в каталоге.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrInvalidProduct возвращается для некорректного определения товара.
	ErrInvalidProduct = errors.New("invalid product definition")
	// ErrInvalidLabel возвращается для наклейки с неверным штрихкодом или ценой.
	ErrInvalidLabel = errors.New("invalid barcode label")
	// ErrDuplicateLabel возвращается при повторном добавлении штрихкода.
	ErrDuplicateLabel = errors.New("barcode label already registered")
)

// ShelfSlot описывает позицию полки: товар и количество единиц.
type ShelfSlot struct {
	Product string
	Units   int
}

// Catalog содержит зарегистрированные товары. Наполняется при загрузке,
// после чего используется только на чтение и может разделяться между играми.
type Catalog struct {
	products []model.ProductDefinition
	byName   map[string]int
	shelf    []ShelfSlot
	labels   []model.BarcodeLabel
	byLabel  map[string]int
}

// New создаёт пустой каталог.
func New() *Catalog {
	return &Catalog{
		byName:  make(map[string]int),
		byLabel: make(map[string]int),
	}
}

// Register добавляет определение товара.
func (c *Catalog) Register(def model.ProductDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProduct)
	}
	if def.Type == model.ProductTypeNone {
		return fmt.Errorf("%w: %s has no type", ErrInvalidProduct, def.Name)
	}
	if def.BasePrice < 0 || (!def.IsFake && def.BasePrice == 0) {
		return fmt.Errorf("%w: %s has price %d", ErrInvalidProduct, def.Name, def.BasePrice)
	}
	if _, ok := c.byName[def.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProduct, def.Name)
	}

	c.byName[def.Name] = len(c.products)
	c.products = append(c.products, def)
	return nil
}

// Get возвращает товар по имени.
func (c *Catalog) Get(name string) (model.ProductDefinition, bool) {
	i, ok := c.byName[name]
	if !ok {
		return model.ProductDefinition{}, false
	}
	return c.products[i], true
}

// All возвращает все определения в порядке регистрации.
func (c *Catalog) All() []model.ProductDefinition {
	out := make([]model.ProductDefinition, len(c.products))
	copy(out, c.products)
	return out
}

// Real возвращает только настоящие товары.
func (c *Catalog) Real() []model.ProductDefinition {
	out := make([]model.ProductDefinition, 0, len(c.products))
	for _, p := range c.products {
		if !p.IsFake {
			out = append(out, p)
		}
	}
	return out
}

// Fakes возвращает шаблоны подделок.
func (c *Catalog) Fakes() []model.ProductDefinition {
	var out []model.ProductDefinition
	for _, p := range c.products {
		if p.IsFake {
			out = append(out, p)
		}
	}
	return out
}

// ByType возвращает настоящие товары указанного типа.
func (c *Catalog) ByType(t model.ProductType) []model.ProductDefinition {
	var out []model.ProductDefinition
	for _, p := range c.products {
		if !p.IsFake && p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

// FindFake ищет шаблон подделки для пары (тип, целевая марка).
func (c *Catalog) FindFake(t model.ProductType, target model.BrandGrade) (model.ProductDefinition, bool) {
	for _, p := range c.products {
		if p.IsFake && p.Type == t && p.Brand == target {
			return p, true
		}
	}
	return model.ProductDefinition{}, false
}

// AddShelf добавляет на полку units единиц настоящего товара.
func (c *Catalog) AddShelf(product string, units int) error {
	def, ok := c.Get(product)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, product)
	}
	if def.IsFake {
		return fmt.Errorf("%w: fake template %s cannot be stocked", ErrInvalidProduct, product)
	}
	if units <= 0 {
		return fmt.Errorf("%w: %s has %d units", ErrInvalidProduct, product, units)
	}

	c.shelf = append(c.shelf, ShelfSlot{Product: product, Units: units})
	return nil
}

// Shelf возвращает раскладку полки.
func (c *Catalog) Shelf() []ShelfSlot {
	out := make([]ShelfSlot, len(c.shelf))
	copy(out, c.shelf)
	return out
}

// AddLabel добавляет наклейку в инвентарь.
func (c *Catalog) AddLabel(l model.BarcodeLabel) error {
	if !validation.IsValidBarcode(l.ID) {
		return fmt.Errorf("%w: barcode %q", ErrInvalidLabel, l.ID)
	}
	if l.Price <= 0 {
		return fmt.Errorf("%w: %s has price %d", ErrInvalidLabel, l.ID, l.Price)
	}
	if _, ok := c.byLabel[l.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateLabel, l.ID)
	}

	c.byLabel[l.ID] = len(c.labels)
	c.labels = append(c.labels, l)
	return nil
}

// Label возвращает наклейку по штрихкоду.
func (c *Catalog) Label(id string) (model.BarcodeLabel, bool) {
	i, ok := c.byLabel[id]
	if !ok {
		return model.BarcodeLabel{}, false
	}
	return c.labels[i], true
}

// Labels возвращает инвентарь наклеек.
func (c *Catalog) Labels() []model.BarcodeLabel {
	out := make([]model.BarcodeLabel, len(c.labels))
	copy(out, c.labels)
	return out
}
