// Package model содержит доменные сущности симулятора кассы.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ProductType описывает тип товара. Совпадение типа и марки используется при сверке корзины.
type ProductType int

const (
	ProductTypeNone ProductType = iota
	ProductTypeCannedPork
	ProductTypePantry
	ProductTypePackedLunch
)

var productTypeNames = map[ProductType]string{
	ProductTypeNone:        "None",
	ProductTypeCannedPork:  "CannedPork",
	ProductTypePantry:      "Pantry",
	ProductTypePackedLunch: "PackedLunch",
}

func (t ProductType) String() string {
	if name, ok := productTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ProductType(%d)", int(t))
}

// ParseProductType разбирает название типа товара без учёта регистра.
func ParseProductType(s string) (ProductType, error) {
	for t, name := range productTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return ProductTypeNone, fmt.Errorf("unknown product type %q", s)
}

// MarshalText реализует encoding.TextMarshaler.
func (t ProductType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (t *ProductType) UnmarshalText(text []byte) error {
	parsed, err := ParseProductType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// BrandGrade описывает ценовой уровень марки товара.
type BrandGrade int

const (
	BrandLow BrandGrade = iota
	BrandHigh
)

func (g BrandGrade) String() string {
	switch g {
	case BrandLow:
		return "Low"
	case BrandHigh:
		return "High"
	default:
		return fmt.Sprintf("BrandGrade(%d)", int(g))
	}
}

// ParseBrandGrade разбирает название марки без учёта регистра.
func ParseBrandGrade(s string) (BrandGrade, error) {
	switch strings.ToLower(s) {
	case "low":
		return BrandLow, nil
	case "high":
		return BrandHigh, nil
	default:
		return BrandLow, fmt.Errorf("unknown brand grade %q", s)
	}
}

// MarshalText реализует encoding.TextMarshaler.
func (g BrandGrade) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (g *BrandGrade) UnmarshalText(text []byte) error {
	parsed, err := ParseBrandGrade(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// CustomerType описывает тип покупателя.
type CustomerType int

const (
	CustomerNormal CustomerType = iota
	// CustomerOnPhone постоянно отвлечён и ничего не замечает.
	CustomerOnPhone
	CustomerDrunk
)

func (c CustomerType) String() string {
	switch c {
	case CustomerNormal:
		return "Normal"
	case CustomerOnPhone:
		return "OnPhone"
	case CustomerDrunk:
		return "Drunk"
	default:
		return fmt.Sprintf("CustomerType(%d)", int(c))
	}
}

// MarshalText реализует encoding.TextMarshaler.
func (c CustomerType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// CustomerState описывает стадию визита покупателя.
type CustomerState int

const (
	CustomerShopping CustomerState = iota
	CustomerReadyForCheckout
	CustomerPaying
	CustomerLeaving
	CustomerCompleted
	CustomerLeftAngry
)

func (s CustomerState) String() string {
	switch s {
	case CustomerShopping:
		return "Shopping"
	case CustomerReadyForCheckout:
		return "ReadyForCheckout"
	case CustomerPaying:
		return "Paying"
	case CustomerLeaving:
		return "Leaving"
	case CustomerCompleted:
		return "Completed"
	case CustomerLeftAngry:
		return "LeftAngry"
	default:
		return fmt.Sprintf("CustomerState(%d)", int(s))
	}
}

// MarshalText реализует encoding.TextMarshaler.
func (s CustomerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal сообщает, завершён ли визит покупателя.
func (s CustomerState) Terminal() bool {
	return s == CustomerLeaving || s == CustomerCompleted || s == CustomerLeftAngry
}

// AtCounter сообщает, находится ли покупатель у кассы.
func (s CustomerState) AtCounter() bool {
	return s == CustomerReadyForCheckout || s == CustomerPaying
}

// MistakeType описывает причину ошибки игрока.
type MistakeType int

const (
	MistakeBrandChangeDetected MistakeType = iota
	MistakeWrongProductInCheckout
	MistakeCustomerTimeout
	MistakeFakeMoneyDetected
	MistakeBarcodeChangeCCTVDetected
	MistakeChangeAmount
)

func (m MistakeType) String() string {
	switch m {
	case MistakeBrandChangeDetected:
		return "BrandChangeDetected"
	case MistakeWrongProductInCheckout:
		return "WrongProductInCheckout"
	case MistakeCustomerTimeout:
		return "CustomerTimeout"
	case MistakeFakeMoneyDetected:
		return "FakeMoneyDetected"
	case MistakeBarcodeChangeCCTVDetected:
		return "BarcodeChangeCCTVDetected"
	case MistakeChangeAmount:
		return "ChangeAmountMistake"
	default:
		return fmt.Sprintf("MistakeType(%d)", int(m))
	}
}

// MarshalText реализует encoding.TextMarshaler.
func (m MistakeType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// PaymentMethod описывает способ оплаты покупки.
type PaymentMethod int

const (
	PaymentNone PaymentMethod = iota
	PaymentCard
	PaymentCash
)

func (p PaymentMethod) String() string {
	switch p {
	case PaymentCard:
		return "Card"
	case PaymentCash:
		return "Cash"
	default:
		return "None"
	}
}

// MarshalText реализует encoding.TextMarshaler.
func (p PaymentMethod) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ProductDefinition описывает товар каталога. Записи с IsFake служат шаблонами подделок
// для пары (тип, целевая марка).
type ProductDefinition struct {
	Name      string      `json:"name" yaml:"name"`
	Type      ProductType `json:"type" yaml:"type"`
	BasePrice int64       `json:"base_price" yaml:"price"`
	Brand     BrandGrade  `json:"brand" yaml:"brand"`
	IsFake    bool        `json:"is_fake" yaml:"fake"`
}

// PriceLabel описывает ценник, прикреплённый к товару.
type PriceLabel struct {
	BarcodeID      string `json:"barcode_id"`
	DisplayedPrice int64  `json:"displayed_price"`
	RealCost       int64  `json:"real_cost"`
}

// FakeBarcodeID помечает ценник, созданный подменой марки.
const FakeBarcodeID = "FAKE"

// OriginalBarcodeID помечает заводской ценник товара.
const OriginalBarcodeID = "ORIGINAL"

// BarcodeLabel описывает наклейку со штрихкодом из инвентаря игрока.
// Flat-наклейки сканируются без товара и добавляют фиксированную сумму.
type BarcodeLabel struct {
	ID    string `json:"id" yaml:"barcode"`
	Price int64  `json:"price" yaml:"price"`
	Flat  bool   `json:"flat" yaml:"flat"`
}

// ProductInstance описывает конкретную единицу товара на полке.
type ProductInstance struct {
	ID            string            `json:"id"`
	Definition    ProductDefinition `json:"definition"`
	CurrentBrand  BrandGrade        `json:"current_brand"`
	OriginalBrand BrandGrade        `json:"original_brand"`
	IsFake        bool              `json:"is_fake"`
	Label         PriceLabel        `json:"label"`
}

// ScanRecord фиксирует сканирование единицы товара в рамках транзакции.
type ScanRecord struct {
	InstanceID    string
	TransactionID string
}

// WantedItem описывает позицию списка покупок. Тип и марка берутся из живой единицы товара,
// поля Type и Brand хранят их значения на момент выбора.
type WantedItem struct {
	InstanceID string      `json:"instance_id"`
	Name       string      `json:"name"`
	Type       ProductType `json:"type"`
	Brand      BrandGrade  `json:"brand"`
	TruePrice  int64       `json:"true_price"`
}

// Mistake описывает запись журнала ошибок игрока.
type Mistake struct {
	Type   MistakeType   `json:"type"`
	Detail string        `json:"detail"`
	At     time.Duration `json:"at"`
}

// ReceiptLine описывает строку чека.
type ReceiptLine struct {
	InstanceID     string      `json:"instance_id"`
	Name           string      `json:"name"`
	Type           ProductType `json:"type"`
	Brand          BrandGrade  `json:"brand"`
	IsFake         bool        `json:"is_fake"`
	DisplayedPrice int64       `json:"displayed_price"`
	RealCost       int64       `json:"real_cost"`
	Rescan         bool        `json:"rescan"`
}

// Receipt описывает завершённую продажу.
type Receipt struct {
	TransactionID      string        `json:"transaction_id"`
	CustomerID         string        `json:"customer_id"`
	CustomerType       CustomerType  `json:"customer_type"`
	Lines              []ReceiptLine `json:"lines"`
	FlatEntries        []int64       `json:"flat_entries"`
	Total              int64         `json:"total"`
	Cost               int64         `json:"cost"`
	ItemProfit         int64         `json:"item_profit"`
	Method             PaymentMethod `json:"method"`
	Paid               int64         `json:"paid"`
	ExpectedChange     int64         `json:"expected_change"`
	GivenChange        int64         `json:"given_change"`
	FakeChangeCredited int64         `json:"fake_change_credited"`
	Matched            bool          `json:"matched"`
	At                 time.Duration `json:"at"`
}

// Profit возвращает сумму, зачисленную в кошелёк по чеку.
func (r Receipt) Profit() int64 {
	return r.ItemProfit + r.FakeChangeCredited
}

// Stats содержит сводные показатели продаж за игру.
type Stats struct {
	Transactions int   `json:"transactions"`
	TotalSales   int64 `json:"total_sales"`
	TotalProfit  int64 `json:"total_profit"`
	Wallet       int64 `json:"wallet"`
}
