package game

import (
	"fmt"
	"time"

	"github.com/mmeshcher/checkout-sim/internal/checkout"
	"github.com/mmeshcher/checkout-sim/internal/model"
	"github.com/mmeshcher/checkout-sim/internal/scan"
	"github.com/mmeshcher/checkout-sim/internal/validation"
)

const (
	reasonGameOver    = "game is over"
	reasonNoCustomer  = "no customer at checkout"
	reasonPaying      = "payment already in progress"
	reasonFraudOff    = "fraud mode is off"
	reasonUnknownItem = "unknown product instance"
	reasonNoChangeDue = "no change is due"
)

func (g *Game) scanGuard() (Outcome, bool) {
	if g.Over() {
		return notAllowed(reasonGameOver), false
	}
	if g.customer == nil || g.customer.State != model.CustomerReadyForCheckout || g.tx == nil {
		return notAllowed(reasonNoCustomer), false
	}
	if g.phase != PhaseScanning {
		return notAllowed(reasonPaying), false
	}
	return Outcome{}, true
}

// ScanProduct пробивает единицу товара. Повторное сканирование проходит,
// но внимательный покупатель его замечает.
func (g *Game) ScanProduct(instanceID string) Outcome {
	if o, ok := g.scanGuard(); !ok {
		return o
	}
	inst, ok := g.stock[instanceID]
	if !ok {
		return notAllowed(reasonUnknownItem)
	}

	switch g.ledger.RecordScan(instanceID) {
	case scan.FirstScan:
		g.tx.AddItem(*inst)
		g.emit(EventTotalChanged, inst.Definition.Name, g.tx.Total())
	case scan.Duplicate:
		g.tx.AddRescan(*inst)
		g.emit(EventTotalChanged, inst.Definition.Name, g.tx.Total())
		g.suspect("duplicate scan", "Hey, didn't you already scan that?")
	}
	return accepted()
}

// ScanFlatBarcode пробивает наклейку с фиксированной суммой без товара.
func (g *Game) ScanFlatBarcode(value int64) Outcome {
	if o, ok := g.scanGuard(); !ok {
		return o
	}
	if value <= 0 {
		return notAllowed("flat price must be positive")
	}

	g.tx.AddFlatPrice(value)
	g.emit(EventTotalChanged, "flat barcode", g.tx.Total())
	if g.settings.SuspectFlatBarcode {
		g.suspect("flat price sticker", "What was that sticker you just scanned?")
	}
	return accepted()
}

// SwapBarcode переклеивает ценник. Себестоимость единицы не меняется. Если камера
// в этот момент смотрит, фиксируется ошибка, но переклейка всё равно остаётся.
// Нулевая цена означает наклейку из инвентаря каталога.
func (g *Game) SwapBarcode(instanceID string, label model.BarcodeLabel) Outcome {
	if g.Over() {
		return notAllowed(reasonGameOver)
	}
	if !g.gate.Active() {
		return notAllowed(reasonFraudOff)
	}
	inst, ok := g.stock[instanceID]
	if !ok {
		return notAllowed(reasonUnknownItem)
	}

	if label.Price == 0 {
		known, ok := g.catalog.Label(label.ID)
		if !ok {
			return notAllowed("unknown barcode label")
		}
		label = known
	}
	if !validation.IsValidBarcode(label.ID) {
		return notAllowed("invalid barcode")
	}
	if label.Price <= 0 {
		return notAllowed("label price must be positive")
	}
	if label.Flat {
		return notAllowed("flat price sticker cannot label a product")
	}
	if inst.Label.BarcodeID == label.ID && inst.Label.DisplayedPrice == label.Price {
		return noOp("label already attached")
	}

	inst.Label.BarcodeID = label.ID
	inst.Label.DisplayedPrice = label.Price
	g.emit(EventBarcodeSwapped, inst.Definition.Name, label.Price)

	if g.camera.Watching() {
		g.addMistake(model.MistakeBarcodeChangeCCTVDetected, fmt.Sprintf("relabelled %s on camera", inst.Definition.Name))
	}
	return accepted()
}

func (g *Game) brandSwapGuard(instanceID string, target model.BrandGrade) (Outcome, bool) {
	if g.Over() {
		return notAllowed(reasonGameOver), false
	}
	if !g.gate.Active() {
		return notAllowed(reasonFraudOff), false
	}
	inst, ok := g.stock[instanceID]
	if !ok {
		return notAllowed(reasonUnknownItem), false
	}
	if inst.IsFake {
		return notAllowed("product is already counterfeit"), false
	}
	if inst.CurrentBrand == target {
		return notAllowed("product already has that brand"), false
	}
	if _, ok := g.catalog.FindFake(inst.Definition.Type, target); !ok {
		return notAllowed("no counterfeit cover for this product"), false
	}
	return Outcome{}, true
}

// SwapBrand взводит подмену марки. Подмена применяется после задержки наведения
// при условии, что все проверки по-прежнему проходят.
func (g *Game) SwapBrand(instanceID string, target model.BrandGrade) Outcome {
	if o, ok := g.brandSwapGuard(instanceID, target); !ok {
		return o
	}

	if g.settings.HoverDelay <= 0 {
		g.pending = nil
		g.commitBrandSwap(instanceID, target)
		return accepted()
	}
	g.pending = &pendingSwap{instanceID: instanceID, target: target, left: g.settings.HoverDelay}
	return accepted()
}

// CancelBrandSwap отменяет взведённую подмену марки.
func (g *Game) CancelBrandSwap() Outcome {
	if g.Over() {
		return notAllowed(reasonGameOver)
	}
	if g.pending == nil {
		return noOp("no brand swap pending")
	}
	g.pending = nil
	return accepted()
}

func (g *Game) tickPendingSwap(dt time.Duration) {
	p := g.pending
	if p == nil {
		return
	}
	p.left -= dt
	if p.left > 0 {
		return
	}

	g.pending = nil
	if _, ok := g.brandSwapGuard(p.instanceID, p.target); ok {
		g.commitBrandSwap(p.instanceID, p.target)
	}
}

func (g *Game) commitBrandSwap(instanceID string, target model.BrandGrade) {
	inst := g.stock[instanceID]
	tmpl, _ := g.catalog.FindFake(inst.Definition.Type, target)

	inst.OriginalBrand = inst.CurrentBrand
	inst.CurrentBrand = target
	inst.IsFake = true

	price := tmpl.BasePrice
	if price <= 0 {
		price = g.pricing.AdjustedPrice(inst.Definition, target)
	}
	inst.Label = model.PriceLabel{
		BarcodeID:      model.FakeBarcodeID,
		DisplayedPrice: price,
		RealCost:       g.pricing.RealCost(*inst),
	}
	g.emit(EventBrandSwapped, fmt.Sprintf("%s -> %s", inst.Definition.Name, target), price)

	if !g.attentive() {
		return
	}
	g.suspect("brand swap", "Wait, did you just change that label?")
	if g.settings.MistakeOnWitnessedBrandSwap {
		g.addMistake(model.MistakeBrandChangeDetected, fmt.Sprintf("customer saw %s being rebranded", inst.Definition.Name))
	}
}

// DepositChangeMoney кладёт деньги в лоток сдачи. Фальшивку, положенную на глазах
// у внимательного покупателя, он замечает.
func (g *Game) DepositChangeMoney(amount int64, fake bool) Outcome {
	if g.Over() {
		return notAllowed(reasonGameOver)
	}
	if g.phase != PhaseAwaitingChange {
		return notAllowed(reasonNoChangeDue)
	}
	if fake && !g.gate.Active() {
		return notAllowed(reasonFraudOff)
	}

	witnessed := fake && g.attentive()
	if err := g.tray.Deposit(amount, fake, witnessed); err != nil {
		return notAllowed(err.Error())
	}

	if witnessed {
		g.emit(EventCustomerDialogue, "Is this money fake?", 0)
		g.addMistake(model.MistakeFakeMoneyDetected, fmt.Sprintf("customer noticed %d in fake notes", amount))
	}
	return accepted()
}

// WithdrawChangeMoney забирает деньги из лотка сдачи.
func (g *Game) WithdrawChangeMoney(amount int64, fake bool) Outcome {
	if g.Over() {
		return notAllowed(reasonGameOver)
	}
	if g.phase != PhaseAwaitingChange {
		return notAllowed(reasonNoChangeDue)
	}
	if err := g.tray.Withdraw(amount, fake); err != nil {
		return notAllowed(err.Error())
	}
	return accepted()
}

// ToggleFraudMode переключает режим махинаций.
func (g *Game) ToggleFraudMode() Outcome {
	if g.Over() {
		return notAllowed(reasonGameOver)
	}

	state := "inactive"
	if g.gate.Toggle() {
		state = "active"
	}
	g.emit(EventFraudModeChanged, state, 0)
	return accepted()
}

// AttemptCheckout продвигает оплату: начинает её, завершает оплату картой
// или рассчитывает сдачу и закрывает продажу.
func (g *Game) AttemptCheckout() Outcome {
	if g.Over() {
		return notAllowed(reasonGameOver)
	}
	c := g.customer
	if c == nil || !c.State.AtCounter() || g.tx == nil {
		return notAllowed(reasonNoCustomer)
	}

	switch g.phase {
	case PhaseScanning:
		return g.startPayment()
	case PhaseAwaitingCard:
		g.finalize(nil)
		return accepted()
	case PhaseAwaitingChange:
		s := checkout.Settle(g.paid, g.tx.Total(), &g.tray, c.Type, g.settings.FakeChangePolicy)
		g.finalize(&s)
		return accepted()
	default:
		return notAllowed(reasonNoCustomer)
	}
}

func (g *Game) startPayment() Outcome {
	c := g.customer
	if g.tx.ItemCount() == 0 {
		return notAllowed("nothing scanned")
	}

	total := g.tx.Total()
	if !c.CheckFraudLimit(total) {
		g.emit(EventCustomerDialogue, "This is way too expensive! I'm leaving.", 0)
		g.emit(EventCustomerLeftAngry, c.LeaveReason, total)
		g.release()
		return accepted()
	}

	c.StartPaying()
	if g.rnd.Float64() < g.settings.CardPaymentChance {
		g.method = model.PaymentCard
		g.phase = PhaseAwaitingCard
		g.emit(EventPaymentStarted, "card", total)
		return accepted()
	}

	g.method = model.PaymentCash
	g.paid = checkout.ChoosePayment(total, g.rnd)
	g.phase = PhaseAwaitingChange
	g.emit(EventPaymentStarted, "cash "+checkout.FormatNotes(checkout.Breakdown(g.paid)), g.paid)
	return accepted()
}

// finalize закрывает продажу: сверяет корзину, начисляет прибыль, списывает
// проданные единицы с полки и освобождает кассу.
func (g *Game) finalize(s *checkout.Settlement) {
	c := g.customer
	res := g.tx.Finalize(g.resolveWanted(c.Wanted))

	receipt := model.Receipt{
		TransactionID: g.tx.ID,
		CustomerID:    c.ID,
		CustomerType:  c.Type,
		FlatEntries:   g.tx.FlatEntries(),
		Total:         res.Total,
		Cost:          res.Cost,
		ItemProfit:    res.Profit,
		Method:        g.method,
		Matched:       res.Matched,
		At:            g.clock,
	}
	var sold []string
	for _, e := range g.tx.Entries() {
		receipt.Lines = append(receipt.Lines, model.ReceiptLine{
			InstanceID:     e.Instance.ID,
			Name:           e.Instance.Definition.Name,
			Type:           e.Instance.Definition.Type,
			Brand:          e.Instance.CurrentBrand,
			IsFake:         e.Instance.IsFake,
			DisplayedPrice: e.Instance.Label.DisplayedPrice,
			RealCost:       e.RealCost,
			Rescan:         e.Rescan,
		})
		if !e.Rescan {
			sold = append(sold, e.Instance.ID)
		}
	}
	if s != nil {
		receipt.Paid = s.Paid
		receipt.ExpectedChange = s.Expected
		receipt.GivenChange = s.Given()
		receipt.FakeChangeCredited = s.FakeCredited
	}

	credit := receipt.Profit()
	g.stats.Wallet += credit
	g.stats.Transactions++
	g.stats.TotalSales += res.Total
	g.stats.TotalProfit += credit
	g.receipts = append(g.receipts, receipt)

	for _, id := range sold {
		g.consume(id)
	}

	c.Complete()
	g.emit(EventCheckoutCompleted, receipt.TransactionID, res.Total)
	g.emit(EventWalletChanged, fmt.Sprintf("%+d", credit), g.stats.Wallet)
	g.release()

	if !res.Matched {
		g.addMistake(model.MistakeWrongProductInCheckout, "basket did not match the shopping list")
	}
	if s != nil && s.Mistake {
		g.addMistake(model.MistakeChangeAmount, fmt.Sprintf("expected change %d, given %d", s.Expected, s.Given()))
	}
}
