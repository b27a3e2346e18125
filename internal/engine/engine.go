package engine

// Engine is the ambient, multi-instrument router placed in front of the
// core OrderBook. It is deliberately thin: it owns no matching logic of
// its own, just a map from AssetType to the OrderBook that handles it and
// the wiring needed to forward trades to a Reporter collaborator. The
// core, per SPEC_FULL.md §1, is the OrderBook; Engine exists so a single
// process can run more than one instrument's book side by side.
type Engine struct {
	Books    map[AssetType]*OrderBook
	reporter Reporter
	clock    Clock
}

// Reporter receives trades and errors produced while routing operations
// through Engine. It is the ambient trade-sink collaborator from
// SPEC_FULL.md §6; the reference implementation is internal/net.Server.
type Reporter interface {
	ReportTrade(assetType AssetType, trade Trade)
	ReportError(assetType AssetType, owner string, err error)
}

// New constructs an Engine with one OrderBook per supportedAsset. Callers
// typically pass engine.Equities for a single-instrument deployment.
func New(supportedAssets ...AssetType) *Engine {
	e := &Engine{
		Books: make(map[AssetType]*OrderBook),
		clock: SystemClock{},
	}
	for _, assetType := range supportedAssets {
		e.Books[assetType] = NewOrderBook(e.clock)
	}
	return e
}

// SetReporter wires r to receive every future trade produced by any book
// this Engine owns. It is safe to call once at startup, before any
// concurrent traffic begins; Engine itself does not serialize calls to
// SetReporter against PlaceOrder/CancelOrder/ModifyOrder.
func (e *Engine) SetReporter(r Reporter) {
	e.reporter = r
	for assetType, book := range e.Books {
		assetType := assetType
		book.onTrade = func(t Trade) {
			if e.reporter != nil {
				e.reporter.ReportTrade(assetType, t)
			}
		}
	}
}

// PlaceOrder routes order to the book for assetType and submits it. Any
// error returned by the book's Submit is also forwarded to the Reporter,
// addressed to order.Owner, so a front-end can relay it back to the
// submitting session. Submit itself does not validate the order (that
// happens in NewOrder) and currently always returns a nil error.
func (e *Engine) PlaceOrder(assetType AssetType, order Order) error {
	book, ok := e.Books[assetType]
	if !ok {
		return ErrUnknownAsset
	}
	_, err := book.Submit(order)
	if err != nil && e.reporter != nil {
		e.reporter.ReportError(assetType, order.Owner, err)
	}
	return err
}

// CancelOrder routes a cancellation to the book for assetType.
func (e *Engine) CancelOrder(assetType AssetType, id OrderID) error {
	book, ok := e.Books[assetType]
	if !ok {
		return ErrUnknownAsset
	}
	return book.Cancel(id)
}

// ModifyOrder routes a modification to the book for assetType.
func (e *Engine) ModifyOrder(assetType AssetType, id OrderID, newPrice Price, newQuantity Quantity) error {
	book, ok := e.Books[assetType]
	if !ok {
		return ErrUnknownAsset
	}
	_, err := book.Modify(id, newPrice, newQuantity)
	if err != nil && e.reporter != nil {
		e.reporter.ReportError(assetType, "", err)
	}
	return err
}

// GoodForDayIDs returns the resting GoodForDay ids for assetType, for the
// session controller collaborator to sweep at session close.
func (e *Engine) GoodForDayIDs(assetType AssetType) ([]OrderID, error) {
	book, ok := e.Books[assetType]
	if !ok {
		return nil, ErrUnknownAsset
	}
	return book.GoodForDayIDs(), nil
}

// LogBook logs a summary of every book's top-of-book state. It is the
// debug hook the reference front-end's "log" client command exercises.
func (e *Engine) LogBook() {
	for assetType, book := range e.Books {
		logBookSummary(assetType, book)
	}
}
