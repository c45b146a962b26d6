package symbols

// -----------------------------------------------------------------------------
// Static symbol tables. The streaming provider's free tier has no index
// feeds, so liquid ETFs stand in for the indices there; the polling provider
// serves the real index symbols. Both tables are fixed at process start.
// -----------------------------------------------------------------------------

var streamMap = map[string]string{
	"sp500":       "SPY",
	"dow30":       "DIA",
	"nasdaq":      "QQQ",
	"russell2000": "IWM",
	"vix":         "VIXY",
	"gold":        "GLD",
}

var pollMap = map[string]string{
	"sp500":       "^GSPC",
	"dow30":       "^DJI",
	"nasdaq":      "^IXIC",
	"russell2000": "^RUT",
	"vix":         "^VIX",
	"gold":        "GC=F",
}

// reverseMap annotates inbound trades with their internal id.
var reverseMap = func() map[string]string {
	m := make(map[string]string, len(streamMap))
	for id, sym := range streamMap {
		m[sym] = id
	}
	return m
}()

// -----------------------------------------------------------------------------

// StreamSymbol returns the streaming-provider symbol for an internal id.
func StreamSymbol(internalID string) (string, bool) {
	sym, ok := streamMap[internalID]
	return sym, ok
}

// -----------------------------------------------------------------------------

// PollSymbol returns the polling-provider symbol for an internal id.
func PollSymbol(internalID string) (string, bool) {
	sym, ok := pollMap[internalID]
	return sym, ok
}

// -----------------------------------------------------------------------------

// InternalID resolves a streaming-provider symbol back to its internal id.
func InternalID(streamSymbol string) (string, bool) {
	id, ok := reverseMap[streamSymbol]
	return id, ok
}

// -----------------------------------------------------------------------------

// Resolve maps an internal id to its streaming symbol; anything that is not
// a known internal id passes through unchanged (raw tickers from clients).
func Resolve(symbolOrID string) string {
	if sym, ok := streamMap[symbolOrID]; ok {
		return sym
	}
	return symbolOrID
}

// -----------------------------------------------------------------------------

// InternalIDs lists every internal index identifier.
func InternalIDs() []string {
	ids := make([]string, 0, len(streamMap))
	for id := range streamMap {
		ids = append(ids, id)
	}
	return ids
}

// -----------------------------------------------------------------------------

// DefaultStreamSymbols is the symbol set subscribed on every upstream connect.
func DefaultStreamSymbols() []string {
	syms := make([]string, 0, len(streamMap))
	for _, sym := range streamMap {
		syms = append(syms, sym)
	}
	return syms
}
