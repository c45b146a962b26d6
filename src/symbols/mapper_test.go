package symbols

import "testing"

func TestStreamAndPollSymbolsExistForEveryID(t *testing.T) {
	for _, id := range InternalIDs() {
		stream, ok := StreamSymbol(id)
		if !ok || stream == "" {
			t.Errorf("no stream symbol for internal id %q", id)
		}
		poll, ok := PollSymbol(id)
		if !ok || poll == "" {
			t.Errorf("no poll symbol for internal id %q", id)
		}
	}
}

func TestReverseMapRoundTrips(t *testing.T) {
	for _, id := range InternalIDs() {
		stream, _ := StreamSymbol(id)
		got, ok := InternalID(stream)
		if !ok {
			t.Fatalf("reverse lookup missing for %q", stream)
		}
		if got != id {
			t.Errorf("round trip %s -> %s -> %s, want %s", id, stream, got, id)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sp500", "SPY"},
		{"gold", "GLD"},
		{"AAPL", "AAPL"},   // raw ticker passes through
		{"TSLA", "TSLA"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultStreamSymbolsMatchesMap(t *testing.T) {
	syms := DefaultStreamSymbols()
	if len(syms) != len(InternalIDs()) {
		t.Fatalf("expected %d default symbols, got %d", len(InternalIDs()), len(syms))
	}
	for _, sym := range syms {
		if _, ok := InternalID(sym); !ok {
			t.Errorf("default symbol %q not present in reverse map", sym)
		}
	}
}
