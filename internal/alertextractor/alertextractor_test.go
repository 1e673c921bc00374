package alertextractor

import (
	"strings"
	"testing"
)

// TestExtract_ScenarioOne mirrors spec §8 scenario 1: a block followed
// by the marker and trailing prose yields just the prose.
func TestExtract_ScenarioOne(t *testing.T) {
	msg := `deribit(BTC-PERPETUAL) { limitOrder(side=buy, amount=1, offset=100); } {!} done`
	text, ok := Extract(msg)
	if !ok {
		t.Fatalf("expected marker to be detected")
	}
	if text != "done" {
		t.Fatalf("text = %q, want %q", text, "done")
	}
}

func TestExtract_NoMarker(t *testing.T) {
	msg := `deribit(BTC-PERPETUAL) { limitOrder(side=buy, amount=1, offset=100); }`
	_, ok := Extract(msg)
	if ok {
		t.Fatalf("expected no marker detected")
	}
}

func TestExtract_StripsMultipleBlocksAndCollapsesWhitespace(t *testing.T) {
	msg := "binance(BTCUSDT) { wait(20s); }   some   prose   {!}   more   text   ftx(ETH-PERP) { notify(\"x\"); }"
	text, ok := Extract(msg)
	if !ok {
		t.Fatalf("expected marker to be detected")
	}
	if text != "some prose more text" {
		t.Fatalf("text = %q, want %q", text, "some prose more text")
	}
}

func TestExtract_MarkerOnlyYieldsEmptyString(t *testing.T) {
	msg := `{!}`
	text, ok := Extract(msg)
	if !ok {
		t.Fatalf("expected marker to be detected")
	}
	if text != "" {
		t.Fatalf("text = %q, want empty", text)
	}
}

func TestExtract_OutputContainsNoMarkerOrBlock(t *testing.T) {
	msg := `deribit(BTC) { limitOrder(side=buy); } {!} ok kraken(ETH) { wait(1s); }`
	text, ok := Extract(msg)
	if !ok {
		t.Fatalf("expected marker to be detected")
	}
	if blockPattern.MatchString(text) {
		t.Fatalf("output still contains a block: %q", text)
	}
	if strings.Contains(text, marker) {
		t.Fatalf("output still contains the marker: %q", text)
	}
}
