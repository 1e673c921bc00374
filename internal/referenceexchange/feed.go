package referenceexchange

import (
	"context"
	"encoding/json"
	"log/slog"

	"algotrade/internal/domain"
	"algotrade/internal/infra"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// tickerMessage is the wire shape the feed expects: one JSON object
// per line, {"symbol":"BTC-PERPETUAL","bid":"999","ask":"1000","last":"999.5"}.
type tickerMessage struct {
	Symbol string `json:"symbol"`
	Bid    string `json:"bid"`
	Ask    string `json:"ask"`
	Last   string `json:"last"`
}

// Feed streams ticker updates from a WebSocket source into a Port's
// ticker cache, so a PAPER-mode daemon sees moving prices instead of
// a frozen SetTicker call. It implements infra.WebSocketHandler.
type Feed struct {
	url  string
	port *Port
}

// NewFeed builds a Feed that updates port from messages read at url.
func NewFeed(url string, port *Port) *Feed {
	return &Feed{url: url, port: port}
}

func (f *Feed) GetURL() string { return f.url }
func (f *Feed) ID() string     { return "referenceexchange-feed" }

func (f *Feed) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	return nil
}

func (f *Feed) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return conn.WriteMessage(websocket.PingMessage, nil)
}

func (f *Feed) OnMessage(ctx context.Context, msg []byte) {
	var tm tickerMessage
	if err := json.Unmarshal(msg, &tm); err != nil {
		slog.Warn("referenceexchange feed: malformed message", slog.Any("error", err))
		return
	}
	bid, err1 := decimal.NewFromString(tm.Bid)
	ask, err2 := decimal.NewFromString(tm.Ask)
	last, err3 := decimal.NewFromString(tm.Last)
	if err1 != nil || err2 != nil || err3 != nil || tm.Symbol == "" {
		slog.Warn("referenceexchange feed: unparseable ticker fields", slog.String("raw", string(msg)))
		return
	}
	f.port.SetTicker(tm.Symbol, domain.Ticker{Bid: bid, Ask: ask, LastPrice: last})
}

// Run drives the feed's WebSocket connection until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) {
	worker := infra.NewBaseWSWorker(f)
	worker.Start(ctx)
	<-ctx.Done()
	worker.Stop()
}
