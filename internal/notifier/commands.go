package notifier

import (
	"context"
	"strings"

	"github.com/th3rrry/minees/internal/market"
	"github.com/th3rrry/minees/internal/model"
)

// SignalReader is the read side of the signal store.
type SignalReader interface {
	Get(pair string) (model.Signal, bool)
	Snapshot() []model.Signal
}

const helpText = "/signal PAIR - latest signal for PAIR\n/signals - all latest signals\n/markets - market hours"

// Commands answers chat commands from the store. It never triggers generation.
type Commands struct {
	store SignalReader
	board *market.Board
}

func NewCommands(store SignalReader, board *market.Board) *Commands {
	return &Commands{store: store, board: board}
}

func (c *Commands) Handle(_ context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	// Commands in groups arrive as /signal@BotName.
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	switch cmd {
	case "/signal":
		if len(fields) < 2 {
			return "Usage: /signal PAIR"
		}
		pair := strings.ToUpper(fields[1])
		if sig, ok := c.store.Get(pair); ok {
			return FormatSignal(sig)
		}
		return FormatWaiting(pair)
	case "/signals":
		return FormatSignals(c.store.Snapshot())
	case "/markets":
		return FormatMarkets(c.board.All())
	case "/start", "/help":
		return helpText
	default:
		return "Unknown command.\n" + helpText
	}
}
