package exchange

import (
	"algotrade/internal/args"
	"algotrade/internal/commands"
	"algotrade/internal/parser"
	"algotrade/internal/scheduler"

	"github.com/google/uuid"
)

// argSpec pairs a command's argument defaults with its declaration
// order, so a positional argument ("limitOrder(buy, 1, 100)", spec
// §4.4's `arg := NAME "=" value | value` grammar) binds to the right
// name instead of being dropped. Order follows each command's
// signature in spec §4.3.
type argSpec struct {
	defaults map[string]string
	order    []string
}

var argSpecs = map[string]argSpec{
	"limitOrder": {
		defaults: map[string]string{"side": "", "amount": "0", "offset": "", "postOnly": "false", "reduceOnly": "false", "tag": ""},
		order:    []string{"side", "amount", "offset", "postOnly", "reduceOnly", "tag"},
	},
	"marketOrder": {
		defaults: map[string]string{"side": "", "amount": "0", "position": "", "tag": ""},
		order:    []string{"side", "amount", "position", "tag"},
	},
	"stopMarketOrder": {
		defaults: map[string]string{"side": "", "offset": "", "amount": "0", "trigger": "last", "tag": ""},
		order:    []string{"side", "offset", "amount", "trigger", "tag"},
	},
	"scaledOrder": {
		defaults: map[string]string{"side": "", "amount": "0", "nearOffset": "", "farOffset": "", "orderCount": "1", "postOnly": "true", "tag": ""},
		order:    []string{"side", "amount", "nearOffset", "farOffset", "orderCount", "postOnly", "tag"},
	},
	"trailingStop": {
		defaults: map[string]string{"side": "", "offset": "", "amount": "0", "position": "", "trigger": "last", "background": "true", "tag": ""},
		order:    []string{"side", "offset", "amount", "position", "trigger", "background", "tag"},
	},
	"trailingTakeProfit": {
		defaults: map[string]string{"side": "", "offset": "", "triggerOffset": "1%", "amount": "0", "position": "", "trigger": "last", "background": "true", "tag": ""},
		order:    []string{"side", "offset", "triggerOffset", "amount", "position", "trigger", "background", "tag"},
	},
	"aggressiveEntry": {
		defaults: map[string]string{"side": "", "amount": "0", "position": "", "timeLimit": "", "slippageLimit": "", "tag": ""},
		order:    []string{"side", "amount", "position", "timeLimit", "slippageLimit", "tag"},
	},
	"stopAndTakeProfitOrder": {
		defaults: map[string]string{"side": "", "tp": "", "sl": "", "amount": "0", "tag": ""},
		order:    []string{"side", "tp", "sl", "amount", "tag"},
	},
	"wait": {
		defaults: map[string]string{"duration": "0"},
		order:    []string{"duration"},
	},
	"continueIf": {
		defaults: map[string]string{"if": "always", "value": ""},
		order:    []string{"if", "value"},
	},
	"stopIf": {
		defaults: map[string]string{"if": "always", "value": ""},
		order:    []string{"if", "value"},
	},
	"notify": {
		defaults: map[string]string{"text": ""},
		order:    []string{"text"},
	},
	"cancelOrders": {
		defaults: map[string]string{"who": "session", "tag": "", "id": ""},
		order:    []string{"who", "tag", "id"},
	},
}

// paramValue returns the value of a named argument from action, or
// empty if name was not supplied as a named argument. Used only to
// populate the registry entry's diagnostic Side/Tag fields; commands
// re-derive these themselves from their own merged arguments.
func paramValue(action parser.Action, name string) string {
	for _, p := range action.Params {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// mergedArgs binds action's parsed params — named and positional — onto
// the declared defaults for action.Name via internal/args.Merge (spec
// §4.1's "positional items bound to defaults in declaration order"
// rule). Action names with no entry in argSpecs (i.e. notSupported)
// have no arguments to merge.
func mergedArgs(action parser.Action) map[string]string {
	spec, ok := argSpecs[action.Name]
	if !ok {
		return nil
	}
	return args.Merge(spec.defaults, spec.order, action.Params)
}

// buildCommand maps one parsed action onto its Command implementation
// (spec §4.3's catalogue). An unrecognized action name substitutes
// NotSupported rather than failing the sequence.
func buildCommand(ctx commands.Context, sessionID uuid.UUID, action parser.Action, notifier commands.Notifier) scheduler.Command {
	merged := mergedArgs(action)

	switch action.Name {
	case "limitOrder":
		return commands.NewLimitOrder(ctx, merged)
	case "marketOrder":
		return commands.NewMarketOrder(ctx, merged)
	case "stopMarketOrder":
		return commands.NewStopMarketOrder(ctx, merged)
	case "scaledOrder":
		return commands.NewScaledOrder(ctx, merged)
	case "trailingStop":
		return commands.NewTrailingStop(ctx, merged)
	case "trailingTakeProfit":
		return commands.NewTrailingTakeProfit(ctx, merged)
	case "aggressiveEntry":
		return commands.NewAggressiveEntry(ctx, merged)
	case "stopAndTakeProfitOrder":
		return commands.NewStopAndTakeProfit(ctx, merged)
	case "wait":
		return commands.NewWait(ctx, merged)
	case "continueIf":
		return commands.NewCondition(ctx, commands.ContinueIfMode, merged)
	case "stopIf":
		return commands.NewCondition(ctx, commands.StopIfMode, merged)
	case "notify":
		return commands.NewNotify(ctx, notifier, merged)
	case "cancelOrders":
		return commands.NewCancelOrders(ctx, sessionID, merged)
	default:
		return commands.NewNotSupported(ctx)
	}
}
