// Package parser turns a raw webhook message into an ordered list of
// per-exchange command blocks (spec §4.4). Parsing never fails loudly:
// malformed blocks, actions, or arguments are silently dropped, since
// a message may carry prose around (or between) the command syntax.
package parser

import (
	"regexp"
	"strings"
)

// Arg is one parsed argument: either named (name="value" or name=value)
// or positional (empty Name), in textual order.
type Arg struct {
	Name  string
	Value string
	Index int
}

// Action is one parsed command invocation inside a block.
type Action struct {
	Name   string
	Params []Arg
}

// Block is one parsed "exchange(symbol) { action; action; }" group.
type Block struct {
	Exchange string
	Symbol   string
	Actions  []Action
}

var (
	blockPattern  = regexp.MustCompile(`(?is)([a-z][a-z0-9]*)\s*\(([^()]*)\)\s*\{([^{}]*)\}`)
	actionPattern = regexp.MustCompile(`(?is)([a-z]+)\s*\(([^)]*)\)`)
	// One level of double-quoted values, or a bare run excluding "," and ")".
	argPattern = regexp.MustCompile(`(?is)\s*([a-zA-Z_][a-zA-Z0-9_]*\s*=\s*)?("([^"]*)"|[^,)]+)\s*`)
)

// ParseMessage finds every well-formed block in msg. Blocks with an
// empty exchange name, empty symbol, or empty action body are
// discarded (spec §4.4 — "only blocks with all three non-empty are
// kept").
func ParseMessage(msg string) []Block {
	matches := blockPattern.FindAllStringSubmatch(msg, -1)
	blocks := make([]Block, 0, len(matches))

	for _, m := range matches {
		exchange := strings.TrimSpace(m[1])
		symbol := strings.TrimSpace(m[2])
		actionsText := strings.TrimSpace(m[3])
		if exchange == "" || symbol == "" || actionsText == "" {
			continue
		}

		actions := parseActions(actionsText)
		if len(actions) == 0 {
			continue
		}

		blocks = append(blocks, Block{Exchange: exchange, Symbol: symbol, Actions: actions})
	}
	return blocks
}

func parseActions(text string) []Action {
	matches := actionPattern.FindAllStringSubmatch(text, -1)
	actions := make([]Action, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		actions = append(actions, Action{Name: name, Params: parseArgs(m[2])})
	}
	return actions
}

func parseArgs(text string) []Arg {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	matches := argPattern.FindAllStringSubmatch(text, -1)
	args := make([]Arg, 0, len(matches))
	index := 0
	for _, m := range matches {
		rawName := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), "="))

		var value string
		if len(m[2]) >= 2 && strings.HasPrefix(m[2], `"`) && strings.HasSuffix(m[2], `"`) {
			value = m[3] // quoted: use the inner capture, even if empty
		} else {
			value = strings.TrimSpace(m[2])
		}
		if rawName == "" && value == "" {
			continue
		}

		args = append(args, Arg{Name: rawName, Value: value, Index: index})
		index++
	}
	return args
}

// CanonicalForm renders an action back to "name(k=v, ...)" form, used
// by the round-trip property in spec §8: parsing an action and
// re-serializing it is idempotent.
func (a Action) CanonicalForm() string {
	var b strings.Builder
	b.WriteString(a.Name)
	b.WriteByte('(')
	for i, p := range a.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Name != "" {
			b.WriteString(p.Name)
			b.WriteByte('=')
		}
		b.WriteString(p.Value)
	}
	b.WriteByte(')')
	return b.String()
}
