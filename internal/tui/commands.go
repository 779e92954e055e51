package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluess1/Troulette/internal/roulette"
)

// CommandKind identifies a command typed at the prompt.
type CommandKind int

const (
	CmdBet CommandKind = iota
	CmdClear
	CmdSpin
	CmdQuit
	CmdHelp
)

// Command is a parsed prompt line.
type Command struct {
	Kind  CommandKind
	Wager roulette.Wager
}

var helpLines = []string{
	"/bet red|black|even|odd|low|high [amount]",
	"/bet dozen|column <1-3> [amount]",
	"/bet straight|split|street|corner|line <n,n,...> [amount]",
	"/clear   withdraw your bets this round",
	"/spin    spin now",
	"/quit    leave the table",
}

// ParseCommand parses a prompt line. The leading slash is optional and a
// missing amount uses defaultStake.
func ParseCommand(input string, defaultStake int) (Command, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command, try /help")
	}

	name := strings.TrimPrefix(fields[0], "/")
	args := fields[1:]

	switch name {
	case "bet", "b":
		w, err := parseWager(args, defaultStake)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdBet, Wager: w}, nil
	case "clear", "c":
		return Command{Kind: CmdClear}, nil
	case "spin", "s":
		return Command{Kind: CmdSpin}, nil
	case "quit", "q", "exit":
		return Command{Kind: CmdQuit}, nil
	case "help", "h", "?":
		return Command{Kind: CmdHelp}, nil
	default:
		return Command{}, fmt.Errorf("unknown command %q, try /help", fields[0])
	}
}

func parseWager(args []string, defaultStake int) (roulette.Wager, error) {
	if len(args) == 0 {
		return roulette.Wager{}, fmt.Errorf("usage: /bet <type> [numbers] [amount]")
	}
	t := roulette.WagerType(args[0])
	args = args[1:]

	var numbers []int
	switch t {
	case roulette.RedBet, roulette.BlackBet, roulette.EvenBet, roulette.OddBet, roulette.LowBet, roulette.HighBet:
		numbers, _ = roulette.NumbersFor(t, 0)
	case roulette.Dozen, roulette.Column:
		if len(args) == 0 {
			return roulette.Wager{}, fmt.Errorf("usage: /bet %s <1-3> [amount]", t)
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return roulette.Wager{}, fmt.Errorf("invalid %s %q", t, args[0])
		}
		if numbers, err = roulette.NumbersFor(t, index); err != nil {
			return roulette.Wager{}, err
		}
		args = args[1:]
	case roulette.Straight, roulette.Split, roulette.Street, roulette.Corner, roulette.Line:
		if len(args) == 0 {
			return roulette.Wager{}, fmt.Errorf("usage: /bet %s <n,n,...> [amount]", t)
		}
		for _, part := range strings.Split(args[0], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return roulette.Wager{}, fmt.Errorf("invalid number %q", part)
			}
			numbers = append(numbers, n)
		}
		args = args[1:]
	default:
		return roulette.Wager{}, fmt.Errorf("unknown bet type %q", t)
	}

	amount := defaultStake
	switch len(args) {
	case 0:
	case 1:
		a, err := strconv.Atoi(strings.TrimPrefix(args[0], "$"))
		if err != nil || a <= 0 {
			return roulette.Wager{}, fmt.Errorf("invalid amount %q", args[0])
		}
		amount = a
	default:
		return roulette.Wager{}, fmt.Errorf("too many arguments")
	}

	return roulette.Wager{Type: t, Numbers: numbers, Amount: amount}, nil
}
