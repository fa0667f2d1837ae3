package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/drpcorg/widerow"
	"github.com/ergochat/readline"
)

type REPL struct {
	DB *widerow.DB
	// Out receives command output, os.Stdout if nil.
	Out io.Writer
	rl  *readline.Instance
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("put"),
	readline.PcItem("update"),
	readline.PcItem("del"),
	readline.PcItem("range"),

	readline.PcItem("get"),
	readline.PcItem("doc"),
	readline.PcItem("find"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func (repl *REPL) Open() (err error) {
	repl.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "▦ ",
		HistoryFile:     ".widerow_cmd_log.txt",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return
	}
	repl.rl.CaptureExitSignal()
	return
}

func (repl *REPL) Close() error {
	if repl.rl != nil {
		_ = repl.rl.Close()
		repl.rl = nil
	}
	return nil
}

// REPL reads and runs one command. io.EOF means the session is over.
func (repl *REPL) REPL() error {
	line, err := repl.rl.Readline()
	if err == readline.ErrInterrupt && len(line) != 0 {
		return nil
	}
	if err != nil {
		return err
	}
	return repl.Run(context.Background(), line)
}

func (repl *REPL) out() io.Writer {
	if repl.Out == nil {
		return os.Stdout
	}
	return repl.Out
}

func (repl *REPL) Run(ctx context.Context, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "help":
		return repl.CommandHelp(args)
	// ----- writes -----
	case "put":
		return repl.CommandPut(ctx, args)
	case "update":
		return repl.CommandUpdate(ctx, args)
	case "del":
		return repl.CommandDel(ctx, args)
	case "range":
		return repl.CommandRange(ctx, args)
	// ----- reads -----
	case "get":
		return repl.CommandGet(args)
	case "doc":
		return repl.CommandDoc(args)
	case "find":
		return repl.CommandFind(args)
	case "exit", "quit":
		return io.EOF
	default:
		_, _ = fmt.Fprintf(os.Stderr, "command unknown: %s\n", cmd)
	}
	return nil
}
