package main

import (
	"fmt"
	"io"
	"os"

	"github.com/drpcorg/widerow"
	"gopkg.in/urfave/cli.v1"
)

func main() {
	app := cli.NewApp()
	app.Name = "widerow"
	app.HelpName = os.Args[0]
	app.Usage = "wide-row table with a write-path secondary index"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "TOML options file",
		},
		cli.StringFlag{
			Name:  "dir",
			Usage: "database directory",
		},
		cli.StringSliceFlag{
			Name:  "index",
			Usage: "indexed column, repeatable",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(-1)
	}
}

func loadOptions(ctx *cli.Context) (opts widerow.Options, err error) {
	if path := ctx.String("config"); path != "" {
		if opts, err = widerow.LoadOptions(path); err != nil {
			return
		}
	}
	if dir := ctx.String("dir"); dir != "" {
		opts.Dir = dir
	}
	if columns := ctx.StringSlice("index"); len(columns) > 0 {
		opts.IndexedColumns = columns
	}
	if level := ctx.String("log-level"); level != "" {
		opts.LogLevel = level
	}
	return
}

func run(ctx *cli.Context) error {
	opts, err := loadOptions(ctx)
	if err != nil {
		return err
	}
	db, err := widerow.Open(opts)
	if err != nil {
		return err
	}
	defer db.Close()

	repl := REPL{DB: db}
	if err = repl.Open(); err != nil {
		return err
	}
	defer repl.Close()

	for err != io.EOF {
		if err != nil {
			_, _ = fmt.Fprintf(os.Stdout, "%s\n", err.Error())
		}
		err = repl.REPL()
	}
	return nil
}
