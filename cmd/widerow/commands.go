package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/drpcorg/widerow"
	"github.com/drpcorg/widerow/rows"
)

var (
	HelpPut    = errors.New("put <partition> <clustering> col=val...")
	HelpUpdate = errors.New("update <partition> <clustering> col=val|-col...")
	HelpDel    = errors.New("del <partition> [clustering]")
	HelpRange  = errors.New("range <partition> <from|-> <to|->")
	HelpGet    = errors.New("get <partition> <clustering>")
	HelpDoc    = errors.New("doc <partition> <clustering>")
	HelpFind   = errors.New("find <column> <value>")
)

var helps = []error{HelpPut, HelpUpdate, HelpDel, HelpRange, HelpGet, HelpDoc, HelpFind}

func (repl *REPL) CommandHelp(args []string) error {
	for _, help := range helps {
		_, _ = fmt.Fprintln(repl.out(), help.Error())
	}
	return nil
}

// parseCells reads col=val assignments; -col deletes the column.
func parseCells(args []string) ([]rows.Cell, error) {
	cells := make([]rows.Cell, 0, len(args))
	for _, arg := range args {
		if name, ok := strings.CutPrefix(arg, "-"); ok && name != "" {
			cells = append(cells, rows.Cell{Column: name, Tombstone: true})
			continue
		}
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("bad cell %q", arg)
		}
		cells = append(cells, rows.Cell{Column: name, Value: []byte(value)})
	}
	return cells, nil
}

func (repl *REPL) apply(ctx context.Context, m widerow.Mutation) error {
	m.Timestamp = widerow.Timestamp(time.Now())
	return repl.DB.Apply(ctx, m)
}

func (repl *REPL) write(ctx context.Context, args []string, insert bool, help error) error {
	if len(args) < 3 {
		return help
	}
	cells, err := parseCells(args[2:])
	if err != nil {
		return errors.Join(help, err)
	}
	row := rows.NewRow(rows.Clustering(args[1]), cells...)
	m := widerow.Mutation{PartitionKey: []byte(args[0]), Rows: []*rows.Row{row}}
	m.Timestamp = widerow.Timestamp(time.Now())
	if insert {
		row.Liveness = rows.Liveness{Timestamp: m.Timestamp}
	}
	return repl.DB.Apply(ctx, m)
}

func (repl *REPL) CommandPut(ctx context.Context, args []string) error {
	return repl.write(ctx, args, true, HelpPut)
}

func (repl *REPL) CommandUpdate(ctx context.Context, args []string) error {
	return repl.write(ctx, args, false, HelpUpdate)
}

func (repl *REPL) CommandDel(ctx context.Context, args []string) error {
	ts := widerow.Timestamp(time.Now())
	switch len(args) {
	case 1:
		return repl.apply(ctx, widerow.Mutation{PartitionKey: []byte(args[0]), PartitionDeletion: ts})
	case 2:
		return repl.apply(ctx, widerow.Mutation{
			PartitionKey: []byte(args[0]),
			Rows:         []*rows.Row{{Clustering: rows.Clustering(args[1]), Deletion: ts}},
		})
	default:
		return HelpDel
	}
}

func bound(arg string) rows.Clustering {
	if arg == "-" {
		return nil
	}
	return rows.Clustering(arg)
}

func (repl *REPL) CommandRange(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return HelpRange
	}
	return repl.apply(ctx, widerow.Mutation{
		PartitionKey: []byte(args[0]),
		RangeDeletions: []widerow.RangeDeletion{{
			From:      bound(args[1]),
			To:        bound(args[2]),
			Timestamp: widerow.Timestamp(time.Now()),
		}},
	})
}

func (repl *REPL) CommandGet(args []string) error {
	if len(args) != 2 {
		return HelpGet
	}
	row, err := repl.DB.Get([]byte(args[0]), rows.Clustering(args[1]))
	if err != nil {
		return err
	}
	if row == nil || !row.HasLiveData(time.Now()) {
		_, _ = fmt.Fprintln(repl.out(), "not found")
		return nil
	}
	var out []string
	for _, cell := range row.LiveCells(time.Now()) {
		out = append(out, cell.Column+"="+string(cell.Value))
	}
	_, _ = fmt.Fprintf(repl.out(), "%s\t%s\n", row.Clustering, strings.Join(out, " "))
	return nil
}

func (repl *REPL) CommandDoc(args []string) error {
	if len(args) != 2 {
		return HelpDoc
	}
	terms, ok, err := repl.DB.Document([]byte(args[0]), rows.Clustering(args[1]))
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(repl.out(), "not indexed")
		return nil
	}
	for _, term := range terms {
		_, _ = fmt.Fprintln(repl.out(), term.String())
	}
	return nil
}

func (repl *REPL) CommandFind(args []string) error {
	if len(args) != 2 {
		return HelpFind
	}
	refs, err := repl.DB.Lookup(args[0], []byte(args[1]))
	if err != nil {
		return err
	}
	for _, ref := range refs {
		_, _ = fmt.Fprintf(repl.out(), "%s\t%s\n", ref.Partition, ref.Clustering)
	}
	return nil
}
