package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/drpcorg/widerow"
	"github.com/drpcorg/widerow/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openREPL(t *testing.T) (*REPL, *bytes.Buffer) {
	db, err := widerow.Open(widerow.Options{
		Dir:            "db",
		IndexedColumns: []string{"city", "name"},
		Logger:         utils.NewLoggerTo(io.Discard, slog.LevelInfo),
		Pebble:         pebble.Options{FS: vfs.NewMem()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	out := &bytes.Buffer{}
	return &REPL{DB: db, Out: out}, out
}

func say(t *testing.T, repl *REPL, out *bytes.Buffer, line string) string {
	out.Reset()
	require.NoError(t, repl.Run(context.Background(), line))
	return out.String()
}

func TestParseCells(t *testing.T) {
	cells, err := parseCells([]string{"name=ann", "-city", "note="})
	require.NoError(t, err)
	require.Len(t, cells, 3)
	assert.Equal(t, "ann", string(cells[0].Value))
	assert.True(t, cells[1].Tombstone)
	assert.Equal(t, "note", cells[2].Column)
	assert.Empty(t, cells[2].Value)

	_, err = parseCells([]string{"name"})
	assert.Error(t, err)
	_, err = parseCells([]string{"=x"})
	assert.Error(t, err)
}

func TestSession(t *testing.T) {
	repl, out := openREPL(t)
	say(t, repl, out, "put p 1 name=ann city=ams age=30")
	say(t, repl, out, "put p 2 name=bob city=ams")
	assert.Equal(t, "p\t1\np\t2\n", say(t, repl, out, "find city ams"))

	say(t, repl, out, "update p 1 city=rot")
	assert.Equal(t, "p\t1\n", say(t, repl, out, "find city rot"))
	assert.Equal(t, "city=\"rot\"\nname=\"ann\"\n", say(t, repl, out, "doc p 1"))
	assert.Equal(t, "1\tage=30 city=rot name=ann\n", say(t, repl, out, "get p 1"))

	say(t, repl, out, "del p 2")
	assert.Equal(t, "not indexed\n", say(t, repl, out, "doc p 2"))
	assert.Equal(t, "not found\n", say(t, repl, out, "get p 2"))

	say(t, repl, out, "range p - -")
	assert.Empty(t, say(t, repl, out, "find name ann"))

	say(t, repl, out, "put q 1 name=cid")
	say(t, repl, out, "del q")
	assert.Empty(t, say(t, repl, out, "find name cid"))
}

func TestCommandErrors(t *testing.T) {
	repl, out := openREPL(t)
	ctx := context.Background()
	assert.Equal(t, HelpPut, repl.Run(ctx, "put p"))
	assert.ErrorIs(t, repl.Run(ctx, "put p 1 name"), HelpPut)
	assert.Equal(t, HelpDel, repl.Run(ctx, "del"))
	assert.Equal(t, HelpRange, repl.Run(ctx, "range p a"))
	assert.Equal(t, HelpFind, repl.Run(ctx, "find city"))
	assert.Error(t, repl.Run(ctx, "find age 30"))
	assert.Equal(t, io.EOF, repl.Run(ctx, "exit"))
	assert.NoError(t, repl.Run(ctx, "   "))

	assert.Contains(t, say(t, repl, out, "help"), HelpRange.Error())
}
