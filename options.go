package widerow

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/drpcorg/widerow/rows"
	"github.com/drpcorg/widerow/utils"
	"github.com/drpcorg/widerow/widerow_errors"
	"github.com/pelletier/go-toml"
)

type Options struct {
	Dir             string   `toml:"dir"`
	Name            string   `toml:"name"`
	IndexedColumns  []string `toml:"indexed_columns"`
	ClusteringOrder string   `toml:"clustering_order"`
	LookupCacheSize int      `toml:"lookup_cache_size"`
	Sync            bool     `toml:"sync"`
	LogLevel        string   `toml:"log_level"`

	Logger utils.Logger `toml:"-"`
	// Pebble is the base configuration of both stores.
	Pebble pebble.Options `toml:"-"`
	// Clock fixes the evaluation time of each mutation.
	Clock func() time.Time `toml:"-"`
}

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

func (o *Options) SetDefaults() {
	if o.Dir == "" {
		o.Dir = "widerow.db"
	}
	if o.Name == "" {
		o.Name = "widerow"
	}
	if o.ClusteringOrder == "" {
		o.ClusteringOrder = OrderAsc
	}
	if o.LookupCacheSize <= 0 {
		o.LookupCacheSize = 10000
	}
	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
	if o.Logger == nil {
		o.Logger = utils.NewDefaultLogger(utils.ParseLevel(o.LogLevel))
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

func (o *Options) Validate() error {
	switch o.ClusteringOrder {
	case OrderAsc, OrderDesc:
	default:
		return errors.Join(widerow_errors.ErrBadOptions, fmt.Errorf("clustering order %q", o.ClusteringOrder))
	}
	for _, column := range o.IndexedColumns {
		if column == "" {
			return errors.Join(widerow_errors.ErrBadOptions, errors.New("empty indexed column name"))
		}
	}
	return nil
}

func (o *Options) Comparator() rows.Comparator {
	if o.ClusteringOrder == OrderDesc {
		return rows.Descending
	}
	return rows.Ascending
}

// LoadOptions reads options from a TOML file. Defaults are not applied.
func LoadOptions(path string) (opts Options, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	err = toml.Unmarshal(data, &opts)
	return opts, err
}
