package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/ingredients/pkg/ingredients/ingest"
	"github.com/cognicore/ingredients/pkg/ingredients/store"
	"github.com/cognicore/ingredients/pkg/ingredients/store/memstore"
	"github.com/cognicore/ingredients/pkg/ingredients/store/sqlite"
	"github.com/cognicore/ingredients/pkg/ingredients/tagger"
	"github.com/cognicore/ingredients/pkg/ingredients/units"
)

// Loader builds parser components from a Config
type Loader struct {
	Config *Config
}

// Components holds the parser dependencies built from a Config
type Components struct {
	Tokenizer *ingest.Tokenizer
	Tagger    tagger.Tagger
	Store     store.Store // nil when caching is disabled
	Units     *units.Lexicon
}

// Load validates the configuration and constructs every component
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	comp := &Components{Tokenizer: ingest.NewTokenizer()}

	// Unit lexicon
	if cfg.Units.Lexicon != "" {
		lex, err := units.LoadLexicon(cfg.Units.Lexicon)
		if err != nil {
			return nil, fmt.Errorf("load unit lexicon: %w", err)
		}
		comp.Units = lex
	} else {
		comp.Units = units.DefaultLexicon()
	}

	// Tagger
	timeout, err := cfg.TaggerTimeout()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Tagger.Kind) {
	case TaggerCRF:
		crf, err := tagger.NewCRF(cfg.Tagger.Binary, cfg.Tagger.Model, timeout)
		if err != nil {
			return nil, fmt.Errorf("load crf tagger: %w", err)
		}
		comp.Tagger = crf
	case TaggerHTTP:
		comp.Tagger = &tagger.HTTP{URL: cfg.Tagger.URL, Timeout: timeout}
	case TaggerRules:
		comp.Tagger = tagger.NewRules(comp.Units)
	}

	// Result cache
	switch cfg.Cache.Path {
	case "":
	case MemoryCache:
		comp.Store = memstore.New()
	default:
		st, err := sqlite.OpenSQLite(ctx, cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("open cache %s: %w", cfg.Cache.Path, err)
		}
		comp.Store = st
	}

	return comp, nil
}

// Close releases the cache store.
func (c *Components) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}
