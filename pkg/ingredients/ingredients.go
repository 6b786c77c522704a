// Package ingredients parses free-text recipe ingredient lines into
// structured fields using a sequence tagger.
//
//	p, _ := ingredients.New(ingredients.Options{Tagger: crf})
//	ing, _ := p.Parse(ctx, "12 ounces lean ground beef, preferably 85 percent lean")
//	// ing.Quantity == 12, ing.Unit == "ounce", ing.Name == "beef"
package ingredients

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/zeebo/blake3"

	"github.com/cognicore/ingredients/internal/logging"
	"github.com/cognicore/ingredients/pkg/ingredients/features"
	"github.com/cognicore/ingredients/pkg/ingredients/ingest"
	"github.com/cognicore/ingredients/pkg/ingredients/internalerr"
	"github.com/cognicore/ingredients/pkg/ingredients/quantity"
	"github.com/cognicore/ingredients/pkg/ingredients/reassemble"
	"github.com/cognicore/ingredients/pkg/ingredients/store"
	"github.com/cognicore/ingredients/pkg/ingredients/tagger"
	"github.com/cognicore/ingredients/pkg/ingredients/units"
)

// Ingredient is the structured result of parsing one line.
type Ingredient struct {
	Name string `json:"name"`
	// Quantity is the mean of the qty field's candidates, 1 when the line
	// has no quantity and 0 when the quantity text is not recognized.
	Quantity           float64 `json:"quantity"`
	QuantityText       string  `json:"quantity_text,omitempty"`
	QuantityRecognized bool    `json:"quantity_recognized"`
	Unit               string  `json:"unit"`
	UnitCanonical      string  `json:"unit_canonical,omitempty"`
	Comment            string  `json:"comment"`
	OriginalString     string  `json:"original_string"`
	Display            string  `json:"display"`
	Input              string  `json:"input"`

	Fields     map[string]string  `json:"fields"`
	Spans      []reassemble.Span  `json:"spans"`
	Tokens     []reassemble.Token `json:"tokens"`
	Confidence float64            `json:"confidence"`
}

// Parser runs the tokenize, export, tag, import pipeline. It is safe for
// concurrent use when its tagger and store are.
type Parser struct {
	tokenizer *ingest.Tokenizer
	tagger    tagger.Tagger
	store     store.Store
	units     *units.Lexicon
	logger    *slog.Logger
	workers   int
}

// Options configures a Parser. Only Tagger is required.
type Options struct {
	Tokenizer *ingest.Tokenizer
	Tagger    tagger.Tagger
	// Store caches results. It is only consulted when Tagger implements
	// tagger.Fingerprinter.
	Store   store.Store
	Units   *units.Lexicon
	Logger  *slog.Logger
	Workers int
}

// New creates a Parser with the given dependencies
func New(opts Options) (*Parser, error) {
	if opts.Tagger == nil {
		return nil, fmt.Errorf("%w: tagger required", internalerr.ErrInvalidConfig)
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = ingest.NewTokenizer()
	}
	if opts.Units == nil {
		opts.Units = units.DefaultLexicon()
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Parser{
		tokenizer: opts.Tokenizer,
		tagger:    opts.Tagger,
		store:     opts.Store,
		units:     opts.Units,
		logger:    opts.Logger,
		workers:   opts.Workers,
	}, nil
}

// Close releases the cache store, if any.
func (p *Parser) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

// Parse parses one raw ingredient line.
func (p *Parser) Parse(ctx context.Context, raw string) (*Ingredient, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: blank line", internalerr.ErrInvalidInput)
	}
	logger := logging.LoggerFromContext(ctx, p.logger)

	key, fingerprint := p.cacheKey(raw)
	if key != "" {
		rec, found, err := p.store.GetParse(ctx, key)
		if err != nil {
			logger.Warn("cache lookup failed", "error", err)
		} else if found {
			var ing Ingredient
			if err := json.Unmarshal(rec.Payload, &ing); err == nil {
				logger.Debug("cache hit", "key", key, "id", rec.ID)
				return &ing, nil
			}
			logger.Warn("discarding unreadable cache record", "key", key, "id", rec.ID)
		}
	}

	tokens := p.tokenizer.Tokenize(raw)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no tokens in %q", internalerr.ErrNoBlocks, raw)
	}

	out, err := p.tagger.Tag(ctx, features.Block(tokens))
	if err != nil {
		return nil, fmt.Errorf("tag %q: %w", raw, err)
	}

	blocks, err := reassemble.Import(strings.Split(out, "\n"))
	if err != nil {
		return nil, fmt.Errorf("import tagger output: %w", err)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: %q", internalerr.ErrNoBlocks, raw)
	}
	logger.Debug("parsed ingredient", "tokens", len(tokens), "blocks", len(blocks), "cached", false)

	ing := p.build(raw, blocks[0])
	if !ing.QuantityRecognized {
		logger.Warn("unrecognized quantity", "line", raw, "quantity", ing.QuantityText)
	}

	if key != "" {
		p.remember(ctx, logger, key, fingerprint, raw, ing)
	}
	return ing, nil
}

// ParseAll parses lines on the configured number of workers. Results keep
// input order; a line that fails leaves a nil entry and contributes to the
// joined error.
func (p *Parser) ParseAll(ctx context.Context, lines []string) ([]*Ingredient, error) {
	results := make([]*Ingredient, len(lines))
	errs := make([]error, len(lines))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(p.workers, len(lines)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ing, err := p.Parse(ctx, lines[i])
				if err != nil {
					errs[i] = fmt.Errorf("line %d: %w", i+1, err)
					continue
				}
				results[i] = ing
			}
		}()
	}

feed:
	for i := range lines {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(lines); j++ {
				errs[j] = fmt.Errorf("line %d: %w", j+1, ctx.Err())
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return results, errors.Join(errs...)
}

func (p *Parser) build(raw string, block reassemble.Block) *Ingredient {
	ing := &Ingredient{
		Name:           strings.TrimSpace(block.Fields["name"]),
		Unit:           block.Fields["unit"],
		Comment:        block.Fields["comment"],
		OriginalString: raw,
		Display:        block.Display,
		Input:          block.Input,
		Fields:         block.Fields,
		Spans:          block.Spans,
		Tokens:         block.Tokens,
		Confidence:     block.Probability,
	}

	ing.Quantity, ing.QuantityRecognized = 1, true
	if qty, ok := block.Fields["qty"]; ok {
		ing.QuantityText = qty
		v, err := quantity.Parse(qty)
		ing.Quantity, ing.QuantityRecognized = v, err == nil
	}

	if ing.Unit != "" {
		if c, ok := p.units.Canonical(ing.Unit); ok {
			ing.UnitCanonical = c
		}
	}
	return ing
}

// cacheKey returns "" when results cannot be cached: no store, or a tagger
// without a stable fingerprint.
func (p *Parser) cacheKey(raw string) (key, fingerprint string) {
	if p.store == nil {
		return "", ""
	}
	fp, ok := p.tagger.(tagger.Fingerprinter)
	if !ok {
		return "", ""
	}
	fingerprint = fp.Fingerprint()

	h := blake3.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil)), fingerprint
}

func (p *Parser) remember(ctx context.Context, logger *slog.Logger, key, fingerprint, raw string, ing *Ingredient) {
	payload, err := json.Marshal(ing)
	if err != nil {
		logger.Warn("encode cache record", "error", err)
		return
	}
	rec := store.Record{
		ID:          ulid.Make().String(),
		Key:         key,
		Line:        raw,
		Fingerprint: fingerprint,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}
	if err := p.store.PutParse(ctx, rec); err != nil {
		logger.Warn("cache store failed", "error", err)
	}
}
