// Command ingredient-parser parses recipe ingredient lines from the command
// line, converts between the tagger wire formats, and serves the parser
// over HTTP.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/cognicore/ingredients/internal/logging"
	"github.com/cognicore/ingredients/internal/server"
	"github.com/cognicore/ingredients/pkg/ingredients"
	"github.com/cognicore/ingredients/pkg/ingredients/config"
	"github.com/cognicore/ingredients/pkg/ingredients/features"
	"github.com/cognicore/ingredients/pkg/ingredients/ingest"
	"github.com/cognicore/ingredients/pkg/ingredients/reassemble"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config    string `name:"config" short:"c" help:"YAML configuration file" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`
	Tagger    string `name:"tagger" help:"Tagger kind (crf, http, rules)"`
	Model     string `name:"model" help:"CRF++ model file" type:"path"`
	Cache     string `name:"cache" help:"Result cache: SQLite path or :memory:"`

	Stdin  io.Reader `kong:"-"`
	Stdout io.Writer `kong:"-"`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Parse  ParseCmd  `cmd:"" help:"Parse ingredient lines into JSON"`
	Export ExportCmd `cmd:"" help:"Print the tagger input for ingredient lines"`
	Import ImportCmd `cmd:"" help:"Reassemble tagger output into JSON blocks"`
	Serve  ServeCmd  `cmd:"" help:"Serve the parser as tool calls over HTTP"`
}

// ParseCmd parses lines given as arguments, or one per line on stdin.
type ParseCmd struct {
	Lines   []string `arg:"" optional:"" help:"Ingredient lines (default: read stdin)"`
	Display bool     `name:"display" help:"Print span markup instead of JSON"`
	Workers int      `name:"workers" short:"w" help:"Parallel parses (default from config)"`
}

func (c *ParseCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if c.Workers > 0 {
		cfg.Parser.Workers = c.Workers
	}

	ctx := context.Background()
	parser, cleanup, err := buildParser(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	lines, err := g.lines(c.Lines)
	if err != nil {
		return err
	}

	results, parseErr := parser.ParseAll(ctx, lines)

	enc := json.NewEncoder(g.stdout())
	for _, ing := range results {
		if ing == nil {
			continue
		}
		if c.Display {
			fmt.Fprintln(g.stdout(), ing.Display)
			continue
		}
		if err := enc.Encode(ing); err != nil {
			return err
		}
	}
	return parseErr
}

// ExportCmd prints the export wire text without running a tagger.
type ExportCmd struct {
	Lines []string `arg:"" optional:"" help:"Ingredient lines (default: read stdin)"`
}

func (c *ExportCmd) Run(g *Globals) error {
	lines, err := g.lines(c.Lines)
	if err != nil {
		return err
	}
	tok := ingest.NewTokenizer()
	tokens := make([][]string, len(lines))
	for i, line := range lines {
		tokens[i] = tok.Tokenize(line)
	}
	return features.Export(g.stdout(), tokens)
}

// ImportCmd reads tagger output and prints one JSON block per ingredient.
type ImportCmd struct {
	File string `arg:"" help:"Tagger output file ('-' for stdin)"`
}

func (c *ImportCmd) Run(g *Globals) error {
	var r io.Reader = g.stdin()
	if c.File != "-" {
		f, err := os.Open(c.File)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	blocks, err := reassemble.ImportReader(r)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(g.stdout())
	for _, b := range blocks {
		if err := enc.Encode(b); err != nil {
			return err
		}
	}
	return nil
}

// ServeCmd runs the tool server until interrupted.
type ServeCmd struct {
	Addr string `name:"addr" help:"Listen address (default from config)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	parser, cleanup, err := buildParser(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return server.New(parser, cfg.Server.Addr, logging.GetLogger()).Start(ctx)
}

// loadConfig layers the config file, the environment and then flags, and
// initializes logging from the result.
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if g.Config != "" {
		loaded, err := config.Load(g.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if g.Tagger != "" {
		cfg.Tagger.Kind = g.Tagger
	}
	if g.Model != "" {
		cfg.Tagger.Model = g.Model
	}
	if g.Cache != "" {
		cfg.Cache.Path = g.Cache
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(level, format)

	return cfg, nil
}

// buildParser constructs a Parser from cfg. cleanup releases the cache.
func buildParser(ctx context.Context, cfg *config.Config) (*ingredients.Parser, func(), error) {
	comp, err := (&config.Loader{Config: cfg}).Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	parser, err := ingredients.New(ingredients.Options{
		Tokenizer: comp.Tokenizer,
		Tagger:    comp.Tagger,
		Store:     comp.Store,
		Units:     comp.Units,
		Logger:    logging.GetLogger(),
		Workers:   cfg.Parser.Workers,
	})
	if err != nil {
		comp.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := parser.Close(); err != nil {
			logging.GetLogger().Warn("close parser", "error", err)
		}
	}
	return parser, cleanup, nil
}

// lines returns args, or the non-blank lines of stdin when args is empty.
func (g *Globals) lines(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var lines []string
	scanner := bufio.NewScanner(g.stdin())
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			lines = append(lines, scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(lines) == 0 {
		return nil, errors.New("no ingredient lines given")
	}
	return lines, nil
}

func (g *Globals) stdin() io.Reader {
	if g.Stdin != nil {
		return g.Stdin
	}
	return os.Stdin
}

func (g *Globals) stdout() io.Writer {
	if g.Stdout != nil {
		return g.Stdout
	}
	return os.Stdout
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("ingredient-parser"),
		kong.Description("Parse recipe ingredient lines into quantity, unit, name and comment"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
