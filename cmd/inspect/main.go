package main

import (
	"encoding/json"
	"os"

	"github.com/mkungen89/rterrain/internal/logger"
	"github.com/mkungen89/rterrain/internal/rtpack"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Input   string `short:"i" long:"input"   required:"true" description:"Path to .rterrain package"`
	Block   string `short:"b" long:"block"   description:"Extract a single named block instead of listing"`
	Output  string `short:"o" long:"output"  description:"Output path for extracted block (default: <block>.bin)"`
	Compact bool   `short:"C" long:"compact" description:"Emit compact JSON instead of indented"`
}

// report is the JSON document printed for a verified package.
type report struct {
	Metadata rtpack.Metadata `json:"metadata"`
	Blocks   []string        `json:"blocks"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	pkg, err := rtpack.ReadFile(opts.Input)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Input).Msg("Failed to open package")
	}

	if opts.Block != "" {
		data, typ, err := pkg.Extract(opts.Block)
		if err != nil {
			log.Fatal().Err(err).Str("block", opts.Block).Msg("Failed to extract block")
		}

		out := opts.Output
		if out == "" {
			out = opts.Block + ".bin"
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write block")
		}

		log.Info().
			Str("block", opts.Block).
			Str("type", typ).
			Str("output", out).
			Int("bytes", len(data)).
			Msg("Block extracted")
		return
	}

	enc := json.NewEncoder(os.Stdout)
	if !opts.Compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report{Metadata: pkg.Meta, Blocks: pkg.Blocks()}); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode report")
	}
}
