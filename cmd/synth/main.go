package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/okian/footelo/internal/adapters/dataset"
	"github.com/okian/footelo/internal/synth"
	"github.com/okian/footelo/pkg/logger"
)

const defaultTimeout = time.Minute

func main() {
	def := synth.DefaultConfig()
	var (
		out       = flag.String("out", "data/raw", "Directory receiving the results files")
		country   = flag.String("country", def.Country, "File prefix of the league")
		divisions = flag.String("divisions", strings.Join(def.Divisions, ","), "Division codes, top tier first")
		startYear = flag.Int("start", def.StartYear, "Start year of the first season")
		seasons   = flag.Int("seasons", def.Seasons, "Number of consecutive seasons")
		teams     = flag.Int("teams", def.Teams, "Clubs per division")
		swap      = flag.Int("swap", def.Swap, "Clubs promoted and relegated between tiers")
		seed      = flag.Int64("seed", def.Seed, "RNG seed")
		format    = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	if err := logger.InitWithWriter(os.Stderr, *format); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	cfg := synth.Config{
		Country:   *country,
		Divisions: splitList(*divisions),
		StartYear: *startYear,
		Seasons:   *seasons,
		Teams:     *teams,
		Swap:      *swap,
		Seed:      *seed,
	}
	if len(cfg.Divisions) == 0 {
		cfg.Divisions = def.Divisions
	}
	store := dataset.NewStore(
		dataset.WithRawDir(*out),
		dataset.WithCountry(cfg.Country),
		dataset.WithLogger(log),
	)

	generated := synth.New(cfg, synth.WithLogger(log)).Generate(ctx)
	paths, err := synth.Write(ctx, store, generated, cfg.Divisions)
	if err != nil {
		log.Error(ctx, "writing synthetic league failed", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "synthetic results written",
		logger.String("dir", *out),
		logger.Int("files", len(paths)),
	)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
