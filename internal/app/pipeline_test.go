package service_test

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/footelo/internal/adapters/dataset"
	service "github.com/okian/footelo/internal/app"
	"github.com/okian/footelo/internal/config"
	"github.com/okian/footelo/internal/domain/model"
	"github.com/okian/footelo/internal/domain/movement"
	"github.com/okian/footelo/internal/synth"
	"github.com/okian/footelo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingSink struct {
	runID     string
	matches   int
	ratings   map[string]int
	movements int
	fail      error
}

func (s *recordingSink) SaveEnriched(_ context.Context, runID string, rows []model.EnrichedMatch) error {
	if s.fail != nil {
		return s.fail
	}
	s.runID = runID
	s.matches += len(rows)
	return nil
}

func (s *recordingSink) SaveRatings(_ context.Context, _ string, division string, ratings model.Snapshot) error {
	if s.ratings == nil {
		s.ratings = map[string]int{}
	}
	s.ratings[division] = len(ratings)
	return nil
}

func (s *recordingSink) SaveMovements(_ context.Context, _ string, table movement.Table) error {
	s.movements += len(table)
	return nil
}

// fixtureLeague writes a synthetic three-season league under root and
// returns a config pointing at it.
func fixtureLeague(t *testing.T, root string) *config.Config {
	gen := synth.DefaultConfig()
	store := dataset.NewStore(
		dataset.WithRawDir(filepath.Join(root, "raw")),
		dataset.WithCountry(gen.Country),
		dataset.WithLogger(logger.Nop()),
	)
	seasons := synth.New(gen, synth.WithLogger(logger.Nop())).Generate(context.Background())
	if _, err := synth.Write(context.Background(), store, seasons, gen.Divisions); err != nil {
		t.Fatalf("write league: %v", err)
	}

	cfg := config.New()
	cfg.RawDir = filepath.Join(root, "raw")
	cfg.ProcessedDir = filepath.Join(root, "processed")
	cfg.Country = gen.Country
	cfg.Divisions = "SP1,SP2"
	cfg.Seasons = "2021,2022,2023"
	cfg.EloTransfer = true
	return cfg
}

func newPipeline(cfg *config.Config, opts ...service.PipelineOption) *service.Pipeline {
	store := dataset.NewStore(
		dataset.WithRawDir(cfg.RawDir),
		dataset.WithProcessedDir(cfg.ProcessedDir),
		dataset.WithCountry(cfg.Country),
		dataset.WithLogger(logger.Nop()),
	)
	opts = append([]service.PipelineOption{service.WithPipelineLogger(logger.Nop())}, opts...)
	return service.NewPipeline(cfg, store, opts...)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestPipeline_MultiSeason(t *testing.T) {
	ctx := context.Background()

	Convey("Given a synthetic league on disk", t, func() {
		root := t.TempDir()
		cfg := fixtureLeague(t, root)
		sink := &recordingSink{}

		Convey("When the pipeline runs with transfer", func() {
			rep, err := newPipeline(cfg, service.WithSink(sink)).Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then a combined file per division is written", func() {
				So(exists(filepath.Join(cfg.ProcessedDir, "SP1_2122_to_2324_transfer.csv")), ShouldBeTrue)
				So(exists(filepath.Join(cfg.ProcessedDir, "SP2_2122_to_2324_transfer.csv")), ShouldBeTrue)
			})

			Convey("Then movement tables are persisted per transition", func() {
				So(exists(filepath.Join(cfg.ProcessedDir, "promotion", "SP_2223_promotion_relegation.csv")), ShouldBeTrue)
				So(exists(filepath.Join(cfg.ProcessedDir, "promotion", "SP_2324_promotion_relegation.csv")), ShouldBeTrue)
				// two up and two down between the tiers, two in and two out below
				So(len(rep.Movements), ShouldEqual, 2*(4+8))
			})

			Convey("Then every boundary transfers merit and blind ratings", func() {
				So(len(rep.Transfers), ShouldEqual, 2*6)
			})

			Convey("Then final ratings cover both divisions", func() {
				So(len(rep.Final["SP1"]), ShouldEqual, 10)
				So(len(rep.Final["SP2"]), ShouldEqual, 10)
				So(len(rep.Summaries), ShouldEqual, 6)
			})

			Convey("Then the sink receives the run", func() {
				So(sink.runID, ShouldEqual, rep.RunID)
				So(sink.matches, ShouldEqual, 3*2*90)
				So(sink.ratings["SP2"], ShouldEqual, 10)
				So(sink.movements, ShouldEqual, len(rep.Movements))
			})
		})

		Convey("When the pipeline runs without transfer", func() {
			cfg.EloTransfer = false
			rep, err := newPipeline(cfg).Run(ctx)

			Convey("Then outputs use the multi suffix and nothing is transferred", func() {
				So(err, ShouldBeNil)
				So(exists(filepath.Join(cfg.ProcessedDir, "SP1_2122_to_2324_multi.csv")), ShouldBeTrue)
				So(rep.Transfers, ShouldBeEmpty)
			})
		})

		Convey("When the sink fails", func() {
			sink.fail = errors.New("boom")
			_, err := newPipeline(cfg, service.WithSink(sink)).Run(ctx)
			So(err, ShouldNotBeNil)
		})

		Convey("When a configured season has no files", func() {
			cfg.Seasons = "2020,2021"
			rep, err := newPipeline(cfg).Run(ctx)

			Convey("Then the run still completes from the seasons it has", func() {
				So(err, ShouldBeNil)
				So(rep.Movements, ShouldBeEmpty)
				So(exists(filepath.Join(cfg.ProcessedDir, "SP1_2021_to_2122_transfer.csv")), ShouldBeTrue)
			})
		})
	})
}

func TestPipeline_SingleSeason(t *testing.T) {
	ctx := context.Background()

	Convey("Given a synthetic league and single-season mode", t, func() {
		root := t.TempDir()
		cfg := fixtureLeague(t, root)
		cfg.MultiSeason = false
		rep, err := newPipeline(cfg).Run(ctx)

		Convey("Then each season and division is written separately", func() {
			So(err, ShouldBeNil)
			for _, code := range []string{"2122", "2223", "2324"} {
				for _, div := range []string{"SP1", "SP2"} {
					So(exists(filepath.Join(cfg.ProcessedDir, "SP_"+code+"_"+div+"_elo.csv")), ShouldBeTrue)
				}
			}
			So(len(rep.Files), ShouldEqual, 6+2)
		})

		Convey("Then every season starts from the initial rating", func() {
			f, err := os.Open(filepath.Join(cfg.ProcessedDir, "SP_2324_SP1_elo.csv"))
			So(err, ShouldBeNil)
			defer f.Close()
			records, err := csv.NewReader(f).ReadAll()
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 91)
			So(records[0][7], ShouldEqual, "HomeElo")
			So(records[1][7], ShouldEqual, "1500")
			So(records[1][8], ShouldEqual, "1500")
		})
	})
}
