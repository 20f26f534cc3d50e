package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/TFMV/DupeFinder/internal/matcher"
	"github.com/TFMV/DupeFinder/pkg/config"
	"github.com/TFMV/DupeFinder/pkg/db"
	"github.com/TFMV/DupeFinder/pkg/pca"
	"github.com/TFMV/DupeFinder/pkg/tfidf"
	"github.com/TFMV/DupeFinder/pkg/utils"
)

const referenceCount = 10

// Seeds the reference address set and derives block keys for a run.
// Reference addresses are the corpus rows whose TF-IDF vectors score
// highest on the first principal component: the most representative
// address shapes in the pool.
func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to CONFIG_PATH)")
	workers := flag.Int("workers", 10, "block key workers")
	runDesc := flag.String("run", "Block key generation", "description for the match run")
	clearRun := flag.Int("clear-run", 0, "clear derived artifacts for this previous run before generating")
	flag.Parse()

	logger, err := utils.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := db.NewConnection(ctx, cfg.DatabaseURL())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if *clearRun > 0 {
		if err := matcher.ClearRunArtifacts(ctx, pool, *clearRun); err != nil {
			logger.Fatal("failed to clear run artifacts", zap.Error(err))
		}
		logger.Info("cleared previous run artifacts", zap.Int("run_id", *clearRun))
	}

	rows, err := pool.Query(ctx, "SELECT address FROM properties")
	if err != nil {
		logger.Fatal("failed to query properties", zap.Error(err))
	}
	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			rows.Close()
			logger.Fatal("failed to scan property row", zap.Error(err))
		}
		if std := matcher.StandardizeAddress(addr); std != "" {
			addresses = append(addresses, std)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		logger.Fatal("failed to read property rows", zap.Error(err))
	}
	if len(addresses) < referenceCount {
		logger.Fatal("not enough addresses to seed references",
			zap.Int("have", len(addresses)), zap.Int("need", referenceCount))
	}

	references, err := pickReferences(addresses, referenceCount)
	if err != nil {
		logger.Fatal("failed to pick reference addresses", zap.Error(err))
	}

	batch := &pgx.Batch{}
	batch.Queue("TRUNCATE TABLE reference_addresses")
	for _, ref := range references {
		batch.Queue("INSERT INTO reference_addresses (address) VALUES ($1)", ref)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		logger.Fatal("failed to insert reference addresses", zap.Error(err))
	}
	logger.Info("reference addresses seeded", zap.Int("count", len(references)))

	runID, err := matcher.CreateMatchRun(ctx, pool, *runDesc)
	if err != nil {
		logger.Fatal("failed to create match run", zap.Error(err))
	}
	if err := matcher.ProcessPropertyAddresses(ctx, pool, logger, references, *workers, runID); err != nil {
		logger.Fatal("failed to generate block keys", zap.Error(err))
	}
	if err := matcher.GenerateListingTokens(ctx, pool, runID); err != nil {
		logger.Fatal("failed to generate listing tokens", zap.Error(err))
	}
	logger.Info("block keys and tokens generated", zap.Int("run_id", runID))
}

// pickReferences projects the TF-IDF address vectors onto their principal
// components and returns the n addresses with the largest first-component
// magnitude.
func pickReferences(addresses []string, n int) ([]string, error) {
	vectorizer := tfidf.NewVectorizer()
	vectors := vectorizer.FitTransform(addresses)

	numRows, numCols := len(vectors), vectorizer.VocabularySize()
	data := make([]float64, 0, numRows*numCols)
	for _, vec := range vectors {
		data = append(data, vec...)
	}
	matrix := mat.NewDense(numRows, numCols, data)

	components := n
	if components > numCols {
		components = numCols
	}
	projected, err := pca.NewPCA(components).FitTransform(matrix)
	if err != nil {
		return nil, err
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, numRows)
	for i := 0; i < numRows; i++ {
		ranked[i] = scored{index: i, score: math.Abs(projected.At(i, 0))}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	refs := make([]string, 0, n)
	for _, r := range ranked[:n] {
		refs = append(refs, addresses[r.index])
	}
	return refs, nil
}
