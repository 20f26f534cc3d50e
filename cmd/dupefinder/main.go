package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/TFMV/DupeFinder/internal/handlers"
	"github.com/TFMV/DupeFinder/internal/matcher"
	"github.com/TFMV/DupeFinder/pkg/config"
	"github.com/TFMV/DupeFinder/pkg/db"
	"github.com/TFMV/DupeFinder/pkg/utils"
)

type result struct {
	Address    string              `json:"address"`
	Candidates []matcher.Candidate `json:"candidates"`
}

// Scores a CSV of scraped listings against the stored pool and writes the
// ranked candidates to stdout as JSON. Expected columns: address, latitude,
// longitude, monthly_income, advertiser_name; blanks mean the factor is
// absent.
func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to CONFIG_PATH)")
	csvPath := flag.String("csv", "", "path to the listings CSV")
	flag.Parse()

	logger, err := utils.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *csvPath == "" {
		logger.Fatal("a listings CSV is required (-csv)")
	}

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

	engine, err := matcher.NewEngine(cfg.Matching)
	if err != nil {
		logger.Fatal("invalid matching config", zap.Error(err))
	}
	repo := db.NewRepository(pool, logger)

	listings, err := readListings(*csvPath)
	if err != nil {
		logger.Fatal("failed to read listings", zap.Error(err))
	}

	results := make([]result, 0, len(listings))
	for _, req := range listings {
		candidates, err := findCandidates(ctx, repo, engine, logger, req)
		if err != nil {
			logger.Error("scoring failed, listing treated as separate",
				zap.String("address", req.Address), zap.Error(err))
			candidates = []matcher.Candidate{}
		}
		results = append(results, result{Address: req.Address, Candidates: candidates})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		logger.Fatal("failed to write results", zap.Error(err))
	}
}

func findCandidates(ctx context.Context, repo *db.Repository, engine *matcher.Engine, logger *zap.Logger, req matcher.MatchRequest) ([]matcher.Candidate, error) {
	pool, err := handlers.CandidatePool(ctx, repo, logger, req.Address)
	if err != nil {
		return nil, err
	}
	return engine.FindMatches(req, pool), nil
}

func readListings(path string) ([]matcher.MatchRequest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"address"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("CSV is missing the %q column", required)
		}
	}

	var listings []matcher.MatchRequest
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		req := matcher.MatchRequest{Address: field(record, col, "address")}
		req.Latitude = parseFloat(field(record, col, "latitude"))
		req.Longitude = parseFloat(field(record, col, "longitude"))
		req.MonthlyIncome = parseFloat(field(record, col, "monthly_income"))
		req.AdvertiserName = field(record, col, "advertiser_name")
		listings = append(listings, req)
	}
	return listings, nil
}

func field(record []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
