package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tavolo/internal/app"
	"github.com/ternarybob/tavolo/internal/common"
	"github.com/ternarybob/tavolo/internal/interfaces"
	"github.com/ternarybob/tavolo/internal/models"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths

	freeText = flag.String("text", "", "Free-text dining request (natural-language search)")
	cuisines = flag.String("cuisine", "", "Comma-separated cuisine types (structured search)")
	price    = flag.String("price", "any", "Price tier: budget, moderate, upscale, fine-dining, any")
	radius   = flag.Float64("radius", models.DefaultSearchRadiusMiles, "Search radius in miles")
	party    = flag.Int("party", models.DefaultPartySize, "Party size")
	lat      = flag.Float64("lat", 0, "Origin latitude (required)")
	lng      = flag.Float64("lng", 0, "Origin longitude (required)")

	showVersion = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Tavolo version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	if *lat == 0 && *lng == 0 {
		fmt.Fprintln(os.Stderr, "origin required: pass -lat and -lng")
		flag.Usage()
		os.Exit(2)
	}

	// Auto-discover config file when none specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("tavolo.toml"); err == nil {
			configFiles = append(configFiles, "tavolo.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	deadline := config.Pipeline.RequestDeadline
	if deadline <= 0 {
		deadline = 180 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	origin := models.Coordinates{Latitude: *lat, Longitude: *lng}

	var recs []models.Recommendation
	if *freeText != "" {
		recs, err = application.Recommender.SearchByFreeText(ctx, *freeText, origin)
	} else {
		pref := models.PreferenceQuery{
			CuisineTypes:      splitCuisines(*cuisines),
			PriceTier:         models.ParsePriceTier(*price),
			SearchRadiusMiles: *radius,
			PartySize:         *party,
		}
		recs, err = application.Recommender.SearchByPreferences(ctx, pref, origin)
	}

	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "search cancelled before it could finish")
		os.Exit(1)
	case errors.Is(err, interfaces.ErrGeoUnavailable):
		fmt.Fprintln(os.Stderr, "search temporarily unavailable, try again")
		os.Exit(1)
	default:
		logger.Error().Err(err).Msg("Search failed")
		os.Exit(1)
	}

	if len(recs) == 0 {
		fmt.Println("no matches found, try different preferences")
		return
	}

	printRecommendations(recs)
}

func splitCuisines(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printRecommendations(recs []models.Recommendation) {
	for i, rec := range recs {
		fmt.Printf("%d. %s", i+1, rec.Name)
		if rec.Rating > 0 {
			fmt.Printf("  (%.1f/5, %d reviews)", rec.Rating, rec.UserRatingsTotal)
		}
		fmt.Printf("  confidence %.2f\n", rec.Confidence)

		if rec.Description != "" {
			fmt.Printf("   %s\n", rec.Description)
		}
		if len(rec.Reasons) > 0 {
			fmt.Printf("   why: %s\n", strings.Join(rec.Reasons, "; "))
		}
		if rec.Address != "" {
			fmt.Printf("   %s", rec.Address)
			if rec.PhoneNumber != "" {
				fmt.Printf("  %s", rec.PhoneNumber)
			}
			fmt.Println()
		}
		if rec.Website != "" {
			fmt.Printf("   %s\n", rec.Website)
		}
		if rec.OpenNow {
			fmt.Println("   open now")
		}
		fmt.Println()
	}
}
