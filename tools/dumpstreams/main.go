// Command dumpstreams runs the stream resolver against a single IMDB id and
// prints the normalized candidates. Useful for checking provider and mirror
// health without going through the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Eduard289/cinematrix-cloud/config"
	"github.com/Eduard289/cinematrix-cloud/services/streams"
)

func main() {
	var (
		configPath = flag.String("config", "cache/settings.json", "Path to settings.json")
		imdbID     = flag.String("imdb", "", "IMDB id to resolve (e.g. tt0133093)")
		timeout    = flag.Duration("timeout", 60*time.Second, "overall resolve timeout")
	)
	flag.Parse()

	if *imdbID == "" {
		log.Fatal("an -imdb id is required")
	}

	mgr := config.NewManager(*configPath)
	settings, err := mgr.Load()
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	var providers []streams.Provider
	for _, p := range settings.Resolver.Providers {
		if !p.Enabled {
			continue
		}
		providers = append(providers, streams.Provider{Name: p.Name, URLTemplate: p.URLTemplate})
	}

	svc := streams.NewService(streams.Config{
		Providers:     providers,
		Mirrors:       settings.Resolver.Mirrors,
		DirectTimeout: time.Duration(settings.Resolver.DirectTimeoutSec) * time.Second,
		MirrorTimeout: time.Duration(settings.Resolver.MirrorTimeoutSec) * time.Second,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	candidates, err := svc.Resolve(ctx, *imdbID)
	if err != nil {
		log.Fatalf("resolve: %v", err)
	}

	fmt.Printf("%d candidate(s) for %s\n", len(candidates), *imdbID)
	for i, c := range candidates {
		fmt.Printf("%3d. [%s] %-13s %s\n", i+1, c.SourceProvider, c.Quality, c.DisplayTitle)
		fmt.Printf("     seeds=%s hash=%s\n", c.SeedInfo, c.InfoHash)
	}
}
