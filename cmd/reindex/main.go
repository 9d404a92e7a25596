package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
	"github.com/terftw/doc-management/pkg/config"
	"github.com/terftw/doc-management/pkg/database"
	"github.com/terftw/doc-management/pkg/search"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	var opts struct {
		Query  string `short:"q" long:"query" description:"Run a search after rebuilding and print the top hits"`
		UserID int    `short:"u" long:"user-id" description:"Restrict the search to one user's entries"`
		Limit  int    `short:"n" long:"limit" default:"10" description:"Number of hits to print"`
	}

	_, err := flags.Parse(&opts)
	if err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		log.Err(err).Fatal("flags parse error")
	}

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	err = database.CheckFTS5Support(db)
	if err != nil {
		log.Err(err).Fatal("FTS5 check failed")
	}

	searchService := search.NewService(db, cfg)
	if err := searchService.RebuildAllIndexes(ctx); err != nil {
		log.Err(err).Fatal("reindex error")
	}
	log.Info("search indexes rebuilt")

	if opts.Query == "" {
		return
	}

	searchOpts := search.Options{Size: opts.Limit}
	if opts.UserID > 0 {
		searchOpts.CreatorID = &opts.UserID
	}
	results, err := searchService.Search(ctx, opts.Query, searchOpts)
	if err != nil {
		log.Err(err).Fatal("search error")
	}
	fmt.Printf("%d hits for %q\n", results.Total, opts.Query)
	for _, hit := range results.Hits {
		fmt.Printf("  %-8s %6d  %.3f\n", hit.Kind, hit.ID, hit.Score)
	}
}
