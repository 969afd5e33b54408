// Package scraper extracts faculties, subjects, courses and class schedules
// from the university's html catalog.
//
// Every stage is a pure function of its input records and the pages the
// fetcher returns. Fan-out tasks write only to their own result slot and
// results are merged after every task joined.
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"catalog-backend/internal/components/assert"
	"catalog-backend/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
)

const listingSeparator = " - "

type Options struct {
	// RootUrl is what every relative link is resolved against.
	RootUrl *url.URL
	// CatalogUrl is the page listing every faculty.
	CatalogUrl string
	Workers    int
}

// Scraper runs the extraction stages against a Fetcher.
type Scraper struct {
	fetcher    Fetcher
	root       *url.URL
	catalogUrl string
	workers    int
	tel        telemetry.API
}

func NewScraper(fetcher Fetcher, opts Options, tel telemetry.API) Scraper {
	assert.NotNil(fetcher)
	assert.NotNil(opts.RootUrl)
	assert.NotEmptyStr(opts.CatalogUrl)
	assert.NotNil(tel)
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	return Scraper{
		fetcher:    fetcher,
		root:       opts.RootUrl,
		catalogUrl: opts.CatalogUrl,
		workers:    opts.Workers,
		tel:        telemetry.NewScopedAPI("scraper", tel),
	}
}

func (s Scraper) fetchDocument(ctx context.Context, link string) (*goquery.Document, error) {
	contents, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contents))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", link, err)
	}
	return doc, nil
}

// splitListing splits "CODE - Name" on the first separator.
func splitListing(text string) (code, name string, ok bool) {
	code, name, ok = strings.Cut(text, listingSeparator)
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(code), strings.TrimSpace(name), true
}
