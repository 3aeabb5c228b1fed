package scrapers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/scrape"
)

const docMorrisBaseURL = "https://www.docmorris.de"

var docMorrisCategories = []string{
	"/schmerzen",
	"/erkaeltung",
	"/haut-haare",
}

// DocMorrisJob scrapes category listing pages from docmorris.de.
type DocMorrisJob struct {
	logger *slog.Logger
	env    scrape.Env
	page   playwright.Page
}

// NewDocMorrisJob constructs a fresh job instance for one run.
func NewDocMorrisJob() scrape.Job {
	return &DocMorrisJob{}
}

func (j *DocMorrisJob) Competitor() string { return "DOCMORRIS" }

func (j *DocMorrisJob) Initialize(ctx context.Context, env scrape.Env) error {
	j.logger = env.Logger
	j.env = env

	page, err := env.Session.Acquire()
	if err != nil {
		return err
	}
	j.page = page
	return nil
}

func (j *DocMorrisJob) Extract(ctx context.Context) ([]scrape.Listing, error) {
	listings := []scrape.Listing{}

	for i, category := range docMorrisCategories {
		if i > 0 {
			if err := j.env.Session.Pace(ctx, 0); err != nil {
				return listings, err
			}
		}

		pageListings, err := j.extractCategory(category)
		if err != nil {
			// Listings collected so far still count
			return listings, fmt.Errorf("category %s: %w", category, err)
		}
		listings = append(listings, pageListings...)

		j.logger.Info("Extracted category",
			slog.String("category", category),
			slog.Int("listings", len(pageListings)),
		)
	}

	return listings, nil
}

func (j *DocMorrisJob) extractCategory(category string) ([]scrape.Listing, error) {
	url := docMorrisBaseURL + category
	if _, err := j.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	cards, err := j.page.Locator("article[data-qa-id='product-tile']").All()
	if err != nil {
		return nil, fmt.Errorf("failed to locate product tiles: %w", err)
	}

	listings := make([]scrape.Listing, 0, len(cards))
	for _, card := range cards {
		name, err := card.Locator("[data-qa-id='product-name']").TextContent()
		if err != nil {
			continue
		}

		listing := scrape.Listing{
			ExternalName: cleanText(name),
			Category:     strPtr(category[1:]),
			RawData: map[string]interface{}{
				"source_category": category,
			},
		}

		if priceText, err := card.Locator("[data-qa-id='product-price']").TextContent(); err == nil {
			listing.Price = parsePrice(priceText)
			listing.RawData["price_text"] = cleanText(priceText)
		}

		if href, err := card.Locator("a").First().GetAttribute("href"); err == nil && href != "" {
			listing.URL = strPtr(docMorrisBaseURL + href)
		}

		if count, err := card.Locator("[data-qa-id='rx-badge']").Count(); err == nil {
			listing.RequiresPrescription = boolPtr(count > 0)
		}

		listings = append(listings, listing)
	}

	return listings, nil
}

func (j *DocMorrisJob) Teardown(ctx context.Context) error {
	if j.env.Session != nil {
		j.env.Session.Release()
	}
	return nil
}
