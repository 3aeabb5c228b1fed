package scrapers

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/playwright-community/playwright-go"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/scrape"
)

const medpexBaseURL = "https://www.medpex.de"

// medpex has no stable category pages, so this job tracks a fixed set of
// products through the site search.
var medpexTrackedProducts = []string{
	"Aspirin 500mg",
	"Ibuprofen 400 akut",
	"Paracetamol 500",
	"Nasenspray ratiopharm",
	"Voltaren Schmerzgel",
}

// MedpexJob scrapes search results for tracked products from medpex.de.
type MedpexJob struct {
	logger *slog.Logger
	env    scrape.Env
	page   playwright.Page
}

// NewMedpexJob constructs a fresh job instance for one run.
func NewMedpexJob() scrape.Job {
	return &MedpexJob{}
}

func (j *MedpexJob) Competitor() string { return "MEDPEX" }

func (j *MedpexJob) Initialize(ctx context.Context, env scrape.Env) error {
	j.logger = env.Logger
	j.env = env

	page, err := env.Session.Acquire()
	if err != nil {
		return err
	}
	j.page = page
	return nil
}

func (j *MedpexJob) Extract(ctx context.Context) ([]scrape.Listing, error) {
	listings := []scrape.Listing{}

	for i, product := range medpexTrackedProducts {
		if i > 0 {
			if err := j.env.Session.Pace(ctx, 0); err != nil {
				return listings, err
			}
		}

		listing, err := j.extractProduct(product)
		if err != nil {
			return listings, fmt.Errorf("product %q: %w", product, err)
		}
		if listing == nil {
			j.logger.Warn("Product not found in search", slog.String("product", product))
			continue
		}

		listings = append(listings, *listing)
	}

	return listings, nil
}

func (j *MedpexJob) extractProduct(product string) (*scrape.Listing, error) {
	searchURL := medpexBaseURL + "/search?q=" + url.QueryEscape(product)
	if _, err := j.page.Goto(searchURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	results := j.page.Locator("div.product-item")
	count, err := results.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count results: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	first := results.First()

	name, err := first.Locator("a.product-name").TextContent()
	if err != nil {
		return nil, fmt.Errorf("failed to read product name: %w", err)
	}

	listing := &scrape.Listing{
		ExternalName: cleanText(name),
		RawData: map[string]interface{}{
			"search_term":  product,
			"result_count": count,
		},
	}

	if priceText, err := first.Locator("span.price").TextContent(); err == nil {
		listing.Price = parsePrice(priceText)
		listing.RawData["price_text"] = cleanText(priceText)
	}

	if href, err := first.Locator("a.product-name").GetAttribute("href"); err == nil && href != "" {
		listing.URL = strPtr(medpexBaseURL + href)
	}

	if badge, err := first.Locator("span.consultation-hint").Count(); err == nil {
		listing.RequiresConsultation = boolPtr(badge > 0)
	}

	return listing, nil
}

func (j *MedpexJob) Teardown(ctx context.Context) error {
	if j.env.Session != nil {
		j.env.Session.Release()
	}
	return nil
}
