// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog queries the remote comic catalog (MangaDex API) for series
// and their covers.
//
// Calls never return Go errors: every failure is logged and folded into a
// Result with StatusFailed, so one unreachable endpoint cannot halt a batch.
// Each call issues exactly one request; retrying is left to a later run.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/cover-mirror/internal/httputil"
	"github.com/pdiddy/cover-mirror/internal/title"
	"github.com/pdiddy/cover-mirror/pkg/types"
)

// searchIncludes asks the catalog to embed these relationships in results.
var searchIncludes = []string{"cover_art", "author", "artist"}

// Client talks to one catalog API. It is safe to reuse across calls but is
// meant to be owned by a single run.
type Client struct {
	http *http.Client
	cfg  types.CatalogConfig
	log  zerolog.Logger
}

// New returns a Client using httpClient for transport. Zero limits in cfg are
// replaced by the defaults.
func New(httpClient *http.Client, cfg types.CatalogConfig, log zerolog.Logger) *Client {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = types.DefaultSearchLimit
	}
	if cfg.CoverLimit <= 0 {
		cfg.CoverLimit = types.DefaultCoverLimit
	}
	if len(cfg.ContentRatings) == 0 {
		cfg.ContentRatings = types.DefaultContentRatings
	}
	if cfg.APIBase == "" {
		cfg.APIBase = types.DefaultAPIBase
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return &Client{
		http: httpClient,
		cfg:  cfg,
		log:  log.With().Str("component", "catalog").Logger(),
	}
}

// SearchURL returns the search request URL for a raw title. The title is
// normalized before it is sent.
func (c *Client) SearchURL(rawTitle string) string {
	params := url.Values{
		"title":           {title.Normalize(rawTitle)},
		"limit":           {strconv.Itoa(c.cfg.SearchLimit)},
		"includes[]":      searchIncludes,
		"contentRating[]": c.cfg.ContentRatings,
	}
	return c.cfg.APIBase + "/manga?" + params.Encode()
}

// CoversURL returns the cover listing request URL for a series.
func (c *Client) CoversURL(seriesID string) string {
	params := url.Values{
		"manga[]": {seriesID},
		"limit":   {strconv.Itoa(c.cfg.CoverLimit)},
	}
	return c.cfg.APIBase + "/cover?" + params.Encode()
}

// SearchByTitle searches the catalog for series matching rawTitle. Results
// keep the catalog's relevance order.
func (c *Client) SearchByTitle(ctx context.Context, rawTitle string) Result[types.CandidateSeries] {
	log := c.log.With().Str("title", rawTitle).Logger()
	log.Debug().Str("query", title.Normalize(rawTitle)).Msg("searching catalog")

	var sr seriesListResponse
	if err := c.getJSON(ctx, c.SearchURL(rawTitle), &sr); err != nil {
		log.Warn().Err(err).Msg("search failed")
		return failedResult[types.CandidateSeries](err)
	}

	candidates := make([]types.CandidateSeries, 0, len(sr.Data))
	for _, s := range sr.Data {
		if s.ID == "" {
			continue
		}
		candidates = append(candidates, types.CandidateSeries{
			ID:        s.ID,
			Titles:    s.Attributes.Title,
			AltTitles: s.Attributes.AltTitles,
		})
	}
	res := okResult(candidates)
	if res.Status == StatusEmpty {
		log.Warn().Msg("no results found")
	}
	return res
}

// ListCovers lists the covers of a series in the order the catalog returns
// them.
func (c *Client) ListCovers(ctx context.Context, seriesID string) Result[types.CoverRecord] {
	log := c.log.With().Str("series_id", seriesID).Logger()

	var cr coverListResponse
	if err := c.getJSON(ctx, c.CoversURL(seriesID), &cr); err != nil {
		log.Warn().Err(err).Msg("cover listing failed")
		return failedResult[types.CoverRecord](err)
	}

	covers := make([]types.CoverRecord, 0, len(cr.Data))
	for _, d := range cr.Data {
		if d.ID == "" || d.Attributes.FileName == "" {
			continue
		}
		covers = append(covers, types.CoverRecord{
			ID:       d.ID,
			FileName: d.Attributes.FileName,
			Volume:   d.Attributes.Volume,
			Locale:   d.Attributes.Locale,
		})
	}
	return okResult(covers)
}

func (c *Client) getJSON(ctx context.Context, reqURL string, v any) error {
	resp, err := httputil.Get(ctx, c.http, reqURL, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing catalog response: %w", err)
	}
	return nil
}

// Catalog API JSON structures.
type seriesListResponse struct {
	Result string       `json:"result"`
	Data   []seriesData `json:"data"`
}

type seriesData struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Attributes seriesAttributes `json:"attributes"`
}

type seriesAttributes struct {
	Title     types.LocalizedTitles   `json:"title"`
	AltTitles []types.LocalizedTitles `json:"altTitles"`
}

type coverListResponse struct {
	Result string      `json:"result"`
	Data   []coverData `json:"data"`
}

type coverData struct {
	ID         string          `json:"id"`
	Attributes coverAttributes `json:"attributes"`
}

type coverAttributes struct {
	FileName string  `json:"fileName"`
	Volume   *string `json:"volume"`
	Locale   string  `json:"locale"`
}
