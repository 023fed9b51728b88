// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package webapi

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/buger/jsonparser"
)

// Summary is the plain-text introduction of an encyclopedia article.
type Summary struct {
	Title   string
	Extract string
}

var errFirstPage = errors.New("first page read")

// Summary fetches the introduction of the article best matching query.
// An empty extract returns CodeNoResults.
func (c *Client) Summary(ctx context.Context, query string) (Summary, error) {
	data, err := c.get(ctx, "wikipedia", c.cfg.Endpoints.Wikipedia, url.Values{
		"format":      {"json"},
		"action":      {"query"},
		"prop":        {"extracts"},
		"exintro":     {""},
		"explaintext": {""},
		"redirects":   {"1"},
		"titles":      {query},
	})
	if err != nil {
		return Summary{}, err
	}

	var (
		s       Summary
		readErr error
	)
	err = jsonparser.ObjectEach(data, func(_ []byte, page []byte, _ jsonparser.ValueType, _ int) error {
		s.Title, readErr = text(page, "title")
		if readErr == nil {
			s.Extract, readErr = text(page, "extract")
		}
		return errFirstPage
	}, "query", "pages")

	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		return Summary{}, noResults("wikipedia", query)
	case err != nil && !errors.Is(err, errFirstPage):
		return Summary{}, malformed("wikipedia", err, "query.pages")
	case readErr != nil && !errors.Is(readErr, jsonparser.KeyPathNotFoundError):
		return Summary{}, malformed("wikipedia", readErr, "query.pages.*")
	}

	if strings.TrimSpace(s.Extract) == "" {
		return Summary{}, noResults("wikipedia", query)
	}
	return s, nil
}
