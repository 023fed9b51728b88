// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package webapi

import (
	"context"
	"errors"
	"net/url"

	"github.com/buger/jsonparser"
)

// Definition is the first sense of a dictionary entry.
type Definition struct {
	Word         string
	PartOfSpeech string
	Definition   string
	Example      string // may be empty
}

// String renders the definition as a reply.
func (d Definition) String() string {
	out := d.Word + " [" + d.PartOfSpeech + "] — " + d.Definition
	if d.Example != "" {
		out += " (ex. " + d.Example + ")"
	}
	return out
}

// Define looks up word, optionally restricted to a part of speech. A zero
// result count returns CodeNoResults without reading further.
func (c *Client) Define(ctx context.Context, word, partOfSpeech string) (Definition, error) {
	query := url.Values{
		"headword": {word},
		"limit":    {"1"},
	}
	if partOfSpeech != "" {
		query.Set("part_of_speech", partOfSpeech)
	}

	data, err := c.get(ctx, "dictionary", c.cfg.Endpoints.Dictionary, query)
	if err != nil {
		return Definition{}, err
	}

	count, err := jsonparser.GetInt(data, "count")
	if err != nil {
		return Definition{}, malformed("dictionary", err, "count")
	}
	if count < 1 {
		return Definition{}, noResults("dictionary", word)
	}

	result, _, _, err := jsonparser.Get(data, "results", "[0]")
	if err != nil {
		return Definition{}, malformed("dictionary", err, "results[0]")
	}

	var d Definition
	if d.Word, err = text(result, "headword"); err != nil {
		return Definition{}, malformed("dictionary", err, "results[0].headword")
	}
	d.PartOfSpeech, _ = text(result, "part_of_speech")

	sense, _, _, err := jsonparser.Get(result, "senses", "[0]")
	if err != nil {
		return Definition{}, malformed("dictionary", err, "results[0].senses[0]")
	}
	if sub, _, _, err := jsonparser.Get(sense, "subsenses", "[0]"); err == nil {
		sense = sub
	}

	if d.Definition, err = text(sense, "definition"); err != nil {
		return Definition{}, malformed("dictionary", err, "definition")
	}
	d.Example, err = text(sense, "examples", "[0]", "text")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return Definition{}, malformed("dictionary", err, "examples[0].text")
	}
	return d, nil
}
