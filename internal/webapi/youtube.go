// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package webapi

import (
	"context"
	"errors"
	"net/url"

	"github.com/buger/jsonparser"
	"github.com/samber/oops"
)

// Video is the snippet of a video.
type Video struct {
	ID          string
	Title       string
	Channel     string
	Description string
}

// Video fetches the snippet of the video with the given ID.
func (c *Client) Video(ctx context.Context, id string) (Video, error) {
	if c.cfg.YouTubeKey == "" {
		return Video{}, oops.Code(CodeMissingKey).
			With("service", "youtube").
			Errorf("no YouTube API key configured")
	}

	data, err := c.get(ctx, "youtube", c.cfg.Endpoints.YouTube, url.Values{
		"part": {"snippet"},
		"id":   {id},
		"key":  {c.cfg.YouTubeKey},
	})
	if err != nil {
		return Video{}, err
	}

	snippet, _, _, err := jsonparser.Get(data, "items", "[0]", "snippet")
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return Video{}, noResults("youtube", id)
	}
	if err != nil {
		return Video{}, malformed("youtube", err, "items[0].snippet")
	}

	v := Video{ID: id}
	for path, dst := range map[string]*string{
		"title":        &v.Title,
		"channelTitle": &v.Channel,
		"description":  &v.Description,
	} {
		s, err := text(snippet, path)
		if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return Video{}, malformed("youtube", err, "snippet."+path)
		}
		*dst = s
	}
	return v, nil
}
