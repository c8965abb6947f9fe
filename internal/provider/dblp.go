// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/citecheck/internal/httputil"
	"github.com/pdiddy/citecheck/pkg/types"
)

// dblpSearchBase is the DBLP publication search endpoint. Declared as a
// var so tests can substitute an httptest server.
var dblpSearchBase = "https://dblp.org/search/publ/api"

// DBLPName is the source label DBLP candidates carry.
const DBLPName = "DBLP"

// DBLP queries the DBLP publication search API and keeps the top hit.
type DBLP struct {
	Client    *http.Client
	Limiters  *Limiters
	Retrier   httputil.Retrier
	UserAgent string

	// BaseURL overrides the search endpoint, e.g. for a DBLP mirror.
	BaseURL string
}

// Name returns the provider identifier.
func (p *DBLP) Name() string { return DBLPName }

// Search asks DBLP for the single best match for title.
func (p *DBLP) Search(ctx context.Context, title string) Lookup {
	if p.Limiters != nil {
		if err := p.Limiters.Wait(ctx, DBLPName); err != nil {
			return unavailable(DBLPName, err)
		}
	}

	params := url.Values{
		"q":      {title},
		"format": {"json"},
		"h":      {"1"},
	}
	header := http.Header{}
	if p.UserAgent != "" {
		header.Set("User-Agent", p.UserAgent)
	}

	var resp dblpResponse
	if err := p.Retrier.GetJSON(ctx, p.Client, p.endpoint()+"?"+params.Encode(), header, &resp); err != nil {
		return unavailable(DBLPName, err)
	}

	hits := resp.Result.Hits.Hit
	if len(hits) == 0 {
		return Lookup{}
	}
	info := hits[0].Info

	year := strings.TrimSpace(info.Year)
	if year == "" {
		year = "N/A"
	}
	return hit(&types.CandidateRecord{
		Source:  DBLPName,
		Title:   info.Title,
		Year:    year,
		Authors: info.Authors.Author.Names(),
		URL:     info.URL,
	})
}

func (p *DBLP) endpoint() string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	return dblpSearchBase
}

// DBLP API JSON structures.
type dblpResponse struct {
	Result dblpResult `json:"result"`
}

type dblpResult struct {
	Hits dblpHits `json:"hits"`
}

type dblpHits struct {
	Total string    `json:"@total"`
	Hit   []dblpHit `json:"hit"`
}

type dblpHit struct {
	Score string   `json:"@score"`
	Info  dblpInfo `json:"info"`
}

type dblpInfo struct {
	Authors dblpAuthorsField `json:"authors"`
	Title   string           `json:"title"`
	Venue   string           `json:"venue"`
	Year    string           `json:"year"`
	URL     string           `json:"url"`
}

type dblpAuthorsField struct {
	Author dblpAuthors `json:"author"`
}

// authorShape tags which JSON form DBLP used for the author field.
type authorShape int

const (
	shapeAbsent authorShape = iota
	shapeSingle             // one object: {"text": "..."}
	shapeList               // array of objects or strings
	shapeString             // bare string
)

// dblpAuthors is the author field in whatever shape DBLP sent it. DBLP
// emits a single object for one-author papers, an array otherwise, and
// occasionally a bare string. Names flattens all of them.
type dblpAuthors struct {
	shape authorShape
	names []string
}

// Names returns the author display names in source order.
func (a dblpAuthors) Names() []string {
	if len(a.names) == 0 {
		return []string{}
	}
	return a.names
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *dblpAuthors) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = dblpAuthors{shape: shapeAbsent}
		return nil
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("dblp authors: %w", err)
		}
		names := make([]string, 0, len(items))
		for _, item := range items {
			name, err := dblpAuthorName(item)
			if err != nil {
				return err
			}
			names = append(names, name)
		}
		*a = dblpAuthors{shape: shapeList, names: names}
	case '{':
		name, err := dblpAuthorName(data)
		if err != nil {
			return err
		}
		*a = dblpAuthors{shape: shapeSingle, names: []string{name}}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("dblp authors: %w", err)
		}
		*a = dblpAuthors{shape: shapeString, names: []string{s}}
	default:
		return fmt.Errorf("dblp authors: unexpected JSON %s", data)
	}
	return nil
}

// dblpAuthorName reads one author element: {"@pid": ..., "text": name} or
// a plain string.
func dblpAuthorName(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("dblp author: %w", err)
		}
		return s, nil
	}
	var obj struct {
		PID  string `json:"@pid"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("dblp author: %w", err)
	}
	return obj.Text, nil
}
