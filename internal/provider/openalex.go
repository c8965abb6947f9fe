// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pdiddy/citecheck/internal/httputil"
	"github.com/pdiddy/citecheck/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlexName is the source label OpenAlex candidates carry.
const OpenAlexName = "OpenAlex"

const openAlexSelect = "display_name,publication_year,authorships,doi"

// OpenAlex queries the OpenAlex works search and keeps the top hit.
type OpenAlex struct {
	Client   *http.Client
	Limiters *Limiters
	Retrier  httputil.Retrier

	// Email identifies the caller for the polite pool. When empty the
	// request falls back to UserAgent, or to no identification at all.
	Email     string
	UserAgent string

	// BaseURL overrides the works endpoint.
	BaseURL string
}

// Name returns the provider identifier.
func (p *OpenAlex) Name() string { return OpenAlexName }

// Search asks OpenAlex for the single best match for title.
func (p *OpenAlex) Search(ctx context.Context, title string) Lookup {
	if p.Limiters != nil {
		if err := p.Limiters.Wait(ctx, OpenAlexName); err != nil {
			return unavailable(OpenAlexName, err)
		}
	}

	params := url.Values{
		"search":   {title},
		"per-page": {"1"},
		"select":   {openAlexSelect},
	}
	if p.Email != "" {
		params.Set("mailto", p.Email)
	}

	var resp openAlexResponse
	if err := p.Retrier.GetJSON(ctx, p.Client, p.endpoint()+"?"+params.Encode(), p.header(), &resp); err != nil {
		return unavailable(OpenAlexName, err)
	}
	if len(resp.Results) == 0 {
		return Lookup{}
	}
	top := resp.Results[0]

	authors := make([]string, 0, len(top.Authorships))
	for _, a := range top.Authorships {
		authors = append(authors, a.Author.DisplayName)
	}
	return hit(&types.CandidateRecord{
		Source:  OpenAlexName,
		Title:   top.DisplayName,
		Year:    yearString(top.PublicationYear),
		Authors: authors,
		URL:     top.DOI,
	})
}

func (p *OpenAlex) endpoint() string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	return openAlexSearchBase
}

// header builds the identification header: "mailto:<email>" when a contact
// address is known.
func (p *OpenAlex) header() http.Header {
	h := http.Header{}
	switch {
	case p.Email != "":
		h.Set("User-Agent", "mailto:"+p.Email)
	case p.UserAgent != "":
		h.Set("User-Agent", p.UserAgent)
	}
	return h
}

// OpenAlex API JSON structures, limited to the selected fields.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
}

type openAlexWork struct {
	DisplayName     string               `json:"display_name"`
	PublicationYear int                  `json:"publication_year"`
	DOI             string               `json:"doi"`
	Authorships     []openAlexAuthorship `json:"authorships"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
