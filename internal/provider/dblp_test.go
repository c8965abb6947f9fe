// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDBLPJSON = `{
  "result": {
    "query": "attention is all you need",
    "hits": {
      "@total": "1",
      "hit": [
        {
          "@score": "9",
          "info": {
            "authors": {"author": [
              {"@pid": "p1", "text": "Ashish Vaswani"},
              {"@pid": "p2", "text": "Noam Shazeer"}
            ]},
            "title": "Attention is All you Need.",
            "venue": "NIPS",
            "year": "2017",
            "url": "https://dblp.org/rec/conf/nips/VaswaniSPUJGKP17"
          }
        }
      ]
    }
  }
}`

const emptyDBLPJSON = `{"result": {"hits": {"@total": "0"}}}`

func dblpTestServer(t *testing.T, statusCode int, body string, gotQuery *string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotQuery != nil {
			*gotQuery = r.URL.RawQuery
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprint(w, body)
	}))
	old := dblpSearchBase
	dblpSearchBase = ts.URL
	t.Cleanup(func() {
		dblpSearchBase = old
		ts.Close()
	})
	return ts
}

func TestDBLPSearch(t *testing.T) {
	var query string
	ts := dblpTestServer(t, http.StatusOK, sampleDBLPJSON, &query)

	p := &DBLP{Client: ts.Client()}
	l := p.Search(context.Background(), "Attention Is All You Need")

	require.True(t, l.Found())
	rec := l.Record
	assert.Equal(t, "DBLP", rec.Source)
	assert.Equal(t, "Attention is All you Need.", rec.Title)
	assert.Equal(t, "2017", rec.Year)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, rec.Authors)
	assert.Equal(t, "https://dblp.org/rec/conf/nips/VaswaniSPUJGKP17", rec.URL)

	assert.Contains(t, query, "format=json")
	assert.Contains(t, query, "h=1")
	assert.Contains(t, query, "q=Attention+Is+All+You+Need")
}

func TestDBLPSearch_NoHits(t *testing.T) {
	ts := dblpTestServer(t, http.StatusOK, emptyDBLPJSON, nil)

	l := (&DBLP{Client: ts.Client()}).Search(context.Background(), "nothing")
	assert.False(t, l.Found())
	assert.False(t, l.Unavailable())
	assert.Nil(t, l.Record)
}

func TestDBLPSearch_ServerError(t *testing.T) {
	ts := dblpTestServer(t, http.StatusServiceUnavailable, "", nil)

	l := (&DBLP{Client: ts.Client()}).Search(context.Background(), "anything")
	assert.True(t, l.Unavailable())
	assert.ErrorIs(t, l.Err, ErrUnavailable)
	assert.Nil(t, l.Record)
}

func TestDBLPSearch_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	old := dblpSearchBase
	dblpSearchBase = ts.URL
	defer func() { dblpSearchBase = old }()
	ts.Close()

	l := (&DBLP{Client: http.DefaultClient}).Search(context.Background(), "anything")
	assert.ErrorIs(t, l.Err, ErrUnavailable)
}

func TestDBLPSearch_MissingYear(t *testing.T) {
	body := `{"result":{"hits":{"hit":[{"info":{"title":"Untitled","url":"u"}}]}}}`
	ts := dblpTestServer(t, http.StatusOK, body, nil)

	l := (&DBLP{Client: ts.Client()}).Search(context.Background(), "Untitled")
	require.True(t, l.Found())
	assert.Equal(t, "N/A", l.Record.Year)
	assert.Empty(t, l.Record.Authors)
	assert.NotNil(t, l.Record.Authors)
}

func TestDBLPAuthorsUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantShape authorShape
		want      []string
	}{
		{"single object", `{"@pid":"p1","text":"Geoffrey E. Hinton"}`, shapeSingle, []string{"Geoffrey E. Hinton"}},
		{"list of objects", `[{"text":"A One"},{"text":"B Two"}]`, shapeList, []string{"A One", "B Two"}},
		{"list of strings", `["A One","B Two"]`, shapeList, []string{"A One", "B Two"}},
		{"bare string", `"Solo Author"`, shapeString, []string{"Solo Author"}},
		{"null", `null`, shapeAbsent, []string{}},
		{"empty list", `[]`, shapeList, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a dblpAuthors
			require.NoError(t, json.Unmarshal([]byte(tt.json), &a))
			assert.Equal(t, tt.wantShape, a.shape)
			assert.Equal(t, tt.want, a.Names())
		})
	}
}

func TestDBLPAuthorsUnmarshal_Absent(t *testing.T) {
	var info dblpInfo
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &info))
	assert.Equal(t, shapeAbsent, info.Authors.Author.shape)
	assert.Equal(t, []string{}, info.Authors.Author.Names())
}

func TestDBLPAuthorsUnmarshal_Invalid(t *testing.T) {
	var a dblpAuthors
	assert.Error(t, json.Unmarshal([]byte(`42`), &a))
}

func TestDBLPSearch_UsesSharedLimiter(t *testing.T) {
	ts := dblpTestServer(t, http.StatusOK, emptyDBLPJSON, nil)
	lims := NewLimiters(0)

	p := &DBLP{Client: ts.Client(), Limiters: lims}
	p.Search(context.Background(), "x")

	assert.Same(t, lims.For(DBLPName), lims.For("DBLP"))
}

func TestDBLPSearch_CancelledWhileWaiting(t *testing.T) {
	ts := dblpTestServer(t, http.StatusOK, emptyDBLPJSON, nil)
	lims := NewLimiters(time.Hour)
	// Drain the single burst token.
	require.True(t, lims.For(DBLPName).Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := (&DBLP{Client: ts.Client(), Limiters: lims}).Search(ctx, "x")
	assert.ErrorIs(t, l.Err, ErrUnavailable)
}
