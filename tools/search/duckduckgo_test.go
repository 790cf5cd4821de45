// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<div class="results">
  <div class="result results_links results_links_deep web-result result--ad">
    <a class="result__a" href="https://ads.example.com">Sponsored</a>
  </div>
  <div class="result results_links results_links_deep web-result">
    <h2 class="result__title">
      <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fshop.example.com%2Fsamba&amp;rut=abc">Adidas  <b>Samba</b> OG</a>
    </h2>
    <a class="result__snippet" href="#">Classic indoor shoe, <b>100 EUR</b>.</a>
  </div>
  <div class="result results_links web-result">
    <a class="result__a" href="https://reviews.example.com/samba"></a>
  </div>
  <div class="result results_links web-result">
    <a class="result__a" href="https://third.example.com">Third</a>
    <a class="result__snippet">Third snippet</a>
  </div>
</div>
</body></html>`

func TestDuckDuckGo_Search(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(resultsPage))
	}))
	t.Cleanup(srv.Close)

	ddg := DuckDuckGo{Endpoint: srv.URL + "/html/", UserAgent: "productintel-test", MaxResults: 2}
	results, err := ddg.Search(t.Context(), "adidas samba price")
	require.NoError(t, err)

	assert.Equal(t, "adidas samba price", gotQuery)
	assert.Equal(t, "productintel-test", gotUA)
	assert.Equal(t, []Result{
		{Title: "Adidas Samba OG", Content: "Classic indoor shoe, 100 EUR.", URL: "https://shop.example.com/samba"},
		{Title: "No title", Content: "No content", URL: "https://reviews.example.com/samba"},
	}, results)
}

func TestDuckDuckGo_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	_, err := DuckDuckGo{Endpoint: srv.URL}.Search(t.Context(), "q")
	assert.ErrorContains(t, err, "HTTP 429")
}

func TestUnwrapRedirect(t *testing.T) {
	assert.Equal(t, "https://a.example/x?y=1",
		unwrapRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.example%2Fx%3Fy%3D1&rut=1"))
	assert.Equal(t, "https://direct.example", unwrapRedirect("https://direct.example"))
}
