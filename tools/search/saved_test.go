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
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave_SameSecond(t *testing.T) {
	dir := t.TempDir()
	p1, err := Save(dir, "product_search", "q", Data{}, "a", fixedNow)
	require.NoError(t, err)
	p2, err := Save(dir, "product_search", "q", Data{}, "b", fixedNow)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "product_search_20250304_050607.json"), p1)
	assert.Equal(t, filepath.Join(dir, "product_search_20250304_050607_1.json"), p2)
}

func TestSave_Concurrent(t *testing.T) {
	dir := t.TempDir()
	const n = 32

	paths := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := Save(dir, "sentiment_search", "samba", Data{}, fmt.Sprint(i), fixedNow)
			assert.NoError(t, err)
			paths[i] = p
		}()
	}
	wg.Wait()

	assert.Len(t, slices.Compact(slices.Sorted(slices.Values(paths))), n)
	files, err := ListSaved(dir, "sentiment_search")
	require.NoError(t, err)
	assert.Len(t, files, n)

	outputs := map[string]bool{}
	for _, f := range files {
		saved, err := LoadSaved(f)
		require.NoError(t, err)
		assert.Equal(t, f, saved.Metadata.SavedTo)
		outputs[saved.FormattedOutput] = true
	}
	assert.Len(t, outputs, n)
}

func TestListSaved(t *testing.T) {
	dir := t.TempDir()
	for i, st := range []string{"product_search", "competitor_search", "product_search"} {
		_, err := Save(dir, st, "q", nil, "", fixedNow.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	all, err := ListSaved(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	products, err := ListSaved(dir, "product_search")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "product_search_20250304_050609.json"),
		filepath.Join(dir, "product_search_20250304_050607.json"),
	}, products)

	missing, err := ListSaved(filepath.Join(dir, "missing"), "")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestLoadSaved_Errors(t *testing.T) {
	_, err := LoadSaved(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "error loading search file")
}
