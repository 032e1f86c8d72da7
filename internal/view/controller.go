// Package view implements the gallery view controller: it fetches image
// records from the server, derives category filters from their paths, and
// recomputes the filtered/sorted view on every interaction. State is owned
// by a single Controller instance for the session.
package view

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/elbowspeak/nas-file-categorizer/internal/catalog"
	"github.com/elbowspeak/nas-file-categorizer/internal/logging"
)

// Sort criteria accepted by ApplyFiltersAndSort. Any other value leaves
// the input order unchanged.
const (
	SortDate = "date"
	SortName = "name"
	SortSize = "size"
)

// Renderer receives the derived categories and the filtered/sorted image
// set whenever the view changes.
type Renderer interface {
	DisplayCategories(categories []string)
	DisplayImages(images []catalog.ImageRecord)
}

// State is the session-scoped view state. FilteredImages is always a
// subset of AllImages, consistent with ActiveFilters and the last-applied
// sort criteria; it is fully recomputed on each apply.
type State struct {
	AllImages      []catalog.ImageRecord
	FilteredImages []catalog.ImageRecord
	ActiveFilters  map[string]struct{}
}

// Controller drives the gallery view against a server.
type Controller struct {
	mu       sync.Mutex
	state    State
	renderer Renderer
	client   *http.Client
	baseURL  string
	criteria string
	collator *collate.Collator

	// gen guards against stale fetch responses committing out of order.
	gen atomic.Uint64
}

// NewController creates a controller for the given server base URL. A nil
// client falls back to http.DefaultClient; a nil renderer disables render
// dispatch (useful for headless use).
func NewController(baseURL string, client *http.Client, renderer Renderer) *Controller {
	if client == nil {
		client = http.DefaultClient
	}
	return &Controller{
		state:    State{ActiveFilters: make(map[string]struct{})},
		renderer: renderer,
		client:   client,
		baseURL:  baseURL,
		collator: collate.New(language.Und),
	}
}

// State returns a snapshot of the current view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := State{
		AllImages:      append([]catalog.ImageRecord(nil), c.state.AllImages...),
		FilteredImages: append([]catalog.ImageRecord(nil), c.state.FilteredImages...),
		ActiveFilters:  make(map[string]struct{}, len(c.state.ActiveFilters)),
	}
	for f := range c.state.ActiveFilters {
		snap.ActiveFilters[f] = struct{}{}
	}
	return snap
}

// FetchImages performs GET /api/images, scoped to a category when one is
// given. It returns the decoded records without touching controller state;
// committing is the caller's job.
func (c *Controller) FetchImages(ctx context.Context, category string) ([]catalog.ImageRecord, error) {
	u := c.baseURL + "/api/images"
	if category != "" {
		u += "?category=" + url.QueryEscape(category)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logging.Warn("image fetch failed", zap.String("url", u), zap.Error(err))
		return nil, fmt.Errorf("fetch images: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		logging.Warn("image fetch returned error status",
			zap.String("url", u), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("fetch images: status %d", resp.StatusCode)
	}

	var images []catalog.ImageRecord
	if err := json.NewDecoder(resp.Body).Decode(&images); err != nil {
		logging.Warn("image response parse failed", zap.String("url", u), zap.Error(err))
		return nil, fmt.Errorf("decode images: %w", err)
	}
	return images, nil
}

// Load fetches the full image list, commits it to the view state, derives
// categories, and applies the current filters and sort. It is the page-load
// entry point.
func (c *Controller) Load(ctx context.Context) error {
	return c.load(ctx, "")
}

// LoadCategory is Load scoped to a single category on the server side.
func (c *Controller) LoadCategory(ctx context.Context, category string) error {
	return c.load(ctx, category)
}

func (c *Controller) load(ctx context.Context, category string) error {
	gen := c.gen.Add(1)

	images, err := c.FetchImages(ctx, category)
	if err != nil {
		// State stays whatever it was; the failure is already logged.
		return err
	}

	c.mu.Lock()
	if c.gen.Load() != gen {
		// A newer load has started; this response is stale.
		c.mu.Unlock()
		logging.Debug("discarding stale image response", zap.Uint64("gen", gen))
		return nil
	}
	c.state.AllImages = images
	criteria := c.criteria
	c.mu.Unlock()

	c.DeriveCategories()
	c.ApplyFiltersAndSort(criteria)
	return nil
}

// DeriveCategories recomputes the distinct category set from AllImages in
// first-seen order and hands it to the renderer.
func (c *Controller) DeriveCategories() []string {
	c.mu.Lock()
	seen := make(map[string]struct{})
	var categories []string
	for _, img := range c.state.AllImages {
		cat := catalog.CategoryOf(img.FileInfo.Path)
		if _, ok := seen[cat]; !ok {
			seen[cat] = struct{}{}
			categories = append(categories, cat)
		}
	}
	renderer := c.renderer
	c.mu.Unlock()

	if renderer != nil {
		renderer.DisplayCategories(categories)
	}
	return categories
}

// ToggleFilter adds or removes a category from the active filter set and
// reapplies the view.
func (c *Controller) ToggleFilter(category string) {
	c.mu.Lock()
	if _, ok := c.state.ActiveFilters[category]; ok {
		delete(c.state.ActiveFilters, category)
	} else {
		c.state.ActiveFilters[category] = struct{}{}
	}
	c.mu.Unlock()

	c.ApplyFiltersAndSort(c.criteria)
}

// ApplyFiltersAndSort recomputes FilteredImages from AllImages under the
// active filter set, orders it by criteria, and dispatches the result to
// the renderer. The sort is stable, so ties keep their input order.
func (c *Controller) ApplyFiltersAndSort(criteria string) []catalog.ImageRecord {
	c.mu.Lock()
	c.criteria = criteria

	var filtered []catalog.ImageRecord
	if len(c.state.ActiveFilters) == 0 {
		filtered = append(filtered, c.state.AllImages...)
	} else {
		for _, img := range c.state.AllImages {
			if _, ok := c.state.ActiveFilters[catalog.CategoryOf(img.FileInfo.Path)]; ok {
				filtered = append(filtered, img)
			}
		}
	}

	switch criteria {
	case SortDate:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].FileInfo.Modified > filtered[j].FileInfo.Modified
		})
	case SortName:
		sort.SliceStable(filtered, func(i, j int) bool {
			return c.collator.CompareString(filtered[i].FileInfo.Name, filtered[j].FileInfo.Name) < 0
		})
	case SortSize:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].FileInfo.Size > filtered[j].FileInfo.Size
		})
	}

	c.state.FilteredImages = filtered
	renderer := c.renderer
	out := append([]catalog.ImageRecord(nil), filtered...)
	c.mu.Unlock()

	if renderer != nil {
		renderer.DisplayImages(out)
	}
	return out
}
