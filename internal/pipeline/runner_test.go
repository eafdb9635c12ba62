package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/phrasecrawl/internal/config"
	"github.com/nao1215/phrasecrawl/internal/crawler"
	"github.com/nao1215/phrasecrawl/internal/database"
	"github.com/nao1215/phrasecrawl/internal/fetch"
	"github.com/nao1215/phrasecrawl/internal/model"
	"github.com/nao1215/phrasecrawl/internal/store"
)

// fakeCrawler serves a fixed listing and a set of detail pages by URL.
// Unknown detail URLs fail.
type fakeCrawler struct {
	mu         sync.Mutex
	listing    []*model.Phrase
	listingErr error
	details    map[string]*model.Detail
	calls      []string
	onDetail   func(url string)
}

func (f *fakeCrawler) FetchListing(context.Context) (*crawler.Listing, error) {
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	return &crawler.Listing{Phrases: f.listing}, nil
}

func (f *fakeCrawler) FetchDetail(_ context.Context, url string) (*model.Detail, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.onDetail != nil {
		f.onDetail(url)
	}
	d, ok := f.details[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s: status 500", crawler.ErrDetailFetch, url)
	}
	return &model.Detail{Description: d.Description, Sentences: append([]string(nil), d.Sentences...)}, nil
}

func (f *fakeCrawler) detailCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// recordingStore wraps a file store, keeps a snapshot of the file after every
// save and can fail a given save.
type recordingStore struct {
	*store.File
	failOn    int
	saves     int
	snapshots []*model.Collection
}

func (s *recordingStore) Save(phrases []*model.Phrase) error {
	s.saves++
	if s.saves == s.failOn {
		return errors.New("disk full")
	}
	if err := s.File.Save(phrases); err != nil {
		return err
	}
	c, err := s.File.Load()
	if err != nil {
		return err
	}
	s.snapshots = append(s.snapshots, c)
	return nil
}

func newRecordingStore(t *testing.T) *recordingStore {
	t.Helper()
	return &recordingStore{File: store.NewFile(filepath.Join(t.TempDir(), "phrases.json"))}
}

func phrase(id string) *model.Phrase {
	return &model.Phrase{
		ID:       id,
		Title:    "Title " + id,
		URL:      "https://example.com/ep-" + id,
		ImageURL: "https://example.com/img/" + id + ".jpg",
	}
}

func detailFor(desc string, sentences ...string) *model.Detail {
	return &model.Detail{Description: desc, Sentences: sentences}
}

func loadStore(t *testing.T, s Store) *model.Collection {
	t.Helper()
	c, err := s.Load()
	if err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	return c
}

func TestRunOnceTwoItemScenario(t *testing.T) {
	t.Parallel()

	fc := &fakeCrawler{
		listing: []*model.Phrase{phrase("E1"), phrase("E2")},
		details: map[string]*model.Detail{
			"https://example.com/ep-E1": detailFor("D1", "S1", "S2"),
		},
	}
	st := newRecordingStore(t)
	r := NewRunner(fc, st)

	report, err := r.RunOnce(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("report counts the outcomes", func(t *testing.T) {
		if report.Listed != 2 || report.Total != 2 {
			t.Errorf("expected 2 listed and total, got %d/%d", report.Listed, report.Total)
		}
		if report.Fetched != 1 || report.Failed != 1 {
			t.Errorf("expected 1 fetched and 1 failed, got %d/%d", report.Fetched, report.Failed)
		}
		if report.Writes != 2 {
			t.Errorf("expected a write per attempted item, got %d", report.Writes)
		}
		if report.Complete != 1 || report.Incomplete() != 1 {
			t.Errorf("expected 1 complete and 1 incomplete, got %d/%d", report.Complete, report.Incomplete())
		}
		want := []string{"load_store", "fetch_listing", "merge", "backfill_details"}
		if !reflect.DeepEqual(report.Steps, want) {
			t.Errorf("expected steps %v, got %v", want, report.Steps)
		}
	})

	t.Run("store holds E1 complete and E2 listing-only", func(t *testing.T) {
		c := loadStore(t, st)
		if got := c.IDs(); !reflect.DeepEqual(got, []string{"E1", "E2"}) {
			t.Fatalf("expected [E1 E2], got %v", got)
		}
		e1 := c.Get("E1")
		if !e1.IsComplete() || *e1.Description != "D1" || !reflect.DeepEqual(e1.Sentences, []string{"S1", "S2"}) {
			t.Errorf("unexpected E1: %+v", e1)
		}
		if c.Get("E2").IsComplete() {
			t.Error("expected E2 to stay incomplete")
		}
	})

	t.Run("second run only fetches E2", func(t *testing.T) {
		before := len(fc.detailCalls())
		if _, err := r.RunOnce(t.Context()); err != nil {
			t.Fatal(err)
		}
		calls := fc.detailCalls()[before:]
		if !reflect.DeepEqual(calls, []string{"https://example.com/ep-E2"}) {
			t.Errorf("expected only E2 to be fetched, got %v", calls)
		}
		if !loadStore(t, st).Get("E1").IsComplete() {
			t.Error("expected E1 to stay complete")
		}
	})
}

func TestRunOncePersistsAfterEveryItem(t *testing.T) {
	t.Parallel()

	fc := &fakeCrawler{
		listing: []*model.Phrase{phrase("A"), phrase("B"), phrase("C")},
		details: map[string]*model.Detail{
			"https://example.com/ep-A": detailFor("dA"),
			"https://example.com/ep-C": detailFor("dC", "c1"),
		},
	}
	st := newRecordingStore(t)

	if _, err := NewRunner(fc, st).RunOnce(t.Context()); err != nil {
		t.Fatal(err)
	}

	if len(st.snapshots) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(st.snapshots))
	}

	// what a crash right after item k would leave behind
	want := [][]bool{
		{true, false, false},
		{true, false, false},
		{true, false, true},
	}
	for k, snap := range st.snapshots {
		if snap.Len() != 3 {
			t.Errorf("snapshot %d: expected all 3 records, got %d", k, snap.Len())
		}
		for i, p := range snap.Phrases() {
			if p.IsComplete() != want[k][i] {
				t.Errorf("snapshot %d record %s: expected complete=%v", k, p.ID, want[k][i])
			}
		}
	}
}

func TestRunOncePersistFailureAborts(t *testing.T) {
	t.Parallel()

	fc := &fakeCrawler{
		listing: []*model.Phrase{phrase("A"), phrase("B"), phrase("C")},
		details: map[string]*model.Detail{
			"https://example.com/ep-A": detailFor("dA"),
			"https://example.com/ep-B": detailFor("dB"),
			"https://example.com/ep-C": detailFor("dC"),
		},
	}
	st := newRecordingStore(t)
	st.failOn = 2

	report, err := NewRunner(fc, st).RunOnce(t.Context())
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if report == nil || !errors.Is(report.Err, ErrPersist) {
		t.Errorf("expected report to carry the error, got %+v", report)
	}
	if got := len(fc.detailCalls()); got != 2 {
		t.Errorf("expected the pass to stop after the failed write, got %d detail calls", got)
	}
	if report.Fetched != 2 || report.Complete != 2 {
		t.Errorf("expected complete count to cover the items fetched before the failure, got fetched=%d complete=%d",
			report.Fetched, report.Complete)
	}

	c := loadStore(t, st.File)
	if !c.Get("A").IsComplete() || c.Get("B").IsComplete() {
		t.Errorf("expected store to hold the state after the first item, got %+v", c.Phrases())
	}
}

func TestRunOnceListingFailure(t *testing.T) {
	t.Parallel()

	fc := &fakeCrawler{listingErr: fmt.Errorf("%w: status 503", crawler.ErrListingFetch)}
	st := newRecordingStore(t)

	report, err := NewRunner(fc, st).RunOnce(t.Context())
	if !errors.Is(err, crawler.ErrListingFetch) {
		t.Fatalf("expected ErrListingFetch, got %v", err)
	}
	if report.Writes != 0 || st.saves != 0 {
		t.Errorf("expected no writes, got %d", st.saves)
	}
	if _, err := os.Stat(st.Path); !os.IsNotExist(err) {
		t.Errorf("expected no store file, got %v", err)
	}
}

func TestRunOnceNothingToBackfill(t *testing.T) {
	t.Parallel()

	st := newRecordingStore(t)
	done := phrase("A")
	done.ApplyDetail(detailFor("dA", "s"))
	if err := st.File.Save([]*model.Phrase{done}); err != nil {
		t.Fatal(err)
	}

	renamed := phrase("A")
	renamed.Title = "New title"
	fc := &fakeCrawler{listing: []*model.Phrase{renamed, phrase("B")}, details: map[string]*model.Detail{
		"https://example.com/ep-B": detailFor("dB"),
	}}

	// first pass completes B
	if _, err := NewRunner(fc, st).RunOnce(t.Context()); err != nil {
		t.Fatal(err)
	}
	before := len(fc.detailCalls())
	savesBefore := st.saves

	report, err := NewRunner(fc, st).RunOnce(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if got := len(fc.detailCalls()) - before; got != 0 {
		t.Errorf("expected no detail fetches, got %d", got)
	}
	if report.Writes != 1 || st.saves-savesBefore != 1 {
		t.Errorf("expected a single write, got %d", report.Writes)
	}

	a := loadStore(t, st).Get("A")
	if a.Title != "New title" {
		t.Errorf("expected refreshed title, got %q", a.Title)
	}
	if *a.Description != "dA" {
		t.Errorf("expected preserved description, got %q", *a.Description)
	}
}

func TestRunOnceRetainsExistingOnly(t *testing.T) {
	t.Parallel()

	st := newRecordingStore(t)
	old := phrase("OLD")
	old.ApplyDetail(detailFor("gone from listing"))
	if err := st.File.Save([]*model.Phrase{old}); err != nil {
		t.Fatal(err)
	}

	fc := &fakeCrawler{listing: []*model.Phrase{phrase("NEW")}, details: map[string]*model.Detail{
		"https://example.com/ep-NEW": detailFor("fresh"),
	}}
	if _, err := NewRunner(fc, st).RunOnce(t.Context()); err != nil {
		t.Fatal(err)
	}

	c := loadStore(t, st)
	if got := c.IDs(); !reflect.DeepEqual(got, []string{"NEW", "OLD"}) {
		t.Errorf("expected listing order then retained records, got %v", got)
	}
	if *c.Get("OLD").Description != "gone from listing" {
		t.Error("expected retained record to be unmodified")
	}
}

func TestRunOnceCorruptStore(t *testing.T) {
	t.Parallel()

	st := newRecordingStore(t)
	if err := os.WriteFile(st.Path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	fc := &fakeCrawler{listing: []*model.Phrase{phrase("A")}, details: map[string]*model.Detail{
		"https://example.com/ep-A": detailFor("dA"),
	}}
	report, err := NewRunner(fc, st).RunOnce(t.Context())
	if err != nil {
		t.Fatalf("expected corrupt store to be recovered, got %v", err)
	}
	if !report.StoreCorrupt {
		t.Error("expected StoreCorrupt to be reported")
	}
	if !loadStore(t, st).Get("A").IsComplete() {
		t.Error("expected the store to be rewritten")
	}
}

func TestRunOnceCancelledBetweenItems(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	fc := &fakeCrawler{
		listing: []*model.Phrase{phrase("A"), phrase("B")},
		details: map[string]*model.Detail{
			"https://example.com/ep-A": detailFor("dA"),
			"https://example.com/ep-B": detailFor("dB"),
		},
		onDetail: func(string) { cancel() },
	}
	st := newRecordingStore(t)

	report, err := NewRunner(fc, st).RunOnce(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := len(fc.detailCalls()); got != 1 {
		t.Errorf("expected one detail fetch, got %d", got)
	}
	if report.Writes != 1 {
		t.Errorf("expected the in-flight item to be persisted, got %d writes", report.Writes)
	}
	if report.Complete != 1 {
		t.Errorf("expected complete count to be refreshed on cancellation, got %d", report.Complete)
	}
	if !loadStore(t, st).Get("A").IsComplete() {
		t.Error("expected A to be durable")
	}
}

func TestRunOnceRecordsHistory(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st := store.NewFile(filepath.Join(t.TempDir(), "phrases.json"))
	fc := &fakeCrawler{
		listing: []*model.Phrase{phrase("E1"), phrase("E2")},
		details: map[string]*model.Detail{"https://example.com/ep-E1": detailFor("D1")},
	}
	r := NewRunner(fc, st, WithHistory(db), WithListingURL("https://example.com/list"))

	if _, err := r.RunOnce(t.Context()); err != nil {
		t.Fatal(err)
	}
	fc.listingErr = crawler.ErrListingFetch
	if _, err := r.RunOnce(t.Context()); err == nil {
		t.Fatal("expected second run to fail")
	}

	runs, err := db.ListRuns(t.Context(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Status != database.StatusFailed || runs[0].Error == "" {
		t.Errorf("expected latest run to be failed with error, got %+v", runs[0])
	}

	first, err := db.GetRun(t.Context(), runs[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != database.StatusSucceeded || first.ListingURL != "https://example.com/list" {
		t.Errorf("unexpected first run %+v", first)
	}
	digest, err := st.Digest()
	if err != nil {
		t.Fatal(err)
	}
	if first.StoreDigest != digest {
		t.Errorf("expected digest %s, got %s", digest, first.StoreDigest)
	}
	if len(first.Items) != 2 {
		t.Fatalf("expected 2 items, got %+v", first.Items)
	}
	want := []database.ItemRecord{
		{PhraseID: "E1", Outcome: database.OutcomeFetched},
		{PhraseID: "E2", Outcome: database.OutcomeFailed, Error: first.Items[1].Error},
	}
	if !reflect.DeepEqual(first.Items, want) || first.Items[1].Error == "" {
		t.Errorf("unexpected items %+v", first.Items)
	}
}

// TestRunOnceAgainstServer drives the real transport and extractors.
func TestRunOnceAgainstServer(t *testing.T) {
	t.Parallel()

	var e1Hits, e2Hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<div class="course-content-item"><div class="img"><a><img src="/img/e1.jpg"></a></div>
  <div class="text"><h2><a href="/phrase/ep-E1">First</a></h2></div></div>
<div class="course-content-item"><div class="img"><a><img src="/img/e2.jpg"></a></div>
  <div class="text"><h2><a href="/phrase/ep-E2">Second</a></h2></div></div>
<div class="course-content-item"><div class="text"><h2><a href="/about">Dropped</a></h2></div></div>
</body></html>`))
	})
	mux.HandleFunc("/phrase/ep-E1", func(w http.ResponseWriter, _ *http.Request) {
		e1Hits.Add(1)
		_, _ = w.Write([]byte(`<div class="widget-richtext"><div class="text"><p>D1</p>
<h3>例句</h3><p>one<br>line two</p><p>two</p></div></div>`))
	})
	mux.HandleFunc("/phrase/ep-E2", func(w http.ResponseWriter, _ *http.Request) {
		e2Hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := fetch.NewClient()
	if err != nil {
		t.Fatal(err)
	}
	src := config.DefaultSource()
	src.ListingURL = srv.URL + "/list"
	st := store.NewFile(filepath.Join(t.TempDir(), "phrases.json"))
	r := NewRunner(crawler.New(client, src, nil), st, WithListingURL(src.ListingURL))

	report, err := r.RunOnce(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Skipped != 1 {
		t.Errorf("expected the item without an id to be skipped, got %d", report.Skipped)
	}

	c := loadStore(t, st)
	if got := c.IDs(); !reflect.DeepEqual(got, []string{"E1", "E2"}) {
		t.Fatalf("expected [E1 E2], got %v", got)
	}
	e1 := c.Get("E1")
	if e1.URL != srv.URL+"/phrase/ep-E1" || e1.ImageURL != srv.URL+"/img/e1.jpg" {
		t.Errorf("expected absolute URLs, got %q %q", e1.URL, e1.ImageURL)
	}
	if *e1.Description != "D1" || !reflect.DeepEqual(e1.Sentences, []string{"one\nline two", "two"}) {
		t.Errorf("unexpected E1 detail %+v", e1)
	}
	if c.Get("E2").IsComplete() {
		t.Error("expected E2 to stay incomplete")
	}

	if _, err := r.RunOnce(t.Context()); err != nil {
		t.Fatal(err)
	}
	if e1Hits.Load() != 1 || e2Hits.Load() != 2 {
		t.Errorf("expected E1 fetched once and E2 twice, got %d and %d", e1Hits.Load(), e2Hits.Load())
	}
}
