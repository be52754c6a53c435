// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/pdiddy/genharvest/pkg/types"
)

func testConfig(baseURL string) types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:        5 * time.Second,
			UserAgent:      "genharvest-test/0.1",
			AcceptLanguage: "ru-RU",
		},
		BaseURL:      baseURL,
		TotalPages:   3,
		OffsetStride: 10,
		PageDelay:    time.Millisecond,
		ErrorBackoff: time.Millisecond,
	}
}

// encode1251 converts UTF-8 text to windows-1251 bytes, the encoding the
// forum actually serves.
func encode1251(t *testing.T, s string) []byte {
	t.Helper()
	out, err := charmap.Windows1251.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return out
}

func TestNewPagerDefaults(t *testing.T) {
	p := NewPager(types.FetchConfig{})
	if p.Config.BaseURL != types.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", p.Config.BaseURL)
	}
	if p.Config.TotalPages != types.DefaultTotalPages {
		t.Errorf("TotalPages = %d, want %d", p.Config.TotalPages, types.DefaultTotalPages)
	}
	if p.Client.Timeout != types.DefaultHTTPTimeout {
		t.Errorf("Timeout = %v, want %v", p.Client.Timeout, types.DefaultHTTPTimeout)
	}
}

func TestPageURL(t *testing.T) {
	p := NewPager(types.FetchConfig{BaseURL: "http://example.test/%d.htm"})
	tests := []struct {
		page int
		want string
	}{
		{1, "http://example.test/0.htm"},
		{2, "http://example.test/10.htm"},
		{23, "http://example.test/220.htm"},
	}
	for _, tt := range tests {
		if got := p.PageURL(tt.page); got != tt.want {
			t.Errorf("PageURL(%d) = %q, want %q", tt.page, got, tt.want)
		}
	}
}

func TestFetchPageDecodesWindows1251(t *testing.T) {
	const text = "Иванов Пётр Сергеевич мм 12.03.1920"

	var gotUA, gotLang string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=windows-1251")
		w.Write(encode1251(t, text))
	}))
	defer ts.Close()

	p := NewPager(testConfig(ts.URL + "/%d.htm"))
	p.Client = ts.Client()

	got, err := p.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if got != text {
		t.Errorf("decoded text = %q, want %q", got, text)
	}
	if gotUA != "genharvest-test/0.1" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotLang != "ru-RU" {
		t.Errorf("Accept-Language = %q", gotLang)
	}
}

func TestFetchPageNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	p := NewPager(testConfig(ts.URL + "/%d.htm"))
	p.Client = ts.Client()

	if _, err := p.FetchPage(context.Background(), 1); err == nil {
		t.Fatal("expected error for HTTP 404")
	}
}

func TestFetchAllContinuesAfterFailure(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(encode1251(t, fmt.Sprintf("страница %d", n)))
	}))
	defer ts.Close()

	p := NewPager(testConfig(ts.URL + "/%d.htm"))
	p.Client = ts.Client()

	var pages []int
	var buf bytes.Buffer
	sum, err := p.FetchAll(context.Background(), HandlerFunc(func(page int, text string) error {
		pages = append(pages, page)
		fmt.Fprintln(&buf, "ok")
		return nil
	}), &buf)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	if sum.Fetched != 2 || sum.Failed != 1 || sum.Skipped != 0 {
		t.Errorf("Summary = %+v, want 2 fetched, 1 failed", sum)
	}
	if len(pages) != 2 || pages[0] != 1 || pages[1] != 3 {
		t.Errorf("handled pages = %v, want [1 3]", pages)
	}
	if !sum.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if sum.Total() != 3 {
		t.Errorf("Total = %d, want 3", sum.Total())
	}
	if !strings.Contains(buf.String(), "failed:") {
		t.Errorf("progress output missing failure note: %q", buf.String())
	}
}

func TestFetchAllSkipsDeclinedPages(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write(encode1251(t, "текст"))
	}))
	defer ts.Close()

	p := NewPager(testConfig(ts.URL + "/%d.htm"))
	p.Client = ts.Client()

	h := &skipSecond{}
	var buf bytes.Buffer
	sum, err := p.FetchAll(context.Background(), h, &buf)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if sum.Fetched != 2 || sum.Skipped != 1 {
		t.Errorf("Summary = %+v, want 2 fetched, 1 skipped", sum)
	}
	// Declined pages must not hit the network at all.
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("server calls = %d, want 2", calls)
	}
}

type skipSecond struct{}

func (skipSecond) Keep(page int) bool     { return page != 2 }
func (skipSecond) Page(int, string) error { return nil }

func TestFetchAllContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("x"))
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL + "/%d.htm")
	cfg.PageDelay = time.Hour
	p := NewPager(cfg)
	p.Client = ts.Client()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	_, err := p.FetchAll(ctx, HandlerFunc(func(int, string) error { return nil }), &buf)
	if err != context.DeadlineExceeded {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}
