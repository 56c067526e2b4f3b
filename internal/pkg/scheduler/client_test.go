package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(baseURL string) *Client {
	return NewClient(Config{
		CrawlerBaseURL: baseURL + "/",
		SeatBaseURL:    baseURL + "/seat?",
		RequestTimeout: 2 * time.Second,
		RetryBackoff:   time.Millisecond,
		BatchPause:     time.Millisecond,
	})
}

func TestFetchNTerms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"terms":[{"term":"202405"},{"term":"202502"},{"term":"202408"},{"term":"202505"}]}`)
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	terms, err := client.FetchNTerms(context.Background(), 2, true)
	if err != nil {
		t.Fatalf("FetchNTerms: %v", err)
	}
	if !reflect.DeepEqual(terms, []string{"202505", "202502"}) {
		t.Errorf("expected most recent terms first, got %v", terms)
	}

	terms, err = client.FetchNTerms(context.Background(), 3, false)
	if err != nil {
		t.Fatalf("FetchNTerms without summer: %v", err)
	}
	if !reflect.DeepEqual(terms, []string{"202502", "202408"}) {
		t.Errorf("summer terms must be skipped, got %v", terms)
	}
}

func TestFetchNTermsShortfall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"terms":[{"term":"202502"}]}`)
	}))
	defer srv.Close()

	terms, err := testClient(srv.URL).FetchNTerms(context.Background(), 5, true)
	if err != nil {
		t.Fatalf("a shortfall must not be an error: %v", err)
	}
	if len(terms) != 1 {
		t.Errorf("expected 1 term, got %v", terms)
	}
}

func TestFetchNTermsUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).FetchNTerms(context.Background(), 2, true); err == nil {
		t.Fatal("expected an error when the term index is unreachable")
	}
}

func TestFetchTermPayload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{
			"updatedAt": "2025-01-15T10:30:00Z",
			"courses": {"CS 1301": ["Intro", {}]},
			"caches": {"periods": ["0800 - 0850", "TBA", "bogus"]}
		}`)
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	payload, err := client.FetchTermPayload(context.Background(), "202502")
	if err != nil {
		t.Fatalf("FetchTermPayload: %v", err)
	}
	if payload.UpdatedAt != "2025-01-15T10:30:00Z" {
		t.Errorf("unexpected updatedAt: %q", payload.UpdatedAt)
	}
	want := [][2]string{{"08:00", "08:50"}, {"", ""}, {"", ""}}
	if !reflect.DeepEqual(payload.Periods, want) {
		t.Errorf("unexpected periods: %v", payload.Periods)
	}
	if len(payload.Courses) != 1 {
		t.Errorf("expected 1 course, got %d", len(payload.Courses))
	}

	// Second fetch must come from cache.
	if _, err := client.FetchTermPayload(context.Background(), "202502"); err != nil {
		t.Fatalf("cached FetchTermPayload: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 upstream hit, got %d", hits.Load())
	}
}

func TestFetchEnrollment(t *testing.T) {
	page := `Enrollment Actual:</span> <span dir="ltr">150</span>
Enrollment Maximum:</span> <span  dir="ltr">200</span>
Waitlist Actual:</span> <span dir="ltr">5</span>`

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Query().Get("crn") == "666" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	got, err := client.FetchEnrollment(context.Background(), "202502", []string{"100", "666"})
	if err != nil {
		t.Fatalf("FetchEnrollment: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected entries for both CRNs, got %d", len(got))
	}

	ok := got["100"]
	if ok.Actual == nil || *ok.Actual != 150 {
		t.Errorf("expected actual 150, got %v", ok.Actual)
	}
	if ok.Maximum == nil || *ok.Maximum != 200 {
		t.Errorf("expected maximum 200, got %v", ok.Maximum)
	}
	if ok.WaitlistActual == nil || *ok.WaitlistActual != 5 {
		t.Errorf("expected waitlist actual 5, got %v", ok.WaitlistActual)
	}
	if ok.SeatsAvailable != nil {
		t.Errorf("absent labels must stay nil, got %v", ok.SeatsAvailable)
	}

	failed := got["666"]
	if failed.Actual != nil {
		t.Error("a failed CRN fetch must yield an all-nil entry")
	}
}

func TestFetchEnrollmentEmptyInput(t *testing.T) {
	client := testClient("http://127.0.0.1:0")
	got, err := client.FetchEnrollment(context.Background(), "202502", nil)
	if err != nil || len(got) != 0 {
		t.Errorf("empty CRN list must short-circuit, got %v, %v", got, err)
	}
}

func TestFetchWithRetryRecovers(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	body, err := client.fetchWithRetry(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected recovery after rate limiting: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("unexpected body %q", body)
	}
	if hits.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", hits.Load())
	}
}

func TestFetchWithRetryExhaustsAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	if _, err := client.fetchWithRetry(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if hits.Load() != 4 {
		t.Errorf("expected 4 attempts (1 + 3 retries), got %d", hits.Load())
	}
}

func TestFormatPeriods(t *testing.T) {
	got := formatPeriods([]string{"0930 - 1045", "TBA", "garbage"})
	want := [][2]string{{"09:30", "10:45"}, {"", ""}, {"", ""}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("formatPeriods = %v, want %v", got, want)
	}
}
