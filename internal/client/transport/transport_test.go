package transport

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuild_NoRetriesByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr, err := Build(Options{HTTPClient: srv.Client(), Retries: 0, Concurrency: 1, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := tr.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want the 500 passed through", resp.StatusCode)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want exactly 1 with retries off", calls)
	}
}

func TestBuild_NilClient(t *testing.T) {
	if _, err := Build(Options{}); err == nil {
		t.Fatal("Build accepted a nil HTTPClient")
	}
}

func TestRetry_ServerErrorsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	tr, err := Build(Options{
		HTTPClient: srv.Client(),
		Retries:    3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		Logger:     discardLogger(),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := tr.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 after retries", resp.StatusCode)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_ClientErrorsPassThrough(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tr, err := Build(Options{
		HTTPClient: srv.Client(),
		Retries:    3,
		BaseDelay:  time.Millisecond,
		Logger:     discardLogger(),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := tr.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403 passed through", resp.StatusCode)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1; a 403 is the upstream saying no, not flaking", calls)
	}
}

func TestRetry_ReplaysPostBody(t *testing.T) {
	var calls int32
	var lastBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastBody, _ = io.ReadAll(r.Body)
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	tr, err := Build(Options{
		HTTPClient: srv.Client(),
		Retries:    1,
		BaseDelay:  time.Millisecond,
		Logger:     discardLogger(),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	body := `{"is_subsequent_page": true}`
	req, _ := http.NewRequest(http.MethodPost, srv.URL, bytes.NewReader([]byte(body)))
	resp, err := tr.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if string(lastBody) != body {
		t.Errorf("retried body = %q, want the original replayed", lastBody)
	}
}

func TestGate_CapsInFlight(t *testing.T) {
	var inFlight, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}))
	defer srv.Close()

	tr, err := Build(Options{HTTPClient: srv.Client(), Concurrency: 1, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
			resp, err := tr.Do(req)
			if err != nil {
				t.Errorf("Do: %v", err)
				return
			}
			resp.Body.Close()
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("peak in-flight = %d, want 1", peak)
	}
}
