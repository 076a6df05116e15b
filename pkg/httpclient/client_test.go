package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestClient_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client, err := New(Config{Timeout: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	_, err = client.Do(context.Background(), req)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestClient_Redirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1":
			http.Redirect(w, r, "/2", http.StatusFound)
		case "/2":
			http.Redirect(w, r, "/3", http.StatusFound)
		case "/3":
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer ts.Close()

	client, err := New(Config{MaxRedirects: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/1", nil)
	_, err = client.Do(context.Background(), req)
	if err == nil {
		t.Fatal("expected redirect limit error")
	}

	clientNoRedir, _ := New(Config{MaxRedirects: -1})
	req2, _ := http.NewRequest(http.MethodGet, ts.URL+"/1", nil)
	resp, err := clientNoRedir.Do(context.Background(), req2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected 302 StatusFound, got %d", resp.StatusCode)
	}
}

func TestClient_Cookies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/set":
			http.SetCookie(w, &http.Cookie{Name: "_gh_sess", Value: "test"})
			w.WriteHeader(http.StatusOK)
		case "/check":
			c, err := r.Cookie("_gh_sess")
			if err != nil || c.Value != "test" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer ts.Close()

	client, err := New(Config{UseCookieJar: true, MaxRedirects: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.Get(context.Background(), ts.URL+"/set", nil, nil); err != nil {
		t.Fatalf("unexpected error on /set: %v", err)
	}

	resp, err := client.Get(context.Background(), ts.URL+"/check", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error on /check: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 OK from /check, got %d. Cookies not persisted?", resp.StatusCode)
	}
}

func TestClient_Context(t *testing.T) {
	client, _ := New(Config{})

	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

	// Should fail with a typed error containing "context cannot be nil"
	_, err := client.Do(nil, req)
	if err == nil || err.Error() != "httpclient: context cannot be nil" {
		t.Errorf("expected nil context error, got %v", err)
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err = client.Get(ctx, ts.URL, nil, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestClient_GetQueryAndHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "openstack+nova" {
			t.Errorf("expected q=openstack+nova, got %q", got)
		}
		if got := r.URL.Query().Get("type"); got != "issues" {
			t.Errorf("expected type=issues, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "TestBrowser/1.0" {
			t.Errorf("expected User-Agent TestBrowser/1.0, got %q", got)
		}
		w.Header().Set("X-Test", "true")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer ts.Close()

	client, _ := New(Config{})
	header := http.Header{}
	header.Set("User-Agent", "TestBrowser/1.0")

	resp, err := client.Get(context.Background(), ts.URL+"/search",
		url.Values{"q": {"openstack+nova"}, "type": {"issues"}}, header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("expected 418, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "short and stout" {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if resp.Header.Get("X-Test") != "true" {
		t.Errorf("expected X-Test header, got %v", resp.Header)
	}
}

func TestClient_MaxBodySize(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer ts.Close()

	tests := []struct {
		name    string
		max     int64
		wantErr bool
	}{
		{"over limit", 4, true},
		{"exactly at limit", 10, false},
		{"under limit", 64, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := New(Config{MaxBodySize: tt.max})
			resp, err := client.Get(context.Background(), ts.URL, nil, nil)
			if tt.wantErr {
				if !errors.Is(err, ErrBodyTooLarge) {
					t.Fatalf("expected ErrBodyTooLarge, got %v", err)
				}
				if resp != nil {
					t.Errorf("expected no response on oversized body, got %q", resp.Body)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(resp.Body) != "0123456789" {
				t.Errorf("expected full body, got %q", resp.Body)
			}
		})
	}
}

func TestClient_ProxyFromContext(t *testing.T) {
	gotHost := make(chan string, 1)
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost <- r.Host
		w.WriteHeader(http.StatusOK)
	}))
	defer proxySrv.Close()

	proxyURL, _ := url.Parse(proxySrv.URL)
	client, _ := New(Config{Transport: &http.Transport{Proxy: ProxyFromContext}})

	ctx := WithProxy(context.Background(), proxyURL)
	resp, err := client.Get(ctx, "http://github.test/search", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from proxy, got %d", resp.StatusCode)
	}
	if host := <-gotHost; host != "github.test" {
		t.Errorf("expected proxy to receive request for github.test, got %q", host)
	}
}
