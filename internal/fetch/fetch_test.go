package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/encoding/htmlindex"
)

func eucKR(t *testing.T, s string) []byte {
	t.Helper()
	enc, err := htmlindex.Get("euc-kr")
	if err != nil {
		t.Fatalf("euc-kr encoding: %v", err)
	}
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	return out
}

func TestDocumentDecodesHeaderCharset(t *testing.T) {
	body := eucKR(t, `<html><body><p>안녕하세요</p></body></html>`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=EUC-KR")
		w.Write(body)
	}))
	defer srv.Close()

	doc, err := NewClient(0, "", "").Document(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.Find("p").Text(); got != "안녕하세요" {
		t.Errorf("expected decoded text, got %q", got)
	}
	if doc.Url == nil {
		t.Error("expected document URL to be set")
	}
}

func TestDocumentSniffsMetaCharset(t *testing.T) {
	body := eucKR(t, `<html><head><meta charset="euc-kr"></head><body><p>종목토론실</p></body></html>`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write(body)
	}))
	defer srv.Close()

	doc, err := NewClient(0, "", "").Document(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.Find("p").Text(); got != "종목토론실" {
		t.Errorf("expected decoded text, got %q", got)
	}
}

func TestDocumentSendsHeaders(t *testing.T) {
	var ua, ref string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua, ref = r.UserAgent(), r.Referer()
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	if _, err := NewClient(0, "Mozilla/5.0 test", "https://finance.naver.com/").Document(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ua != "Mozilla/5.0 test" {
		t.Errorf("unexpected user agent %q", ua)
	}
	if ref != "https://finance.naver.com/" {
		t.Errorf("unexpected referer %q", ref)
	}
}

func TestDocumentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(0, "", "").Document(context.Background(), srv.URL)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", httpErr.Code)
	}
}

func TestDocumentCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient(0, "", "").Document(ctx, srv.URL); err == nil {
		t.Error("expected error for canceled context")
	}
}
