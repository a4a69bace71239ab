package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(srv *httptest.Server) *Client {
	return New(srv.Client(), srv.URL, func(req *http.Request) {
		req.Header.Set("app_client", "consumer_web")
	})
}

func TestInitialListingPath(t *testing.T) {
	got := InitialListingPath("923", "1185", 24)
	want := "/v1/layout/listing_widgets?offset=0&limit=24&l0_cat=923&l1_cat=1185&page_index=1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestInitialListingPath_EscapesIDs(t *testing.T) {
	got := InitialListingPath("a b", "c&d", 10)
	want := "/v1/layout/listing_widgets?offset=0&limit=10&l0_cat=a+b&l1_cat=c%26d&page_index=1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestListingWidgets_FirstPage(t *testing.T) {
	var (
		gotMethod string
		gotURI    string
		gotLat    string
		gotLon    string
		gotApp    string
		gotBody   map[string]any
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotURI = r.URL.RequestURI()
		gotLat = r.Header.Get("lat")
		gotLon = r.Header.Get("lon")
		gotApp = r.Header.Get("app_client")

		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"response": {
				"snippets": [
					{"widget_type": "product_card_snippet_type_2", "data": {"product_id": 381144}}
				],
				"pagination": {"next_url": "/v1/layout/listing_widgets?offset=24"}
			}
		}`)
	}))
	defer srv.Close()

	page, err := newTestClient(srv).ListingWidgets(context.Background(), ListingQuery{
		Lat:    "28.65",
		Lon:    "77.22",
		Target: InitialListingPath("923", "1185", 24),
	})
	if err != nil {
		t.Fatalf("ListingWidgets: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if want := "/v1/layout/listing_widgets?offset=0&limit=24&l0_cat=923&l1_cat=1185&page_index=1"; gotURI != want {
		t.Errorf("uri = %q, want %q", gotURI, want)
	}
	if gotLat != "28.65" || gotLon != "77.22" {
		t.Errorf("coordinates = %s,%s, want 28.65,77.22", gotLat, gotLon)
	}
	if gotApp != "consumer_web" {
		t.Errorf("app_client = %q, want consumer_web", gotApp)
	}
	if v, ok := gotBody["is_subsequent_page"]; !ok || v != false {
		t.Errorf("is_subsequent_page = %v, want false", v)
	}
	if v, ok := gotBody["applied_filters"]; !ok || v != nil {
		t.Errorf("applied_filters = %v, want null", v)
	}

	if len(page.Snippets) != 1 {
		t.Fatalf("snippets = %d, want 1", len(page.Snippets))
	}
	if page.Snippets[0].WidgetType != "product_card_snippet_type_2" {
		t.Errorf("widget_type = %q", page.Snippets[0].WidgetType)
	}
	if page.Pagination.NextURL != "/v1/layout/listing_widgets?offset=24" {
		t.Errorf("next_url = %q", page.Pagination.NextURL)
	}
}

func TestListingWidgets_AbsoluteTarget(t *testing.T) {
	var gotURI string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &gotBody)
		io.WriteString(w, `{"response": {"snippets": [], "pagination": {"next_url": ""}}}`)
	}))
	defer srv.Close()

	// BaseURL points elsewhere: an absolute cursor has to win over it.
	c := New(srv.Client(), "https://example.invalid", nil)
	_, err := c.ListingWidgets(context.Background(), ListingQuery{
		Target:     srv.URL + "/v1/layout/listing_widgets?offset=24",
		Subsequent: true,
	})
	if err != nil {
		t.Fatalf("ListingWidgets: %v", err)
	}

	if want := "/v1/layout/listing_widgets?offset=24"; gotURI != want {
		t.Errorf("uri = %q, want %q", gotURI, want)
	}
	if v := gotBody["is_subsequent_page"]; v != true {
		t.Errorf("is_subsequent_page = %v, want true", v)
	}
}

func TestListingWidgets_NumbersKeepTheirText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"response": {"snippets": [{"widget_type": "product_card_snippet_type_2", "data": {"product_id": 381144, "price": 10.50}}]}}`)
	}))
	defer srv.Close()

	page, err := newTestClient(srv).ListingWidgets(context.Background(), ListingQuery{Target: "/v1/layout/listing_widgets"})
	if err != nil {
		t.Fatalf("ListingWidgets: %v", err)
	}

	data := page.Snippets[0].Data
	if id, ok := data["product_id"].(json.Number); !ok || id.String() != "381144" {
		t.Errorf("product_id = %#v, want json.Number 381144", data["product_id"])
	}
	if p, ok := data["price"].(json.Number); !ok || p.String() != "10.50" {
		t.Errorf("price = %#v, want json.Number 10.50", data["price"])
	}
}

func TestListingWidgets_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"code": 1403, "message": "bot detected"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListingWidgets(context.Background(), ListingQuery{Target: "/v1/layout/listing_widgets"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", apiErr.Status)
	}
	if apiErr.Message != "bot detected" {
		t.Errorf("message = %q, want bot detected", apiErr.Message)
	}
}
