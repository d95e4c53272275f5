package servingclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type capturedRequest struct {
	auth    string
	payload map[string]any
}

func canned(next *string, hasMore bool, ids ...int) Page {
	items := make([]map[string]any, len(ids))
	for i, id := range ids {
		items[i] = map[string]any{"customer_id": id}
	}
	return Page{Count: len(items), Items: items, NextCursor: next, HasMore: hasMore}
}

func servePages(t *testing.T, pages map[string]Page, captured *[]capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/invocations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if captured != nil {
			*captured = append(*captured, capturedRequest{auth: r.Header.Get("Authorization"), payload: payload})
		}

		split := payload["dataframe_split"].(map[string]any)
		row := split["data"].([]any)[0].([]any)
		cursor, _ := row[4].(string)
		page, ok := pages[cursor]
		if !ok {
			http.Error(w, "unknown cursor", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"predictions": []Page{page}})
	}))
}

func TestPage_PayloadShape(t *testing.T) {
	var captured []capturedRequest
	srv := servePages(t, map[string]Page{"": canned(nil, false, 1)}, &captured)
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL, BearerToken: "tok"})
	p, err := client.Page(context.Background(), Query{
		Select:  "customer_id,name,email",
		Filters: map[string]any{"name_contains": "ali", "modified_from": "2025-10-01"},
		Limit:   5,
	})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if p.Count != 1 || p.HasMore {
		t.Fatalf("page = %+v", p)
	}

	req := captured[0]
	if req.auth != "Bearer tok" {
		t.Errorf("auth header = %q", req.auth)
	}
	split := req.payload["dataframe_split"].(map[string]any)
	cols := split["columns"].([]any)
	want := []string{"select_csv", "filters_json", "sort_json", "limit", "cursor"}
	if len(cols) != len(want) {
		t.Fatalf("columns = %v", cols)
	}
	for i, c := range cols {
		if c != want[i] {
			t.Fatalf("columns[%d] = %v, want %s", i, c, want[i])
		}
	}
	row := split["data"].([]any)[0].([]any)
	if row[0] != "customer_id,name,email" {
		t.Errorf("select_csv = %v", row[0])
	}
	var filters map[string]any
	if err := json.Unmarshal([]byte(row[1].(string)), &filters); err != nil {
		t.Fatalf("filters_json should be a JSON string: %v", err)
	}
	if filters["name_contains"] != "ali" || filters["modified_from"] != "2025-10-01" {
		t.Errorf("filters = %v", filters)
	}
	if row[2] != "[]" {
		t.Errorf("sort_json = %v", row[2])
	}
	if row[3] != float64(5) {
		t.Errorf("limit = %v", row[3])
	}
	if row[4] != nil {
		t.Errorf("first-page cursor = %v, want null", row[4])
	}
}

func TestPager_WalksUntilDone(t *testing.T) {
	next := "after-102"
	var captured []capturedRequest
	srv := servePages(t, map[string]Page{
		"":          canned(&next, true, 103, 102),
		"after-102": canned(nil, false, 101),
	}, &captured)
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL})
	items, err := client.Pages(Query{Limit: 2}).All(context.Background())
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %v", items)
	}
	if len(captured) != 2 {
		t.Fatalf("calls = %d, want 2", len(captured))
	}

	row := captured[1].payload["dataframe_split"].(map[string]any)["data"].([]any)[0].([]any)
	if row[4] != "after-102" {
		t.Fatalf("second call cursor = %v", row[4])
	}
}

func TestPager_SinglePage(t *testing.T) {
	srv := servePages(t, map[string]Page{"": canned(nil, false, 1, 2)}, nil)
	defer srv.Close()

	pager := NewClient(&Config{BaseURL: srv.URL}).Pages(Query{})
	if !pager.Next(context.Background()) {
		t.Fatalf("first Next: %v", pager.Err())
	}
	if pager.Page().Count != 2 {
		t.Fatalf("page = %+v", pager.Page())
	}
	if pager.Next(context.Background()) {
		t.Fatal("pager should stop after the terminal page")
	}
	if pager.Err() != nil {
		t.Fatalf("err = %v", pager.Err())
	}
}

func TestPage_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"warehouse unreachable"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(&Config{BaseURL: srv.URL}).Page(context.Background(), Query{})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v (%T)", err, err)
	}
	if httpErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", httpErr.StatusCode)
	}
}

func TestPage_NoPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()

	if _, err := NewClient(&Config{BaseURL: srv.URL}).Page(context.Background(), Query{}); err == nil {
		t.Fatal("expected an error for an empty predictions list")
	}
}

func TestPager_PropagatesError(t *testing.T) {
	next := "x"
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"predictions": []Page{canned(&next, true, 1)}})
	}))
	defer srv.Close()

	pager := NewClient(&Config{BaseURL: srv.URL}).Pages(Query{})
	if !pager.Next(context.Background()) {
		t.Fatalf("first Next: %v", pager.Err())
	}
	if pager.Next(context.Background()) {
		t.Fatal("second Next should fail")
	}
	if pager.Err() == nil {
		t.Fatal("pager must surface the error")
	}
}
