package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"liner/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server, *atomic.Int32) {
	t.Helper()
	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		if user, pass, ok := r.BasicAuth(); !ok || user != "id" || pass != "secret" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`)
	})
	mux.Handle("/v1/search", handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := NewClient("id", "secret",
		WithBaseURL(server.URL),
		WithTokenURL(server.URL+"/api/token"))
	return client, server, &tokenCalls
}

func TestArtistProfilePrefersExactMatch(t *testing.T) {
	client, _, tokenCalls := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		fmt.Fprint(w, `{"artists":{"items":[
			{"name":"Nirvana UK","genres":["psychedelic pop"],"popularity":40,"followers":{"total":1000},"external_urls":{"spotify":"https://open.spotify.com/artist/uk"}},
			{"name":"Nirvana","genres":["grunge"],"popularity":85,"followers":{"total":9000000},"external_urls":{"spotify":"https://open.spotify.com/artist/us"}}
		]}}`)
	}))

	profile, err := client.ArtistProfile(context.Background(), "nirvana")
	if err != nil {
		t.Fatalf("artist profile: %v", err)
	}
	if profile.Name != "Nirvana" || profile.Popularity != 85 {
		t.Fatalf("profile = %+v", profile)
	}
	if profile.Followers != 9000000 || profile.SpotifyURL != "https://open.spotify.com/artist/us" {
		t.Fatalf("profile detail = %+v", profile)
	}

	// Second call reuses the cached token.
	if _, err := client.ArtistProfile(context.Background(), "nirvana"); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if got := tokenCalls.Load(); got != 1 {
		t.Fatalf("token fetched %d times, want 1", got)
	}
}

func TestArtistProfileFallsBackToTopResult(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"artists":{"items":[{"name":"Close Enough","genres":[],"popularity":10,"followers":{"total":5},"external_urls":{"spotify":"u"}}]}}`)
	}))
	profile, err := client.ArtistProfile(context.Background(), "No Exact Match")
	if err != nil {
		t.Fatalf("artist profile: %v", err)
	}
	if profile.Name != "Close Enough" {
		t.Fatalf("profile = %+v", profile)
	}
}

func TestArtistProfileNoResults(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"artists":{"items":[]}}`)
	}))
	_, err := client.ArtistProfile(context.Background(), "Nobody At All")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestArtistProfileRequiresCredentials(t *testing.T) {
	client := NewClient("", "")
	_, err := client.ArtistProfile(context.Background(), "Anyone")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestArtistProfileRequiresName(t *testing.T) {
	client := NewClient("id", "secret")
	_, err := client.ArtistProfile(context.Background(), "  ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
