package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/shared"
)

func trackJSON(id, name string) string {
	return fmt.Sprintf(`{"type":"track","id":%q,"uri":"spotify:track:%s","name":%q,"duration_ms":180000,"explicit":false,"artists":[{"name":"Artist"}],"album":{"name":"Record"}}`, id, id, name)
}

const episodeJSON = `{"type":"episode","id":"e1","uri":"spotify:episode:e1","name":"Pod","duration_ms":60000}`

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := r.URL.Path

		switch {
		case path == "/me":
			fmt.Fprint(w, `{"id":"u1","display_name":"Ada","product":"premium","country":"SE","images":[{"url":"http://img/ada.png"}]}`)
		case path == "/me/tracks":
			fmt.Fprintf(w, `{"items":[{"added_at":"2024-01-01T00:00:00Z","track":%s}],"next":null}`, trackJSON("liked-1", "Liked"))
		case strings.HasPrefix(path, "/playlists/pl-1"):
			if r.URL.Query().Get("offset") == "2" {
				fmt.Fprintf(w, `{"items":[{"track":%s}],"next":null}`, trackJSON("t3", "Three"))
				return
			}
			fmt.Fprintf(w, `{"items":[{"track":%s},{"track":%s},{"track":%s}],"next":%q}`,
				trackJSON("t1", "One"), episodeJSON, trackJSON("t2", "Two"), server.URL+"/playlists/pl-1/tracks?offset=2")
		case path == "/albums/al-1":
			fmt.Fprint(w, `{"id":"al-1","name":"Debut","tracks":{"items":[
				{"id":"a1","uri":"spotify:track:a1","name":"Opener","duration_ms":1000,"artists":[{"name":"Band"}]},
				{"id":"a2","uri":"spotify:track:a2","name":"Closer","duration_ms":2000,"artists":[{"name":"Band"},{"name":"Guest"}]}
			],"next":null}}`)
		case path == "/artists/ar-1/top-tracks":
			if got := r.URL.Query().Get("country"); got != "US" {
				t.Errorf("expected default market US, got %q", got)
			}
			fmt.Fprintf(w, `{"tracks":[%s,%s]}`, trackJSON("top-1", "Hit"), trackJSON("top-2", "B-Side"))
		case path == "/tracks/t9":
			fmt.Fprint(w, trackJSON("t9", "Single"))
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"status":404,"message":"Not found"}}`)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	server := newCatalogServer(t)
	catalog := NewCatalog(server.Client(), server.URL)

	t.Run("Profile", func(t *testing.T) {
		profile, err := catalog.Profile(ctx)
		if err != nil {
			t.Fatalf("Profile failed: %v", err)
		}
		if profile.DisplayName != "Ada" || profile.AvatarURL != "http://img/ada.png" {
			t.Errorf("unexpected profile %+v", profile)
		}
		if !profile.Premium() {
			t.Error("expected premium profile")
		}
	})

	t.Run("Playlist Tracks Follow Pages And Skip Episodes", func(t *testing.T) {
		tracks, err := catalog.PlaylistTracks(ctx, "pl-1")
		if err != nil {
			t.Fatalf("PlaylistTracks failed: %v", err)
		}
		want := []string{"t1", "t2", "t3"}
		if len(tracks) != len(want) {
			t.Fatalf("expected %d tracks, got %d", len(want), len(tracks))
		}
		for i, id := range want {
			if tracks[i].ID != id {
				t.Errorf("track %d: expected %s, got %s", i, id, tracks[i].ID)
			}
		}
		if tracks[0].URI != "spotify:track:t1" || tracks[0].Album != "Record" || tracks[0].DurationMS != 180000 {
			t.Errorf("unexpected conversion %+v", tracks[0])
		}
	})

	t.Run("Album Tracks Carry Album Name", func(t *testing.T) {
		tracks, err := catalog.AlbumTracks(ctx, "al-1")
		if err != nil {
			t.Fatalf("AlbumTracks failed: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[1].Album != "Debut" || tracks[1].ArtistLine() != "Band, Guest" {
			t.Errorf("unexpected album track %+v", tracks[1])
		}
	})

	t.Run("Liked Songs", func(t *testing.T) {
		tracks, err := catalog.LikedSongs(ctx)
		if err != nil {
			t.Fatalf("LikedSongs failed: %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID != "liked-1" {
			t.Errorf("unexpected liked songs %+v", tracks)
		}
	})

	t.Run("Artist Top Tracks", func(t *testing.T) {
		tracks, err := catalog.ArtistTopTracks(ctx, "ar-1", "")
		if err != nil {
			t.Fatalf("ArtistTopTracks failed: %v", err)
		}
		if len(tracks) != 2 || tracks[0].Name != "Hit" {
			t.Errorf("unexpected top tracks %+v", tracks)
		}
	})

	t.Run("Track Accepts URI", func(t *testing.T) {
		track, err := catalog.Track(ctx, "spotify:track:t9")
		if err != nil {
			t.Fatalf("Track failed: %v", err)
		}
		if track.Name != "Single" {
			t.Errorf("expected Single, got %s", track.Name)
		}
	})

	t.Run("Missing Track", func(t *testing.T) {
		if _, err := catalog.Track(ctx, "missing"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("Queue", func(t *testing.T) {
		tests := []struct {
			name string
			ref  models.ContextRef
			want int
		}{
			{"playlist", models.ContextRef{Kind: models.PlaylistContext, ID: "pl-1"}, 3},
			{"album", models.ContextRef{Kind: models.AlbumContext, ID: "al-1"}, 2},
			{"liked", models.ContextRef{Kind: models.LikedSongsContext}, 1},
			{"top tracks", models.ContextRef{Kind: models.TopTracksContext, ID: "ar-1"}, 2},
			{"track", models.ContextRef{Kind: models.TrackContext, ID: "t9"}, 1},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tracks, err := catalog.Queue(ctx, tt.ref, "")
				if err != nil {
					t.Fatalf("Queue failed: %v", err)
				}
				if len(tracks) != tt.want {
					t.Errorf("expected %d tracks, got %d", tt.want, len(tracks))
				}
			})
		}

		t.Run("unknown kind", func(t *testing.T) {
			_, err := catalog.Queue(ctx, models.ContextRef{Kind: models.ContextKind(99)}, "")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})
}

func TestTrackID(t *testing.T) {
	tests := map[string]string{
		"spotify:track:abc": "abc",
		"abc":               "abc",
		"":                  "",
	}
	for in, want := range tests {
		if got := TrackID(in); got != want {
			t.Errorf("TrackID(%q) = %q, want %q", in, got, want)
		}
	}
}
