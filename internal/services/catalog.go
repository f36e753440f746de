// Catalog reads backed by the typed Web API client
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/shared"
	"github.com/zmb3/spotify/v2"
)

const defaultMarket = "US"

// Catalog loads tracks and profile data used to build playback queues.
type Catalog struct {
	api *spotify.Client
}

// NewCatalog creates a [Catalog] over httpClient. baseURL overrides the Web API root and must end in "/".
func NewCatalog(httpClient *http.Client, baseURL string) *Catalog {
	opts := []spotify.ClientOption{spotify.WithRetry(true)}
	if baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	return &Catalog{api: spotify.New(httpClient, opts...)}
}

// API exposes the underlying typed client for device control.
func (c *Catalog) API() *spotify.Client {
	return c.api
}

// Profile returns the current user's identity and subscription product.
func (c *Catalog) Profile(ctx context.Context) (models.Profile, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return models.Profile{}, fmt.Errorf("fetching current user: %w", err)
	}

	profile := models.Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Product:     user.Product,
		Country:     user.Country,
	}
	if profile.DisplayName == "" {
		profile.DisplayName = models.DefaultDisplayName
	}
	if len(user.Images) > 0 {
		profile.AvatarURL = user.Images[0].URL
	} else {
		profile.AvatarURL = models.DefaultAvatarURL
	}
	return profile, nil
}

// PlaylistTracks returns every track in the playlist, skipping items that are not tracks, such as episodes.
func (c *Catalog) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(100))
	if err != nil {
		return nil, fmt.Errorf("fetching playlist items: %w", err)
	}

	var tracks []models.Track
	for {
		for _, item := range page.Items {
			if item.Track.Track == nil {
				continue
			}
			tracks = append(tracks, FromFullTrack(*item.Track.Track))
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next playlist page: %w", err)
		}
	}
	return tracks, nil
}

// AlbumTracks returns the album's tracks in disc order.
func (c *Catalog) AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error) {
	album, err := c.api.GetAlbum(ctx, spotify.ID(albumID))
	if err != nil {
		return nil, fmt.Errorf("fetching album: %w", err)
	}

	page := &album.Tracks
	var tracks []models.Track
	for {
		for _, st := range page.Tracks {
			tracks = append(tracks, fromSimpleTrack(st, album.Name))
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next album page: %w", err)
		}
	}
	return tracks, nil
}

// LikedSongs returns the user's saved tracks, most recent first.
func (c *Catalog) LikedSongs(ctx context.Context) ([]models.Track, error) {
	page, err := c.api.CurrentUsersTracks(ctx, spotify.Limit(50))
	if err != nil {
		return nil, fmt.Errorf("fetching liked songs: %w", err)
	}

	var tracks []models.Track
	for {
		for _, saved := range page.Tracks {
			tracks = append(tracks, FromFullTrack(saved.FullTrack))
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next page: %w", err)
		}
	}
	return tracks, nil
}

// ArtistTopTracks returns the artist's top tracks for market.
func (c *Catalog) ArtistTopTracks(ctx context.Context, artistID, market string) ([]models.Track, error) {
	if market == "" {
		market = defaultMarket
	}
	top, err := c.api.GetArtistsTopTracks(ctx, spotify.ID(artistID), market)
	if err != nil {
		return nil, fmt.Errorf("fetching artist top tracks: %w", err)
	}

	tracks := make([]models.Track, 0, len(top))
	for _, ft := range top {
		tracks = append(tracks, FromFullTrack(ft))
	}
	return tracks, nil
}

// Track returns a single track. id may be a bare id or a spotify:track: URI.
func (c *Catalog) Track(ctx context.Context, id string) (models.Track, error) {
	ft, err := c.api.GetTrack(ctx, spotify.ID(TrackID(id)))
	if err != nil {
		return models.Track{}, fmt.Errorf("%w: %v", shared.ErrTrackNotFound, err)
	}
	return FromFullTrack(*ft), nil
}

// Queue loads the tracks for ref. market is used for artist top tracks.
func (c *Catalog) Queue(ctx context.Context, ref models.ContextRef, market string) ([]models.Track, error) {
	switch ref.Kind {
	case models.PlaylistContext:
		return c.PlaylistTracks(ctx, ref.ID)
	case models.AlbumContext:
		return c.AlbumTracks(ctx, ref.ID)
	case models.LikedSongsContext:
		return c.LikedSongs(ctx)
	case models.TopTracksContext:
		return c.ArtistTopTracks(ctx, ref.ID, market)
	case models.TrackContext:
		t, err := c.Track(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return []models.Track{t}, nil
	default:
		return nil, fmt.Errorf("%w: unknown context kind %d", shared.ErrInvalidArgument, ref.Kind)
	}
}

// TrackID strips a spotify:track: prefix.
func TrackID(idOrURI string) string {
	return strings.TrimPrefix(idOrURI, "spotify:track:")
}

func artistNames(artists []spotify.SimpleArtist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}

// FromFullTrack converts a Web API track.
func FromFullTrack(ft spotify.FullTrack) models.Track {
	return models.Track{
		ID:         ft.ID.String(),
		URI:        string(ft.URI),
		Name:       ft.Name,
		Artists:    artistNames(ft.Artists),
		Album:      ft.Album.Name,
		DurationMS: int(ft.Duration),
		Explicit:   ft.Explicit,
	}
}

func fromSimpleTrack(st spotify.SimpleTrack, album string) models.Track {
	return models.Track{
		ID:         st.ID.String(),
		URI:        string(st.URI),
		Name:       st.Name,
		Artists:    artistNames(st.Artists),
		Album:      album,
		DurationMS: int(st.Duration),
		Explicit:   st.Explicit,
	}
}
