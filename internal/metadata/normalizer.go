// Package metadata reshapes raw Qobuz payloads into the normalized records
// consumed by the host catalog pipeline.
package metadata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/OrfiDev/orpheusdl-qobuz/internal/core"
	"github.com/OrfiDev/orpheusdl-qobuz/internal/qobuz"
	"github.com/OrfiDev/orpheusdl-qobuz/internal/store"
	"github.com/OrfiDev/orpheusdl-qobuz/pkg/text"
)

// Normalizer turns raw API payloads into normalized records. It owns the
// track cache and populates it opportunistically from album, playlist and
// search responses. Single-threaded use is assumed.
type Normalizer struct {
	client  *qobuz.Client
	cache   *store.TrackCache
	quality core.QualityConfig
	logger  *zap.Logger
}

func NewNormalizer(client *qobuz.Client, cache *store.TrackCache, quality core.QualityConfig, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		client:  client,
		cache:   cache,
		quality: quality,
		logger:  logger,
	}
}

// rawTrack returns the cached payload for a track id, fetching and caching
// it on a miss.
func (n *Normalizer) rawTrack(ctx context.Context, trackID string) (*qobuz.Track, error) {
	if track, ok := n.cache.Get(trackID); ok {
		return track, nil
	}

	track, err := n.client.GetTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	n.cache.Add(trackID, track)
	return track, nil
}

// TrackInfo resolves a track's metadata and its stream at the configured
// quality tier. A non-streamable track comes back with ErrorMessage set
// instead of an error, so album and playlist walks can continue past it.
func (n *Normalizer) TrackInfo(ctx context.Context, trackID string) (*core.TrackInfo, error) {
	track, err := n.rawTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}

	album := track.Album
	if album == nil {
		return nil, fmt.Errorf("track %s has no album data", trackID)
	}

	var primaryName, artistID string
	if track.Performer != nil {
		primaryName = track.Performer.Name
		artistID = strconv.FormatInt(track.Performer.ID, 10)
	} else {
		primaryName = album.Artist.Name
		artistID = strconv.FormatInt(album.Artist.ID, 10)
	}

	artists := []string{primaryName}
	contributors := parseContributors(track.Performers)
	artists, remaining := extractArtists(contributors, artists)

	var composer string
	if track.Composer != nil {
		composer = track.Composer.Name
	}
	var labelName string
	if album.Label != nil {
		labelName = album.Label.Name
	}

	upc := track.UPC
	if upc == "" {
		upc = album.UPC
	}

	info := &core.TrackInfo{
		ID:          trackID,
		Name:        composeTitle(track.Title, track.Work, track.Version),
		Album:       composeTitle(album.Title, "", album.Version),
		AlbumID:     album.ID,
		Artists:     artists,
		ArtistID:    artistID,
		ReleaseYear: releaseYear(album.ReleaseDateOriginal),
		Explicit:    track.ParentalWarning,
		Duration:    time.Duration(track.Duration) * time.Second,
		CoverURL:    coverURL(album.Image.Large),
		Tags: core.Tags{
			AlbumArtist: album.Artist.Name,
			Composer:    composer,
			TrackNumber: track.TrackNumber,
			TotalTracks: album.TracksCount,
			DiscNumber:  track.MediaNumber,
			TotalDiscs:  album.MediaCount,
			ISRC:        track.ISRC,
			UPC:         upc,
			Copyright:   track.Copyright,
			Genres:      []string{album.Genre.Name},
			ReleaseDate: album.ReleaseDateOriginal,
			Label:       labelName,
		},
		Credits: aggregateCredits(remaining),
	}

	if !track.Streamable {
		info.ErrorMessage = fmt.Sprintf("Track %q is not streamable", track.Title)
		info.Codec = core.CodecNone
		return info, nil
	}

	file, err := n.client.GetFileURL(ctx, trackID, n.quality.Tier.FormatID())
	if err != nil {
		return nil, err
	}

	info.FileURL = file.URL
	info.Codec = streamCodec(file.FormatID)
	info.Bitrate = streamBitrate(file)
	info.BitDepth = file.BitDepth
	info.SampleRate = file.SamplingRate

	return info, nil
}

// AlbumInfo fetches an album and caches every contained track with the
// album header attached, so later per-track calls need no extra fetch.
func (n *Normalizer) AlbumInfo(ctx context.Context, albumID string) (*core.AlbumInfo, error) {
	album, err := n.client.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}

	var bookletURL string
	if len(album.Goodies) > 0 {
		bookletURL = album.Goodies[0].URL
	}

	var trackIDs []string
	if album.Tracks != nil {
		header := *album
		header.Tracks = nil
		for _, track := range album.Tracks.Items {
			id := strconv.FormatInt(track.ID, 10)
			track.Album = &header
			n.cache.Add(id, track)
			trackIDs = append(trackIDs, id)
		}
	}

	var labelName string
	if album.Label != nil {
		labelName = album.Label.Name
	}

	return &core.AlbumInfo{
		ID:          album.ID,
		Name:        composeTitle(album.Title, "", album.Version),
		Artist:      album.Artist.Name,
		ArtistID:    strconv.FormatInt(album.Artist.ID, 10),
		Tracks:      trackIDs,
		ReleaseYear: releaseYear(album.ReleaseDateOriginal),
		Explicit:    album.ParentalWarning,
		Quality:     n.renderQuality(album.MaximumSamplingRate, album.MaximumBitDepth),
		CoverURL:    coverURL(album.Image.Large),
		BookletURL:  bookletURL,
		Description: album.Description,
		Duration:    time.Duration(album.Duration) * time.Second,
		UPC:         album.UPC,
		Label:       labelName,
	}, nil
}

func (n *Normalizer) PlaylistInfo(ctx context.Context, playlistID string) (*core.PlaylistInfo, error) {
	playlist, err := n.client.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	var trackIDs []string
	if playlist.Tracks != nil {
		for _, track := range playlist.Tracks.Items {
			id := strconv.FormatInt(track.ID, 10)
			n.cache.Add(id, track)
			trackIDs = append(trackIDs, id)
		}
	}

	return &core.PlaylistInfo{
		ID:          strconv.FormatInt(playlist.ID, 10),
		Name:        playlist.Name,
		Creator:     playlist.Owner.Name,
		CreatorID:   strconv.FormatInt(playlist.Owner.ID, 10),
		ReleaseYear: time.Unix(playlist.CreatedAt, 0).UTC().Year(),
		Description: playlist.Description,
		Duration:    time.Duration(playlist.Duration) * time.Second,
		Tracks:      trackIDs,
	}, nil
}

func (n *Normalizer) ArtistInfo(ctx context.Context, artistID string) (*core.ArtistInfo, error) {
	artist, err := n.client.GetArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}

	var albums []string
	if artist.Albums != nil {
		for _, album := range artist.Albums.Items {
			albums = append(albums, album.ID)
		}
	}

	return &core.ArtistInfo{
		ID:     strconv.FormatInt(artist.ID, 10),
		Name:   artist.Name,
		Albums: albums,
	}, nil
}

func (n *Normalizer) LabelInfo(ctx context.Context, labelID string) (*core.LabelInfo, error) {
	label, err := n.client.GetLabel(ctx, labelID)
	if err != nil {
		return nil, err
	}

	var albums []core.LabelAlbum
	if label.Albums != nil {
		for _, album := range label.Albums.Items {
			albums = append(albums, core.LabelAlbum{
				ID:     album.ID,
				Artist: album.Artist.Name,
			})
		}
	}

	return &core.LabelInfo{
		ID:     strconv.FormatInt(label.ID, 10),
		Name:   label.Name,
		Albums: albums,
	}, nil
}

// TrackCredits aggregates the full credit string into role -> names
// records, independent of the artist extraction done by TrackInfo.
func (n *Normalizer) TrackCredits(ctx context.Context, trackID string) ([]core.CreditEntry, error) {
	track, err := n.rawTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	return aggregateCredits(parseContributors(track.Performers)), nil
}

// Search runs an ISRC-first search: when isrc is non-empty it is tried
// before the free-text query, which only runs if the ISRC yields nothing.
func (n *Normalizer) Search(ctx context.Context, mediaType core.MediaType, query, isrc string, limit int) ([]core.SearchResult, error) {
	var results *qobuz.SearchResults
	if isrc != "" {
		r, err := n.client.Search(ctx, mediaType, isrc, limit)
		if err != nil {
			return nil, err
		}
		if resultCount(mediaType, r) > 0 {
			results = r
		}
	}
	if results == nil {
		r, err := n.client.Search(ctx, mediaType, text.Normalize(query), limit)
		if err != nil {
			return nil, err
		}
		results = r
	}

	return n.normalizeResults(mediaType, results)
}

func (n *Normalizer) normalizeResults(mediaType core.MediaType, results *qobuz.SearchResults) ([]core.SearchResult, error) {
	var items []core.SearchResult

	switch mediaType {
	case core.MediaTypeTrack:
		if results.Tracks == nil {
			return nil, nil
		}
		for _, t := range results.Tracks.Items {
			id := strconv.FormatInt(t.ID, 10)
			n.cache.Add(id, t)

			var artists []string
			if t.Performer != nil {
				artists = []string{t.Performer.Name}
			}
			var year int
			if t.Album != nil {
				year = releaseYear(t.Album.ReleaseDateOriginal)
			}
			items = append(items, core.SearchResult{
				ID:       id,
				Name:     t.Title,
				Artists:  artists,
				Year:     year,
				Explicit: t.ParentalWarning,
				Extra:    hiresExtra(t.MaximumSamplingRate, t.MaximumBitDepth),
			})
		}
	case core.MediaTypeAlbum:
		if results.Albums == nil {
			return nil, nil
		}
		for _, a := range results.Albums.Items {
			items = append(items, core.SearchResult{
				ID:       a.ID,
				Name:     a.Title,
				Artists:  []string{a.Artist.Name},
				Year:     releaseYear(a.ReleaseDateOriginal),
				Explicit: a.ParentalWarning,
				Extra:    hiresExtra(a.MaximumSamplingRate, a.MaximumBitDepth),
			})
		}
	case core.MediaTypePlaylist:
		if results.Playlists == nil {
			return nil, nil
		}
		for _, p := range results.Playlists.Items {
			items = append(items, core.SearchResult{
				ID:      strconv.FormatInt(p.ID, 10),
				Name:    p.Name,
				Artists: []string{p.Owner.Name},
				Year:    time.Unix(p.CreatedAt, 0).UTC().Year(),
			})
		}
	case core.MediaTypeArtist:
		if results.Artists == nil {
			return nil, nil
		}
		for _, a := range results.Artists.Items {
			items = append(items, core.SearchResult{
				ID:   strconv.FormatInt(a.ID, 10),
				Name: a.Name,
			})
		}
	case core.MediaTypeLabel:
		if results.Labels == nil {
			return nil, nil
		}
		for _, l := range results.Labels.Items {
			items = append(items, core.SearchResult{
				ID:   strconv.FormatInt(l.ID, 10),
				Name: l.Name,
			})
		}
	default:
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidMediaType, mediaType)
	}

	return items, nil
}

func resultCount(mediaType core.MediaType, results *qobuz.SearchResults) int {
	switch {
	case mediaType == core.MediaTypeTrack && results.Tracks != nil:
		return len(results.Tracks.Items)
	case mediaType == core.MediaTypeAlbum && results.Albums != nil:
		return len(results.Albums.Items)
	case mediaType == core.MediaTypePlaylist && results.Playlists != nil:
		return len(results.Playlists.Items)
	case mediaType == core.MediaTypeArtist && results.Artists != nil:
		return len(results.Artists.Items)
	case mediaType == core.MediaTypeLabel && results.Labels != nil:
		return len(results.Labels.Items)
	default:
		return 0
	}
}

func (n *Normalizer) renderQuality(sampleRate float64, bitDepth int) string {
	r := strings.NewReplacer(
		"{sample_rate}", strconv.FormatFloat(sampleRate, 'f', -1, 64),
		"{bit_depth}", strconv.Itoa(bitDepth),
	)
	return r.Replace(n.quality.Format)
}

func hiresExtra(sampleRate float64, bitDepth int) string {
	if sampleRate == 0 {
		return ""
	}
	return fmt.Sprintf("%skHz/%dbit",
		strconv.FormatFloat(sampleRate, 'f', -1, 64), bitDepth)
}

// composeTitle builds a display title: an optional "work - " prefix, the
// base title with trailing whitespace trimmed, and an optional
// " (version)" suffix.
func composeTitle(title, work, version string) string {
	name := title
	if work != "" {
		name = work + " - " + name
	}
	name = strings.TrimRight(name, " \t")
	if version != "" {
		name += " (" + version + ")"
	}
	return name
}

// coverURL rewrites the "large" CDN image URL to the original-resolution
// variant: everything before the first underscore plus "_org.jpg".
func coverURL(large string) string {
	i := strings.Index(large, "_")
	if i < 0 {
		return large
	}
	return large[:i] + "_org.jpg"
}

func releaseYear(releaseDate string) int {
	first, _, _ := strings.Cut(releaseDate, "-")
	year, err := strconv.Atoi(first)
	if err != nil {
		return 0
	}
	return year
}

// streamBitrate approximates the bitrate in kbps. Lossless formats use the
// uncompressed PCM rate, which overstates compressed FLAC. Lossy streams
// are fixed at 320. A missing format id yields zero.
func streamBitrate(file *qobuz.FileURL) int {
	switch file.FormatID {
	case 6, 7, 27:
		return int(file.SamplingRate * 1000 * float64(file.BitDepth) * 2 / 1000)
	case 0:
		return file.FormatID
	default:
		return 320
	}
}

func streamCodec(formatID int) core.Codec {
	switch formatID {
	case 0:
		return core.CodecNone
	case 6, 7, 27:
		return core.CodecFLAC
	default:
		return core.CodecMP3
	}
}
