package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/OrfiDev/orpheusdl-qobuz/internal/core"
	"github.com/OrfiDev/orpheusdl-qobuz/internal/qobuz"
	"github.com/OrfiDev/orpheusdl-qobuz/internal/store"
)

const trackJSON = `{
	"id": 52151405,
	"title": "Moonlight Sonata ",
	"work": "Piano Sonata No. 14",
	"version": "Live",
	"performer": {"id": 11, "name": "Alice"},
	"composer": {"id": 12, "name": "Beethoven"},
	"performers": "Alice, MainArtist, Producer - Bob, FeaturedArtist",
	"isrc": "USX9P1700000",
	"upc": "0000111122223",
	"copyright": "2017 Example",
	"parental_warning": false,
	"streamable": true,
	"track_number": 3,
	"media_number": 1,
	"duration": 321,
	"album": {
		"id": "alb1",
		"title": "Sonatas",
		"artist": {"id": 21, "name": "Alice"},
		"genre": {"id": 1, "name": "Classical"},
		"label": {"id": 31, "name": "DG"},
		"release_date_original": "2017-06-09",
		"tracks_count": 12,
		"media_count": 1,
		"image": {"large": "https://static.example.com/covers/600x600_1234.jpg"}
	}
}`

const fileURLJSON = `{
	"track_id": 52151405,
	"url": "https://cdn.example.com/a.flac",
	"format_id": 6,
	"mime_type": "audio/flac",
	"bit_depth": 16,
	"sampling_rate": 44.1
}`

func newTestNormalizer(t *testing.T, handler http.Handler, tier core.QualityTier) *Normalizer {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := qobuz.NewClient(&core.QobuzConfig{AppID: "app", AppSecret: "secret"}, zap.NewNop())
	client.SetBaseURL(server.URL + "/")

	cache, err := store.NewTrackCache(100)
	if err != nil {
		t.Fatalf("NewTrackCache() error = %v", err)
	}

	quality := core.QualityConfig{Tier: tier, Format: "{sample_rate}kHz {bit_depth}bit"}
	return NewNormalizer(client, cache, quality, zap.NewNop())
}

func TestTrackInfo(t *testing.T) {
	calls := map[string]int{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls[r.URL.Path]++
		switch r.URL.Path {
		case "/track/get":
			_, _ = w.Write([]byte(trackJSON))
		case "/track/getFileUrl":
			_, _ = w.Write([]byte(fileURLJSON))
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	})

	n := newTestNormalizer(t, handler, core.QualityLossless)

	info, err := n.TrackInfo(context.Background(), "52151405")
	if err != nil {
		t.Fatalf("TrackInfo() error = %v", err)
	}

	if info.Name != "Piano Sonata No. 14 - Moonlight Sonata (Live)" {
		t.Errorf("Name = %q", info.Name)
	}
	if !reflect.DeepEqual(info.Artists, []string{"Alice", "Bob"}) {
		t.Errorf("Artists = %v, expected [Alice Bob]", info.Artists)
	}
	expectedCredits := []core.CreditEntry{
		{Role: "Producer", Names: []string{"Alice"}},
	}
	if !reflect.DeepEqual(info.Credits, expectedCredits) {
		t.Errorf("Credits = %v, expected %v", info.Credits, expectedCredits)
	}

	if info.CoverURL != "https://static.example.com/covers/600x600_org.jpg" {
		t.Errorf("CoverURL = %q", info.CoverURL)
	}
	if info.Codec != core.CodecFLAC {
		t.Errorf("Codec = %v, expected FLAC", info.Codec)
	}
	if info.Bitrate != 1411 {
		t.Errorf("Bitrate = %d, expected 1411", info.Bitrate)
	}
	if info.FileURL != "https://cdn.example.com/a.flac" {
		t.Errorf("FileURL = %q", info.FileURL)
	}
	if info.ReleaseYear != 2017 {
		t.Errorf("ReleaseYear = %d, expected 2017", info.ReleaseYear)
	}
	if info.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, expected none", info.ErrorMessage)
	}

	tags := info.Tags
	if tags.AlbumArtist != "Alice" || tags.Composer != "Beethoven" {
		t.Errorf("tags artist/composer = %q/%q", tags.AlbumArtist, tags.Composer)
	}
	if tags.TrackNumber != 3 || tags.TotalTracks != 12 || tags.DiscNumber != 1 || tags.TotalDiscs != 1 {
		t.Errorf("tags numbering = %d/%d %d/%d", tags.TrackNumber, tags.TotalTracks, tags.DiscNumber, tags.TotalDiscs)
	}
	if tags.ISRC != "USX9P1700000" || tags.UPC != "0000111122223" {
		t.Errorf("tags isrc/upc = %q/%q", tags.ISRC, tags.UPC)
	}
	if !reflect.DeepEqual(tags.Genres, []string{"Classical"}) || tags.Label != "DG" {
		t.Errorf("tags genres/label = %v/%q", tags.Genres, tags.Label)
	}

	// Second call comes entirely from the cache.
	if _, err := n.TrackInfo(context.Background(), "52151405"); err != nil {
		t.Fatalf("second TrackInfo() error = %v", err)
	}
	if calls["/track/get"] != 1 {
		t.Errorf("track/get called %d times, expected 1", calls["/track/get"])
	}
}

func TestTrackInfo_NotStreamable(t *testing.T) {
	calls := map[string]int{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls[r.URL.Path]++
		_, _ = w.Write([]byte(`{
			"id": 99,
			"title": "Ghost Track",
			"streamable": false,
			"performer": {"id": 11, "name": "Alice"},
			"album": {
				"id": "alb1",
				"title": "Sonatas",
				"artist": {"id": 21, "name": "Alice"},
				"genre": {"id": 1, "name": "Classical"},
				"release_date_original": "2017-06-09",
				"image": {"large": "https://static.example.com/covers/600x600_1234.jpg"}
			}
		}`))
	})

	n := newTestNormalizer(t, handler, core.QualityHiFi)

	info, err := n.TrackInfo(context.Background(), "99")
	if err != nil {
		t.Fatalf("TrackInfo() error = %v, expected an in-record error message", err)
	}

	if info.ErrorMessage == "" {
		t.Error("ErrorMessage not set for an unstreamable track")
	}
	if info.Codec != core.CodecNone {
		t.Errorf("Codec = %v, expected NONE", info.Codec)
	}
	if info.FileURL != "" {
		t.Errorf("FileURL = %q, expected none", info.FileURL)
	}
	if calls["/track/getFileUrl"] != 0 {
		t.Error("getFileUrl was called for an unstreamable track")
	}
}

func TestAlbumInfo_PopulatesTrackCache(t *testing.T) {
	calls := map[string]int{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls[r.URL.Path]++
		switch r.URL.Path {
		case "/album/get":
			_, _ = w.Write([]byte(`{
				"id": "alb1",
				"title": "Sonatas",
				"version": "Deluxe",
				"artist": {"id": 21, "name": "Alice"},
				"genre": {"id": 1, "name": "Classical"},
				"release_date_original": "2017-06-09",
				"tracks_count": 2,
				"media_count": 1,
				"parental_warning": true,
				"maximum_bit_depth": 24,
				"maximum_sampling_rate": 96,
				"image": {"large": "https://static.example.com/covers/600x600_1234.jpg"},
				"goodies": [{"url": "https://example.com/booklet.pdf"}],
				"tracks": {"total": 2, "items": [
					{"id": 1001, "title": "One", "streamable": true, "track_number": 1, "media_number": 1},
					{"id": 1002, "title": "Two", "streamable": true, "track_number": 2, "media_number": 1}
				]}
			}`))
		case "/track/getFileUrl":
			_, _ = w.Write([]byte(fileURLJSON))
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	})

	n := newTestNormalizer(t, handler, core.QualityLossless)

	album, err := n.AlbumInfo(context.Background(), "alb1")
	if err != nil {
		t.Fatalf("AlbumInfo() error = %v", err)
	}

	if album.Name != "Sonatas (Deluxe)" {
		t.Errorf("Name = %q, expected the version suffix", album.Name)
	}
	if !reflect.DeepEqual(album.Tracks, []string{"1001", "1002"}) {
		t.Errorf("Tracks = %v", album.Tracks)
	}
	if album.Quality != "96kHz 24bit" {
		t.Errorf("Quality = %q", album.Quality)
	}
	if album.BookletURL != "https://example.com/booklet.pdf" {
		t.Errorf("BookletURL = %q", album.BookletURL)
	}
	if !album.Explicit {
		t.Error("Explicit = false, expected true")
	}

	// A follow-up track lookup must not refetch the track: the album fetch
	// already cached it with the album header attached.
	info, err := n.TrackInfo(context.Background(), "1001")
	if err != nil {
		t.Fatalf("TrackInfo() error = %v", err)
	}
	if calls["/track/get"] != 0 {
		t.Errorf("track/get called %d times, expected 0", calls["/track/get"])
	}
	if info.Artists[0] != "Alice" {
		t.Errorf("Artists[0] = %q, expected the album artist fallback", info.Artists[0])
	}
	if info.Tags.TotalTracks != 2 {
		t.Errorf("TotalTracks = %d, expected 2 from the attached album header", info.Tags.TotalTracks)
	}
}

func TestPlaylistInfo(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playlist/get" {
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"id": 5555,
			"name": "Late Night",
			"owner": {"id": 77, "name": "carol"},
			"created_at": 1496968800,
			"duration": 4321,
			"description": "quiet hours",
			"tracks": {"total": 1, "items": [
				{"id": 1001, "title": "One", "streamable": true}
			]}
		}`))
	})

	n := newTestNormalizer(t, handler, core.QualityHiFi)

	playlist, err := n.PlaylistInfo(context.Background(), "5555")
	if err != nil {
		t.Fatalf("PlaylistInfo() error = %v", err)
	}

	if playlist.Name != "Late Night" || playlist.Creator != "carol" {
		t.Errorf("playlist = %q by %q", playlist.Name, playlist.Creator)
	}
	if playlist.ReleaseYear != 2017 {
		t.Errorf("ReleaseYear = %d, expected 2017", playlist.ReleaseYear)
	}
	if !reflect.DeepEqual(playlist.Tracks, []string{"1001"}) {
		t.Errorf("Tracks = %v", playlist.Tracks)
	}
}

func TestSearch_ISRCFirst(t *testing.T) {
	var queries []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		queries = append(queries, query)
		if query == "USX9P1700000" {
			_, _ = w.Write([]byte(`{"tracks":{"total":0,"items":[]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"tracks":{"total":1,"items":[
			{"id": 1001, "title": "One", "parental_warning": true,
			 "performer": {"id": 11, "name": "Alice"},
			 "album": {"id": "alb1", "title": "Sonatas", "artist": {"id": 21, "name": "Alice"},
			           "genre": {"id": 1, "name": "Classical"}, "release_date_original": "2017-06-09",
			           "image": {"large": "https://static.example.com/covers/600x600_1234.jpg"}}}
		]}}`))
	})

	n := newTestNormalizer(t, handler, core.QualityHiFi)

	results, err := n.Search(context.Background(), core.MediaTypeTrack, "Moonlight Sonata", "USX9P1700000", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	expected := []string{"USX9P1700000", "Moonlight Sonata"}
	if !reflect.DeepEqual(queries, expected) {
		t.Errorf("queries = %v, expected ISRC first then free text", queries)
	}

	if len(results) != 1 {
		t.Fatalf("results = %v, expected one", results)
	}
	r := results[0]
	if r.ID != "1001" || r.Name != "One" || !r.Explicit || r.Year != 2017 {
		t.Errorf("result = %+v", r)
	}
	if !reflect.DeepEqual(r.Artists, []string{"Alice"}) {
		t.Errorf("result artists = %v", r.Artists)
	}
}

func TestSearch_ISRCHitSkipsFallback(t *testing.T) {
	var count int
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count++
		_, _ = w.Write([]byte(`{"tracks":{"total":1,"items":[
			{"id": 1001, "title": "One", "performer": {"id": 11, "name": "Alice"}}
		]}}`))
	})

	n := newTestNormalizer(t, handler, core.QualityHiFi)

	if _, err := n.Search(context.Background(), core.MediaTypeTrack, "ignored", "USX9P1700000", 10); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if count != 1 {
		t.Errorf("search called %d times, expected 1", count)
	}
}

func TestSearch_Albums(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"albums":{"total":1,"items":[
			{"id": "alb1", "title": "Sonatas", "artist": {"id": 21, "name": "Alice"},
			 "release_date_original": "2017-06-09",
			 "maximum_bit_depth": 24, "maximum_sampling_rate": 96}
		]}}`))
	})

	n := newTestNormalizer(t, handler, core.QualityHiFi)

	results, err := n.Search(context.Background(), core.MediaTypeAlbum, "sonatas", "", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v, expected one", results)
	}
	if results[0].Extra != "96kHz/24bit" {
		t.Errorf("Extra = %q, expected 96kHz/24bit", results[0].Extra)
	}
}

func TestComposeTitle(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		work     string
		version  string
		expected string
	}{
		{"plain", "Symphony", "", "", "Symphony"},
		{"version suffix", "Symphony", "", "Live", "Symphony (Live)"},
		{"trailing space trimmed before suffix", "Symphony ", "", "Live", "Symphony (Live)"},
		{"work prefix", "Allegro", "Symphony No. 5", "", "Symphony No. 5 - Allegro"},
		{"work and version", "Allegro ", "Symphony No. 5", "Remastered", "Symphony No. 5 - Allegro (Remastered)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := composeTitle(tt.title, tt.work, tt.version); got != tt.expected {
				t.Errorf("composeTitle() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestCoverURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "sized variant",
			input:    "https://static.example.com/covers/600x600_1234.jpg",
			expected: "https://static.example.com/covers/600x600_org.jpg",
		},
		{
			name:     "no separator",
			input:    "https://static.example.com/covers/cover.jpg",
			expected: "https://static.example.com/covers/cover.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coverURL(tt.input); got != tt.expected {
				t.Errorf("coverURL() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestStreamBitrate(t *testing.T) {
	tests := []struct {
		name     string
		file     qobuz.FileURL
		expected int
	}{
		{"cd quality flac", qobuz.FileURL{FormatID: 6, BitDepth: 16, SamplingRate: 44.1}, 1411},
		{"hires flac", qobuz.FileURL{FormatID: 27, BitDepth: 24, SamplingRate: 192}, 9216},
		{"lossy", qobuz.FileURL{FormatID: 5, BitDepth: 0, SamplingRate: 0}, 320},
		{"missing format id", qobuz.FileURL{FormatID: 0, BitDepth: 16, SamplingRate: 44.1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := streamBitrate(&tt.file); got != tt.expected {
				t.Errorf("streamBitrate() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestStreamCodec(t *testing.T) {
	tests := []struct {
		formatID int
		expected core.Codec
	}{
		{6, core.CodecFLAC},
		{7, core.CodecFLAC},
		{27, core.CodecFLAC},
		{5, core.CodecMP3},
		{0, core.CodecNone},
	}

	for _, tt := range tests {
		if got := streamCodec(tt.formatID); got != tt.expected {
			t.Errorf("streamCodec(%d) = %v, expected %v", tt.formatID, got, tt.expected)
		}
	}
}

func TestReleaseYear(t *testing.T) {
	if got := releaseYear("1977-09-23"); got != 1977 {
		t.Errorf("releaseYear() = %d, expected 1977", got)
	}
	if got := releaseYear(""); got != 0 {
		t.Errorf("releaseYear() on empty input = %d, expected 0", got)
	}
}
