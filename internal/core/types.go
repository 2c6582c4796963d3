package core

import (
	"fmt"
	"strings"
	"time"
)

type MediaType int

const (
	// MediaTypeTrack represents a single track lookup or search
	MediaTypeTrack MediaType = iota
	// MediaTypeAlbum represents an album lookup or search
	MediaTypeAlbum
	// MediaTypePlaylist represents a playlist lookup or search
	MediaTypePlaylist
	// MediaTypeArtist represents an artist lookup or search
	MediaTypeArtist
	// MediaTypeLabel represents a label lookup or search
	MediaTypeLabel
)

func (m MediaType) String() string {
	switch m {
	case MediaTypeTrack:
		return "track"
	case MediaTypeAlbum:
		return "album"
	case MediaTypePlaylist:
		return "playlist"
	case MediaTypeArtist:
		return "artist"
	case MediaTypeLabel:
		return "label"
	default:
		return "unknown"
	}
}

func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "track":
		return MediaTypeTrack, nil
	case "album":
		return MediaTypeAlbum, nil
	case "playlist":
		return MediaTypePlaylist, nil
	case "artist":
		return MediaTypeArtist, nil
	case "label":
		return MediaTypeLabel, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMediaType, s)
	}
}

type QualityTier int

const (
	// QualityLow requests the 320 kbps MP3 stream
	QualityLow QualityTier = iota
	// QualityMedium requests the 320 kbps MP3 stream
	QualityMedium
	// QualityHigh requests the 320 kbps MP3 stream
	QualityHigh
	// QualityLossless requests the 16-bit FLAC stream
	QualityLossless
	// QualityHiFi requests up to 24-bit / 192 kHz FLAC
	QualityHiFi
)

// FormatID maps the tier to the remote format id: 5 = 320 kbps MP3,
// 6 = 16-bit FLAC, 7 = 24-bit / <= 96 kHz FLAC, 27 = <= 192 kHz FLAC.
func (q QualityTier) FormatID() int {
	switch q {
	case QualityLossless:
		return 6
	case QualityHiFi:
		return 27
	default:
		return 5
	}
}

func (q QualityTier) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	case QualityLossless:
		return "lossless"
	case QualityHiFi:
		return "hifi"
	default:
		return "unknown"
	}
}

func ParseQualityTier(s string) (QualityTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return QualityLow, nil
	case "medium":
		return QualityMedium, nil
	case "high":
		return QualityHigh, nil
	case "lossless":
		return QualityLossless, nil
	case "hifi", "hires":
		return QualityHiFi, nil
	default:
		return 0, fmt.Errorf("unknown quality tier: %q", s)
	}
}

type Codec int

const (
	// CodecNone indicates the stream format is unknown or unstreamable
	CodecNone Codec = iota
	// CodecMP3 indicates a lossy MP3 stream
	CodecMP3
	// CodecFLAC indicates a lossless FLAC stream
	CodecFLAC
)

func (c Codec) String() string {
	switch c {
	case CodecMP3:
		return "MP3"
	case CodecFLAC:
		return "FLAC"
	default:
		return "NONE"
	}
}

type Tags struct {
	AlbumArtist string
	Composer    string
	TrackNumber int
	TotalTracks int
	DiscNumber  int
	TotalDiscs  int
	ISRC        string
	UPC         string
	Copyright   string
	Genres      []string
	ReleaseDate string
	Label       string
}

type TrackInfo struct {
	ID          string
	Name        string
	Album       string
	AlbumID     string
	Artists     []string
	ArtistID    string
	ReleaseYear int
	Explicit    bool
	Duration    time.Duration
	Codec       Codec
	Bitrate     int
	BitDepth    int
	SampleRate  float64
	FileURL     string
	CoverURL    string
	Tags        Tags
	Credits     []CreditEntry
	// ErrorMessage carries a per-track failure (e.g. not streamable) so
	// batch operations can continue past a single bad track.
	ErrorMessage string
}

type AlbumInfo struct {
	ID          string
	Name        string
	Artist      string
	ArtistID    string
	Tracks      []string
	ReleaseYear int
	Explicit    bool
	Quality     string
	CoverURL    string
	BookletURL  string
	Description string
	Duration    time.Duration
	UPC         string
	Label       string
}

type PlaylistInfo struct {
	ID          string
	Name        string
	Creator     string
	CreatorID   string
	ReleaseYear int
	Description string
	Duration    time.Duration
	Tracks      []string
}

type ArtistInfo struct {
	ID     string
	Name   string
	Albums []string
}

type LabelAlbum struct {
	ID     string
	Artist string
}

type LabelInfo struct {
	ID     string
	Name   string
	Albums []LabelAlbum
}

type SearchResult struct {
	ID       string
	Name     string
	Artists  []string
	Year     int
	Explicit bool
	// Extra carries a per-type annotation, e.g. "96kHz/24bit" for albums.
	Extra string
}

// CreditEntry maps a contributor role to the names credited under it,
// in first-seen order.
type CreditEntry struct {
	Role  string
	Names []string
}

type StreamInfo struct {
	URL        string
	FormatID   int
	MimeType   string
	BitDepth   int
	SampleRate float64
}

// SettingsStore is the persistent key-value store used for session state
// such as the auth token.
type SettingsStore interface {
	Read(key string) (string, error)
	Set(key, value string) error
}
