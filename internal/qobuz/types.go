package qobuz

import (
	"encoding/json"
)

type NamedEntity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Image struct {
	Thumbnail string `json:"thumbnail"`
	Small     string `json:"small"`
	Large     string `json:"large"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Goodie struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type Track struct {
	ID                  int64        `json:"id"`
	Title               string       `json:"title"`
	Work                string       `json:"work"`
	Version             string       `json:"version"`
	Performer           *NamedEntity `json:"performer"`
	Composer            *NamedEntity `json:"composer"`
	Performers          string       `json:"performers"`
	Album               *Album       `json:"album"`
	ISRC                string       `json:"isrc"`
	UPC                 string       `json:"upc"`
	Copyright           string       `json:"copyright"`
	ParentalWarning     bool         `json:"parental_warning"`
	Streamable          bool         `json:"streamable"`
	TrackNumber         int          `json:"track_number"`
	MediaNumber         int          `json:"media_number"`
	Duration            int          `json:"duration"`
	MaximumBitDepth     int          `json:"maximum_bit_depth"`
	MaximumSamplingRate float64      `json:"maximum_sampling_rate"`
}

type TrackList struct {
	Total int      `json:"total"`
	Items []*Track `json:"items"`
}

type Album struct {
	ID                  string       `json:"id"`
	Title               string       `json:"title"`
	Version             string       `json:"version"`
	Artist              NamedEntity  `json:"artist"`
	Label               *NamedEntity `json:"label"`
	Genre               Genre        `json:"genre"`
	ReleaseDateOriginal string       `json:"release_date_original"`
	TracksCount         int          `json:"tracks_count"`
	MediaCount          int          `json:"media_count"`
	UPC                 string       `json:"upc"`
	Copyright           string       `json:"copyright"`
	Image               Image        `json:"image"`
	HiresStreamable     bool         `json:"hires_streamable"`
	MaximumBitDepth     int          `json:"maximum_bit_depth"`
	MaximumSamplingRate float64      `json:"maximum_sampling_rate"`
	Goodies             []Goodie     `json:"goodies"`
	Description         string       `json:"description"`
	Duration            int          `json:"duration"`
	ParentalWarning     bool         `json:"parental_warning"`
	ReleaseType         string       `json:"release_type"`
	Tracks              *TrackList   `json:"tracks,omitempty"`
}

type AlbumList struct {
	Total int      `json:"total"`
	Items []*Album `json:"items"`
}

type Playlist struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Owner       NamedEntity `json:"owner"`
	CreatedAt   int64       `json:"created_at"`
	Duration    int         `json:"duration"`
	Description string      `json:"description"`
	TracksCount int         `json:"tracks_count"`
	Tracks      *TrackList  `json:"tracks,omitempty"`
}

type PlaylistList struct {
	Total int         `json:"total"`
	Items []*Playlist `json:"items"`
}

type Artist struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Image  *Image     `json:"image"`
	Albums *AlbumList `json:"albums,omitempty"`
}

type ArtistList struct {
	Total int       `json:"total"`
	Items []*Artist `json:"items"`
}

type Label struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	AlbumsCount int        `json:"albums_count"`
	Albums      *AlbumList `json:"albums,omitempty"`
}

// FileURL is the payload of track/getFileUrl: the resolved stream location
// and its declared encoding parameters.
type FileURL struct {
	TrackID      int64   `json:"track_id"`
	URL          string  `json:"url"`
	FormatID     int     `json:"format_id"`
	MimeType     string  `json:"mime_type"`
	BitDepth     int     `json:"bit_depth"`
	SamplingRate float64 `json:"sampling_rate"`
	Sample       bool    `json:"sample"`
}

type SearchResults struct {
	Query     string        `json:"query"`
	Tracks    *TrackList    `json:"tracks,omitempty"`
	Albums    *AlbumList    `json:"albums,omitempty"`
	Playlists *PlaylistList `json:"playlists,omitempty"`
	Artists   *ArtistList   `json:"artists,omitempty"`
	Labels    *LabelList    `json:"labels,omitempty"`
}

type LabelList struct {
	Total int      `json:"total"`
	Items []*Label `json:"items"`
}

type loginResponse struct {
	UserAuthToken string `json:"user_auth_token"`
	User          struct {
		ID         int64 `json:"id"`
		Credential struct {
			Parameters json.RawMessage `json:"parameters"`
		} `json:"credential"`
	} `json:"user"`
}

// hasParameters reports whether the account credential carries paid-tier
// parameters. Free accounts come back with a null or empty object.
func (r *loginResponse) hasParameters() bool {
	p := string(r.User.Credential.Parameters)
	switch p {
	case "", "null", "{}", "[]":
		return false
	default:
		return true
	}
}
