package media

import "fmt"

// ProviderKind names an external catalog that can identify a media item.
type ProviderKind string

const (
	ProviderTMDB    ProviderKind = "tmdb"
	ProviderIMDB    ProviderKind = "imdb"
	ProviderTVDB    ProviderKind = "tvdb"
	ProviderDouban  ProviderKind = "douban"
	ProviderBangumi ProviderKind = "bangumi"
)

// ProviderKinds is the full set of supported kinds in priority order.
var ProviderKinds = []ProviderKind{
	ProviderTMDB,
	ProviderIMDB,
	ProviderTVDB,
	ProviderDouban,
	ProviderBangumi,
}

// providerAliases maps each kind to the field spellings seen in Emby payloads
// and API responses. Order matters: the first alias present wins.
var providerAliases = map[ProviderKind][]string{
	ProviderTMDB:    {"Tmdb", "TheMovieDb", "TMDB"},
	ProviderIMDB:    {"Imdb", "IMDB", "IMDb"},
	ProviderTVDB:    {"Tvdb", "TheTVDB", "TVDB"},
	ProviderDouban:  {"DoubanID", "Douban", "douban"},
	ProviderBangumi: {"Bangumi", "bangumi", "BangumiID"},
}

// ProviderIDs maps a provider kind to its identifier. A missing key means the
// id is unknown.
type ProviderIDs map[ProviderKind]string

// Empty reports whether no provider id was resolved.
func (p ProviderIDs) Empty() bool {
	return len(p) == 0
}

// Get returns the id for kind, or the empty string when unresolved.
func (p ProviderIDs) Get(kind ProviderKind) string {
	return p[kind]
}

// ExtractProviderIDs normalizes a raw identifier map into ProviderIDs using
// the per-kind alias tables. Unknown fields are ignored, absent aliases yield
// absent values, never an error.
func ExtractProviderIDs(raw map[string]string) ProviderIDs {
	ids := ProviderIDs{}
	for _, kind := range ProviderKinds {
		for _, alias := range providerAliases[kind] {
			if v, ok := raw[alias]; ok && v != "" {
				ids[kind] = v
				break
			}
		}
	}
	return ids
}

// Type distinguishes series episodes from movies.
type Type string

const (
	TypeSeries Type = "tv_series"
	TypeMovie  Type = "movie"
)

// Identity is a normalized media identity assembled from a webhook payload.
// Movies use season 1 episode 1 by convention.
type Identity struct {
	Title   string
	Type    Type
	Season  int
	Episode int
	// Year is zero when the payload carried no production year.
	Year        int
	ProviderIDs ProviderIDs

	// Raw media-server identifiers, used for API enrichment.
	ItemID   string
	SeriesID string
}

// SearchKeyword derives the keyword handed to the search pipeline:
// "Title S02E05" for series, the bare title for movies.
func (i Identity) SearchKeyword() string {
	if i.Type == TypeSeries {
		return fmt.Sprintf("%s S%02dE%02d", i.Title, i.Season, i.Episode)
	}
	return i.Title
}
