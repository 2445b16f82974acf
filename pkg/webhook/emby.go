package webhook

import (
	"fmt"

	"github.com/danmuhq/danmuz/pkg/media"
)

// SourceEmby tags deliveries and dispatched tasks with their origin.
const SourceEmby = "emby"

// embyEvents is the set of notification events worth a search dispatch.
// Everything else is a silent no-op.
var embyEvents = map[string]struct{}{
	"item.add":       {},
	"library.new":    {},
	"playback.start": {},
}

// EmbyPayload is the inbound webhook body. Emby sends many more fields; only
// the identity-bearing ones are decoded.
type EmbyPayload struct {
	Event string    `json:"Event"`
	Item  *EmbyItem `json:"Item"`
}

// EmbyItem is the notification's media item. Index numbers are pointers so a
// missing field is distinguishable from season or episode zero.
type EmbyItem struct {
	ID                string            `json:"Id"`
	Type              string            `json:"Type"`
	Name              string            `json:"Name"`
	SeriesName        string            `json:"SeriesName"`
	SeriesID          string            `json:"SeriesId"`
	ParentIndexNumber *int              `json:"ParentIndexNumber"`
	IndexNumber       *int              `json:"IndexNumber"`
	ProductionYear    int               `json:"ProductionYear"`
	ProviderIDs       map[string]string `json:"ProviderIds"`
}

// ExtractEmby normalizes an Emby payload into a media identity. A non-empty
// skip reason means the payload is recognized but irrelevant or incomplete;
// that is not an error, the caller just logs it and moves on.
func ExtractEmby(payload EmbyPayload) (media.Identity, string) {
	if _, ok := embyEvents[payload.Event]; !ok {
		return media.Identity{}, fmt.Sprintf("unsupported event %q", payload.Event)
	}

	item := payload.Item
	if item == nil {
		return media.Identity{}, "payload has no item"
	}

	identity := media.Identity{
		Year:        item.ProductionYear,
		ProviderIDs: media.ExtractProviderIDs(item.ProviderIDs),
		ItemID:      item.ID,
	}

	switch item.Type {
	case "Episode":
		if item.SeriesName == "" || item.ParentIndexNumber == nil || item.IndexNumber == nil {
			return media.Identity{}, "episode is missing series title, season, or episode number"
		}
		identity.Title = item.SeriesName
		identity.Type = media.TypeSeries
		identity.Season = *item.ParentIndexNumber
		identity.Episode = *item.IndexNumber
		identity.SeriesID = item.SeriesID
	case "Movie":
		if item.Name == "" {
			return media.Identity{}, "movie is missing a title"
		}
		identity.Title = item.Name
		identity.Type = media.TypeMovie
		// movies are handled as a single episode
		identity.Season = 1
		identity.Episode = 1
	default:
		return media.Identity{}, fmt.Sprintf("unsupported media type %q", item.Type)
	}

	return identity, ""
}
