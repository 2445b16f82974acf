package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/danmuhq/danmuz/pkg/media"
	"github.com/hibiken/asynq"
)

// TypeWebhookSearch is the queue task type for a full search across all
// danmaku sources.
const TypeWebhookSearch = "webhook:search"

// SearchTask describes one search dispatch. It is a plain data payload; the
// worker that executes it lives outside this process.
type SearchTask struct {
	Title         string     `json:"title"`
	MediaType     media.Type `json:"mediaType"`
	Season        int        `json:"season"`
	Episode       int        `json:"episode"`
	Year          int        `json:"year,omitempty"`
	SearchKeyword string     `json:"searchKeyword"`
	TMDBID        string     `json:"tmdbId,omitempty"`
	IMDBID        string     `json:"imdbId,omitempty"`
	TVDBID        string     `json:"tvdbId,omitempty"`
	DoubanID      string     `json:"doubanId,omitempty"`
	BangumiID     string     `json:"bangumiId,omitempty"`
	WebhookSource string     `json:"webhookSource"`
	EventType     string     `json:"eventType"`
}

// NewSearchTask builds the task for an identity and its merged provider ids.
func NewSearchTask(identity media.Identity, ids media.ProviderIDs, source, event string) SearchTask {
	return SearchTask{
		Title:         identity.Title,
		MediaType:     identity.Type,
		Season:        identity.Season,
		Episode:       identity.Episode,
		Year:          identity.Year,
		SearchKeyword: identity.SearchKeyword(),
		TMDBID:        ids.Get(media.ProviderTMDB),
		IMDBID:        ids.Get(media.ProviderIMDB),
		TVDBID:        ids.Get(media.ProviderTVDB),
		DoubanID:      ids.Get(media.ProviderDouban),
		BangumiID:     ids.Get(media.ProviderBangumi),
		WebhookSource: source,
		EventType:     event,
	}
}

// Key is the deterministic uniqueness key for the task. Duplicate webhook
// deliveries for the same media unit produce the same key and collapse onto
// one queue entry.
func (t SearchTask) Key() string {
	return fmt.Sprintf("webhook-search-%s-S%d-E%d", t.Title, t.Season, t.Episode)
}

// TaskTitle is the human-readable title shown in queue tooling.
func (t SearchTask) TaskTitle() string {
	if t.MediaType == media.TypeSeries {
		return fmt.Sprintf("webhook (%s) search: %s - S%02dE%02d", t.WebhookSource, t.Title, t.Season, t.Episode)
	}
	return fmt.Sprintf("webhook (%s) search: %s", t.WebhookSource, t.Title)
}

// ParseSearchTask decodes a queued task payload. Exposed for the worker side.
func ParseSearchTask(t *asynq.Task) (SearchTask, error) {
	var task SearchTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		return task, fmt.Errorf("unmarshal %s payload: %w", t.Type(), err)
	}
	return task, nil
}
