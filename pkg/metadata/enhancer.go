package metadata

import (
	"context"

	"github.com/danmuhq/danmuz/pkg/cache"
	"github.com/danmuhq/danmuz/pkg/emby"
	"github.com/danmuhq/danmuz/pkg/logger"
	"github.com/danmuhq/danmuz/pkg/media"
	"go.uber.org/zap"
)

const actingUserKey = "acting-user"

// Enhancer enriches webhook-embedded provider ids with authoritative ones from
// the media server's API. It is strictly best-effort: every failure degrades to
// an empty result and is logged, never returned. A nil client disables it.
type Enhancer struct {
	client emby.ClientInterface
	users  *cache.Cache[string, string]
}

// NewEnhancer creates an Enhancer backed by the given Emby client. Pass nil to
// disable enrichment entirely; Enhance then returns empty without network I/O.
func NewEnhancer(client emby.ClientInterface) *Enhancer {
	return &Enhancer{
		client: client,
		users:  cache.New[string, string](),
	}
}

// Enabled reports whether a media-server API is configured.
func (e *Enhancer) Enabled() bool {
	return e.client != nil
}

// actingUser returns the cached user id the item lookups run as. It is
// resolved once by listing users and preferring an administrator account,
// falling back to the first listed user. A failed resolution only disables
// enrichment for the current call; the next call retries.
func (e *Enhancer) actingUser(ctx context.Context) (string, bool) {
	if id, ok := e.users.Get(actingUserKey); ok {
		return id, true
	}

	log := logger.FromCtx(ctx)
	users, err := e.client.ListUsers(ctx)
	if err != nil {
		log.Warn("failed to list emby users", zap.Error(err))
		return "", false
	}

	if len(users) == 0 {
		log.Warn("emby returned no users, skipping enrichment")
		return "", false
	}

	selected := users[0]
	for _, u := range users {
		if u.Policy.IsAdministrator {
			selected = u
			break
		}
	}

	e.users.Set(actingUserKey, selected.ID)
	log.Debug("resolved acting emby user", zap.String("name", selected.Name), zap.String("id", selected.ID))
	return selected.ID, true
}

// fetchItemIDs fetches the provider ids of one library item. Failures yield an
// empty result.
func (e *Enhancer) fetchItemIDs(ctx context.Context, userID, itemID string) media.ProviderIDs {
	log := logger.FromCtx(ctx)

	item, err := e.client.UserItem(ctx, userID, itemID)
	if err != nil {
		log.Warn("failed to fetch item metadata", zap.String("itemID", itemID), zap.Error(err))
		return media.ProviderIDs{}
	}

	return media.ExtractProviderIDs(item.ProviderIDs)
}

// Enhance fetches provider ids for the item and, when seriesID is non-empty,
// for its series. Series-level ids override item-level ones: the series record
// tends to carry the canonical catalog ids while an episode record may carry
// none or episode-scoped ones.
func (e *Enhancer) Enhance(ctx context.Context, itemID, seriesID string) media.ProviderIDs {
	if !e.Enabled() || itemID == "" {
		return media.ProviderIDs{}
	}

	userID, ok := e.actingUser(ctx)
	if !ok {
		return media.ProviderIDs{}
	}

	itemIDs := e.fetchItemIDs(ctx, userID, itemID)

	var seriesIDs media.ProviderIDs
	if seriesID != "" {
		seriesIDs = e.fetchItemIDs(ctx, userID, seriesID)
	}

	return overlay(itemIDs, seriesIDs)
}

// overlay starts from base and overwrites each kind present in over.
func overlay(base, over media.ProviderIDs) media.ProviderIDs {
	merged := media.ProviderIDs{}
	for kind, v := range base {
		merged[kind] = v
	}
	for kind, v := range over {
		if v != "" {
			merged[kind] = v
		}
	}
	return merged
}
