package metadata

import "github.com/danmuhq/danmuz/pkg/media"

// Merge combines API-enriched ids with the ids embedded in the webhook
// payload. Enhanced values win per kind; basic values fill the gaps. When
// enrichment failed entirely the result is exactly the basic extraction, so a
// degraded identity still dispatches.
func Merge(enhanced, basic media.ProviderIDs) media.ProviderIDs {
	merged := media.ProviderIDs{}
	for kind, v := range basic {
		merged[kind] = v
	}
	for kind, v := range enhanced {
		if v != "" {
			merged[kind] = v
		}
	}
	return merged
}
