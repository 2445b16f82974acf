package webhook

import (
	"context"
	"errors"
	"testing"

	"github.com/danmuhq/danmuz/pkg/dispatch"
	"github.com/danmuhq/danmuz/pkg/media"
	"github.com/danmuhq/danmuz/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnhancer struct {
	ids        media.ProviderIDs
	itemID     string
	seriesID   string
	enhanceCnt int
}

func (f *fakeEnhancer) Enhance(ctx context.Context, itemID, seriesID string) media.ProviderIDs {
	f.enhanceCnt++
	f.itemID = itemID
	f.seriesID = seriesID
	if f.ids == nil {
		return media.ProviderIDs{}
	}
	return f.ids
}

type fakeSubmitter struct {
	tasks []dispatch.SearchTask
	err   error
}

func (f *fakeSubmitter) Submit(ctx context.Context, task dispatch.SearchTask) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

type fakeDeliveries struct {
	deliveries []storage.Delivery
	err        error
}

func (f *fakeDeliveries) CreateDelivery(ctx context.Context, d storage.Delivery) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.deliveries = append(f.deliveries, d)
	return int64(len(f.deliveries)), nil
}

func (f *fakeDeliveries) ListDeliveries(ctx context.Context, limit int) ([]storage.Delivery, error) {
	return f.deliveries, nil
}

func TestService_HandleEmby_MalformedBody(t *testing.T) {
	s := NewService(&fakeEnhancer{}, &fakeSubmitter{}, nil)

	err := s.HandleEmby(context.Background(), []byte("{not json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestService_HandleEmby_SkippedDeliveries(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "unsupported event",
			body: `{"Event":"playback.stop","Item":{"Type":"Movie","Name":"Foo"}}`,
		},
		{
			name: "unsupported media type",
			body: `{"Event":"item.add","Item":{"Type":"Audio","Name":"song"}}`,
		},
		{
			name: "episode missing numbers",
			body: `{"Event":"item.add","Item":{"Type":"Episode","SeriesName":"Bar"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitter := &fakeSubmitter{}
			enhancer := &fakeEnhancer{}
			store := &fakeDeliveries{}
			s := NewService(enhancer, submitter, store)

			err := s.HandleEmby(context.Background(), []byte(tt.body))
			require.NoError(t, err)

			assert.Empty(t, submitter.tasks)
			assert.Equal(t, 0, enhancer.enhanceCnt)
			require.Len(t, store.deliveries, 1)
			assert.Equal(t, storage.OutcomeSkipped, store.deliveries[0].Outcome)
			assert.NotEmpty(t, store.deliveries[0].Detail)
		})
	}
}

func TestService_HandleEmby_MovieWithoutEnrichment(t *testing.T) {
	submitter := &fakeSubmitter{}
	store := &fakeDeliveries{}
	s := NewService(&fakeEnhancer{}, submitter, store)

	body := `{"Event":"item.add","Item":{"Type":"Movie","Name":"Foo","ProductionYear":2020,"ProviderIds":{"Tmdb":"100"}}}`
	err := s.HandleEmby(context.Background(), []byte(body))
	require.NoError(t, err)

	require.Len(t, submitter.tasks, 1)
	task := submitter.tasks[0]
	assert.Equal(t, "Foo", task.Title)
	assert.Equal(t, media.TypeMovie, task.MediaType)
	assert.Equal(t, 1, task.Season)
	assert.Equal(t, 1, task.Episode)
	assert.Equal(t, 2020, task.Year)
	assert.Equal(t, "Foo", task.SearchKeyword)
	assert.Equal(t, "100", task.TMDBID)
	assert.Equal(t, "emby", task.WebhookSource)
	assert.Equal(t, "item.add", task.EventType)

	require.Len(t, store.deliveries, 1)
	assert.Equal(t, storage.OutcomeDispatched, store.deliveries[0].Outcome)
	assert.Equal(t, task.Key(), store.deliveries[0].TaskKey)
}

func TestService_HandleEmby_EpisodeWithEnrichment(t *testing.T) {
	enhancer := &fakeEnhancer{ids: media.ProviderIDs{media.ProviderTMDB: "55"}}
	submitter := &fakeSubmitter{}
	s := NewService(enhancer, submitter, nil)

	body := `{"Event":"playback.start","Item":{"Type":"Episode","Id":"ep1","SeriesName":"Bar","SeriesId":"S1","ParentIndexNumber":2,"IndexNumber":5,"ProviderIds":{}}}`
	err := s.HandleEmby(context.Background(), []byte(body))
	require.NoError(t, err)

	assert.Equal(t, "ep1", enhancer.itemID)
	assert.Equal(t, "S1", enhancer.seriesID)

	require.Len(t, submitter.tasks, 1)
	task := submitter.tasks[0]
	assert.Equal(t, "Bar S02E05", task.SearchKeyword)
	assert.Equal(t, "55", task.TMDBID)
	assert.Equal(t, "playback.start", task.EventType)
}

func TestService_HandleEmby_EnhancedWinsOverBasic(t *testing.T) {
	enhancer := &fakeEnhancer{ids: media.ProviderIDs{media.ProviderTMDB: "1"}}
	submitter := &fakeSubmitter{}
	s := NewService(enhancer, submitter, nil)

	body := `{"Event":"item.add","Item":{"Type":"Movie","Name":"Foo","ProviderIds":{"Tmdb":"2","IMDB":"tt9"}}}`
	require.NoError(t, s.HandleEmby(context.Background(), []byte(body)))

	require.Len(t, submitter.tasks, 1)
	assert.Equal(t, "1", submitter.tasks[0].TMDBID)
	assert.Equal(t, "tt9", submitter.tasks[0].IMDBID)
}

func TestService_HandleEmby_SubmitFailureIsAbsorbed(t *testing.T) {
	store := &fakeDeliveries{}
	s := NewService(&fakeEnhancer{}, &fakeSubmitter{err: errors.New("redis down")}, store)

	body := `{"Event":"item.add","Item":{"Type":"Movie","Name":"Foo"}}`
	err := s.HandleEmby(context.Background(), []byte(body))
	require.NoError(t, err)

	require.Len(t, store.deliveries, 1)
	assert.Equal(t, storage.OutcomeFailed, store.deliveries[0].Outcome)
	assert.Contains(t, store.deliveries[0].Detail, "redis down")
}

func TestService_HandleEmby_StorageFailureIsAbsorbed(t *testing.T) {
	submitter := &fakeSubmitter{}
	s := NewService(&fakeEnhancer{}, submitter, &fakeDeliveries{err: errors.New("disk full")})

	body := `{"Event":"item.add","Item":{"Type":"Movie","Name":"Foo"}}`
	err := s.HandleEmby(context.Background(), []byte(body))
	require.NoError(t, err)
	assert.Len(t, submitter.tasks, 1)
}

func TestService_HandleEmby_DuplicateDeliveriesShareKey(t *testing.T) {
	submitter := &fakeSubmitter{}
	s := NewService(&fakeEnhancer{}, submitter, nil)

	body := `{"Event":"item.add","Item":{"Type":"Episode","SeriesName":"Bar","ParentIndexNumber":2,"IndexNumber":5}}`
	require.NoError(t, s.HandleEmby(context.Background(), []byte(body)))
	require.NoError(t, s.HandleEmby(context.Background(), []byte(body)))

	require.Len(t, submitter.tasks, 2)
	assert.Equal(t, submitter.tasks[0].Key(), submitter.tasks[1].Key())
}
