package mocks

import (
	"context"

	"github.com/airenas/async-api/pkg/messages"
	asrapi "github.com/airenas/podscript/internal/pkg/asr/api"
	"github.com/airenas/podscript/internal/pkg/audio"
	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/airenas/podscript/internal/pkg/tier/api"
	"github.com/stretchr/testify/mock"
)

// Store is postgres episode store mock
type Store struct{ mock.Mock }

func (m *Store) FetchEligible(ctx context.Context, sel *persistence.Selection) ([]*persistence.Episode, error) {
	args := m.Called(ctx, sel)
	return to[[]*persistence.Episode](args.Get(0)), args.Error(1)
}

func (m *Store) UpsertOutcome(ctx context.Context, o *persistence.Outcome) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

// Lock is run lock mock
type Lock struct{ mock.Mock }

func (m *Lock) TryLock(ctx context.Context) (func() error, bool, error) {
	args := m.Called(ctx)
	return to[func() error](args.Get(0)), args.Bool(1), args.Error(2)
}

// Sender is postgres queue mock
type Sender struct{ mock.Mock }

func (m *Sender) SendMessage(ctx context.Context, msg messages.Message, queue string) error {
	args := m.Called(ctx, msg, queue)
	return args.Error(0)
}

// Tier is transcript lookup client mock
type Tier struct{ mock.Mock }

func (m *Tier) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *Tier) FetchTranscript(ctx context.Context, feedURL, guid string) api.LookupResult {
	args := m.Called(ctx, feedURL, guid)
	return to[api.LookupResult](args.Get(0))
}

// ASR is ASR vendor client mock
type ASR struct{ mock.Mock }

func (m *ASR) Transcribe(ctx context.Context, audioURL string, sizeBytes int64) asrapi.Result {
	args := m.Called(ctx, audioURL, sizeBytes)
	return to[asrapi.Result](args.Get(0))
}

// Locator is audio locator mock
type Locator struct{ mock.Mock }

func (m *Locator) Locate(ctx context.Context, ep *persistence.Episode) (*audio.Resource, error) {
	args := m.Called(ctx, ep)
	return to[*audio.Resource](args.Get(0)), args.Error(1)
}

// Archiver is transcript archive mock
type Archiver struct{ mock.Mock }

func (m *Archiver) Save(ctx context.Context, episodeID, text string) error {
	args := m.Called(ctx, episodeID, text)
	return args.Error(0)
}

// Runner is job runner mock
type Runner struct{ mock.Mock }

func (m *Runner) RunOnce(ctx context.Context) (*persistence.RunSummary, error) {
	args := m.Called(ctx)
	return to[*persistence.RunSummary](args.Get(0)), args.Error(1)
}

func (m *Runner) RunManually(ctx context.Context, job string) (*persistence.RunSummary, error) {
	args := m.Called(ctx, job)
	return to[*persistence.RunSummary](args.Get(0)), args.Error(1)
}

func to[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
