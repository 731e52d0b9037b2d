package resolver

import (
	"context"
	"fmt"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
	asrapi "github.com/airenas/podscript/internal/pkg/asr/api"
	"github.com/airenas/podscript/internal/pkg/audio"
	"github.com/airenas/podscript/internal/pkg/budget"
	"github.com/airenas/podscript/internal/pkg/messages"
	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/airenas/podscript/internal/pkg/status"
	"github.com/airenas/podscript/internal/pkg/tier/api"
)

// SourceASR is outcome source for fallback transcripts
const SourceASR = "asr"

// OutcomeSaver persists outcomes
type OutcomeSaver interface {
	UpsertOutcome(ctx context.Context, o *persistence.Outcome) error
}

// AudioLocator finds episode audio
type AudioLocator interface {
	Locate(ctx context.Context, ep *persistence.Episode) (*audio.Resource, error)
}

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// Archiver stores transcript text copy
type Archiver interface {
	Save(ctx context.Context, episodeID, text string) error
}

// Data keeps resolver dependencies, Sender and Archiver are optional
type Data struct {
	Tier        api.Client
	ASR         asrapi.Client
	Locator     AudioLocator
	Saver       OutcomeSaver
	Sender      MsgSender
	Archiver    Archiver
	Policy      Policy
	HaltOnQuota bool
}

// Resolver resolves one episode to a stored transcript outcome
type Resolver struct {
	data *Data
}

// New creates resolver
func New(data *Data) (*Resolver, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	if len(data.Policy.Triggers) == 0 {
		data.Policy.Triggers = DefaultTriggers
	}
	return &Resolver{data: data}, nil
}

// Resolve runs lookup, optional ASR fallback and persists the result.
// Errors never escape, they are reported in the returned outcome.
func (r *Resolver) Resolve(ctx context.Context, ep *persistence.Episode, b *budget.RunBudget) *persistence.Outcome {
	res := r.resolve(ctx, ep, b)
	log := goapp.Log.Info()
	if res.Status != status.Done {
		log = goapp.Log.Warn().Str("category", res.ErrCategory.String()).Str("error", res.ErrorMessage)
	}
	log.Str("component", "resolver").Str("ID", ep.ID).Str("status", res.Status.String()).
		Str("source", res.Source).Int("credits", res.Credits).Bool("asr", res.ASRInvoked).Msg("resolved")
	return r.persist(ctx, res)
}

func (r *Resolver) resolve(ctx context.Context, ep *persistence.Episode, b *budget.RunBudget) *persistence.Outcome {
	if !ep.Eligible() {
		return failure(ep.ID, "", status.ECIneligible, "episode is deleted or has no feed URL/GUID")
	}
	source := r.data.Tier.Name()
	if r.data.HaltOnQuota && b.QuotaHit() {
		return failure(ep.ID, source, status.ECQuotaExceeded, api.CreditsExceeded+": tier calls halted for the run")
	}
	if !b.TryReserveAPICall() {
		return failure(ep.ID, source, status.ECBudgetExhausted, "api call budget exhausted")
	}
	lr := r.data.Tier.FetchTranscript(ctx, ep.FeedURL, ep.GUID)
	b.AddCredits(lr.Credits())

	res := classify(ep.ID, source, lr)
	if e, ok := lr.(api.Error); ok && e.Quota() {
		b.MarkQuota()
	}
	if res.Status == status.Done || !r.data.Policy.ShouldEscalate(lr, b.CanFallback()) {
		return res
	}
	r.fallback(ctx, ep, b, res)
	return res
}

func classify(id, source string, lr api.LookupResult) *persistence.Outcome {
	switch v := lr.(type) {
	case api.Full:
		return success(id, source, v.Text, v.WordCount, v.CreditsConsumed)
	case api.Partial:
		return success(id, source, v.Text, v.WordCount, v.CreditsConsumed)
	case api.Processing:
		return withCredits(failure(id, source, status.ECProcessing, "transcript is being generated"), v.CreditsConsumed)
	case api.NotFound:
		return withCredits(failure(id, source, status.ECNotFound, "transcript not found"), v.CreditsConsumed)
	case api.NoMatch:
		return withCredits(failure(id, source, status.ECNoMatch, "episode not matched"), v.CreditsConsumed)
	case api.Error:
		ec := status.ECTransportError
		if v.Quota() {
			ec = status.ECQuotaExceeded
		}
		return withCredits(failure(id, source, ec, v.Message), v.CreditsConsumed)
	}
	return failure(id, source, status.ECTransportError, fmt.Sprintf("unknown lookup result %T", lr))
}

func (r *Resolver) fallback(ctx context.Context, ep *persistence.Episode, b *budget.RunBudget, res *persistence.Outcome) {
	au, err := r.data.Locator.Locate(ctx, ep)
	if err != nil {
		res.ErrorMessage = fmt.Sprintf("%s; asr: can't locate audio: %v", res.ErrorMessage, err)
		return
	}
	if r.data.Policy.TooLarge(au.Size) {
		goapp.Log.Info().Str("component", "resolver").Str("ID", ep.ID).Int64("size", au.Size).Msg("audio too large for ASR")
		res.ErrCategory = status.ECFileTooLarge
		res.ErrorMessage = fmt.Sprintf("%s; asr skipped: %s", res.ErrorMessage, asrapi.ReasonFileTooLarge)
		return
	}
	if !b.TryReserveFallback() {
		return
	}
	res.ASRInvoked = true
	goapp.Log.Info().Str("component", "resolver").Str("ID", ep.ID).Str("url", au.URL).Int64("size", au.Size).Msg("invoking ASR")
	switch v := r.data.ASR.Transcribe(ctx, au.URL, au.Size).(type) {
	case asrapi.Success:
		res.Status = status.Done
		res.Source = SourceASR
		res.Text = v.Text
		res.WordCount = v.WordCount
		res.ErrCategory = 0
		res.ErrorMessage = ""
	case asrapi.Skipped:
		res.ErrorMessage = fmt.Sprintf("%s; asr skipped: %s", res.ErrorMessage, v.Reason)
	case asrapi.Error:
		res.ErrorMessage = fmt.Sprintf("%s; asr: %s", res.ErrorMessage, v.Message)
	}
}

func (r *Resolver) persist(ctx context.Context, o *persistence.Outcome) *persistence.Outcome {
	if err := r.data.Saver.UpsertOutcome(ctx, o); err != nil {
		goapp.Log.Error().Err(err).Str("component", "resolver").Str("ID", o.EpisodeID).Msg("can't save outcome")
		res := *o
		res.Status = status.Error
		res.Text = ""
		res.ErrCategory = status.ECDatabaseError
		res.ErrorMessage = fmt.Sprintf("can't save outcome: %v", err)
		return &res
	}
	if o.Status != status.Done {
		return o
	}
	if r.data.Archiver != nil {
		if err := r.data.Archiver.Save(ctx, o.EpisodeID, o.Text); err != nil {
			goapp.Log.Warn().Err(err).Str("component", "resolver").Str("ID", o.EpisodeID).Msg("can't archive transcript")
		}
	}
	if r.data.Sender != nil {
		err := r.data.Sender.SendMessage(ctx, messages.NewTranscriptReady(o.EpisodeID, o.Source, o.WordCount), messages.TranscriptReady)
		if err != nil {
			goapp.Log.Warn().Err(err).Str("component", "resolver").Str("ID", o.EpisodeID).Msg("can't send msg")
		}
	}
	return o
}

func success(id, source, text string, wc, credits int) *persistence.Outcome {
	return &persistence.Outcome{EpisodeID: id, Status: status.Done, Source: source, Text: text,
		WordCount: wc, Credits: credits}
}

func failure(id, source string, ec status.ErrCategory, msg string) *persistence.Outcome {
	if msg == "" {
		msg = ec.String()
	}
	return &persistence.Outcome{EpisodeID: id, Status: status.Error, Source: source, ErrCategory: ec,
		ErrorMessage: msg}
}

func withCredits(o *persistence.Outcome, credits int) *persistence.Outcome {
	o.Credits = credits
	return o
}

func validate(data *Data) error {
	if data == nil {
		return fmt.Errorf("no data")
	}
	if data.Tier == nil {
		return fmt.Errorf("no tier client")
	}
	if data.Saver == nil {
		return fmt.Errorf("no outcome saver")
	}
	if data.Policy.Enabled {
		if data.ASR == nil {
			return fmt.Errorf("no ASR client")
		}
		if data.Locator == nil {
			return fmt.Errorf("no audio locator")
		}
	}
	return nil
}
