package intake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pleadbot/mail-intake/internal/dispatch"
	"github.com/pleadbot/mail-intake/internal/docstore"
	"github.com/pleadbot/mail-intake/internal/extract"
	"github.com/pleadbot/mail-intake/internal/fetch"
	"github.com/pleadbot/mail-intake/internal/ledger"
	"github.com/pleadbot/mail-intake/internal/message"
	"github.com/pleadbot/mail-intake/internal/metrics"
)

// PartResult records what happened to one non-container part.
type PartResult struct {
	Ordinal     int // 1-based position among non-container parts
	ContentType string
	Action      Action
	Saved       []string // filenames written for this part
	Err         error
}

// Verdict is the terminal outcome of processing one message. Parts holds
// the results up to and including the first failing part; nothing after
// a failure is processed.
type Verdict struct {
	MessageID  string
	Succeeded  bool
	Parts      []PartResult
	SavedCount int
}

// errPartFailed stops the message walk after the first failed part.
var errPartFailed = errors.New("part failed")

// Processor turns one parsed message into saved documents and a verdict.
// All collaborators are injected; the processor holds no global state.
type Processor struct {
	store        docstore.Store
	fetcher      fetch.Client
	ledger       ledger.Ledger
	queue        dispatch.Enqueuer
	fromFallback string
	log          zerolog.Logger
}

// NewProcessor creates a Processor. A nil ledger, queue, or fetcher is
// replaced with a no-op (fetches then fail per link, which skips the link).
func NewProcessor(
	store docstore.Store,
	fetcher fetch.Client,
	led ledger.Ledger,
	queue dispatch.Enqueuer,
	fromFallback string,
	log zerolog.Logger,
) *Processor {
	if fetcher == nil {
		fetcher = disabledFetcher{}
	}
	if led == nil {
		led = ledger.NopLedger{}
	}
	if queue == nil {
		queue = dispatch.NopEnqueuer{}
	}
	if fromFallback == "" {
		fromFallback = "unknown-sender"
	}
	return &Processor{
		store:        store,
		fetcher:      fetcher,
		ledger:       led,
		queue:        queue,
		fromFallback: fromFallback,
		log:          log.With().Str("component", "intake").Logger(),
	}
}

// disabledFetcher fails every fetch, turning link candidates into logged
// skips when no HTTP client is wired in.
type disabledFetcher struct{}

func (disabledFetcher) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("remote fetch disabled")
}

// ProcessMessage walks every part in document order and applies the
// classifier's action inside a per-part failure boundary. The first part
// failure fails the whole message; earlier artifacts stay in the store.
func (p *Processor) ProcessMessage(ctx context.Context, msg *message.Message) Verdict {
	verdict := Verdict{MessageID: msg.ID}

	from := msg.From
	if from == "" {
		from = p.fromFallback
	}

	log := p.log.With().Str("msgid", msg.ID).Logger()
	log.Debug().Str("from", msg.From).Str("subject", msg.Subject).Msg("processing message")

	counter := 0
	walkErr := msg.Walk(func(part *message.Part) error {
		if part.IsContainer() {
			metrics.PartsClassifiedTotal.WithLabelValues(ActionContainer.String()).Inc()
			return nil
		}
		counter++

		res := p.processPart(ctx, log, msg.ID, from, part, counter)
		verdict.Parts = append(verdict.Parts, res)
		verdict.SavedCount += len(res.Saved)

		if res.Err != nil {
			log.Error().
				Err(res.Err).
				Int("part", res.Ordinal).
				Str("content_type", res.ContentType).
				Msg("part processing failed")
			return errPartFailed
		}
		return nil
	})

	verdict.Succeeded = walkErr == nil
	return verdict
}

// processPart applies the classified action to one leaf part. n is the
// naming counter value for this part.
func (p *Processor) processPart(ctx context.Context, log zerolog.Logger, msgID, from string, part *message.Part, n int) PartResult {
	res := PartResult{Ordinal: n, ContentType: part.ContentType, Action: Classify(part)}
	metrics.PartsClassifiedTotal.WithLabelValues(res.Action.String()).Inc()

	switch res.Action {
	case ActionAttachment:
		name := PartFileName(msgID, from, part, n)
		data, err := part.DecodedBody()
		if err != nil {
			res.Err = fmt.Errorf("decode part %d: %w", n, err)
			return res
		}
		if err := p.saveDocument(ctx, log, msgID, from, name, data, ledger.SourceAttachment, ""); err != nil {
			res.Err = err
			return res
		}
		res.Saved = []string{name}

	case ActionHTMLLinks:
		urls, err := extract.FromHTML(part.Body)
		if err != nil {
			res.Err = fmt.Errorf("extract html links from part %d: %w", n, err)
			return res
		}
		res.Saved, res.Err = p.saveLinks(ctx, log, msgID, from, urls, n, ledger.SourceHTMLLink)

	case ActionTextLinks:
		urls, err := extract.FromText(part.Body)
		if err != nil {
			res.Err = fmt.Errorf("extract text links from part %d: %w", n, err)
			return res
		}
		res.Saved, res.Err = p.saveLinks(ctx, log, msgID, from, urls, n, ledger.SourceTextLink)

	case ActionSkip:
		log.Debug().
			Int("part", n).
			Str("content_type", part.ContentType).
			Str("filename", part.Filename).
			Msg("skipping part")
	}

	return res
}

// saveLinks fetches each candidate URL and persists the response body.
// Fetch failures skip that one link; a store failure aborts and returns
// the names saved so far plus the error.
func (p *Processor) saveLinks(ctx context.Context, log zerolog.Logger, msgID, from string, urls []string, n int, source string) ([]string, error) {
	var saved []string
	for _, rawURL := range urls {
		if !IsPDFURL(rawURL) {
			log.Debug().Str("url", rawURL).Msg("link does not point at a pdf, skipping")
			continue
		}

		start := time.Now()
		body, err := p.fetcher.Get(ctx, rawURL)
		metrics.LinkFetchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			result := "transport_error"
			var statusErr *fetch.StatusError
			if errors.As(err, &statusErr) {
				result = "http_error"
			}
			metrics.LinkFetchesTotal.WithLabelValues(result).Inc()
			log.Warn().Err(err).Str("url", rawURL).Msg("link fetch failed, skipping")
			continue
		}
		metrics.LinkFetchesTotal.WithLabelValues("ok").Inc()

		name := LinkFileName(msgID, rawURL, from, n)
		if err := p.saveDocument(ctx, log, msgID, from, name, body, source, rawURL); err != nil {
			return saved, err
		}
		saved = append(saved, name)
	}
	return saved, nil
}

// saveDocument writes one candidate to the store, then records it in the
// ledger and publishes a dispatch notice. Ledger and dispatch failures
// are logged but never fail the save.
func (p *Processor) saveDocument(ctx context.Context, log zerolog.Logger, msgID, from, name string, data []byte, source, sourceURL string) error {
	if err := p.store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	metrics.DocumentsSavedTotal.WithLabelValues(source).Inc()
	metrics.DocumentBytesSavedTotal.Add(float64(len(data)))

	sum := sha256.Sum256(data)
	doc := ledger.Document{
		MessageID: msgID,
		Sender:    from,
		Source:    source,
		Filename:  name,
		SourceURL: sourceURL,
		Size:      int64(len(data)),
		SHA256:    hex.EncodeToString(sum[:]),
	}
	if err := p.ledger.RecordDocument(ctx, doc); err != nil {
		metrics.LedgerRecordsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("filename", name).Msg("ledger record failed")
	} else {
		metrics.LedgerRecordsTotal.WithLabelValues("ok").Inc()
	}

	if _, err := p.queue.Enqueue(ctx, dispatch.NewNotice(msgID, name, source, from)); err != nil {
		log.Error().Err(err).Str("filename", name).Msg("dispatch notice failed")
	}

	log.Info().
		Str("filename", name).
		Str("source", source).
		Int("bytes", len(data)).
		Msg("document saved")
	return nil
}
