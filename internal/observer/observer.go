package observer

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scribeapp/scribe/internal/backend"
	"github.com/scribeapp/scribe/internal/cache"
	"github.com/scribeapp/scribe/internal/models"
	mongorepo "github.com/scribeapp/scribe/internal/repositories/mongo"
)

const (
	defaultPollInterval     = 5 * time.Second
	defaultProgressInterval = 800 * time.Millisecond

	progressCeiling = 95

	textIDCacheTTL = 12 * time.Hour
)

// Backend is the slice of the transcription API the observer drives.
type Backend interface {
	TranscriptionStatus(ctx context.Context, userID, fileID string) (*models.TranscriptionStatus, error)
	Transcript(ctx context.Context, userID, fileID string) (*backend.TranscriptResult, error)
	UploadText(ctx context.Context, req backend.TextUploadRequest) (string, error)
	RefreshMediaURL(ctx context.Context, userID, fileURL string) (string, error)
}

// RecordStore persists the resolved text id back onto the upload record.
type RecordStore interface {
	UpdateRecord(ctx context.Context, userID, id string, patch mongorepo.UploadPatch) error
}

type Config struct {
	PollInterval     time.Duration
	ProgressInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = defaultProgressInterval
	}
	return c
}

// Snapshot is the view model the presentation layer renders.
type Snapshot struct {
	FileID        string          `json:"file_id"`
	State         models.JobState `json:"state"`
	Transcript    string          `json:"transcript,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	Progress      int             `json:"progress"`
	TextID        string          `json:"text_id,omitempty"`
	FileURL       string          `json:"file_url,omitempty"`
}

// Observer drives one externally executed transcription job to a terminal
// state. It owns the in-memory record while attached; nothing else writes it.
type Observer struct {
	backend Backend
	store   RecordStore // optional
	cache   cache.Cache // optional
	log     *logrus.Logger
	cfg     Config

	userID string
	rec    models.UploadRecord

	mu            sync.Mutex
	state         models.JobState
	transcript    string
	failureReason string
	progress      int
	textID        string

	cancel  context.CancelFunc
	done    chan struct{}
	updates chan Snapshot
}

func New(b Backend, store RecordStore, c cache.Cache, log *logrus.Logger, cfg Config) *Observer {
	if log == nil {
		log = logrus.New()
	}
	return &Observer{
		backend: b,
		store:   store,
		cache:   c,
		log:     log,
		cfg:     cfg.withDefaults(),
		state:   models.JobProcessing,
		updates: make(chan Snapshot, 16),
	}
}

// Attach starts observing. The first status check fires immediately; after
// that the poll cadence applies. A second Attach on a live observer is a
// no-op: there is never more than one poll timer per observer.
func (o *Observer) Attach(ctx context.Context, userID string, rec models.UploadRecord) {
	ctx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	if o.done != nil {
		o.mu.Unlock()
		cancel()
		return
	}
	o.userID = userID
	o.rec = rec
	o.textID = rec.TextID
	done := make(chan struct{})
	o.done = done
	o.cancel = cancel
	o.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		o.refreshMediaURL(ctx)
		o.pollLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		o.progressLoop(ctx)
	}()
	go func() {
		wg.Wait()
		close(done)
	}()
}

// Detach cancels both recurring timers and waits for the loops to exit.
// Safe to call more than once.
func (o *Observer) Detach() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed once both the poll and progress loops have stopped.
func (o *Observer) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

func (o *Observer) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Updates yields a snapshot after every state or progress change. Slow
// consumers miss intermediate snapshots, never the latest.
func (o *Observer) Updates() <-chan Snapshot {
	return o.updates
}

func (o *Observer) snapshotLocked() Snapshot {
	return Snapshot{
		FileID:        o.rec.ID,
		State:         o.state,
		Transcript:    o.transcript,
		FailureReason: o.failureReason,
		Progress:      o.progress,
		TextID:        o.textID,
		FileURL:       o.rec.FileURL,
	}
}

func (o *Observer) notifyLocked() {
	snap := o.snapshotLocked()
	select {
	case o.updates <- snap:
	default:
		select {
		case <-o.updates:
		default:
		}
		select {
		case o.updates <- snap:
		default:
		}
	}
}

func (o *Observer) pollLoop(ctx context.Context) {
	t := time.NewTicker(o.cfg.PollInterval)
	defer t.Stop()

	for {
		if o.pollOnce(ctx) {
			// terminal: stop the progress timer as well
			o.cancel()
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// pollOnce runs one poll cycle and reports whether a terminal state was
// reached.
func (o *Observer) pollOnce(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	st, err := o.backend.TranscriptionStatus(ctx, o.userID, o.rec.ID)
	if err != nil {
		// a single failed poll is not job failure
		o.log.WithError(err).WithField("file_id", o.rec.ID).Debug("transcription status check failed")
		return false
	}

	switch st.Status {
	case models.RemoteCompleted:
		tr, err := o.backend.Transcript(ctx, o.userID, o.rec.ID)
		if err != nil || len(tr.Results.Transcripts) == 0 {
			// completion is confirmed by a successful body fetch, not by
			// status alone; retry on the next cycle
			o.log.WithError(err).WithField("file_id", o.rec.ID).Debug("transcript fetch failed")
			return false
		}
		text := tr.Results.Transcripts[0].Transcript
		o.resolveTextResource(ctx, text)
		o.complete(text)
		return true

	case models.RemoteFailed:
		o.fail(st.FailureReason)
		return true

	default:
		return false
	}
}

func (o *Observer) complete(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = models.JobSuccess
	o.transcript = text
	o.progress = 100
	o.notifyLocked()
}

func (o *Observer) fail(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = models.JobFailed
	o.failureReason = reason
	o.notifyLocked()
}

// resolveTextResource creates the backend text resource exactly once,
// guarded by the absence of a known text id.
func (o *Observer) resolveTextResource(ctx context.Context, text string) {
	o.mu.Lock()
	if o.textID != "" || text == "" {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	key := "text_id:" + o.userID + ":" + o.rec.ID
	if o.cache != nil {
		var cached string
		if hit, err := o.cache.GetJSON(ctx, key, &cached); err == nil && hit && cached != "" {
			o.adoptTextID(cached)
			return
		}
	}

	kind, _ := o.rec.Kind()
	textID, err := o.backend.UploadText(ctx, backend.TextUploadRequest{
		Text:     text,
		FileID:   o.rec.ID,
		UserID:   o.userID,
		FileType: string(kind),
	})
	if err != nil {
		o.log.WithError(err).WithField("file_id", o.rec.ID).Warn("text resource creation failed")
		return
	}

	o.adoptTextID(textID)
	if o.cache != nil {
		_ = o.cache.SetJSON(ctx, key, textID, textIDCacheTTL)
	}
	if o.store != nil {
		if err := o.store.UpdateRecord(ctx, o.userID, o.rec.ID, mongorepo.UploadPatch{TextID: &textID}); err != nil {
			o.log.WithError(err).WithField("file_id", o.rec.ID).Warn("failed to persist text id")
		}
	}
}

func (o *Observer) adoptTextID(textID string) {
	o.mu.Lock()
	o.textID = textID
	o.rec.TextID = textID
	o.notifyLocked()
	o.mu.Unlock()
}

// refreshMediaURL swaps a possibly expired media URL for a fresh one before
// playback. Runs once per attach.
func (o *Observer) refreshMediaURL(ctx context.Context) {
	if o.rec.FileURL == "" {
		return
	}
	fresh, err := o.backend.RefreshMediaURL(ctx, o.userID, o.rec.FileURL)
	if err != nil {
		o.log.WithError(err).WithField("file_id", o.rec.ID).Warn("media url refresh failed")
		return
	}
	o.mu.Lock()
	o.rec.FileURL = fresh
	o.notifyLocked()
	o.mu.Unlock()
}

func (o *Observer) progressLoop(ctx context.Context) {
	t := time.NewTicker(o.cfg.ProgressInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			o.advanceProgress()
		}
	}
}

// advanceProgress nudges the user-perceived percentage. It is cosmetic only
// and never feeds back into the state machine.
func (o *Observer) advanceProgress() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != models.JobProcessing {
		return
	}
	o.progress += 1 + rand.IntN(5)
	if o.progress > progressCeiling {
		o.progress = progressCeiling
	}
	o.notifyLocked()
}
