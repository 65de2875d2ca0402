package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeapp/scribe/internal/backend"
	"github.com/scribeapp/scribe/internal/models"
	"github.com/scribeapp/scribe/internal/utils"
)

type fakeChatBackend struct {
	mu sync.Mutex

	questions []string
	answers   []string
	histErr   error

	askFn   func(q string) (string, error)
	askHits int
}

func (f *fakeChatBackend) History(ctx context.Context, textID string) ([]string, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.histErr != nil {
		return nil, nil, f.histErr
	}
	return f.questions, f.answers, nil
}

func (f *fakeChatBackend) Ask(ctx context.Context, req backend.AskRequest) (string, error) {
	f.mu.Lock()
	f.askHits++
	fn := f.askFn
	f.mu.Unlock()
	if fn != nil {
		return fn(req.Question)
	}
	return "answer to: " + req.Question, nil
}

func newTestReconciler(b Backend) *Reconciler {
	return NewReconciler(b, nil, "u1", "file-1", models.KindAudio, "text-1")
}

func TestLoadHistoryZipsPairs(t *testing.T) {
	b := &fakeChatBackend{
		questions: []string{"q1", "q2"},
		answers:   []string{"a1", "a2"},
	}
	r := newTestReconciler(b)

	turns, err := r.LoadHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, turns, 4)

	assert.Equal(t, models.RoleUser, turns[0].Role)
	assert.Equal(t, "q1", turns[0].Content)
	assert.Equal(t, models.RoleBot, turns[1].Role)
	assert.Equal(t, "a1", turns[1].Content)
	assert.Equal(t, "q2", turns[2].Content)
	assert.Equal(t, "a2", turns[3].Content)
}

func TestLoadHistoryDropsUnansweredTail(t *testing.T) {
	b := &fakeChatBackend{
		questions: []string{"q1", "q2", "q3"},
		answers:   []string{"a1"},
	}
	r := newTestReconciler(b)

	turns, err := r.LoadHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "q1", turns[0].Content)
	assert.Equal(t, "a1", turns[1].Content)
}

func TestLoadHistoryEmpty(t *testing.T) {
	r := newTestReconciler(&fakeChatBackend{})

	turns, err := r.LoadHistory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestLoadHistoryBackendError(t *testing.T) {
	r := newTestReconciler(&fakeChatBackend{histErr: assert.AnError})

	_, err := r.LoadHistory(context.Background())
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}

func TestSendMessageResolvesInPlace(t *testing.T) {
	b := &fakeChatBackend{}
	r := newTestReconciler(b)

	turn, err := r.SendMessage(context.Background(), "what was said?")
	require.NoError(t, err)
	require.NotNil(t, turn)
	assert.Equal(t, models.RoleBot, turn.Role)
	assert.Equal(t, "answer to: what was said?", turn.Content)
	assert.False(t, turn.Pending)

	turns := r.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, models.RoleUser, turns[0].Role)
	assert.Equal(t, "what was said?", turns[0].Content)
	assert.Equal(t, turn.ID, turns[1].ID)
	assert.Equal(t, turn.Content, turns[1].Content)
}

func TestSendMessageBlankIsNoOp(t *testing.T) {
	b := &fakeChatBackend{}
	r := newTestReconciler(b)

	turn, err := r.SendMessage(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, turn)
	assert.Empty(t, r.Turns())
	assert.Equal(t, 0, b.askHits)
}

func TestSendMessageWithoutTextID(t *testing.T) {
	r := NewReconciler(&fakeChatBackend{}, nil, "u1", "file-1", models.KindAudio, "")

	_, err := r.SendMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestSendMessageFallbackOnError(t *testing.T) {
	b := &fakeChatBackend{
		askFn: func(string) (string, error) { return "", assert.AnError },
	}
	r := newTestReconciler(b)

	turn, err := r.SendMessage(context.Background(), "doomed question")
	require.NoError(t, err, "a failed ask resolves the turn, it does not error")
	require.NotNil(t, turn)
	assert.Equal(t, FallbackAnswer, turn.Content)
	assert.False(t, turn.Pending)

	// the user turn stays; nothing is rolled back
	turns := r.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "doomed question", turns[0].Content)
}

func TestConcurrentSendsResolveOwnSlots(t *testing.T) {
	b := &fakeChatBackend{}
	r := newTestReconciler(b)

	var wg sync.WaitGroup
	questions := []string{"alpha", "beta", "gamma", "delta"}
	for _, q := range questions {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			turn, err := r.SendMessage(context.Background(), q)
			assert.NoError(t, err)
			assert.Equal(t, "answer to: "+q, turn.Content)
		}(q)
	}
	wg.Wait()

	turns := r.Turns()
	require.Len(t, turns, 2*len(questions))
	for _, turn := range turns {
		assert.False(t, turn.Pending)
		if turn.Role == models.RoleBot {
			assert.NotEqual(t, thinkingPlaceholder, turn.Content)
		}
	}
}

func TestTurnsOrderHistoryThenLive(t *testing.T) {
	b := &fakeChatBackend{
		questions: []string{"old question"},
		answers:   []string{"old answer"},
	}
	r := newTestReconciler(b)

	_, err := r.LoadHistory(context.Background())
	require.NoError(t, err)
	_, err = r.SendMessage(context.Background(), "new question")
	require.NoError(t, err)

	turns := r.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, "old question", turns[0].Content)
	assert.Equal(t, "old answer", turns[1].Content)
	assert.Equal(t, "new question", turns[2].Content)
}

func TestManagerReusesReconcilerAndAdoptsTextID(t *testing.T) {
	m := NewManager(&fakeChatBackend{}, nil)

	r1 := m.Get("u1", "file-1", models.KindAudio, "")
	r2 := m.Get("u1", "file-1", models.KindAudio, "text-late")
	assert.Same(t, r1, r2)

	// the late text id unblocks sends on the original reconciler
	_, err := r1.SendMessage(context.Background(), "now it works")
	assert.NoError(t, err)

	m.Drop("u1", "file-1")
	r3 := m.Get("u1", "file-1", models.KindAudio, "text-late")
	assert.NotSame(t, r1, r3)
}

func TestManagerDropUser(t *testing.T) {
	m := NewManager(&fakeChatBackend{}, nil)

	r1 := m.Get("u1", "file-1", models.KindAudio, "t")
	m.Get("u2", "file-1", models.KindAudio, "t")

	m.DropUser("u1")

	assert.NotSame(t, r1, m.Get("u1", "file-1", models.KindAudio, "t"))
}
