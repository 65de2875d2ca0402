package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scribeapp/scribe/internal/backend"
	"github.com/scribeapp/scribe/internal/models"
	"github.com/scribeapp/scribe/internal/utils"
)

// FallbackAnswer resolves a placeholder whose backend call failed; the
// conversation is never left with a permanent thinking bubble.
const FallbackAnswer = "Sorry, I encountered an error processing your request."

const thinkingPlaceholder = "Thinking..."

// Backend is the slice of the AI API the reconciler needs.
type Backend interface {
	History(ctx context.Context, textID string) (questions, answers []string, err error)
	Ask(ctx context.Context, req backend.AskRequest) (string, error)
}

// Reconciler merges stored question/answer history with live turns sent
// during the session. Turns render history first, then live, user/bot
// alternating. Live bot turns are resolved in place by their id, so
// concurrent sends cannot corrupt each other's slot.
type Reconciler struct {
	backend Backend
	log     *logrus.Logger

	userID string
	fileID string
	kind   models.MediaKind

	mu      sync.Mutex
	textID  string
	history []models.ChatTurn
	live    []models.ChatTurn
}

func NewReconciler(b Backend, log *logrus.Logger, userID, fileID string, kind models.MediaKind, textID string) *Reconciler {
	if log == nil {
		log = logrus.New()
	}
	return &Reconciler{
		backend: b,
		log:     log,
		userID:  userID,
		fileID:  fileID,
		kind:    kind,
		textID:  textID,
	}
}

// SetTextID adopts a text resource resolved after construction.
func (r *Reconciler) SetTextID(textID string) {
	r.mu.Lock()
	if r.textID == "" && textID != "" {
		r.textID = textID
	}
	r.mu.Unlock()
}

// LoadHistory fetches the stored parallel question/answer sequences and
// zips them into alternating user/bot turns. If answers is shorter than
// questions, trailing unanswered questions are dropped, not an error.
func (r *Reconciler) LoadHistory(ctx context.Context) ([]models.ChatTurn, error) {
	const op = "Reconciler.LoadHistory"

	r.mu.Lock()
	textID := r.textID
	r.mu.Unlock()
	if textID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text resource is not resolved yet", nil)
	}

	questions, answers, err := r.backend.History(ctx, textID)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load chat history", err)
	}

	n := len(questions)
	if len(answers) < n {
		n = len(answers)
	}

	turns := make([]models.ChatTurn, 0, 2*n)
	for i := 0; i < n; i++ {
		turns = append(turns,
			models.ChatTurn{ID: uuid.NewString(), Role: models.RoleUser, Content: questions[i]},
			models.ChatTurn{ID: uuid.NewString(), Role: models.RoleBot, Content: answers[i]},
		)
	}

	r.mu.Lock()
	r.history = turns
	r.mu.Unlock()
	return r.Turns(), nil
}

// SendMessage appends an optimistic user turn plus a pending bot turn, asks
// the backend, and resolves the pending turn in place. Blank content is a
// no-op: no turns, no backend call.
func (r *Reconciler) SendMessage(ctx context.Context, content string) (*models.ChatTurn, error) {
	const op = "Reconciler.SendMessage"

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	r.mu.Lock()
	textID := r.textID
	if textID == "" {
		r.mu.Unlock()
		return nil, utils.E(utils.CodeInvalidArgument, op, "text resource is not resolved yet", nil)
	}

	botID := uuid.NewString()
	r.live = append(r.live,
		models.ChatTurn{ID: uuid.NewString(), Role: models.RoleUser, Content: content},
		models.ChatTurn{ID: botID, Role: models.RoleBot, Content: thinkingPlaceholder, Pending: true},
	)
	r.mu.Unlock()

	answer, err := r.backend.Ask(ctx, backend.AskRequest{
		TextID:   textID,
		Question: content,
		UserID:   r.userID,
		FileID:   r.fileID,
		FileType: string(r.kind),
	})
	if err != nil {
		r.log.WithError(err).WithField("text_id", textID).Warn("ask failed")
		answer = FallbackAnswer
	}

	resolved := r.resolve(botID, answer)
	return resolved, nil
}

// resolve replaces the pending turn identified by id, in place.
func (r *Reconciler) resolve(id, answer string) *models.ChatTurn {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.live {
		if r.live[i].ID == id {
			r.live[i].Content = answer
			r.live[i].Pending = false
			t := r.live[i]
			return &t
		}
	}
	return nil
}

// Turns returns the rendered conversation: history..., live...
func (r *Reconciler) Turns() []models.ChatTurn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ChatTurn, 0, len(r.history)+len(r.live))
	out = append(out, r.history...)
	out = append(out, r.live...)
	return out
}
