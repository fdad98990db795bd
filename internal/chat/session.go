package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaar-console/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
	"github.com/angelmondragon/bazaar-console/pkg/metrics"
)

// Session is a sequential exchange with the assistant. At most one send is in flight;
// a send issued while another is pending is rejected, not queued.
type Session struct {
	mu         sync.Mutex
	transcript []Message
	pending    bool

	completer Completer
	uploader  Uploader
	now       func() time.Time
	history   bool
	metrics   *metrics.ChatMetrics
	logg      *logger.Logger
}

type Option func(*Session)

func WithUploader(u Uploader) Option {
	return func(s *Session) {
		if u != nil {
			s.uploader = u
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithHistory sends the prior transcript along with each prompt.
func WithHistory(enabled bool) Option {
	return func(s *Session) {
		s.history = enabled
	}
}

func WithMetrics(m *metrics.ChatMetrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(s *Session) {
		if logg != nil {
			s.logg = logg
		}
	}
}

// NewSession starts an empty single-turn session.
func NewSession(completer Completer, opts ...Option) *Session {
	s := &Session{
		completer:  completer,
		now:        time.Now,
		logg:       logger.Nop(),
		transcript: []Message{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.completer == nil {
		s.completer = Unavailable("chat assistant is not configured")
	}
	if s.uploader == nil {
		s.uploader = NewLogUploader(s.logg, 0)
	}
	return s
}

// Send appends text as a user message and asks the assistant for a reply. Blank text and
// sends issued while another is pending are rejected without touching the transcript.
// On failure the transcript ends with the unanswered user message.
func (s *Session) Send(ctx context.Context, text string, attachment *Attachment) (Message, error) {
	if strings.TrimSpace(text) == "" {
		s.metrics.Observe(metrics.ChatOutcomeRejected, 0)
		return Message{}, pkgerrors.New(pkgerrors.CodeValidation, "message text is required")
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		s.metrics.Observe(metrics.ChatOutcomeRejected, 0)
		return Message{}, pkgerrors.New(pkgerrors.CodeConflict, "a message is already awaiting a reply")
	}
	var history []Message
	if s.history {
		history = append([]Message(nil), s.transcript...)
	}
	userMsg := s.newMessage(enums.MessageRoleUser, text)
	s.transcript = append(s.transcript, userMsg)
	s.pending = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
	}()

	started := time.Now()
	ctx = s.logg.WithField(ctx, "message_id", userMsg.ID.String())

	if attachment != nil {
		if err := s.uploader.Upload(ctx, *attachment); err != nil {
			s.metrics.Observe(metrics.ChatOutcomeAttachmentFailed, time.Since(started))
			s.logg.Error(ctx, "chat attachment upload failed", err)
			if pkgerrors.HasCode(err, pkgerrors.CodeAttachment) {
				return Message{}, err
			}
			return Message{}, pkgerrors.Wrap(pkgerrors.CodeAttachment, err, "attachment upload failed")
		}
	}

	reply, err := s.completer.Complete(ctx, Prompt{Text: text, History: history})
	if err != nil {
		s.metrics.Observe(metrics.ChatOutcomeFailed, time.Since(started))
		s.logg.Error(ctx, "chat completion failed", err)
		if pkgerrors.HasCode(err, pkgerrors.CodeChat) {
			return Message{}, err
		}
		return Message{}, pkgerrors.Wrap(pkgerrors.CodeChat, err, "error during chat request")
	}

	s.mu.Lock()
	assistant := s.newMessage(enums.MessageRoleAssistant, reply)
	s.transcript = append(s.transcript, assistant)
	s.mu.Unlock()

	s.metrics.Observe(metrics.ChatOutcomeReplied, time.Since(started))
	s.logg.Debug(ctx, "chat reply received")
	return assistant, nil
}

// Transcript returns a copy of the messages exchanged so far.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message{}, s.transcript...)
}

func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{Pending: s.pending, Messages: append([]Message{}, s.transcript...)}
}

func (s *Session) newMessage(role enums.MessageRole, text string) Message {
	return Message{ID: uuid.New(), Role: role, Text: text, CreatedAt: s.now().UTC()}
}
