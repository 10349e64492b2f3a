// Package chat orchestrates one streaming assistant reply at a time:
// building the request from conversation history and profile context,
// decoding the response stream, and keeping the conversation's single
// assistant message per reply current while fragments arrive.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fabwinter/Sydneykids/conversation"
	skerrors "github.com/fabwinter/Sydneykids/errors"
	"github.com/fabwinter/Sydneykids/message"
	"github.com/fabwinter/Sydneykids/notify"
	"github.com/fabwinter/Sydneykids/pkg/logging"
	"github.com/fabwinter/Sydneykids/pkg/telemetry"
	"github.com/fabwinter/Sydneykids/profile"
	"github.com/fabwinter/Sydneykids/prompt"
	"github.com/fabwinter/Sydneykids/reply"
	"github.com/fabwinter/Sydneykids/sse"
	"github.com/fabwinter/Sydneykids/transport"
)

const (
	defaultConversationID = "assistant"
	defaultReadTimeout    = 30 * time.Second
	defaultContextLimit   = 5
)

const tracerName = "github.com/fabwinter/Sydneykids/chat"

// Chat drives the conversation with the assistant. One reply streams at
// a time; a second Send while one is in flight is refused.
type Chat struct {
	mu        sync.Mutex
	busy      bool
	body      io.ReadCloser
	cancelled bool

	conv      *conversation.Conversation
	transport transport.Client
	provider  profile.Provider
	source    profile.Source
	store     conversation.Store
	notifier  notify.Notifier
	composer  *prompt.Composer
	logger    *slog.Logger

	model        string
	user         string
	readTimeout  time.Duration
	contextLimit int
}

// Option is a function that configures a Chat
type Option func(*Chat)

// WithTransport sets the upstream transport
func WithTransport(t transport.Client) Option {
	return func(c *Chat) {
		c.transport = t
	}
}

// WithConversationID keys the conversation, used by persistence
func WithConversationID(id string) Option {
	return func(c *Chat) {
		if id != "" {
			c.conv = conversation.New(id)
		}
	}
}

// WithProfile sets the user context provider
func WithProfile(p profile.Provider) Option {
	return func(c *Chat) {
		c.provider = p
	}
}

// WithActivity sets the recent-activity source for prompt grounding
func WithActivity(s profile.Source) Option {
	return func(c *Chat) {
		c.source = s
	}
}

// WithStore enables conversation persistence
func WithStore(s conversation.Store) Option {
	return func(c *Chat) {
		c.store = s
	}
}

// WithNotifier sets where user-visible notices go
func WithNotifier(n notify.Notifier) Option {
	return func(c *Chat) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithComposer replaces the prompt composer
func WithComposer(cp *prompt.Composer) Option {
	return func(c *Chat) {
		if cp != nil {
			c.composer = cp
		}
	}
}

// WithLogger overrides the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Chat) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithModel sets the model requested upstream
func WithModel(model string) Option {
	return func(c *Chat) {
		c.model = model
	}
}

// WithUser sets the upstream end-user identifier
func WithUser(user string) Option {
	return func(c *Chat) {
		c.user = user
	}
}

// WithReadTimeout bounds how long a reply may stall between received
// chunks before the stream is abandoned. Zero disables the watchdog.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Chat) {
		c.readTimeout = d
	}
}

// WithContextLimit caps each recent-activity lookup
func WithContextLimit(n int) Option {
	return func(c *Chat) {
		if n > 0 {
			c.contextLimit = n
		}
	}
}

// New creates a chat with the given options.
//
// Example:
//
//	c := chat.New(
//		chat.WithTransport(transport.New(transport.DefaultConfig().WithAPIKey(key))),
//		chat.WithStore(store.NewInMemoryStore()),
//	)
func New(opts ...Option) *Chat {
	c := &Chat{
		conv:         conversation.New(defaultConversationID),
		notifier:     notify.NewLogNotifier(),
		composer:     prompt.NewComposer(),
		readTimeout:  defaultReadTimeout,
		contextLimit: defaultContextLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.WithComponent("chat")
	}
	return c
}

// Conversation returns the conversation this chat drives. Renderers
// subscribe to updates through it.
func (c *Chat) Conversation() *conversation.Conversation {
	return c.conv
}

// Busy reports whether a reply is currently streaming.
func (c *Chat) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Send submits user input and streams the assistant reply into the
// conversation. The assistant message appears with the first content
// fragment and is then replaced in place as the reply grows; the
// returned message is its final state. When the stream dies early the
// partial reply stays in the conversation, a notification is emitted
// and the error is returned alongside whatever was assembled.
func (c *Chat) Send(ctx context.Context, input string) (msg *message.Message, err error) {
	if c.transport == nil {
		return nil, fmt.Errorf("no transport configured: %w", skerrors.ErrInvalidInput)
	}
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("input cannot be empty: %w", skerrors.ErrInvalidInput)
	}

	if !c.acquire() {
		return nil, skerrors.ErrReplyInProgress
	}
	defer c.release()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "chat.send")
	span.SetAttributes(attribute.String("conversation.id", c.conv.ID()))
	defer func() { telemetry.End(span, err) }()

	c.logger.Info("sending message", "conversation", c.conv.ID(), "chars", len(input))
	c.conv.Append(message.NewMessage(message.RoleUser, input))

	turns, err := c.buildTurns(ctx)
	if err != nil {
		c.notifyFailure(err)
		return nil, err
	}

	body, err := c.transport.Open(ctx, &transport.Request{
		Model: c.model,
		Turns: turns,
		User:  c.user,
	})
	if err != nil {
		c.notifyFailure(err)
		return nil, err
	}
	defer body.Close()

	c.mu.Lock()
	c.body = body
	c.cancelled = false
	c.mu.Unlock()

	// Stall watchdog: closing the body is the only way to unblock a
	// pending read, so a stalled stream surfaces as a read error.
	var timedOut atomic.Bool
	var reader io.Reader = body
	if c.readTimeout > 0 {
		wd := time.AfterFunc(c.readTimeout, func() {
			timedOut.Store(true)
			body.Close()
		})
		defer wd.Stop()
		reader = &activityReader{r: body, wd: wd, d: c.readTimeout}
	}

	asm := reply.NewAssembler()
	stream := sse.NewStream(reader)

	var replyMsg *message.Message
	var streamErr error
	fragments := 0

	for delta, derr := range stream.Deltas() {
		if derr != nil {
			streamErr = derr
			break
		}
		fragments++
		view, ok := asm.Append(delta)
		if !ok {
			continue
		}
		if replyMsg == nil {
			replyMsg = message.NewStreamingMessage()
		}
		replyMsg.Content = view.Content
		replyMsg.QuickReplies = view.QuickReplies
		c.conv.Upsert(replyMsg)
	}

	span.SetAttributes(attribute.Int("reply.fragments", fragments))

	if replyMsg != nil {
		final := asm.Finalize()
		replyMsg.Content = final.Content
		replyMsg.QuickReplies = final.QuickReplies
		replyMsg.Completed = true
		c.conv.Upsert(replyMsg)
		span.SetAttributes(attribute.String("reply.id", replyMsg.ID))
		c.persist(ctx)
	}

	if streamErr != nil {
		if c.wasCancelled() {
			c.logger.Info("reply cancelled", "conversation", c.conv.ID(), "fragments", fragments)
			return message.Clone(replyMsg), fmt.Errorf("reply cancelled: %w", skerrors.ErrStreamClosed)
		}
		if timedOut.Load() {
			streamErr = fmt.Errorf("reply stalled for %s: %w", c.readTimeout, skerrors.ErrUpstream)
		}
		c.logger.Error("reply stream failed", "conversation", c.conv.ID(), "error", streamErr)
		c.notifyFailure(streamErr)
		return message.Clone(replyMsg), streamErr
	}

	c.logger.Info("reply complete", "conversation", c.conv.ID(), "fragments", fragments)
	return message.Clone(replyMsg), nil
}

// Cancel abandons the in-flight reply, if any. The conversation keeps
// whatever was already published. Safe to call repeatedly.
func (c *Chat) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.body != nil {
		c.cancelled = true
		c.body.Close()
		c.body = nil
	}
}

// Clear wipes the conversation and its persisted record. Refused while
// a reply is streaming.
func (c *Chat) Clear(ctx context.Context) error {
	c.mu.Lock()
	busy := c.busy
	c.mu.Unlock()
	if busy {
		return skerrors.ErrReplyInProgress
	}

	c.conv.Clear()
	if c.store != nil {
		if err := c.store.Delete(ctx, c.conv.ID()); err != nil && !errors.Is(err, skerrors.ErrNotFound) {
			return fmt.Errorf("failed to clear stored conversation: %w", err)
		}
	}
	return nil
}

// Restore loads the persisted conversation, if the store holds one.
func (c *Chat) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	record, err := c.store.Load(ctx, c.conv.ID())
	if err != nil {
		if errors.Is(err, skerrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to restore conversation: %w", err)
	}
	c.conv.Restore(record)
	c.logger.Info("conversation restored", "conversation", c.conv.ID(), "messages", len(record.Messages))
	return nil
}

func (c *Chat) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Chat) release() {
	c.mu.Lock()
	c.busy = false
	c.body = nil
	c.mu.Unlock()
}

func (c *Chat) wasCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// buildTurns assembles the upstream request: system prompt first, then
// the budget-trimmed history, which already includes the new input.
// Profile lookups are best effort; a failed one just leaves its section
// out of the prompt.
func (c *Chat) buildTurns(ctx context.Context) ([]transport.Turn, error) {
	pc := prompt.Context{Today: time.Now()}

	if c.provider != nil {
		user, err := c.provider.UserContext(ctx)
		if err != nil {
			c.logger.Warn("profile lookup failed", "error", err)
		} else {
			pc.User = user
		}
	}
	if c.source != nil {
		if items, err := c.source.RecentSavedItems(ctx, c.contextLimit); err != nil {
			c.logger.Warn("saved items lookup failed", "error", err)
		} else {
			pc.Saved = items
		}
		if visits, err := c.source.RecentCheckIns(ctx, c.contextLimit); err != nil {
			c.logger.Warn("check-ins lookup failed", "error", err)
		} else {
			pc.CheckIns = visits
		}
		if events, err := c.source.UpcomingEvents(ctx, c.contextLimit); err != nil {
			c.logger.Warn("calendar lookup failed", "error", err)
		} else {
			pc.Events = events
		}
	}

	system, err := c.composer.System(pc)
	if err != nil {
		return nil, fmt.Errorf("failed to build system prompt: %w", err)
	}

	history := c.composer.TrimHistory(c.conv.Messages())
	turns := make([]transport.Turn, 0, len(history)+1)
	turns = append(turns, transport.Turn{Role: string(message.RoleSystem), Content: system})
	for _, msg := range history {
		turns = append(turns, transport.Turn{Role: string(msg.Role), Content: msg.Content})
	}
	return turns, nil
}

func (c *Chat) persist(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, c.conv.Snapshot()); err != nil {
		c.logger.Warn("failed to persist conversation", "conversation", c.conv.ID(), "error", err)
	}
}

// notifyFailure emits exactly one user-visible notice for a failed send.
func (c *Chat) notifyFailure(err error) {
	switch {
	case errors.Is(err, skerrors.ErrRateLimited):
		c.notifier.Notify(notify.LevelWarn, "The assistant is getting a lot of questions right now. Give it a moment and try again.")
	case errors.Is(err, skerrors.ErrQuotaExhausted):
		c.notifier.Notify(notify.LevelError, "The assistant has hit its usage limit for now. Please try again later.")
	default:
		c.notifier.Notify(notify.LevelError, "Something went wrong while getting a reply. Please try again.")
	}
}

// activityReader resets the stall watchdog whenever bytes arrive, so
// keep-alive records count as liveness even though they carry nothing.
type activityReader struct {
	r  io.Reader
	wd *time.Timer
	d  time.Duration
}

func (r *activityReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.wd.Reset(r.d)
	}
	return n, err
}
