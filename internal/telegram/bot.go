package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/easeaico/finadvisor/internal/agent"
	"github.com/easeaico/finadvisor/internal/analysis"
	"github.com/easeaico/finadvisor/internal/types"
	"github.com/easeaico/finadvisor/internal/utils"
)

const (
	maxMessageSize = 4096
	retryDelay     = 5 * time.Second
	typingInterval = 4 * time.Second
)

// Advisor is the conversation service behind the bot.
type Advisor interface {
	HandleTurn(ctx context.Context, userID, message string) string
	HandleQuickAction(ctx context.Context, userID, actionID string) string
	HandleWebSearch(ctx context.Context, userID, query string) string
	Summary(ctx context.Context, userID string, detailed bool) string
	Welcome(ctx context.Context, userID, firstName string) string
}

// Options configure a Bot.
type Options struct {
	// APIURL overrides DefaultAPIURL.
	APIURL string
	Rand   types.Rand
	// Pace adds the human-like pauses before replies.
	Pace bool
}

// Bot long-polls Telegram and dispatches every update to its own goroutine.
type Bot struct {
	client  *Client
	advisor Advisor
	rnd     types.Rand
	pace    bool

	// awaiting holds users whose next message is a web search subject.
	awaiting sync.Map
	wg       sync.WaitGroup
}

// New creates a Bot.
func New(token string, advisor Advisor, opts Options) *Bot {
	rnd := opts.Rand
	if rnd == nil {
		rnd = utils.NewRand(0)
	}
	return &Bot{
		client:  NewClient(token, opts.APIURL),
		advisor: advisor,
		rnd:     rnd,
		pace:    opts.Pace,
	}
}

// Client exposes the underlying API client.
func (b *Bot) Client() *Client {
	return b.client
}

// Run polls until ctx is cancelled, then waits for in-flight updates.
func (b *Bot) Run(ctx context.Context) error {
	slog.Info("telegram polling started")
	// handlers outlive the poll loop so a shutdown lets running turns finish
	handlerCtx := context.WithoutCancel(ctx)

	var offset int64
	for {
		if ctx.Err() != nil {
			break
		}
		updates, err := b.client.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Warn("failed to get updates", "error", err.Error())
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.wg.Add(1)
			go func(u Update) {
				defer b.wg.Done()
				b.HandleUpdate(handlerCtx, u)
			}(u)
		}
	}

	slog.Info("telegram polling stopped, waiting for handlers")
	b.wg.Wait()
	return nil
}

// HandleUpdate routes one update.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && u.Message.Chat != nil && u.Message.From != nil:
		b.handleMessage(ctx, u.Message)
	}
}

// guard recovers a panicking handler and tells the user.
func (b *Bot) guard(ctx context.Context, name string, chatID int64, fallback string) {
	if err := recover(); err != nil {
		slog.Error("handler panic", "name", name, "chat_id", chatID, "error", err)
		b.send(ctx, chatID, fallback, SendOptions{})
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	chatID := msg.Chat.ID
	userID := userKey(msg.From.ID)

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, msg, text)
		return
	}

	defer b.guard(ctx, "message", chatID, agent.Apology)
	slog.Info("message received", "user_id", userID, "chars", utf8.RuneCountInString(text))

	if _, ok := b.awaiting.LoadAndDelete(userID); ok {
		b.handleWebSearch(ctx, chatID, userID, text)
		return
	}

	var thinkingID int64
	if b.rnd.Float64() < 0.5 {
		thinkingID = b.send(ctx, chatID, utils.Pick(b.rnd, thinkingMessages), SendOptions{})
	}

	stop := b.keepTyping(ctx, chatID)
	lo, hi := thinkingDelay(text)
	b.pause(ctx, lo, hi)
	reply := b.advisor.HandleTurn(ctx, userID, text)
	stop()

	if thinkingID != 0 {
		b.delete(ctx, chatID, thinkingID)
	}
	b.sendReply(ctx, chatID, reply)
	if reply != agent.Apology {
		b.maybeFollowUp(ctx, chatID, reply)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *Message, text string) {
	chatID := msg.Chat.ID
	userID := userKey(msg.From.ID)

	command := strings.Fields(text)[0]
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}

	switch command {
	case "/start":
		defer b.guard(ctx, "start", chatID, startErrorMessage)
		b.awaiting.Delete(userID)
		_ = b.client.SendTyping(ctx, chatID)
		welcome := b.advisor.Welcome(ctx, userID, msg.From.FirstName)
		b.send(ctx, chatID, welcome, SendOptions{Markup: MainKeyboard()})
	case "/resumo", "/resumo_completo":
		defer b.guard(ctx, "summary", chatID, agent.Apology)
		summary := b.advisor.Summary(ctx, userID, command == "/resumo_completo")
		b.sendHTML(ctx, chatID, summary)
	default:
		slog.Debug("unknown command ignored", "command", command)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *CallbackQuery) {
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	userID := userKey(cq.From.ID)
	defer b.guard(ctx, "callback", chatID, callbackErrorMessage)

	slog.Info("callback received", "user_id", userID, "data", cq.Data)
	if err := b.client.AnswerCallbackQuery(ctx, cq.ID); err != nil {
		slog.Warn("failed to answer callback", "error", err.Error())
	}

	if cq.Data == agent.ActionWebSearch {
		b.awaiting.Store(userID, struct{}{})
		b.send(ctx, chatID, b.advisor.HandleQuickAction(ctx, userID, cq.Data), SendOptions{})
		return
	}

	stop := b.keepTyping(ctx, chatID)
	b.pause(ctx, 1.0, 2.0)
	reply := b.advisor.HandleQuickAction(ctx, userID, cq.Data)
	stop()

	if reply == agent.UnknownAction {
		b.send(ctx, chatID, reply, SendOptions{})
		return
	}
	b.sendReply(ctx, chatID, reply)
}

func (b *Bot) handleWebSearch(ctx context.Context, chatID int64, userID, query string) {
	searchingID := b.send(ctx, chatID, searchingMessage, SendOptions{})
	stop := b.keepTyping(ctx, chatID)
	reply := b.advisor.HandleWebSearch(ctx, userID, query)
	stop()
	if searchingID != 0 {
		b.delete(ctx, chatID, searchingID)
	}

	if reply == agent.NoSearchResults {
		b.send(ctx, chatID, reply, SendOptions{})
		return
	}
	b.sendReply(ctx, chatID, reply)
}

// sendReply sends an advisor reply as legacy Markdown, split into
// Telegram-sized chunks.
func (b *Bot) sendReply(ctx context.Context, chatID int64, text string) {
	chunks := utils.SplitMessage(text, maxMessageSize)
	for i, chunk := range chunks {
		_, err := b.client.SendMessage(ctx, chatID, chunk, SendOptions{ParseMode: "Markdown"})
		if errors.Is(err, ErrParseEntities) {
			slog.Warn("markdown rejected, sending plain text", "chat_id", chatID)
			_, err = b.client.SendMessage(ctx, chatID, stripMarkdown(chunk), SendOptions{})
		}
		if err != nil {
			slog.Error("failed to send reply", "chat_id", chatID, "chunk", i+1, "error", err.Error())
			return
		}
		if i < len(chunks)-1 {
			_ = b.client.SendTyping(ctx, chatID)
			b.pause(ctx, 0.8, 0.8)
		}
	}
}

func (b *Bot) sendHTML(ctx context.Context, chatID int64, markdown string) {
	_, err := b.client.SendMessage(ctx, chatID, ToHTML(markdown), SendOptions{ParseMode: "HTML"})
	if errors.Is(err, ErrParseEntities) {
		b.send(ctx, chatID, stripMarkdown(markdown), SendOptions{})
		return
	}
	if err != nil {
		slog.Error("failed to send message", "chat_id", chatID, "error", err.Error())
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, opts SendOptions) int64 {
	id, err := b.client.SendMessage(ctx, chatID, text, opts)
	if err != nil {
		slog.Error("failed to send message", "chat_id", chatID, "error", err.Error())
		return 0
	}
	return id
}

func (b *Bot) delete(ctx context.Context, chatID, messageID int64) {
	if err := b.client.DeleteMessage(ctx, chatID, messageID); err != nil {
		slog.Warn("failed to delete message", "chat_id", chatID, "error", err.Error())
	}
}

// maybeFollowUp sometimes asks a follow-up question, more often after long
// replies.
func (b *Bot) maybeFollowUp(ctx context.Context, chatID int64, reply string) {
	long := utf8.RuneCountInString(reply) > longReplyRunes
	probability := 0.3
	if long {
		probability = 0.5
	}
	if b.rnd.Float64() >= probability {
		return
	}

	b.pause(ctx, 1.2, 1.2)
	_ = b.client.SendTyping(ctx, chatID)
	b.pause(ctx, 0.7, 0.7)

	pool := followUps
	if long {
		pool = detailedFollowUps
	}
	b.send(ctx, chatID, utils.Pick(b.rnd, pool), SendOptions{})
}

// keepTyping refreshes the typing indicator until the returned func is called.
func (b *Bot) keepTyping(ctx context.Context, chatID int64) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			if err := b.client.SendTyping(ctx, chatID); err != nil && ctx.Err() == nil {
				slog.Debug("failed to send typing action", "error", err.Error())
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (b *Bot) pause(ctx context.Context, minSeconds, maxSeconds float64) {
	if !b.pace {
		return
	}
	secs := minSeconds + b.rnd.Float64()*(maxSeconds-minSeconds)
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(secs * float64(time.Second))):
	}
}

// thinkingDelay returns the pause range, in seconds, before answering text.
func thinkingDelay(text string) (float64, float64) {
	lower := strings.ToLower(text)
	if analysis.WantsDetails(text) || containsAny(lower, slowKeywords) {
		return 2.0, 3.5
	}
	if utils.WordCount(text) > 15 {
		return 1.5, 3.0
	}
	return 1.0, 2.0
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
