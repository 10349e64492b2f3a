// skchat is a terminal client for the Sydneykids assistant. It streams
// replies into the terminal as they arrive, offers the assistant's
// quick-reply suggestions as numbered shortcuts, and keeps the
// conversation in the configured store between runs.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fabwinter/Sydneykids/chat"
	"github.com/fabwinter/Sydneykids/config"
	"github.com/fabwinter/Sydneykids/contrib/context/webpage"
	"github.com/fabwinter/Sydneykids/contrib/tokenizer/tiktoken"
	"github.com/fabwinter/Sydneykids/conversation"
	"github.com/fabwinter/Sydneykids/conversation/store"
	skerrors "github.com/fabwinter/Sydneykids/errors"
	"github.com/fabwinter/Sydneykids/message"
	"github.com/fabwinter/Sydneykids/notify"
	"github.com/fabwinter/Sydneykids/pkg/logging"
	"github.com/fabwinter/Sydneykids/pkg/telemetry"
	"github.com/fabwinter/Sydneykids/profile"
	"github.com/fabwinter/Sydneykids/prompt"
	"github.com/fabwinter/Sydneykids/reply"
	"github.com/fabwinter/Sydneykids/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.WithComponent("skchat")
	ctx := context.Background()

	if cfg.Telemetry {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:    "sydneykids-chat",
			ServiceVersion: "dev",
			Environment:    "local",
		})
		if err != nil {
			log.Fatalf("telemetry: %v", err)
		}
		defer shutdown(ctx)
	}

	convStore, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	activity := profile.NewMemorySource()
	var source profile.Source = activity
	if cfg.Unfurl {
		source = webpage.NewAnnotatingSource(activity, nil)
	}

	client := chat.New(
		chat.WithTransport(transport.New(transport.DefaultConfig().
			WithAPIKey(cfg.APIKey).
			WithBaseURL(cfg.BaseURL).
			WithModel(cfg.Model))),
		chat.WithModel(cfg.Model),
		chat.WithUser(cfg.User),
		chat.WithConversationID(cfg.ConversationID),
		chat.WithStore(convStore),
		chat.WithProfile(&profile.StaticProvider{Context: userContext(cfg)}),
		chat.WithActivity(source),
		chat.WithComposer(buildComposer(cfg, logger)),
		chat.WithContextLimit(cfg.ContextLimit),
		chat.WithReadTimeout(cfg.ReadTimeout),
		chat.WithNotifier(notify.Func(func(level notify.Level, text string) {
			fmt.Fprintf(os.Stderr, "\n[%s] %s\n", level, text)
		})),
	)

	if err := client.Restore(ctx); err != nil {
		logger.Warn("could not restore conversation", "error", err)
	}

	printer := newPrinter()
	client.Conversation().OnUpdate(printer.update)

	// First Ctrl+C stops the in-flight reply, a second one quits.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	go func() {
		for range interrupts {
			if client.Busy() {
				client.Cancel()
				continue
			}
			fmt.Println()
			os.Exit(0)
		}
	}()

	printHistory(client.Conversation())
	fmt.Println(`Ask about things to do. Commands: /save <title> | <url>, /checkin <place>[, <suburb>], /clear, /quit`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nyou> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := runCommand(ctx, client, activity, input); quit {
				return
			}
			continue
		}

		// Bare numbers pick the matching quick-reply suggestion.
		if n, err := strconv.Atoi(input); err == nil {
			if picked, ok := printer.suggestion(n); ok {
				fmt.Printf("you> %s\n", picked)
				input = picked
			}
		}

		if _, err := client.Send(ctx, input); err != nil {
			switch {
			case errors.Is(err, skerrors.ErrReplyInProgress):
				fmt.Fprintln(os.Stderr, "a reply is still streaming")
			case errors.Is(err, skerrors.ErrStreamClosed):
				// Cancelled by the user; the partial reply is already shown.
			default:
				logger.Debug("send failed", "error", err)
			}
		}
	}
}

func buildStore(cfg *config.Config) (conversation.Store, error) {
	switch cfg.Store {
	case config.StoreRedis:
		return store.NewRedisStore(&store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), nil
	case config.StoreMongo:
		return store.NewMongoStore(&store.MongoConfig{URI: cfg.MongoURI})
	default:
		return store.NewInMemoryStore(), nil
	}
}

// buildComposer trims history with the model's real token counts when
// the encoding is known, and the composer's byte estimate otherwise.
func buildComposer(cfg *config.Config, logger *slog.Logger) *prompt.Composer {
	opts := []prompt.ComposerOption{prompt.WithHistoryBudget(cfg.HistoryBudget)}
	if tok, err := tiktoken.New(cfg.Model); err == nil {
		opts = append(opts, prompt.WithTokenizer(tok))
	} else {
		logger.Debug("no tokenizer for model, using byte estimate", "model", cfg.Model, "error", err)
	}
	return prompt.NewComposer(opts...)
}

func userContext(cfg *config.Config) *profile.UserContext {
	if cfg.DisplayName == "" && cfg.Suburb == "" {
		return nil
	}
	return &profile.UserContext{
		DisplayName: cfg.DisplayName,
		Suburb:      cfg.Suburb,
		HasLocation: cfg.Suburb != "",
	}
}

// runCommand handles slash commands, reporting whether to quit.
func runCommand(ctx context.Context, client *chat.Chat, activity *profile.MemorySource, input string) bool {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/clear":
		if err := client.Clear(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "clear failed: %v\n", err)
		} else {
			fmt.Println("conversation cleared")
		}
	case "/save":
		title, url, _ := strings.Cut(rest, "|")
		title = strings.TrimSpace(title)
		if title == "" {
			fmt.Fprintln(os.Stderr, "usage: /save <title> | <url>")
			break
		}
		activity.AddSavedItem(profile.SavedItem{
			Title:   title,
			URL:     strings.TrimSpace(url),
			SavedAt: time.Now(),
		})
		fmt.Printf("saved %q\n", title)
	case "/checkin":
		place, suburb, _ := strings.Cut(rest, ",")
		place = strings.TrimSpace(place)
		if place == "" {
			fmt.Fprintln(os.Stderr, "usage: /checkin <place>[, <suburb>]")
			break
		}
		activity.AddCheckIn(profile.CheckIn{
			Place:     place,
			Suburb:    strings.TrimSpace(suburb),
			VisitedAt: time.Now(),
		})
		fmt.Printf("checked in at %s\n", place)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s\n", cmd)
	}
	return false
}

func printHistory(conv *conversation.Conversation) {
	for _, msg := range conv.Messages() {
		switch msg.Role {
		case message.RoleUser:
			fmt.Printf("\nyou> %s\n", msg.Content)
		case message.RoleAssistant:
			fmt.Printf("\nsk> %s\n", msg.Content)
		}
	}
}

// printer streams assistant messages to the terminal. It prints only
// the part of the reply that cannot still turn into a quick-reply
// annotation, so marker bytes never hit the screen.
type printer struct {
	mu          sync.Mutex
	streamingID string
	printed     int
	suggestions []string
}

func newPrinter() *printer {
	return &printer{}
}

func (p *printer) update(msg *message.Message) {
	if msg.Role != message.RoleAssistant {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if msg.ID != p.streamingID {
		p.streamingID = msg.ID
		p.printed = 0
		p.suggestions = nil
		fmt.Print("\nsk> ")
	}

	content := msg.Content
	visible := len(content)
	if !msg.Completed {
		visible -= reply.Holdback(content)
	}
	if visible > p.printed {
		fmt.Print(content[p.printed:visible])
		p.printed = visible
	}

	if msg.Completed {
		fmt.Println()
		p.suggestions = msg.QuickReplies
		for i, s := range p.suggestions {
			fmt.Printf("  %d. %s\n", i+1, s)
		}
		p.streamingID = ""
	}
}

func (p *printer) suggestion(n int) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n < 1 || n > len(p.suggestions) {
		return "", false
	}
	return p.suggestions[n-1], true
}
