// Command chat runs the advisor conversation in a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"mxdrAdvisor/internal/bootstrap"
	"mxdrAdvisor/internal/config"
	"mxdrAdvisor/internal/conversation"
	"mxdrAdvisor/internal/events"
	"mxdrAdvisor/internal/gateway"
	"mxdrAdvisor/internal/leads"
	"mxdrAdvisor/internal/logger"
	"mxdrAdvisor/internal/prompts"
)

const help = `commands:
  /samples              list sample openers
  /sample <n>           send sample opener n
  /lead <email> [phone] submit contact details and end the chat
  /close                end the chat and save the lead
  /reset                start over
  /quit                 exit`

// app holds what the chat loop talks to.
type app struct {
	Chat        gateway.ChatCompleter
	Images      gateway.ImageRenderer
	Leads       conversation.LeadSink
	AutoCapture bool
	Log         zerolog.Logger
}

func main() {
	var (
		autoCapture = flag.Bool("auto-capture", false, "save a lead after every turn")
		noImages    = flag.Bool("no-images", false, "skip image rendering")
		logLevel    = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.NewWithWriter(os.Stderr, *logLevel, "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := bootstrap.Store(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init store")
	}
	if store != nil {
		defer store.Close()
	}
	gw, err := bootstrap.Gateway(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init provider gateway")
	}

	a := app{
		Chat:        gw,
		Leads:       leads.NewRecorder(store, events.NewBroker(), log),
		AutoCapture: *autoCapture,
		Log:         log,
	}
	if !*noImages {
		a.Images = gw
	}

	if err := run(ctx, a, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("chat ended")
		os.Exit(1)
	}
}

func run(ctx context.Context, a app, in io.Reader, out io.Writer) error {
	orch := conversation.New(a.Chat, a.Images, conversation.Options{
		Leads:       a.Leads,
		AutoCapture: a.AutoCapture,
		OnMessage:   func(m conversation.Message) { printMessage(out, m) },
		Log:         a.Log,
	})

	session := conversation.NewSession()
	if err := orch.Start(ctx, session); err != nil {
		return err
	}
	fmt.Fprintln(out, help)

	samples := prompts.Samples()
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "\n[%s] > ", session.Stage().Label())
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")

		switch cmd {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := orch.Reset(ctx, session); err != nil {
				return err
			}
			continue
		case "/close":
			reportClose(out, orch.Close(ctx, session), "chat closed; use /reset to start over")
			continue
		case "/lead":
			fields := strings.Fields(arg)
			if len(fields) == 0 {
				fmt.Fprintln(out, "usage: /lead <email> [phone]")
				continue
			}
			contact := conversation.Contact{Email: fields[0]}
			if len(fields) > 1 {
				contact.Phone = strings.Join(fields[1:], " ")
			}
			reportClose(out, orch.SubmitContact(ctx, session, contact), "thanks, a specialist will be in touch")
			continue
		case "/samples":
			for i, s := range samples {
				fmt.Fprintf(out, "  %d. %s\n", i+1, s.Label)
			}
			continue
		case "/sample":
			var n int
			if _, err := fmt.Sscan(arg, &n); err != nil || n < 1 || n > len(samples) {
				fmt.Fprintf(out, "pick a sample between 1 and %d\n", len(samples))
				continue
			}
			line = samples[n-1].Message
			fmt.Fprintln(out, line)
		case "/help":
			fmt.Fprintln(out, help)
			continue
		}

		if _, err := orch.Submit(ctx, session, line); err != nil {
			switch {
			case errors.Is(err, conversation.ErrClosed):
				fmt.Fprintln(out, "chat is closed; use /reset to start over")
			case errors.Is(err, context.Canceled):
				return nil
			default:
				fmt.Fprintln(out, err)
			}
		}
		if session.RecommendationAvailable() && !session.Closed() {
			fmt.Fprintln(out, "(a recommendation is ready: /lead <email> to talk to a specialist)")
		}
	}
}

func reportClose(out io.Writer, err error, ok string) {
	switch {
	case err == nil:
		fmt.Fprintln(out, ok)
	case errors.Is(err, conversation.ErrClosed):
		fmt.Fprintln(out, "chat is already closed; use /reset to start over")
	default:
		fmt.Fprintln(out, err)
	}
}

func printMessage(out io.Writer, m conversation.Message) {
	switch m.Role {
	case conversation.RoleUser:
		return
	case conversation.RoleImage:
		label := "image"
		if m.Scene != nil && m.Scene.SceneGoal != "" {
			label = m.Scene.SceneGoal
		}
		fmt.Fprintf(out, "\n  [%s] %s\n", label, shorten(m.Image))
	default:
		fmt.Fprintf(out, "\nadvisor: %s\n", m.Content)
	}
}

func shorten(uri string) string {
	if strings.HasPrefix(uri, "data:") && len(uri) > 48 {
		return uri[:48] + "..."
	}
	return uri
}
