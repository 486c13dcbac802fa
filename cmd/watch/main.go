// Command watch follows one question live and logs every change to it.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/emilythestrangee/qa-forum/backend/internal/app"
	"github.com/emilythestrangee/qa-forum/backend/internal/client"
	"github.com/emilythestrangee/qa-forum/backend/internal/config"
	"github.com/emilythestrangee/qa-forum/backend/internal/events"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

func main() {
	server := flag.String("server", "http://localhost:8000", "forum base URL")
	socketPath := flag.String("socket", "/socket", "websocket path")
	qid := flag.String("qid", "", "question id to follow")
	user := flag.String("user", "", "username used for vote status")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := app.NewLogger(config.LogConfig{Level: *level, Format: "text"})
	if *qid == "" {
		logger.Error("-qid is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *server, *socketPath, *qid, *user); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, server, socketPath, qid, user string) error {
	api, err := client.NewAPI(server, nil)
	if err != nil {
		return err
	}

	ws, err := url.Parse(server)
	if err != nil {
		return err
	}
	if ws.Scheme == "https" {
		ws.Scheme = "wss"
	} else {
		ws.Scheme = "ws"
	}
	ws = ws.JoinPath(socketPath)

	local := events.NewBus(logger, nil)
	stream := client.NewStream(ws.String(), local, logger)

	view := client.New(api, local, user, logger)
	view.OnChange(func(q *models.Question) {
		if q == nil {
			return
		}
		votes := view.VoteStatus()
		logger.Info("question changed",
			slog.String("title", q.Title),
			slog.Int("answers", len(q.Answers)),
			slog.Int("comments", len(q.Comments)),
			slog.Int("views", q.Views),
			slog.Int("votes", votes.Count),
			slog.Int("my_vote", int(votes.Voted)),
		)
	})

	errCh := make(chan error, 1)
	go func() { errCh <- stream.Run(ctx) }()

	if err := view.Mount(ctx, qid); err != nil {
		return err
	}
	defer view.Unmount()

	return <-errCh
}
