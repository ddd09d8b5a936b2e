package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jirevwe/gopool"
	"github.com/jirevwe/gopool/packer"
)

func main() {
	slogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	dir, err := os.Getwd()
	if err != nil {
		slogger.Error(err.Error())
		return
	}

	runner, err := gopool.NewRunner(&gopool.Config{
		Workers: 4,
		DBPath:  filepath.Join(dir, "gopool.db"),
		Logger:  slogger,
	})
	if err != nil {
		slogger.Error(err.Error())
		return
	}

	runner.Handle("greet", gopool.HandlerFunc(func(ctx context.Context, task *gopool.Task) error {
		var name string
		if err := packer.DecodeMessage(task.Payload, &name); err != nil {
			return err
		}

		slogger.Info(fmt.Sprintf("hello, %s!", name))
		return nil
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, name := range []string{"ada", "grace", "edsger"} {
		if _, err = runner.Enqueue(ctx, "greet", name); err != nil {
			slogger.Error(err.Error())
		}
	}

	if err = runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slogger.Error(err.Error())
	}

	if err = runner.Close(); err != nil {
		slogger.Error(err.Error())
	}
}
