package main

import (
	"log/slog"
	"os"

	"batchline/internal/app"
	"batchline/internal/infrastructure"
)

func main() {
	err := run()
	infrastructure.CloseLogFile()
	if err != nil {
		os.Exit(1)
	}
}

func run() error {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		return err
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
