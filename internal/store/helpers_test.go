package store_test

import (
	"io"
	"log/slog"
	"testing"

	"voicenotes/internal/dbtest"
)

func TestMain(m *testing.M) {
	dbtest.Main(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
