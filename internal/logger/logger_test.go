package logger

import (
	"context"
	"sync"
	"testing"

	common_models "go-freight/internal/common/models"
	"go-freight/internal/config"

	"go.uber.org/zap"
)

type memorySink struct {
	mu   sync.Mutex
	logs []common_models.Log
}

func (s *memorySink) InsertOne(ctx context.Context, document interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, document.(common_models.Log))
	return nil
}

func TestLoggerPersistsContextFields(t *testing.T) {
	sink := &memorySink{}
	writer := newDBLogWriter(sink, "freight-test", 10)
	log, err := build(&config.Config{AppId: "freight-test"}, writer)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	log.With(zap.String(FieldResource, "consignments")).
		Warn("page fetch failed", zap.String(FieldRequestID, "abc123"), zap.String(FieldUserID, "u1"))
	writer.Close()

	if len(sink.logs) != 1 {
		t.Fatalf("Expected 1 persisted log, got %d", len(sink.logs))
	}
	got := sink.logs[0]
	if got.Message != "page fetch failed" || got.LogLevelId != 30 {
		t.Errorf("Unexpected log: %+v", got)
	}
	if got.Resource != "consignments" || got.RequestID != "abc123" || got.UserID != "u1" {
		t.Errorf("Expected context fields to be persisted, got %+v", got)
	}
	if got.AppID != "freight-test" {
		t.Errorf("Expected app id freight-test, got %q", got.AppID)
	}
}

func TestAddLogDropsWhenFull(t *testing.T) {
	w := &DBLogWriter{logChan: make(chan LogEntry, 1), done: make(chan struct{})}
	w.AddLog(LogEntry{Message: "first"})
	w.AddLog(LogEntry{Message: "second"})

	if len(w.logChan) != 1 {
		t.Errorf("Expected buffer to hold 1 entry, got %d", len(w.logChan))
	}
}
