package logger

import (
	"go.uber.org/zap/zapcore"
)

// Field keys copied from a log entry into the persisted record.
const (
	FieldIP        = "ip"
	FieldUserID    = "user_id"
	FieldRequestID = "request_id"
	FieldResource  = "resource"
)

// DBCore tees every entry that passes the level check into the async DB writer.
type DBCore struct {
	zapcore.Core
	writer *DBLogWriter
	fields []zapcore.Field
}

// NewDBCore wraps an existing core (like console logger) and adds DB logging
func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter) zapcore.Core {
	return &DBCore{
		Core:   baseCore,
		writer: writer,
	}
}

// With keeps fields attached through logger.With so they reach the DB record.
func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	return &DBCore{
		Core:   c.Core.With(fields),
		writer: c.writer,
		fields: append(append([]zapcore.Field(nil), c.fields...), fields...),
	}
}

func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	rec := LogEntry{
		Level:   entry.Level,
		Message: entry.Message,
		Caller:  entry.Caller.Function,
	}
	for _, set := range [][]zapcore.Field{c.fields, fields} {
		for _, f := range set {
			if f.Type != zapcore.StringType {
				continue
			}
			switch f.Key {
			case FieldIP:
				rec.IpAddress = f.String
			case FieldUserID:
				rec.UserID = f.String
			case FieldRequestID:
				rec.RequestID = f.String
			case FieldResource:
				rec.Resource = f.String
			}
		}
	}
	c.writer.AddLog(rec)

	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
