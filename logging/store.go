package logging

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/terraskye/stroming"
)

type storeLogger struct {
	logger *logrus.Entry
	next   stroming.StreamStore
}

// WithStoreLogging wraps a StreamStore with logging. Successful operations
// log at debug, conflicts at warn and failures at error.
func WithStoreLogging(logger *logrus.Entry, next stroming.StreamStore) stroming.StreamStore {
	return &storeLogger{logger: logger, next: next}
}

func (l *storeLogger) entry(ctx context.Context, stream string) *logrus.Entry {
	e := l.logger.WithContext(ctx)
	if stream != "" {
		e = e.WithField("stream", stream)
	}
	if id := stroming.CorrelationIDFromContext(ctx); id != "" {
		e = e.WithField("correlation_id", id)
	}
	return e
}

func (l *storeLogger) WriteToStream(ctx context.Context, name string, expected stroming.StreamVersion, messages []stroming.MessageData) (stroming.WriteResult, error) {
	e := l.entry(ctx, name).WithFields(logrus.Fields{
		"expected_version": stroming.FormatVersion(expected),
		"messages":         len(messages),
	})

	res, err := l.next.WriteToStream(ctx, name, expected, messages)
	if err != nil {
		e.WithError(err).Error("write to stream failed")
		return res, err
	}

	switch r := res.(type) {
	case stroming.WriteOk:
		e.WithFields(logrus.Fields{
			"position": r.Position.GlobalPosition,
			"revision": r.Position.Revision,
		}).Debug("wrote to stream")
	case stroming.WrongExpectedVersion:
		e.WithField("actual_version", stroming.FormatVersion(r.Actual)).Warn("wrong expected version")
	}
	return res, nil
}

func (l *storeLogger) ReadFromStream(ctx context.Context, name string, direction stroming.Direction) (stroming.StreamVersion, []stroming.Message, error) {
	e := l.entry(ctx, name).WithField("direction", direction.String())

	version, messages, err := l.next.ReadFromStream(ctx, name, direction)
	if err != nil {
		e.WithError(err).Error("read from stream failed")
		return version, messages, err
	}

	e.WithFields(logrus.Fields{
		"version":  stroming.FormatVersion(version),
		"messages": len(messages),
	}).Debug("read from stream")
	return version, messages, nil
}

func (l *storeLogger) ReadAll(ctx context.Context, from uint64, direction stroming.Direction) (*stroming.Iterator[*stroming.Message], error) {
	e := l.entry(ctx, "").WithFields(logrus.Fields{
		"from":      from,
		"direction": direction.String(),
	})

	iter, err := l.next.ReadAll(ctx, from, direction)
	if err != nil {
		e.WithError(err).Error("read all failed")
		return iter, err
	}
	e.Debug("reading all streams")
	return iter, nil
}

func (l *storeLogger) Close() error {
	err := l.next.Close()
	if err != nil {
		l.logger.WithError(err).Error("close stream store failed")
		return err
	}
	l.logger.Info("stream store closed")
	return nil
}
