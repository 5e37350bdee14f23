package otel

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/terraskye/stroming"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var _ stroming.StreamStore = (*TelemetryStore)(nil)

// TelemetryStore traces and measures every call to the wrapped store.
type TelemetryStore struct {
	next   stroming.StreamStore
	tracer trace.Tracer
	in     *instruments
	attrs  []attribute.KeyValue
}

// WithStoreTelemetry wraps next with tracing and metrics.
func WithStoreTelemetry(next stroming.StreamStore, options ...Option) (*TelemetryStore, error) {
	cfg := newConfig(options)
	in, err := newInstruments(cfg.MeterProvider)
	if err != nil {
		return nil, fmt.Errorf("create store instruments: %w", err)
	}
	return &TelemetryStore{
		next:   next,
		tracer: newTracer(cfg.TracerProvider),
		in:     in,
		attrs:  cfg.Attributes,
	}, nil
}

func (t *TelemetryStore) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, t.attrs...)
	if id := stroming.CorrelationIDFromContext(ctx); id != "" {
		attrs = append(attrs, AttrCorrelationID.String(id))
	}
	return t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

func (t *TelemetryStore) measure(ctx context.Context, operation string, started time.Time, outcome string) {
	set := metric.WithAttributes(append([]attribute.KeyValue{
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	}, t.attrs...)...)
	t.in.duration.Record(ctx, float64(time.Since(started).Microseconds())/1000, set)
}

func (t *TelemetryStore) fail(ctx context.Context, span trace.Span, operation string, err error) {
	t.in.errors.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(operation)))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (t *TelemetryStore) WriteToStream(ctx context.Context, name string, expected stroming.StreamVersion, messages []stroming.MessageData) (stroming.WriteResult, error) {
	ctx, span := t.start(ctx, "StreamStore.WriteToStream",
		AttrOperation.String("write"),
		AttrStreamName.String(name),
		AttrExpectedVersion.String(stroming.FormatVersion(expected)),
		AttrMessageCount.Int(len(messages)),
	)
	defer span.End()

	started := time.Now()
	res, err := t.next.WriteToStream(ctx, name, expected, messages)
	t.in.writes.Add(ctx, 1, metric.WithAttributes(t.attrs...))

	if err != nil {
		t.measure(ctx, "write", started, "error")
		t.fail(ctx, span, "write", err)
		return res, err
	}

	switch r := res.(type) {
	case stroming.WriteOk:
		t.measure(ctx, "write", started, "ok")
		t.in.messagesAppended.Add(ctx, int64(len(messages)), metric.WithAttributes(t.attrs...))
		span.SetAttributes(
			AttrGlobalPosition.Int64(int64(r.Position.GlobalPosition)),
			AttrRevision.Int64(int64(r.Position.Revision)),
		)
		span.SetStatus(codes.Ok, "")
	case stroming.WrongExpectedVersion:
		t.measure(ctx, "write", started, "conflict")
		t.in.conflicts.Add(ctx, 1, metric.WithAttributes(t.attrs...))
		span.SetAttributes(AttrStreamVersion.String(stroming.FormatVersion(r.Actual)))
		span.AddEvent("wrong expected version")
	}

	return res, nil
}

func (t *TelemetryStore) ReadFromStream(ctx context.Context, name string, direction stroming.Direction) (stroming.StreamVersion, []stroming.Message, error) {
	ctx, span := t.start(ctx, "StreamStore.ReadFromStream",
		AttrOperation.String("read"),
		AttrStreamName.String(name),
		AttrDirection.String(direction.String()),
	)
	defer span.End()

	started := time.Now()
	version, messages, err := t.next.ReadFromStream(ctx, name, direction)
	t.in.reads.Add(ctx, 1, metric.WithAttributes(t.attrs...))

	if err != nil {
		t.measure(ctx, "read", started, "error")
		t.fail(ctx, span, "read", err)
		return version, messages, err
	}

	t.measure(ctx, "read", started, "ok")
	t.in.messagesRead.Add(ctx, int64(len(messages)), metric.WithAttributes(t.attrs...))
	span.SetAttributes(
		AttrStreamVersion.String(stroming.FormatVersion(version)),
		AttrMessageCount.Int(len(messages)),
	)
	span.SetStatus(codes.Ok, "")
	return version, messages, nil
}

// ReadAll traces the whole iteration: the span ends when the iterator is
// exhausted, fails or is closed, whichever happens first.
func (t *TelemetryStore) ReadAll(ctx context.Context, from uint64, direction stroming.Direction) (*stroming.Iterator[*stroming.Message], error) {
	ctx, span := t.start(ctx, "StreamStore.ReadAll",
		AttrOperation.String("read_all"),
		AttrFrom.Int64(int64(from)),
		AttrDirection.String(direction.String()),
	)

	started := time.Now()
	iter, err := t.next.ReadAll(ctx, from, direction)
	t.in.reads.Add(ctx, 1, metric.WithAttributes(t.attrs...))
	if err != nil {
		t.measure(ctx, "read_all", started, "error")
		t.fail(ctx, span, "read_all", err)
		span.End()
		return iter, err
	}

	var (
		count int64
		once  sync.Once
	)
	finish := func(err error) {
		once.Do(func() {
			span.SetAttributes(AttrMessageCount.Int64(count))
			t.in.messagesRead.Add(ctx, count, metric.WithAttributes(t.attrs...))
			if err != nil {
				t.measure(ctx, "read_all", started, "error")
				t.fail(ctx, span, "read_all", err)
			} else {
				t.measure(ctx, "read_all", started, "ok")
				span.SetStatus(codes.Ok, "")
			}
			span.End()
		})
	}

	return stroming.NewIteratorFuncWithClose(
		func(iterCtx context.Context) (*stroming.Message, error) {
			if iter.Next(iterCtx) {
				count++
				return iter.Value(), nil
			}
			if err := iter.Err(); err != nil {
				finish(err)
				return nil, err
			}
			finish(nil)
			return nil, io.EOF
		},
		func() {
			iter.Close()
			finish(nil)
		},
	), nil
}

func (t *TelemetryStore) Close() error {
	return t.next.Close()
}
