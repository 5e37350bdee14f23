package otel

import (
	"github.com/terraskye/stroming"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/terraskye/stroming"
)

// Semantic attribute keys following OpenTelemetry conventions
const (
	// Stream attributes
	AttrStreamName      = attribute.Key("stroming.stream.name")
	AttrExpectedVersion = attribute.Key("stroming.stream.expected_version")
	AttrStreamVersion   = attribute.Key("stroming.stream.version")
	AttrDirection       = attribute.Key("stroming.read.direction")
	AttrFrom            = attribute.Key("stroming.read.from")

	// Message attributes
	AttrMessageCount   = attribute.Key("stroming.messages.count")
	AttrGlobalPosition = attribute.Key("stroming.message.global_position")
	AttrRevision       = attribute.Key("stroming.message.revision")

	// Operation attributes
	AttrOperation     = attribute.Key("stroming.operation")
	AttrCorrelationID = attribute.Key("stroming.correlation_id")
	AttrOutcome       = attribute.Key("stroming.outcome")
)

type instruments struct {
	writes           metric.Int64Counter
	reads            metric.Int64Counter
	messagesAppended metric.Int64Counter
	messagesRead     metric.Int64Counter
	conflicts        metric.Int64Counter
	errors           metric.Int64Counter
	duration         metric.Float64Histogram
}

func newInstruments(mp metric.MeterProvider) (*instruments, error) {
	meter := mp.Meter(instrumentationName, metric.WithInstrumentationVersion(stroming.InstrumentationVersion))

	var (
		in  instruments
		err error
	)

	in.writes, err = meter.Int64Counter(
		"stroming.store.writes",
		metric.WithDescription("Number of write operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	in.reads, err = meter.Int64Counter(
		"stroming.store.reads",
		metric.WithDescription("Number of read operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	in.messagesAppended, err = meter.Int64Counter(
		"stroming.messages.appended",
		metric.WithDescription("Number of messages appended to streams"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	in.messagesRead, err = meter.Int64Counter(
		"stroming.messages.read",
		metric.WithDescription("Number of messages returned by reads"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	in.conflicts, err = meter.Int64Counter(
		"stroming.concurrency.conflicts",
		metric.WithDescription("Number of writes rejected with a wrong expected version"),
		metric.WithUnit("{conflict}"),
	)
	if err != nil {
		return nil, err
	}

	in.errors, err = meter.Int64Counter(
		"stroming.store.errors",
		metric.WithDescription("Number of failed store operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	in.duration, err = meter.Float64Histogram(
		"stroming.store.duration",
		metric.WithDescription("Stream store operation duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	if err != nil {
		return nil, err
	}

	return &in, nil
}

func newTracer(tp trace.TracerProvider) trace.Tracer {
	return tp.Tracer(instrumentationName, trace.WithInstrumentationVersion(stroming.InstrumentationVersion))
}
