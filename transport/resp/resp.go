// Package resp exposes a stroming.StreamStore over the Redis protocol.
//
//	PING [message]
//	QUIT
//	WRITE <stream> <expected_version> <type> <data> [<type> <data> ...]
//	READ <stream> [FORWARDS|BACKWARDS]
//	READALL [from] [FORWARDS|BACKWARDS]
package resp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/terraskye/stroming"
	"github.com/tidwall/redcon"
)

var (
	ErrUnknownCommand = errors.New("ERR unknown command")
	ErrWrongNumArgs   = errors.New("ERR wrong number of arguments")
)

// Server serves the stream store over RESP.
type Server struct {
	store  stroming.StreamStore
	logger *logrus.Entry
}

// NewServer builds the RESP surface for store.
func NewServer(store stroming.StreamStore, logger *logrus.Entry) *Server {
	return &Server{store: store, logger: logger}
}

type client struct {
	ctx context.Context
}

// Serve accepts connections on ln until ctx is cancelled. Cancelling closes
// the listener and every open connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.logger.WithField("addr", ln.Addr().String()).Info("resp transport listening")
	err := redcon.Serve(ln,
		func(conn redcon.Conn, cmd redcon.Command) {
			c := conn.Context().(*client)
			s.exec(c.ctx, conn, cmd)
			for _, cmd := range conn.ReadPipeline() {
				s.exec(c.ctx, conn, cmd)
			}
		},
		func(conn redcon.Conn) bool {
			conn.SetContext(&client{ctx: ctx})
			s.logger.WithField("remote", conn.RemoteAddr()).Debug("resp connection opened")
			return true
		},
		func(conn redcon.Conn, err error) {
			entry := s.logger.WithField("remote", conn.RemoteAddr())
			if err != nil {
				entry = entry.WithError(err)
			}
			entry.Debug("resp connection closed")
		},
	)
	if ctx.Err() != nil && errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) exec(ctx context.Context, conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) == 0 {
		conn.WriteError(ErrUnknownCommand.Error())
		return
	}
	args := cmd.Args[1:]

	switch strings.ToLower(string(cmd.Args[0])) {
	case "ping":
		switch len(args) {
		case 0:
			conn.WriteString("PONG")
		case 1:
			conn.WriteBulk(args[0])
		default:
			conn.WriteError(ErrWrongNumArgs.Error())
		}
	case "quit":
		conn.WriteString("OK")
		conn.Close()
	case "write":
		s.write(stroming.WithCorrelationID(ctx), conn, args)
	case "read":
		s.read(stroming.WithCorrelationID(ctx), conn, args)
	case "readall":
		s.readAll(stroming.WithCorrelationID(ctx), conn, args)
	default:
		conn.WriteError(fmt.Sprintf("%s '%s'", ErrUnknownCommand, cmd.Args[0]))
	}
}

func (s *Server) write(ctx context.Context, conn redcon.Conn, args [][]byte) {
	if len(args) < 2 || len(args)%2 != 0 {
		conn.WriteError(ErrWrongNumArgs.Error())
		return
	}
	expected, err := stroming.ParseExpectedVersion(string(args[1]))
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}

	pairs := args[2:]
	messages := make([]stroming.MessageData, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		messages = append(messages, stroming.MessageData{
			MessageType: string(pairs[i]),
			Data:        pairs[i+1],
		})
	}

	res, err := s.store.WriteToStream(ctx, string(args[0]), expected, messages)
	if err != nil {
		s.storeFailure(ctx, conn, err)
		return
	}
	switch r := res.(type) {
	case stroming.WriteOk:
		conn.WriteArray(2)
		conn.WriteUint64(r.Position.GlobalPosition)
		conn.WriteUint64(r.Position.Revision)
	case stroming.WrongExpectedVersion:
		conn.WriteError(fmt.Sprintf("WRONGVERSION expected %s actual %s",
			stroming.FormatVersion(r.Expected), stroming.FormatVersion(r.Actual)))
	default:
		s.storeFailure(ctx, conn, fmt.Errorf("unexpected write result %T", res))
	}
}

func (s *Server) read(ctx context.Context, conn redcon.Conn, args [][]byte) {
	if len(args) < 1 || len(args) > 2 {
		conn.WriteError(ErrWrongNumArgs.Error())
		return
	}
	direction := stroming.Forwards
	if len(args) == 2 {
		d, err := stroming.ParseDirection(string(args[1]))
		if err != nil {
			conn.WriteError("ERR " + err.Error())
			return
		}
		direction = d
	}

	version, messages, err := s.store.ReadFromStream(ctx, string(args[0]), direction)
	if err != nil {
		s.storeFailure(ctx, conn, err)
		return
	}

	conn.WriteArray(2)
	if r, ok := version.(stroming.Revision); ok {
		conn.WriteUint64(uint64(r))
	} else {
		conn.WriteInt(-1)
	}
	conn.WriteArray(len(messages))
	for i := range messages {
		writeMessage(conn, &messages[i], false)
	}
}

func (s *Server) readAll(ctx context.Context, conn redcon.Conn, args [][]byte) {
	if len(args) > 2 {
		conn.WriteError(ErrWrongNumArgs.Error())
		return
	}

	var (
		from      uint64
		fromSet   bool
		direction = stroming.Forwards
	)
	for _, arg := range args {
		if n, err := strconv.ParseUint(string(arg), 10, 64); err == nil && !fromSet {
			from, fromSet = n, true
			continue
		}
		d, err := stroming.ParseDirection(string(arg))
		if err != nil {
			conn.WriteError("ERR " + err.Error())
			return
		}
		direction = d
	}
	if !fromSet && direction == stroming.Backwards {
		from = ^uint64(0)
	}

	iter, err := s.store.ReadAll(ctx, from, direction)
	if err != nil {
		s.storeFailure(ctx, conn, err)
		return
	}
	defer iter.Close()
	messages, err := iter.All(ctx)
	if err != nil {
		s.storeFailure(ctx, conn, err)
		return
	}

	conn.WriteArray(len(messages))
	for _, m := range messages {
		writeMessage(conn, m, true)
	}
}

func writeMessage(conn redcon.Conn, m *stroming.Message, withStream bool) {
	if withStream {
		conn.WriteArray(6)
		conn.WriteBulkString(m.ID)
		conn.WriteBulkString(m.StreamName)
	} else {
		conn.WriteArray(5)
		conn.WriteBulkString(m.ID)
	}
	conn.WriteBulkString(m.MessageType)
	conn.WriteBulk(m.Data)
	conn.WriteUint64(m.Position.GlobalPosition)
	conn.WriteUint64(m.Position.Revision)
}

func (s *Server) storeFailure(ctx context.Context, conn redcon.Conn, err error) {
	switch {
	case errors.Is(err, stroming.ErrInvalidStreamName):
		conn.WriteError("ERR " + err.Error())
	case errors.Is(err, stroming.ErrStoreClosed):
		conn.WriteError("ERR stream store unavailable")
	default:
		s.logger.WithContext(ctx).WithError(err).Error("stream store operation failed")
		conn.WriteError("ERR internal error")
	}
}
