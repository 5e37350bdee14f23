// Package storetest holds a behavioural test suite that every
// stroming.StreamStore implementation, including decorators, must pass.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/stretchr/testify/suite"
	"github.com/terraskye/stroming"
	"golang.org/x/sync/errgroup"
)

// Suite runs the StreamStore contract against the stores built by Factory.
type Suite struct {
	suite.Suite

	Factory func() stroming.StreamStore

	store stroming.StreamStore
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.store = s.Factory()
	s.ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	s.NoError(s.store.Close())
}

func msg(messageType, data string) stroming.MessageData {
	return stroming.MessageData{MessageType: messageType, Data: []byte(data)}
}

func (s *Suite) write(name string, expected stroming.StreamVersion, messages ...stroming.MessageData) stroming.WriteResult {
	res, err := s.store.WriteToStream(s.ctx, name, expected, messages)
	s.Require().NoError(err)
	return res
}

func (s *Suite) requireOk(res stroming.WriteResult) stroming.Position {
	ok, isOk := res.(stroming.WriteOk)
	s.Require().Truef(isOk, "expected WriteOk, got %#v", res)
	return ok.Position
}

func (s *Suite) read(name string, direction stroming.Direction) (stroming.StreamVersion, []stroming.Message) {
	version, messages, err := s.store.ReadFromStream(s.ctx, name, direction)
	s.Require().NoError(err)
	return version, messages
}

func (s *Suite) TestFirstWriteAndAppend() {
	pos := s.requireOk(s.write("orders-1", stroming.NoStream{}, msg("Created", "{}")))
	s.Equal(stroming.Position{GlobalPosition: 0, Revision: 0}, pos)

	pos = s.requireOk(s.write("orders-1", stroming.Revision(0), msg("Shipped", "{}")))
	s.Equal(stroming.Position{GlobalPosition: 1, Revision: 1}, pos)

	version, messages := s.read("orders-1", stroming.Forwards)
	s.True(stroming.VersionsEqual(stroming.Revision(1), version), "version %v", version)
	s.Require().Len(messages, 2)
	s.Equal("Created", messages[0].MessageType)
	s.Equal("Shipped", messages[1].MessageType)
	s.Equal([]byte("{}"), messages[0].Data)
	s.Equal("orders-1", messages[0].StreamName)
	s.NotEmpty(messages[0].ID)
	s.NotEqual(messages[0].ID, messages[1].ID)
}

func (s *Suite) TestWrongExpectedVersionLeavesStreamUnchanged() {
	s.requireOk(s.write("orders-1", stroming.NoStream{}, msg("Created", "{}")))
	s.requireOk(s.write("orders-1", stroming.Revision(0), msg("Shipped", "{}")))
	_, before := s.read("orders-1", stroming.Forwards)

	res := s.write("orders-1", stroming.Revision(5), msg("Cancelled", "{}"))
	conflict, ok := res.(stroming.WrongExpectedVersion)
	s.Require().Truef(ok, "expected WrongExpectedVersion, got %#v", res)
	s.Equal("orders-1", conflict.Stream)
	s.True(stroming.VersionsEqual(stroming.Revision(5), conflict.Expected))
	s.True(stroming.VersionsEqual(stroming.Revision(1), conflict.Actual))

	version, after := s.read("orders-1", stroming.Forwards)
	s.True(stroming.VersionsEqual(stroming.Revision(1), version))
	s.Equal(before, after)
}

func (s *Suite) TestNoStreamExpectationOnExistingStream() {
	s.requireOk(s.write("orders-1", stroming.NoStream{}, msg("Created", "{}")))

	res := s.write("orders-1", stroming.NoStream{}, msg("Created", "{}"))
	s.IsType(stroming.WrongExpectedVersion{}, res)
}

func (s *Suite) TestRevisionExpectationOnMissingStream() {
	res := s.write("orders-9", stroming.Revision(0), msg("Created", "{}"))
	s.IsType(stroming.WrongExpectedVersion{}, res)

	version, messages := s.read("orders-9", stroming.Forwards)
	s.IsType(stroming.NoStream{}, version)
	s.Empty(messages)
}

func (s *Suite) TestReadUnknownStream() {
	version, messages := s.read("orders-2", stroming.Forwards)
	s.IsType(stroming.NoStream{}, version)
	s.Empty(messages)
}

func (s *Suite) TestSequentialWritesYieldConsecutiveRevisions() {
	const k = 10
	var expected stroming.StreamVersion = stroming.NoStream{}
	for i := 0; i < k; i++ {
		pos := s.requireOk(s.write("counter", expected, msg("Incremented", fmt.Sprint(i))))
		s.Equal(uint64(i), pos.Revision)
		expected = stroming.Revision(pos.Revision)
	}

	_, messages := s.read("counter", stroming.Forwards)
	s.Require().Len(messages, k)
	for i, m := range messages {
		s.Equal(uint64(i), m.Position.Revision)
		s.Equal(fmt.Sprint(i), string(m.Data))
	}
}

func (s *Suite) TestBatchWrite() {
	pos := s.requireOk(s.write("cart", stroming.NoStream{},
		msg("Opened", "{}"), msg("ItemAdded", `{"sku":"a"}`), msg("ItemAdded", `{"sku":"b"}`)))
	s.Equal(stroming.Position{GlobalPosition: 2, Revision: 2}, pos)

	pos = s.requireOk(s.write("cart", stroming.Revision(2), msg("CheckedOut", "{}"), msg("Paid", "{}")))
	s.Equal(stroming.Position{GlobalPosition: 4, Revision: 4}, pos)

	version, messages := s.read("cart", stroming.Forwards)
	s.True(stroming.VersionsEqual(stroming.Revision(4), version))
	s.Len(messages, 5)
}

func (s *Suite) TestEmptyBatchIsNoOp() {
	pos := s.requireOk(s.write("empty", stroming.NoStream{}))
	s.Equal(stroming.Position{}, pos)

	version, messages := s.read("empty", stroming.Forwards)
	s.IsType(stroming.NoStream{}, version)
	s.Empty(messages)

	s.requireOk(s.write("empty", stroming.NoStream{}, msg("Created", "{}"), msg("Renamed", "{}")))
	pos = s.requireOk(s.write("empty", stroming.Revision(1)))
	s.Equal(stroming.Position{GlobalPosition: 1, Revision: 1}, pos)

	res := s.write("empty", stroming.Revision(0))
	s.IsType(stroming.WrongExpectedVersion{}, res)
}

func (s *Suite) TestBackwardsIsReverseOfForwards() {
	s.requireOk(s.write("orders-1", stroming.NoStream{}, msg("A", "1"), msg("B", "2"), msg("C", "3")))
	s.requireOk(s.write("other", stroming.NoStream{}, msg("X", "x")))
	s.requireOk(s.write("orders-1", stroming.Revision(2), msg("D", "4")))

	fv, forwards := s.read("orders-1", stroming.Forwards)
	bv, backwards := s.read("orders-1", stroming.Backwards)
	s.True(stroming.VersionsEqual(fv, bv))
	s.Require().Len(backwards, len(forwards))
	for i := range forwards {
		s.Equal(forwards[i], backwards[len(backwards)-1-i])
	}
	s.Equal(uint64(3), backwards[0].Position.Revision)
}

func (s *Suite) TestStreamsAreIndependent() {
	s.requireOk(s.write("a", stroming.NoStream{}, msg("A", "")))
	pos := s.requireOk(s.write("b", stroming.NoStream{}, msg("B", "")))
	s.Equal(stroming.Position{GlobalPosition: 1, Revision: 0}, pos)

	pos = s.requireOk(s.write("a", stroming.Revision(0), msg("A", "")))
	s.Equal(stroming.Position{GlobalPosition: 2, Revision: 1}, pos)

	bv, bm := s.read("b", stroming.Forwards)
	s.True(stroming.VersionsEqual(stroming.Revision(0), bv))
	s.Len(bm, 1)
}

func (s *Suite) TestReadAll() {
	s.requireOk(s.write("a", stroming.NoStream{}, msg("A0", "")))
	s.requireOk(s.write("b", stroming.NoStream{}, msg("B0", ""), msg("B1", "")))
	s.requireOk(s.write("a", stroming.Revision(0), msg("A1", "")))

	iter, err := s.store.ReadAll(s.ctx, 0, stroming.Forwards)
	s.Require().NoError(err)
	all, err := iter.All(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 4)
	types := make([]string, len(all))
	for i, m := range all {
		s.Equal(uint64(i), m.Position.GlobalPosition)
		types[i] = m.MessageType
	}
	s.Equal([]string{"A0", "B0", "B1", "A1"}, types)
	s.Equal("b", all[1].StreamName)

	iter, err = s.store.ReadAll(s.ctx, 2, stroming.Forwards)
	s.Require().NoError(err)
	tail, err := iter.All(s.ctx)
	s.Require().NoError(err)
	s.Len(tail, 2)

	iter, err = s.store.ReadAll(s.ctx, 100, stroming.Backwards)
	s.Require().NoError(err)
	backwards, err := iter.All(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(backwards, 4)
	s.Equal("A1", backwards[0].MessageType)
	s.Equal("A0", backwards[3].MessageType)

	iter, err = s.store.ReadAll(s.ctx, 100, stroming.Forwards)
	s.Require().NoError(err)
	none, err := iter.All(s.ctx)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestEmptyStreamNameIsRejected() {
	_, err := s.store.WriteToStream(s.ctx, "", stroming.NoStream{}, []stroming.MessageData{msg("A", "")})
	s.ErrorIs(err, stroming.ErrInvalidStreamName)
}

func (s *Suite) TestCancelledContextIsRejected() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.store.WriteToStream(ctx, "orders-1", stroming.NoStream{}, []stroming.MessageData{msg("A", "")})
	s.ErrorIs(err, context.Canceled)

	version, _ := s.read("orders-1", stroming.Forwards)
	s.IsType(stroming.NoStream{}, version)
}

func (s *Suite) TestConcurrentWritersToOneStream() {
	const writers = 16
	var (
		mu        sync.Mutex
		winners   int
		conflicts int
	)
	group, ctx := errgroup.WithContext(s.ctx)
	for i := 0; i < writers; i++ {
		group.Go(func() error {
			res, err := s.store.WriteToStream(ctx, "contended", stroming.NoStream{}, []stroming.MessageData{msg("Claimed", "")})
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			switch res.(type) {
			case stroming.WriteOk:
				winners++
			case stroming.WrongExpectedVersion:
				conflicts++
			}
			return nil
		})
	}
	s.Require().NoError(group.Wait())
	s.Equal(1, winners)
	s.Equal(writers-1, conflicts)

	version, messages := s.read("contended", stroming.Forwards)
	s.True(stroming.VersionsEqual(stroming.Revision(0), version))
	s.Len(messages, 1)
}

func (s *Suite) TestConcurrentWritersKeepGlobalPositionsGapFree() {
	const (
		streams   = 8
		perStream = 25
	)
	group, ctx := errgroup.WithContext(s.ctx)
	for i := 0; i < streams; i++ {
		name := fmt.Sprintf("stream-%d", i)
		group.Go(func() error {
			var expected stroming.StreamVersion = stroming.NoStream{}
			for j := 0; j < perStream; j++ {
				res, err := s.store.WriteToStream(ctx, name, expected, []stroming.MessageData{msg("Tick", fmt.Sprint(j))})
				if err != nil {
					return err
				}
				pos, err := stroming.ResultError(res)
				if err != nil {
					return err
				}
				expected = stroming.Revision(pos.Revision)
			}
			return nil
		})
		group.Go(func() error {
			for j := 0; j < perStream; j++ {
				if _, _, err := s.store.ReadFromStream(ctx, name, stroming.Backwards); err != nil {
					return err
				}
			}
			return nil
		})
	}
	s.Require().NoError(group.Wait())

	var positions []uint64
	for i := 0; i < streams; i++ {
		_, messages := s.read(fmt.Sprintf("stream-%d", i), stroming.Forwards)
		s.Require().Len(messages, perStream)
		for j, m := range messages {
			s.Equal(uint64(j), m.Position.Revision)
			positions = append(positions, m.Position.GlobalPosition)
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	for i, p := range positions {
		s.Require().Equal(uint64(i), p)
	}
}
