// internal/slave/engine_test.go
package slave

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-fleet/internal/rtu"
)

func newTestEngine(t *testing.T) (*Engine, *fakeTransport, *fakeClock) {
	t.Helper()
	tr := &fakeTransport{}
	clk := &fakeClock{t: time.Unix(0, 0)}

	e, err := New(Config{ID: testID, Silence: 2 * time.Millisecond, Now: clk.now}, testMap(), tr)
	require.NoError(t, err)
	return e, tr, clk
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(Config{ID: 0, Silence: time.Millisecond}, testMap(), &fakeTransport{})
	require.Error(t, err)

	_, err = New(Config{ID: 1, Silence: 0}, testMap(), &fakeTransport{})
	require.Error(t, err)

	_, err = New(Config{ID: 1, Silence: time.Millisecond}, nil, &fakeTransport{})
	require.Error(t, err)
}

func TestEngine_AnswersCompleteFrame(t *testing.T) {
	e, tr, _ := newTestEngine(t)

	tr.feed(request(0x03, 0x10, 0x05, 0x00, 0x02))
	require.NoError(t, e.Poll())

	require.Len(t, tr.tx, 1)
	require.Equal(t, []byte{testID, 0x03, 0x04, 0x12, 0x34, 0xAB, 0xCD}, tr.tx[0][:7])
	require.Equal(t, Idle, e.State())
	require.Equal(t, uint64(1), e.Stats().Frames)
}

func TestEngine_MisaddressedFrameIsSilent(t *testing.T) {
	e, tr, _ := newTestEngine(t)

	tr.feed(rtu.AppendCRC([]byte{testID + 1, 0x03, 0x10, 0x05, 0x00, 0x02}))
	require.NoError(t, e.Poll())

	require.Empty(t, tr.tx)
	require.Equal(t, Idle, e.State())
	require.Equal(t, uint64(1), e.Stats().Dropped)
}

func TestEngine_CorruptFrameIsSilent(t *testing.T) {
	e, tr, _ := newTestEngine(t)

	frame := request(0x03, 0x10, 0x05, 0x00, 0x02)
	frame[4] ^= 0x40
	tr.feed(frame)
	require.NoError(t, e.Poll())

	require.Empty(t, tr.tx)
	require.Equal(t, Idle, e.State())
}

func TestEngine_ExceptionAnswered(t *testing.T) {
	e, tr, _ := newTestEngine(t)

	tr.feed(request(0x03, 0x20, 0x00, 0x00, 0x01))
	require.NoError(t, e.Poll())

	require.Len(t, tr.tx, 1)
	require.Equal(t, []byte{testID, 0x83, byte(IllegalDataAddress)}, tr.tx[0][:3])
	require.Equal(t, uint64(1), e.Stats().Exceptions)
}

func TestEngine_FrameSplitAcrossPolls(t *testing.T) {
	e, tr, clk := newTestEngine(t)
	frame := request(0x04, 0x10, 0x05, 0x00, 0x01)

	tr.feed(frame[:3])
	require.NoError(t, e.Poll())
	require.Empty(t, tr.tx)

	clk.advance(500 * time.Microsecond)
	tr.feed(frame[3:])
	require.NoError(t, e.Poll())
	require.Len(t, tr.tx, 1)
}

func TestEngine_StalledPartialDiscarded(t *testing.T) {
	e, tr, clk := newTestEngine(t)

	tr.feed([]byte{testID, 0x03, 0x10})
	require.NoError(t, e.Poll())

	clk.advance(3 * time.Millisecond)
	require.NoError(t, e.Poll())
	require.Equal(t, uint64(1), e.Stats().Discarded)

	// the next frame is not polluted by the stale bytes
	tr.feed(request(0x04, 0x10, 0x05, 0x00, 0x01))
	require.NoError(t, e.Poll())
	require.Len(t, tr.tx, 1)
}

func TestEngine_StalePartialDroppedWhenNextFrameArrivesBeforePoll(t *testing.T) {
	e, tr, clk := newTestEngine(t)

	tr.feed([]byte{testID, 0x03, 0x10})
	require.NoError(t, e.Poll())

	// the gap passes with no Poll, then a full request lands
	clk.advance(10 * time.Millisecond)
	tr.feed(request(0x04, 0x10, 0x05, 0x00, 0x01))
	require.NoError(t, e.Poll())

	require.Len(t, tr.tx, 1)
	require.Equal(t, []byte{testID, 0x04, 0x02, 0x00, 100}, tr.tx[0][:5])
	require.Equal(t, uint64(1), e.Stats().Discarded)
	require.Zero(t, e.Stats().Dropped)
}

func TestEngine_UnknownFunctionEndedByGapBeforeNextFrame(t *testing.T) {
	e, tr, clk := newTestEngine(t)

	tr.feed(request(0x2B, 0x0E, 0x01, 0x00))
	require.NoError(t, e.Poll())
	require.Empty(t, tr.tx)

	clk.advance(10 * time.Millisecond)
	tr.feed(request(0x04, 0x10, 0x05, 0x00, 0x01))

	require.NoError(t, e.Poll())
	require.Len(t, tr.tx, 1)
	require.Equal(t, []byte{testID, 0xAB, byte(IllegalFunction)}, tr.tx[0][:3])

	require.NoError(t, e.Poll())
	require.Len(t, tr.tx, 2)
	require.Equal(t, []byte{testID, 0x04, 0x02}, tr.tx[1][:3])
}

func TestEngine_UnknownFunctionFramedBySilence(t *testing.T) {
	e, tr, clk := newTestEngine(t)

	tr.feed(request(0x2B, 0x0E, 0x01, 0x00))
	require.NoError(t, e.Poll())
	require.Empty(t, tr.tx)

	clk.advance(3 * time.Millisecond)
	require.NoError(t, e.Poll())
	require.Len(t, tr.tx, 1)
	require.Equal(t, []byte{testID, 0xAB, byte(IllegalFunction)}, tr.tx[0][:3])
}

func TestEngine_BackToBackFrames(t *testing.T) {
	e, tr, _ := newTestEngine(t)

	tr.feed(request(0x04, 0x10, 0x05, 0x00, 0x01))
	tr.feed(request(0x04, 0x10, 0x06, 0x00, 0x01))

	require.NoError(t, e.Poll())
	require.Len(t, tr.tx, 1)
	require.NoError(t, e.Poll())
	require.Len(t, tr.tx, 2)
}

func TestEngine_WriteRaisesNotifier(t *testing.T) {
	e, tr, _ := newTestEngine(t)

	tr.feed(request(0x06, 0x10, 0x05, 0x00, 0x07))
	require.NoError(t, e.Poll())

	ev, ok := e.Notifier().Take()
	require.True(t, ok)
	require.Equal(t, uint16(0x1005), ev.Start)
}

func TestEngine_WriteErrorReturned(t *testing.T) {
	e, tr, _ := newTestEngine(t)
	tr.failWrite = errors.New("line down")

	tr.feed(request(0x04, 0x10, 0x05, 0x00, 0x01))
	require.Error(t, e.Poll())
	require.Equal(t, Idle, e.State())
}
