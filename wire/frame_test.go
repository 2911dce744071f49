package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUUID = "e17ca57f-a8db-4a0d-b9a9-6ff9edc983fd"

func TestFrameRoundTrip(t *testing.T) {
	f := New(testUUID, true, 1, FlagGetByID, []byte("hello"))
	buf, err := f.Encode()
	require.NoError(t, err)

	length, ok := Check(buf)
	assert.True(t, ok)
	assert.Equal(t, len(buf), length)

	got, consumed, err := TryParse(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), consumed)
	assert.Equal(t, f.UserID, got.UserID)
	assert.True(t, got.HasUserID)
	assert.Equal(t, f.NRemainingFrames, got.NRemainingFrames)
	assert.Equal(t, f.MsgTypeFlag, got.MsgTypeFlag)
	assert.Equal(t, f.Data, got.Data)
}

func TestFrameSizeMatchesSpecExample(t *testing.T) {
	f := New(testUUID, true, 1, FlagGetByID, []byte("hello"))
	// header(13) + user_id(36) + "hello"(5)
	assert.Equal(t, 13+36+5, f.Size())
}

func TestFrameWithoutUserID(t *testing.T) {
	f := New("", false, 1, FlagData, []byte("payload"))
	buf, err := f.Encode()
	require.NoError(t, err)
	assert.Equal(t, 13+len("payload"), len(buf))

	got, _, err := TryParse(buf)
	require.NoError(t, err)
	assert.False(t, got.HasUserID)
	assert.Equal(t, "", got.UserID)
}

func TestEncodeMissingRequiredUserIDFails(t *testing.T) {
	f := New("", false, 1, FlagGetByID, []byte("id"))
	_, err := f.Encode()
	assert.Error(t, err)
}

func TestCheckNeedsMoreData(t *testing.T) {
	f := New(testUUID, true, 1, FlagGetByID, []byte("hello"))
	buf, err := f.Encode()
	require.NoError(t, err)

	_, ok := Check(buf[:5])
	assert.False(t, ok)

	_, ok = Check(buf[:len(buf)-1])
	assert.False(t, ok)

	_, ok = Check(buf)
	assert.True(t, ok)
}

func TestTryParseInvalidMagic(t *testing.T) {
	buf := bytes.Repeat([]byte{0}, 20)
	_, _, err := TryParse(buf)
	require.Error(t, err)
	var wireErr *Error
	require.ErrorAs(t, err, &wireErr)
	assert.Equal(t, ErrInvalidMagic, wireErr.Kind)
}

func TestTryParseShortBuffer(t *testing.T) {
	f := New(testUUID, true, 1, FlagGetByID, []byte("hello"))
	buf, err := f.Encode()
	require.NoError(t, err)

	_, _, err = TryParse(buf[:len(buf)-3])
	require.Error(t, err)
	var wireErr *Error
	require.ErrorAs(t, err, &wireErr)
	assert.Equal(t, ErrShortBuffer, wireErr.Kind)
}

func TestTryParseConsumesExactlyOneFrame(t *testing.T) {
	f1 := New(testUUID, true, 1, FlagGetByID, []byte("first"))
	f2 := New("", false, 1, FlagData, []byte("second"))

	b1, err := f1.Encode()
	require.NoError(t, err)
	b2, err := f2.Encode()
	require.NoError(t, err)

	buf := append(append([]byte{}, b1...), b2...)

	got1, n1, err := TryParse(buf)
	require.NoError(t, err)
	assert.Equal(t, len(b1), n1)
	assert.Equal(t, []byte("first"), got1.Data)

	got2, n2, err := TryParse(buf[n1:])
	require.NoError(t, err)
	assert.Equal(t, len(b2), n2)
	assert.Equal(t, []byte("second"), got2.Data)
}

func TestRequiresUserID(t *testing.T) {
	for _, flag := range []byte{FlagGetByID, FlagGetByPath, FlagPut, FlagSet, FlagRemove, FlagList} {
		assert.True(t, RequiresUserID(flag), "flag %q should require user_id", flag)
	}
	for _, flag := range []byte{FlagData, FlagError} {
		assert.False(t, RequiresUserID(flag), "flag %q should not require user_id", flag)
	}
}
