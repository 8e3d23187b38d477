package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordRoundTrip(t *testing.T) {
	var buf []byte
	buf = append(buf, Record('A', []byte{'x'})...)
	buf = append(buf, Record('B', []byte{'y', 'y'})...)

	body, rest, err := TakeWary('A', buf)
	assert.NoError(t, err)
	assert.Equal(t, []byte{'x'}, body)

	body2, _, err := TakeWary('B', rest)
	assert.NoError(t, err)
	assert.Equal(t, []byte{'y', 'y'}, body2)
}

func TestTakeWaryIncomplete(t *testing.T) {
	_, _, err := TakeWary('A', []byte{'a'})
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestTakeWaryBadType(t *testing.T) {
	rec := Record('A', []byte{'x'})
	_, _, err := TakeWary('B', rec)
	assert.ErrorIs(t, err, ErrBadRecord)
}

func TestLongFormat(t *testing.T) {
	body := make([]byte, 300)
	for i := range body {
		body[i] = byte(i)
	}
	rec := Record('Q', body)
	got, rest, err := TakeWary('Q', rec)
	assert.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Empty(t, rest)
}
