package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorTraversal(t *testing.T) {
	fake := newFakeStore().
		addString("a", 1).
		addString("b", 2).
		addString("c", 3).
		addString("d", 4).
		addString("e", 5)

	scn := NewCursorScanner(2, "")
	cursor := &Cursor{}
	assert.False(t, cursor.Done(), "fresh cursor must not be done")

	var all []string
	steps := 0
	for !cursor.Done() {
		keys, err := scn.NextBatch(context.Background(), fake, "node-1", cursor)
		require.NoError(t, err)
		all = append(all, keys...)
		steps++
	}

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, all)
	assert.Equal(t, 3, steps)
	assert.True(t, cursor.Done())
}

func TestCursorUnchangedOnError(t *testing.T) {
	fake := newFakeStore().addString("a", 1).addString("b", 2)
	fake.scanErrQueue = []error{errors.New("connection reset by peer")}

	scn := NewCursorScanner(1, "")
	cursor := &Cursor{}

	_, err := scn.NextBatch(context.Background(), fake, "node-1", cursor)
	require.Error(t, err)
	assert.False(t, cursor.Done())

	// A failed step must not advance the position: the retry resumes
	// from the same place and still sees every key.
	var all []string
	for !cursor.Done() {
		keys, err := scn.NextBatch(context.Background(), fake, "node-1", cursor)
		require.NoError(t, err)
		all = append(all, keys...)
	}
	assert.Equal(t, []string{"a", "b"}, all)
}

func TestScanErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"network reset", errors.New("read tcp: connection reset by peer"), true},
		{"timeout", errors.New("i/o timeout"), true},
		{"auth required", errors.New("NOAUTH Authentication required."), false},
		{"wrong password", errors.New("WRONGPASS invalid username-password pair"), false},
		{"missing permission", errors.New("NOPERM this user has no permissions"), false},
		{"cursor state lost", errors.New("ERR invalid cursor"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanErr := classifyScanError("node-1", tt.err)
			assert.Equal(t, tt.transient, scanErr.Transient)
			assert.Equal(t, "node-1", scanErr.Node)
			assert.ErrorIs(t, scanErr, tt.err)
		})
	}
}

func TestScanErrorMessage(t *testing.T) {
	fatal := &ScanError{Node: "10.0.0.1:6379", Transient: false, Err: errors.New("boom")}
	assert.Contains(t, fatal.Error(), "fatal")
	assert.Contains(t, fatal.Error(), "10.0.0.1:6379")

	transient := &ScanError{Node: "10.0.0.1:6379", Transient: true, Err: errors.New("boom")}
	assert.Contains(t, transient.Error(), "transient")
}
