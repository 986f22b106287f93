package driver

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_CloseStopsReader(t *testing.T) {
	term := NewTerminal(strings.NewReader("first\nsecond\nthird\n"), io.Discard)

	got, err := term.Ask(context.Background(), "?")
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	// Nobody asks again; the reader is parked handing over "second".
	require.NoError(t, term.Close())
	select {
	case <-term.exited:
	case <-time.After(time.Second):
		t.Fatal("reader goroutine still running after Close")
	}

	_, err = term.Ask(context.Background(), "?")
	assert.ErrorIs(t, err, ErrInputClosed)
	assert.NoError(t, term.Close())
}
