package logger

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterFansOut(t *testing.T) {
	var a, b bytes.Buffer
	w := newAsyncWriter([]io.Writer{&a, nil, &b}, 16)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Write([]byte("line\n"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.NoError(t, w.Flush())

	assert.Equal(t, 20, strings.Count(a.String(), "line\n"))
	assert.Equal(t, a.String(), b.String())
	require.NoError(t, w.Close())
}

func TestAsyncWriterCopiesInput(t *testing.T) {
	var out bytes.Buffer
	w := newAsyncWriter([]io.Writer{&out}, 0)

	p := []byte("abc\n")
	_, err := w.Write(p)
	require.NoError(t, err)
	p[0] = 'X'

	require.NoError(t, w.Close())
	assert.Equal(t, "abc\n", out.String())
}

func TestAsyncWriterClosed(t *testing.T) {
	var out bytes.Buffer
	w := newAsyncWriter([]io.Writer{&out}, 0)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err := w.Write([]byte("late\n"))
	assert.ErrorIs(t, err, errWriterClosed)
	assert.NoError(t, w.Flush())
	assert.Empty(t, out.String())
}

func TestAsyncWriterReportsSinkError(t *testing.T) {
	w := newAsyncWriter([]io.Writer{failingWriter{}}, 0)

	_, err := w.Write([]byte("x\n"))
	require.NoError(t, err)
	assert.EqualError(t, w.Flush(), "disk full")

	_, err = w.Write([]byte("y\n"))
	assert.EqualError(t, err, "disk full")
	assert.EqualError(t, w.Close(), "disk full")
}
