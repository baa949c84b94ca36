package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter fans lines out to its sinks from a single goroutine. Sinks are
// flushed whenever the queue runs empty.
type asyncWriter struct {
	lines   chan []byte
	flushes chan chan error
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once

	// sinks are touched only by loop.
	sinks []*bufio.Writer

	errMu sync.Mutex
	err   error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		lines:   make(chan []byte, 256),
		flushes: make(chan chan error),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case p := <-w.lines:
			w.write(p)
		case ack := <-w.flushes:
			w.drain()
			ack <- w.flush()
		case <-w.quit:
			w.drain()
			w.setErr(w.flush())
			return
		}
	}
}

// drain writes every line queued so far.
func (w *asyncWriter) drain() {
	for {
		select {
		case p := <-w.lines:
			w.write(p)
		default:
			return
		}
	}
}

func (w *asyncWriter) write(p []byte) {
	for _, s := range w.sinks {
		if _, err := s.Write(p); err != nil {
			w.setErr(err)
			return
		}
	}
	if len(w.lines) == 0 {
		w.setErr(w.flush())
	}
}

func (w *asyncWriter) flush() error {
	var errs []error
	for _, s := range w.sinks {
		errs = append(errs, s.Flush())
	}
	return errors.Join(errs...)
}

// Write queues a copy of p. It blocks while the queue is full so that no
// line is dropped.
func (w *asyncWriter) Write(p []byte) (int, error) {
	if err := w.firstErr(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	select {
	case <-w.quit:
		return 0, errWriterClosed
	default:
	}
	line := append([]byte(nil), p...)
	select {
	case w.lines <- line:
		return len(p), nil
	case <-w.quit:
		return 0, errWriterClosed
	}
}

// Flush blocks until every queued line reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushes <- ack:
		if err := <-ack; err != nil {
			return err
		}
		return w.firstErr()
	case <-w.done:
		return w.firstErr()
	}
}

// Close drains the queue and returns the first write error.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.quit) })
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

func (w *asyncWriter) setErr(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
