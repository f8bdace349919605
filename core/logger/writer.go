package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter owns a buffered fan-out of the log sinks. Handlers hand it
// finished lines; one goroutine writes them and flushes whenever the queue
// runs empty.
type asyncWriter struct {
	lines  chan []byte
	flushc chan chan error
	done   chan struct{}
	stop   sync.Once
	out    *bufio.Writer
	err    atomic.Pointer[error]
}

func newAsyncWriter(sinks []io.Writer, bufSize int) *asyncWriter {
	var targets []io.Writer
	for _, s := range sinks {
		if s != nil {
			targets = append(targets, s)
		}
	}
	if bufSize <= 0 {
		bufSize = 64 << 10
	}
	w := &asyncWriter{
		lines:  make(chan []byte, 512),
		flushc: make(chan chan error),
		done:   make(chan struct{}),
		out:    bufio.NewWriterSize(io.MultiWriter(targets...), bufSize),
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.record(w.out.Flush())
				return
			}
			w.put(line)
			if len(w.lines) == 0 {
				w.record(w.out.Flush())
			}
		case ack := <-w.flushc:
			for n := len(w.lines); n > 0; n-- {
				w.put(<-w.lines)
			}
			ack <- w.out.Flush()
		}
	}
}

func (w *asyncWriter) put(line []byte) {
	if len(line) == 0 {
		return
	}
	if _, err := w.out.Write(line); err != nil {
		w.record(err)
	}
}

// record keeps the first sink error; later writes report it.
func (w *asyncWriter) record(err error) {
	if err != nil {
		w.err.CompareAndSwap(nil, &err)
	}
}

func (w *asyncWriter) failure() error {
	if p := w.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Write queues a copy of p. It blocks while the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.failure(); err != nil {
		return err
	}
	if len(p) > 0 {
		w.lines <- append([]byte(nil), p...)
	}
	return nil
}

// Flush returns once every line queued before the call reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushc <- ack:
	case <-w.done:
		return w.failure()
	}
	if err := <-ack; err != nil {
		return err
	}
	return w.failure()
}

// Close drains the queue and stops the writer goroutine.
func (w *asyncWriter) Close() error {
	closed := false
	w.stop.Do(func() {
		close(w.lines)
		closed = true
	})
	<-w.done
	if !closed {
		return errWriterClosed
	}
	return w.failure()
}
