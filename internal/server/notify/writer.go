package notify

import (
	"context"
	"io"
	"sync"
)

// WriterSender prints rendered messages to w. For local development only;
// codes end up wherever w points.
type WriterSender struct {
	mu       sync.Mutex
	w        io.Writer
	template Template
}

func NewWriterSender(w io.Writer, template Template) *WriterSender {
	return &WriterSender{w: w, template: template}
}

func (s *WriterSender) Send(ctx context.Context, destination, code string) error {
	if err := validDestination(destination); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.template.Render(destination, code)
	if _, err := s.w.Write(append(msg, '\r', '\n')); err != nil {
		return err
	}
	return nil
}
