package lifecycle

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"
)

// manualScheduler fires callbacks only when the test advances its clock.
// Callbacks run synchronously on the advancing goroutine, in due order.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	period  time.Duration
	seq     int
	f       func()
	stopped bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{}
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return s.add(d, 0, f)
}

func (s *manualScheduler) Every(d time.Duration, f func()) func() bool {
	return s.add(d, d, f)
}

func (s *manualScheduler) add(d, period time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{at: s.now + d, period: period, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		was := !t.stopped
		t.stopped = true
		return was
	}
}

func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		due := s.dueLocked(target)
		if due == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = due.at
		if due.period > 0 {
			due.at += due.period
		} else {
			due.stopped = true
		}
		f := due.f
		s.mu.Unlock()

		f()
	}
}

func (s *manualScheduler) dueLocked(target time.Duration) *manualTimer {
	var live []*manualTimer
	for _, t := range s.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	s.timers = live
	sort.Slice(live, func(i, j int) bool {
		if live[i].at != live[j].at {
			return live[i].at < live[j].at
		}
		return live[i].seq < live[j].seq
	})
	if len(live) == 0 || live[0].at > target {
		return nil
	}
	return live[0]
}

func (s *manualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func TestSystemSchedulerStopIsIdempotent(t *testing.T) {
	sched := SystemScheduler()

	fired := make(chan struct{}, 16)
	stop := sched.Every(time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	<-fired
	if !stop() {
		t.Fatal("expected first stop to report true")
	}
	if stop() {
		t.Fatal("expected second stop to be a no-op")
	}

	stopOnce := sched.AfterFunc(time.Hour, func() {})
	if !stopOnce() {
		t.Fatal("expected pending timer to stop")
	}
	if stopOnce() {
		t.Fatal("expected stopped timer to report false")
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
