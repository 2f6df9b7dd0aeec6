package video

import (
	"image"
	"io"
	"testing"
	"time"
)

func TestQueuePreservesOrder(t *testing.T) {
	queued := Queue(2)(countingSource(4, 2, 2))

	for i := 0; i < 4; i++ {
		img, release, err := queued.Read()
		if err != nil {
			t.Fatal(err)
		}
		if got := frameIndex(t, img); got != i {
			t.Errorf("frame %d: got index %d", i, got)
		}
		release()
	}

	if _, _, err := queued.Read(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
	// The error is sticky.
	if _, _, err := queued.Read(); err != io.EOF {
		t.Errorf("expected io.EOF on repeated read, got %v", err)
	}
}

func TestQueueDecouplesUpstream(t *testing.T) {
	pulled := make(chan struct{}, 16)
	counting := countingSource(8, 2, 2)
	tapped := ReaderFunc(func() (image.Image, func(), error) {
		pulled <- struct{}{}
		return counting.Read()
	})

	queued := Queue(4)(tapped)
	if _, _, err := queued.Read(); err != nil {
		t.Fatal(err)
	}

	// The pump keeps pulling ahead of the consumer until the buffer fills.
	deadline := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case <-pulled:
		case <-deadline:
			t.Fatal("queue did not prefetch from upstream")
		}
	}
}
