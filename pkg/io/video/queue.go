package video

import (
	"image"
	"io"
	"sync"
)

// Queue decouples a branch from its upstream the way a queue element does:
// a dedicated goroutine pulls frames into a bounded channel, so two branches
// hanging off the same tee progress independently. The goroutine starts on
// the first Read and exits when upstream errors. When the buffer is full the
// upstream pull blocks, applying backpressure instead of dropping.
func Queue(size int) TransformFunc {
	if size <= 0 {
		size = 1
	}

	return func(r Reader) Reader {
		type item struct {
			img     image.Image
			release func()
			err     error
		}

		var once sync.Once
		var mu sync.Mutex
		lastErr := io.EOF
		ch := make(chan item, size)

		pump := func() {
			go func() {
				for {
					img, release, err := r.Read()
					if err != nil {
						mu.Lock()
						lastErr = err
						mu.Unlock()
						close(ch)
						return
					}
					ch <- item{img: img, release: release}
				}
			}()
		}

		return ReaderFunc(func() (image.Image, func(), error) {
			once.Do(pump)
			it, ok := <-ch
			if !ok {
				mu.Lock()
				err := lastErr
				mu.Unlock()
				return nil, func() {}, err
			}
			release := it.release
			if release == nil {
				release = func() {}
			}
			return it.img, release, nil
		})
	}
}
