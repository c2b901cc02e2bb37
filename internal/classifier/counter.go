package classifier

import "sync/atomic"

// int32Counter is a tiny concurrency-safe counter for tallying batch results
// across the errgroup goroutines in RunExtractionOnce/RunCategorizationOnce.
type int32Counter struct {
	v int32
}

func (c *int32Counter) inc() { atomic.AddInt32(&c.v, 1) }

func (c *int32Counter) get() int32 { return atomic.LoadInt32(&c.v) }
