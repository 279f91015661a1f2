/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package executor

import (
	"sync/atomic"
	"time"
)

// Clock supplies the seconds stamped into record metadata.
type Clock interface {
	Now() int64
}

// SystemClock reads wall-clock unix seconds.
type SystemClock struct{}

func (SystemClock) Now() int64 { return time.Now().Unix() }

// FixedClock always returns the same second.
type FixedClock int64

func (c FixedClock) Now() int64 { return int64(c) }

// StepClock returns start, start+step, start+2*step and so on. Safe for
// concurrent use.
type StepClock struct {
	next atomic.Int64
	step int64
}

// NewStepClock returns a clock whose first reading is start.
func NewStepClock(start, step int64) *StepClock {
	c := &StepClock{step: step}
	c.next.Store(start)
	return c
}

func (c *StepClock) Now() int64 {
	return c.next.Add(c.step) - c.step
}
