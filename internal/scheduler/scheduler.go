// Package scheduler implements the timed-release Scheduler (component C):
// it drains a time-ordered Batch and republishes each message at its
// original relative offset, measured against a monotonic clock, so that
// downstream subscribers observe the original cadence.
package scheduler

import (
	"time"

	"github.com/darkden-lab/logplay/internal/diag"
	"github.com/darkden-lab/logplay/internal/registry"
	"github.com/darkden-lab/logplay/internal/store"
)

var log = diag.New("scheduler")

// Run iterates batch and publishes each message through reg at the
// original relative offset from the first message's TimeReceived. It
// returns when the batch is drained or stopCh is closed, whichever comes
// first. The caller owns batch and must Close it; Run only reads from it.
func Run(batch store.Batch, reg *registry.Registry, stopCh <-chan struct{}) {
	start := time.Now()
	publishedFirst := false
	var firstMsgTime int64

	for batch.Next() {
		select {
		case <-stopCh:
			return
		default:
		}

		msg := batch.Message()

		if !publishedFirst {
			publishedFirst = true
			firstMsgTime = msg.TimeReceived
		} else {
			target := time.Duration(msg.TimeReceived-firstMsgTime) * time.Nanosecond
			now := time.Since(start)

			// A stop signal received while waiting aborts before this
			// message goes out: "wake, exit, mark finished" per spec.md
			// §7's error-handling table, not "publish then exit".
			if target > now && !waitUntil(target-now, stopCh) {
				return
			}
		}

		publish(reg, msg.Topic, msg.Type, msg.Data)
	}

	if err := batch.Err(); err != nil {
		log.Warnf("batch iteration ended with error: %v", err)
	}
}

// waitUntil blocks for d or until stopCh closes, whichever comes first. It
// returns false iff it was woken by stopCh rather than the timer — this is
// the interruptible sleep required by spec.md §4.C/§9: a select over a
// timer and the stop signal, rather than a plain sleep that cannot be
// woken early.
func waitUntil(d time.Duration, stopCh <-chan struct{}) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func publish(reg *registry.Registry, topic, typ string, data []byte) {
	pub := reg.Lookup(topic, typ)
	if pub == nil {
		log.Debugf("dropping message for %s:%s, no publisher registered", topic, typ)
		return
	}
	if err := pub.PublishRaw(data, typ); err != nil {
		log.Debugf("publish failed for %s:%s: %v", topic, typ, err)
	}
}
