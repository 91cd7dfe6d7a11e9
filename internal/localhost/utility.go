package localhost

import (
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/rewards/internal/host"
)

// GenerateGUID returns a UUIDv7. Time ordering keeps viewing ids sortable
// by creation.
func (h *Host) GenerateGUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source fails.
		return uuid.NewString()
	}
	return id.String()
}

func (h *Host) URIEncode(value string) string {
	return url.QueryEscape(value)
}

func (h *Host) Now() time.Time {
	return h.now()
}

// SetTimerHandler sets the function fired timers are delivered to on the
// loop, normally the engine's OnTimer.
func (h *Host) SetTimerHandler(fn func(host.TimerID)) {
	h.mu.Lock()
	h.onTimer = fn
	h.mu.Unlock()
}

// SetTimer fires the timer handler on the loop after delay seconds.
func (h *Host) SetTimer(delay uint64) host.TimerID {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextTimer++
	id := h.nextTimer
	h.timers[id] = time.AfterFunc(time.Duration(delay)*time.Second, func() {
		h.fire(id)
	})
	return id
}

// PendingTimers reports how many timers have not fired yet.
func (h *Host) PendingTimers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.timers)
}

func (h *Host) fire(id host.TimerID) {
	h.mu.Lock()
	_, ok := h.timers[id]
	delete(h.timers, id)
	handler := h.onTimer
	h.mu.Unlock()

	if !ok || handler == nil || h.ctx.Err() != nil {
		return
	}
	h.loop.Post("timer", func() { handler(id) })
}
