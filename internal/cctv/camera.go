// Package cctv моделирует камеру наблюдения, которая попеременно отдыхает и следит за кассой.
package cctv

import "time"

// Camera чередует фазы ожидания и наблюдения, начиная с ожидания.
type Camera struct {
	idle     time.Duration
	watch    time.Duration
	watching bool
	left     time.Duration
}

// NewCamera создаёт камеру с длительностями фаз.
func NewCamera(idle, watch time.Duration) *Camera {
	return &Camera{
		idle:  idle,
		watch: watch,
		left:  idle,
	}
}

// Tick продвигает камеру на dt и сообщает, изменилось ли состояние наблюдения.
func (c *Camera) Tick(dt time.Duration) bool {
	if dt <= 0 || c.idle <= 0 || c.watch <= 0 {
		return false
	}

	before := c.watching
	c.left -= dt
	for c.left <= 0 {
		c.watching = !c.watching
		if c.watching {
			c.left += c.watch
		} else {
			c.left += c.idle
		}
	}
	return before != c.watching
}

// Watching сообщает, следит ли камера за кассой.
func (c *Camera) Watching() bool {
	return c.watching
}

// Remaining возвращает время до смены фазы.
func (c *Camera) Remaining() time.Duration {
	return c.left
}
