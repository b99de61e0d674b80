package main

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// dispatcher hands updates to the handler concurrently across users but
// strictly in arrival order for any single user, so two quick taps can
// never be processed swapped.
type dispatcher struct {
	handle func(context.Context, tgbotapi.Update)

	mu     sync.Mutex
	queues map[int64][]tgbotapi.Update
	busy   map[int64]bool
	wg     sync.WaitGroup
}

func newDispatcher(handle func(context.Context, tgbotapi.Update)) *dispatcher {
	return &dispatcher{
		handle: handle,
		queues: make(map[int64][]tgbotapi.Update),
		busy:   make(map[int64]bool),
	}
}

// dispatchKey groups updates that must stay ordered: everything from the
// same user.
func dispatchKey(u tgbotapi.Update) int64 {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		return u.CallbackQuery.From.ID
	case u.Message != nil && u.Message.From != nil:
		return u.Message.From.ID
	case u.Message != nil && u.Message.Chat != nil:
		return u.Message.Chat.ID
	}
	return 0
}

// Dispatch enqueues the update. The first update for an idle user starts
// a worker that drains that user's queue; later arrivals just append.
func (d *dispatcher) Dispatch(ctx context.Context, u tgbotapi.Update) {
	key := dispatchKey(u)

	d.mu.Lock()
	d.queues[key] = append(d.queues[key], u)
	if d.busy[key] {
		d.mu.Unlock()
		return
	}
	d.busy[key] = true
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			d.mu.Lock()
			q := d.queues[key]
			if len(q) == 0 {
				delete(d.queues, key)
				delete(d.busy, key)
				d.mu.Unlock()
				return
			}
			next := q[0]
			d.queues[key] = q[1:]
			d.mu.Unlock()

			d.handle(ctx, next)
		}
	}()
}

// Wait blocks until every queued update has been handled.
func (d *dispatcher) Wait() {
	d.wg.Wait()
}
