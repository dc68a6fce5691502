package sim

import "fmt"

// HookPosQueuePut marks when an item is admitted into a queue.
var HookPosQueuePut = &HookPos{Name: "Queue Put"}

// HookPosQueueGet marks when an item is handed to a getter.
var HookPosQueueGet = &HookPos{Name: "Queue Get"}

// A Queue is a first-in, first-out store with blocking semantics expressed
// through callbacks.
//
// A Put waits while the queue is full. A Get waits while the queue is empty.
// Waiting putters and getters are served in the order they arrived. All the
// callbacks run synchronously at the simulated time of the operation that
// completed them.
type Queue struct {
	*HookableBase

	name     string
	capacity int
	items    []any

	putters []*putRequest
	getters []*GetRequest
	fired   []func()

	settling bool
}

type putRequest struct {
	item   any
	onDone func()
}

// A GetRequest is a pending or completed Get.
type GetRequest struct {
	queue  *Queue
	item   any
	done   bool
	onDone func(req *GetRequest)
}

// Queue returns the queue the request was issued on.
func (r *GetRequest) Queue() *Queue {
	return r.queue
}

// Item returns the retrieved item. It is nil until the request is done.
func (r *GetRequest) Item() any {
	return r.item
}

// Done tells if the request has retrieved an item.
func (r *GetRequest) Done() bool {
	return r.done
}

// NewQueue creates a queue. A capacity of 0 means the queue is unbounded.
func NewQueue(name string, capacity int) *Queue {
	if capacity < 0 {
		panic(fmt.Sprintf("sim: queue %s has negative capacity", name))
	}

	return &Queue{
		HookableBase: NewHookableBase(),
		name:         name,
		capacity:     capacity,
	}
}

// Name returns the name of the queue.
func (q *Queue) Name() string {
	return q.name
}

// Capacity returns the capacity of the queue. 0 means unbounded.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Size returns the number of items stored in the queue.
func (q *Queue) Size() int {
	return len(q.items)
}

// Items returns a copy of the stored items, oldest first.
func (q *Queue) Items() []any {
	return append([]any(nil), q.items...)
}

// NumPendingPuts returns the number of Puts waiting for space.
func (q *Queue) NumPendingPuts() int {
	return len(q.putters)
}

// NumPendingGets returns the number of Gets waiting for an item.
func (q *Queue) NumPendingGets() int {
	return len(q.getters)
}

// Put stores the item. onDone, if not nil, is called once the item is
// admitted.
func (q *Queue) Put(item any, onDone func()) {
	q.putters = append(q.putters, &putRequest{item: item, onDone: onDone})
	q.settle()
}

// Get retrieves the oldest item. onDone is called once the item is
// available, possibly before Get returns.
func (q *Queue) Get(onDone func(req *GetRequest)) *GetRequest {
	req := &GetRequest{queue: q, onDone: onDone}
	q.getters = append(q.getters, req)
	q.settle()

	return req
}

func (q *Queue) canHold() bool {
	return q.capacity == 0 || len(q.items) < q.capacity
}

// settle matches waiting putters and getters until nothing can progress and
// then runs the callbacks of the completed requests. Callbacks may issue new
// requests on the same queue.
func (q *Queue) settle() {
	if q.settling {
		return
	}

	q.settling = true
	defer func() { q.settling = false }()

	for {
		q.match()

		if len(q.fired) == 0 {
			return
		}

		fn := q.fired[0]
		q.fired = q.fired[1:]
		fn()
	}
}

func (q *Queue) match() {
	progress := true
	for progress {
		progress = false

		for len(q.putters) > 0 && q.canHold() {
			p := q.putters[0]
			q.putters = q.putters[1:]
			q.items = append(q.items, p.item)
			q.invokeHook(HookPosQueuePut, p.item)

			if p.onDone != nil {
				q.fired = append(q.fired, p.onDone)
			}

			progress = true
		}

		for len(q.getters) > 0 && len(q.items) > 0 {
			g := q.getters[0]
			q.getters = q.getters[1:]
			g.item = q.items[0]
			g.done = true
			q.items = q.items[1:]
			q.invokeHook(HookPosQueueGet, g.item)

			if g.onDone != nil {
				q.fired = append(q.fired, func() { g.onDone(g) })
			}

			progress = true
		}
	}
}

func (q *Queue) invokeHook(pos *HookPos, item any) {
	if q.NumHooks() == 0 {
		return
	}

	q.InvokeHook(HookCtx{
		Domain: q,
		Pos:    pos,
		Item:   item,
	})
}
