package rayci

import (
	"context"
	"sync"
)

// Call records one invocation seen by a Mock.
type Call struct {
	Method string
	Args   []interface{}
}

type stubResult struct {
	value Value
	err   error
}

// Mock implements Caller with per-method FIFO stub queues. Methods without
// a queued stub succeed with a zero Value, which suits the many setter
// methods whose results are ignored.
type Mock struct {
	mu     sync.Mutex
	calls  []Call
	queues map[string][]stubResult
}

// NewMock returns an empty mock.
func NewMock() *Mock {
	return &Mock{queues: make(map[string][]stubResult)}
}

// Stub queues a successful result for the given method. Successive stubs
// for the same method are consumed in order.
func (m *Mock) Stub(method string, v Value) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[method] = append(m.queues[method], stubResult{value: v})
	return m
}

// StubErr queues a failure for the given method.
func (m *Mock) StubErr(method string, err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[method] = append(m.queues[method], stubResult{err: err})
	return m
}

// Call implements Caller.
func (m *Mock) Call(_ context.Context, method string, args ...interface{}) (Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Method: method, Args: args})

	q := m.queues[method]
	if len(q) == 0 {
		return Value{}, nil
	}
	next := q[0]
	m.queues[method] = q[1:]
	return next.value, next.err
}

// Calls returns a copy of every recorded invocation in order.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the total number of invocations.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// CallsFor returns how many times the given method was invoked.
func (m *Mock) CallsFor(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// ArgsFor returns the argument list of each recorded invocation of the
// given method, in call order.
func (m *Mock) ArgsFor(method string) [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]interface{}
	for _, c := range m.calls {
		if c.Method == method {
			out = append(out, c.Args)
		}
	}
	return out
}
