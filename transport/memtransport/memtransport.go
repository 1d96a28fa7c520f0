// Package memtransport provides an in-memory transport.Transport for
// exercising radixk and the sortlast façade in this repository's own
// test suite. It
// is not meant for production use (spec §1 Non-goals exclude transport
// implementation from the core); a real deployment supplies its own
// Transport backed by MPI or an equivalent fabric.
package memtransport

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/deepteams/sortlast/transport"
)

// Hub is the shared rendezvous point for a fixed set of simulated
// processes ("ranks"). Each rank gets its own *RankTransport view via
// Hub.Rank.
type Hub struct {
	numRanks int

	mu       sync.Mutex
	mailbox  map[mailKey]chan []byte
	gathers  map[string]*gatherState
}

type mailKey struct {
	to, from, tag int
}

// NewHub creates a Hub for a fixed number of ranks.
func NewHub(numRanks int) *Hub {
	return &Hub{
		numRanks: numRanks,
		mailbox:  make(map[mailKey]chan []byte),
		gathers:  make(map[string]*gatherState),
	}
}

// Rank returns the Transport view for the given rank.
func (h *Hub) Rank(rank int) *RankTransport {
	return &RankTransport{hub: h, rank: rank}
}

func (h *Hub) channel(key mailKey) chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.mailbox[key]
	if !ok {
		ch = make(chan []byte, 8)
		h.mailbox[key] = ch
	}
	return ch
}

// RankTransport is the transport.Transport view of a Hub for one rank.
type RankTransport struct {
	hub  *Hub
	rank int
}

var _ transport.Transport = (*RankTransport)(nil)

type request struct {
	done chan struct{}
	err  error
}

func newRequest() *request {
	return &request{done: make(chan struct{})}
}

func (r *request) Done() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *request) complete(err error) {
	r.err = err
	close(r.done)
}

func (r *request) wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func asRequest(r transport.Request) (*request, error) {
	req, ok := r.(*request)
	if !ok {
		return nil, fmt.Errorf("memtransport: request did not originate from this transport")
	}
	return req, nil
}

func (t *RankTransport) Isend(ctx context.Context, buf []byte, peer int, tag int) (transport.Request, error) {
	ch := t.hub.channel(mailKey{to: peer, from: t.rank, tag: tag})
	data := append([]byte(nil), buf...)
	req := newRequest()
	go func() {
		select {
		case ch <- data:
			req.complete(nil)
		case <-ctx.Done():
			req.complete(ctx.Err())
		}
	}()
	return req, nil
}

func (t *RankTransport) Irecv(ctx context.Context, buf []byte, peer int, tag int) (transport.Request, error) {
	ch := t.hub.channel(mailKey{to: t.rank, from: peer, tag: tag})
	req := newRequest()
	go func() {
		select {
		case data := <-ch:
			copy(buf, data)
			req.complete(nil)
		case <-ctx.Done():
			req.complete(ctx.Err())
		}
	}()
	return req, nil
}

func (t *RankTransport) Send(ctx context.Context, buf []byte, peer int, tag int) error {
	req, err := t.Isend(ctx, buf, peer, tag)
	if err != nil {
		return err
	}
	r, err := asRequest(req)
	if err != nil {
		return err
	}
	return r.wait(ctx)
}

func (t *RankTransport) WaitAny(ctx context.Context, reqs []transport.Request) (int, error) {
	if len(reqs) == 0 {
		return -1, fmt.Errorf("memtransport: WaitAny called with no requests")
	}
	concrete := make([]*request, len(reqs))
	cases := make([]reflect.SelectCase, len(reqs)+1)
	for i, r := range reqs {
		rq, err := asRequest(r)
		if err != nil {
			return -1, err
		}
		concrete[i] = rq
		cases[i] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(rq.done)}
	}
	cases[len(reqs)] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())}

	chosen, _, _ := reflect.Select(cases)
	if chosen == len(reqs) {
		return -1, ctx.Err()
	}
	return chosen, concrete[chosen].err
}

func (t *RankTransport) WaitAll(ctx context.Context, reqs []transport.Request) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range reqs {
		rq, err := asRequest(r)
		if err != nil {
			return err
		}
		g.Go(func() error { return rq.wait(ctx) })
	}
	return g.Wait()
}

type gatherState struct {
	mu     sync.Mutex
	bufs   map[int][]byte
	total  int
	done   chan struct{}
	result [][]byte
}

func groupKey(group []int) string {
	parts := make([]string, len(group))
	for i, r := range group {
		parts[i] = fmt.Sprintf("%d", r)
	}
	return strings.Join(parts, ",")
}

func (t *RankTransport) Gather(ctx context.Context, group []int, buf []byte) ([][]byte, error) {
	sorted := append([]int(nil), group...)
	sort.Ints(sorted)
	key := groupKey(sorted)

	t.hub.mu.Lock()
	pg, ok := t.hub.gathers[key]
	if !ok {
		pg = &gatherState{bufs: make(map[int][]byte), total: len(group), done: make(chan struct{})}
		t.hub.gathers[key] = pg
	}
	t.hub.mu.Unlock()

	pg.mu.Lock()
	pg.bufs[t.rank] = append([]byte(nil), buf...)
	complete := len(pg.bufs) == pg.total
	if complete {
		result := make([][]byte, len(group))
		for i, r := range group {
			result[i] = pg.bufs[r]
		}
		pg.result = result
		t.hub.mu.Lock()
		delete(t.hub.gathers, key)
		t.hub.mu.Unlock()
		close(pg.done)
	}
	pg.mu.Unlock()

	select {
	case <-pg.done:
		return pg.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
