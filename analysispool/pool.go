// Package analysispool queues websocket lookup requests and runs them on a
// fixed number of workers.
package analysispool

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"wow_check/analysis"
	"wow_check/analysis/lookup"
	"wow_check/cache"
	"wow_check/season"
	"wow_check/share"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var websocketUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var errNoResult = errors.New("lookup returned no result")

type LookupFunc func(ctx context.Context, req analysis.RequestData, progress func(string)) (*lookup.Result, error)

// CaptchaFunc verifies the captcha token of a request from remoteIP.
type CaptchaFunc func(remoteIP, token string) bool

type Pool struct {
	preset  *season.Preset
	lookup  LookupFunc
	results *cache.Storage

	// nil disables the check
	Captcha CaptchaFunc

	queueLock sync.Mutex
	queue     []*queueData
	queueWake chan struct{}

	closeDelay time.Duration
}

// New returns a pool running fn. Results are kept in results when it is not
// nil.
func New(p *season.Preset, fn LookupFunc, results *cache.Storage) *Pool {
	return &Pool{
		preset:     p,
		lookup:     fn,
		results:    results,
		queue:      make([]*queueData, 0, 16),
		queueWake:  make(chan struct{}, 1),
		closeDelay: time.Second,
	}
}

// Start runs workers until ctx ends.
func (p *Pool) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go p.worker(ctx)
	}
}

func (p *Pool) Len() int {
	p.queueLock.Lock()
	defer p.queueLock.Unlock()
	return len(p.queue)
}

func (p *Pool) push(q *queueData) {
	p.queueLock.Lock()
	p.queue = append(p.queue, q)
	q.Reorder(len(p.queue))
	p.queueLock.Unlock()

	analysis.QueueLength.Inc()

	select {
	case p.queueWake <- struct{}{}:
	default:
	}
}

func (p *Pool) pop() *queueData {
	p.queueLock.Lock()
	defer p.queueLock.Unlock()

	if len(p.queue) == 0 {
		return nil
	}

	q := p.queue[0]
	copy(p.queue, p.queue[1:])
	p.queue[len(p.queue)-1] = nil
	p.queue = p.queue[:len(p.queue)-1]

	for i, w := range p.queue {
		go w.Reorder(i + 1)
	}

	analysis.QueueLength.Dec()
	return q
}

func (p *Pool) worker(ctx context.Context) {
	for {
		q := p.pop()
		if q == nil {
			select {
			case <-p.queueWake:
				continue
			case <-ctx.Done():
				return
			}
		}

		// more work may be waiting for another worker
		if p.Len() > 0 {
			select {
			case p.queueWake <- struct{}{}:
			default:
			}
		}

		// client left while waiting
		if q.ctx.Err() != nil {
			continue
		}

		log.Printf("Start: %s [%s]", q.req.String(), q.id)
		q.Start()
		res, err := p.lookup(q.ctx, q.req, q.Progress)
		log.Printf("End: %s [%s]", q.req.String(), q.id)

		q.resp <- queueResult{res, err}
	}
}

// Handler upgrades the request and serves one lookup over it.
func (p *Pool) Handler(w http.ResponseWriter, r *http.Request) {
	ws, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		share.Report(errors.WithStack(err))
		return
	}

	p.Serve(r.Context(), ws, remoteIP(r))
}

// Serve reads one request from ws, waits for its turn and writes the
// result. ws is closed on return.
func (p *Pool) Serve(ctx context.Context, ws *websocket.Conn, ip string) {
	ctx, ctxCancel := context.WithCancel(ctx)
	defer ctxCancel()

	q := &queueData{
		id:   uuid.NewString(),
		ws:   ws,
		ctx:  ctx,
		resp: make(chan queueResult, 1),
	}
	defer q.Close()

	err := q.Ready()
	if err != nil {
		share.Report(err)
		return
	}

	_, r, err := ws.NextReader()
	if err == nil {
		err = jsoniter.NewDecoder(r).Decode(&q.req)
	}
	if err != nil {
		share.Report(errors.WithStack(err))
		return
	}

	// the client sends nothing more, a read error means it went away
	go func() {
		defer ctxCancel()
		for {
			_, r, err := ws.NextReader()
			if err != nil {
				return
			}
			if _, err = io.Copy(io.Discard, r); err != nil {
				return
			}
		}
	}()

	if p.Captcha != nil && !p.Captcha(ip, q.req.Captcha) {
		q.Error("captcha")
		return
	}
	if !q.req.CheckOptionValidation(p.preset) {
		q.Error("invalid")
		return
	}

	res, ok := p.cached(q.req)
	if !ok {
		go q.ping(ctxCancel)

		res, err = p.wait(q)
		switch {
		case share.IsContextClosedError(err):
			return
		case err != nil:
			share.Report(err)
			q.Error("failed")
			return
		}
	}
	q.Succ(res)

	time.Sleep(p.closeDelay)
}

// Do runs req on a worker in queue order, the same way a websocket request
// is run. Cached results are returned without queueing.
func (p *Pool) Do(ctx context.Context, req analysis.RequestData) (*lookup.Result, error) {
	if !req.CheckOptionValidation(p.preset) {
		return nil, lookup.ErrInvalidRequest
	}
	if res, ok := p.cached(req); ok {
		return res, nil
	}

	return p.wait(&queueData{
		id:   uuid.NewString(),
		req:  req,
		ctx:  ctx,
		resp: make(chan queueResult, 1),
	})
}

func (p *Pool) cached(req analysis.RequestData) (*lookup.Result, bool) {
	if p.results == nil {
		return nil, false
	}
	var res *lookup.Result
	if p.results.Load(cache.NewKey("lookup", req.Hash()), &res) && res != nil {
		return res, true
	}
	return nil, false
}

// wait queues q and blocks until a worker finished it or q.ctx ends.
func (p *Pool) wait(q *queueData) (*lookup.Result, error) {
	p.push(q)

	select {
	case qr := <-q.resp:
		if qr.err != nil {
			return nil, qr.err
		}
		if qr.res == nil {
			return nil, errNoResult
		}
		if p.results != nil {
			p.results.Save(cache.NewKey("lookup", q.req.Hash()), qr.res)
		}
		return qr.res, nil

	case <-q.ctx.Done():
		return nil, q.ctx.Err()
	}
}

func remoteIP(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		if idx := strings.IndexByte(v, ','); idx >= 0 {
			v = v[:idx]
		}
		return strings.TrimSpace(v)
	}
	if v := r.Header.Get("X-Real-Ip"); v != "" {
		return v
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
