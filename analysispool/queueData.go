package analysispool

import (
	"context"
	"sync"
	"time"

	"wow_check/analysis"
	"wow_check/analysis/lookup"
	"wow_check/share"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var (
	eventReady = []byte(`{"event":"ready"}`)
	eventStart = []byte(`{"event":"start"}`)

	websockEmptyClosure = websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
)

type queueResult struct {
	res *lookup.Result
	err error
}

type queueData struct {
	id  string
	req analysis.RequestData

	ws  *websocket.Conn
	ctx context.Context

	resp chan queueResult

	msgLock sync.Mutex
}

type event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

func (q *queueData) MessageBytes(b []byte) error {
	// requests from the json api have no socket
	if q.ws == nil {
		return nil
	}

	q.msgLock.Lock()
	defer q.msgLock.Unlock()

	q.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	err := q.ws.WriteMessage(websocket.TextMessage, b)
	if err != nil && err != websocket.ErrCloseSent && !share.IsContextClosedError(q.ctx.Err()) {
		return errors.WithStack(err)
	}
	return nil
}

func (q *queueData) MessageJson(ev event) error {
	b, err := jsoniter.Marshal(&ev)
	if err != nil {
		return errors.WithStack(err)
	}
	return q.MessageBytes(b)
}

func (q *queueData) Ready() error {
	return q.MessageBytes(eventReady)
}

func (q *queueData) Reorder(order int) {
	share.Report(q.MessageJson(event{Event: "waiting", Data: order}))
}

func (q *queueData) Start() {
	share.Report(q.MessageBytes(eventStart))
}

func (q *queueData) Progress(s string) {
	share.Report(q.MessageJson(event{Event: "progress", Data: s}))
}

func (q *queueData) Error(reason string) {
	share.Report(q.MessageJson(event{Event: "error", Data: reason}))
}

func (q *queueData) Succ(res *lookup.Result) {
	share.Report(q.MessageJson(event{Event: "complete", Data: res}))
}

func (q *queueData) Close() {
	q.msgLock.Lock()
	err := q.ws.WriteMessage(websocket.CloseMessage, websockEmptyClosure)
	q.msgLock.Unlock()
	if err != nil && err != websocket.ErrCloseSent {
		share.Report(errors.WithStack(err))
	}

	q.ws.Close()
}

// ping keeps the connection alive while the lookup waits and cancels the
// lookup once the client is gone.
func (q *queueData) ping(cancel func()) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.msgLock.Lock()
			err := q.ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(5*time.Second))
			q.msgLock.Unlock()
			if err != nil {
				cancel()
				return
			}

		case <-q.ctx.Done():
			return
		}
	}
}
