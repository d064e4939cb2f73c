package analysis

import (
	"context"
	"strings"
	"text/template"
	"time"

	"wow_check/cache"
	"wow_check/share"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const (
	maxRetries = 3

	// templates whose name starts with this prefix query immutable report
	// data and may be answered from the cache
	cachedPrefix = "Report"
)

// Querier renders a query template and decodes the response into respData.
type Querier interface {
	CallGraphQL(ctx context.Context, tmpl *template.Template, tmplData interface{}, respData interface{}) error
}

type Caller struct {
	exec  Executor
	cache *cache.Storage

	retryWait time.Duration
}

// NewCaller wraps exec. cs may be nil.
func NewCaller(exec Executor, cs *cache.Storage) *Caller {
	return &Caller{
		exec:      exec,
		cache:     cs,
		retryWait: 3 * time.Second,
	}
}

func (c *Caller) CallGraphQL(ctx context.Context, tmpl *template.Template, tmplData interface{}, respData interface{}) error {
	sb := getBuilder()
	defer strBufPool.Put(sb)

	err := tmpl.Execute(sb, tmplData)
	if err != nil {
		return errors.WithStack(err)
	}
	query := sb.String()

	var key cache.Key
	cacheable := c.cache != nil && strings.HasPrefix(tmpl.Name(), cachedPrefix)
	if cacheable {
		key = cache.NewKey(query)

		buf := getBuffer()
		defer bytBufPool.Put(buf)

		if c.cache.LoadRaw(key, buf) && jsoniter.Unmarshal(buf.Bytes(), respData) == nil {
			cacheHits.WithLabelValues("hit").Inc()
			return nil
		}
		cacheHits.WithLabelValues("miss").Inc()
	}

	data, err := c.execute(ctx, tmpl.Name(), query)
	if err != nil {
		return err
	}

	err = jsoniter.Unmarshal(data, respData)
	if err != nil {
		return errors.Wrapf(err, "decode %s", tmpl.Name())
	}

	if cacheable {
		c.cache.SaveRaw(key, data)
	}

	return nil
}

func (c *Caller) execute(ctx context.Context, name string, query string) (data []byte, err error) {
	for i := 0; i < maxRetries; i++ {
		start := time.Now()
		data, err = c.exec.Execute(ctx, query, nil)
		graphqlDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

		if err == nil {
			graphqlRequests.WithLabelValues(name, "ok").Inc()
			return data, nil
		}
		graphqlRequests.WithLabelValues(name, "error").Inc()

		if share.IsContextClosedError(err) || !retryable(err) {
			return nil, err
		}
		if i+1 < maxRetries {
			select {
			case <-time.After(c.retryWait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, err
}

// GraphQL errors in the payload are not retried, they would only repeat.
func retryable(err error) bool {
	if te, ok := errors.Cause(err).(*TransportError); ok {
		return te.Temporary()
	}
	return true
}
