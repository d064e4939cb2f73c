package analysis

import (
	"bytes"
	"strings"
	"sync"
)

// Query documents of batched report lookups run to tens of kilobytes.
const bufferSize = 32 * 1024

var (
	strBufPool = sync.Pool{
		New: func() interface{} {
			sb := new(strings.Builder)
			sb.Grow(bufferSize)
			return sb
		},
	}
	bytBufPool = sync.Pool{
		New: func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, bufferSize))
		},
	}
)

func getBuilder() *strings.Builder {
	sb := strBufPool.Get().(*strings.Builder)
	sb.Reset()
	return sb
}

func getBuffer() *bytes.Buffer {
	buf := bytBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}
