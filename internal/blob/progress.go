package blob

import "io"

type progressReader struct {
	r       io.Reader
	total   int64
	read    int64
	last    int
	started bool
	done    bool
	fn      ProgressFunc
}

// NewProgressReader wraps r so that fn observes the share of total bytes
// consumed so far. Reported values never decrease, stay within [0, 100],
// and 100 is reported exactly once when r is drained. A nil fn returns r.
func NewProgressReader(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	if !p.started {
		p.started = true
		p.fn(0)
	}

	n, err := p.r.Read(b)
	p.read += int64(n)

	if err == io.EOF {
		p.finish()
		return n, err
	}

	if p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 99 {
			// 100 is reserved for EOF.
			pct = 99
		}
		if pct > p.last {
			p.last = pct
			p.fn(pct)
		}
	}
	return n, err
}

func (p *progressReader) finish() {
	if p.done {
		return
	}
	p.done = true
	p.last = 100
	p.fn(100)
}

// ReportComplete reports a finished transfer for blobs that need no upload.
func ReportComplete(b Blob) {
	if b == nil {
		return
	}
	if fn := b.Progress(); fn != nil {
		fn(100)
	}
}
