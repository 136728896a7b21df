// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Response writer and body encoder, spec.md §4.3. Grounded on
// original_source/src/printer.rs's HttpPrinter: the same probe-then-decide
// body strategy (Fast/Streaming/Chunked), restructured around io.Writer
// and io.Reader the way gorox's _httpOut_ writes into a pooled buffer
// rather than an owned Vec<u8> per response.

package respond

import (
	"io"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/flinthttp/flint/httpcore/errs"
	"github.com/flinthttp/flint/httpcore/wire"
)

// probeMax is the threshold at or below which a body of unknown length is
// buffered and sent with Content-Length instead of chunked (§4.3 "send").
const probeMax = 8 * 1024

const chunkCopyBufSize = 64 * 1024

// Writer serializes exactly one response onto a connection's write side.
// It is not safe for concurrent use; the connection loop owns one per
// in-flight response and discards it once Send* has returned.
type Writer struct {
	dst        io.Writer
	dates      *DateCache
	log        hclog.Logger
	reqVersion int // the version parsed off the request this responds to
	reqClose   bool
	isHead     bool

	sent      bool
	closeConn bool
}

// NewWriter builds a Writer for one response. reqVersion/reqConnClose
// carry enough of the request's framing state (§4.3 rule 6) for the
// writer to decide whether the connection must close; isHead suppresses
// body bytes while still computing framing headers (rule 5).
func NewWriter(dst io.Writer, dates *DateCache, log hclog.Logger, reqVersion int, reqConnClose, isHead bool) *Writer {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Writer{
		dst:        dst,
		dates:      dates,
		log:        log,
		reqVersion: reqVersion,
		reqClose:   reqConnClose,
		isHead:     isHead,
	}
}

// ShouldClose reports whether the connection must close after this
// response. Valid only after a Send* method has returned successfully.
func (w *Writer) ShouldClose() bool { return w.closeConn }

// Send implements the general form: body's length is unknown up front,
// so the writer probes up to probeMax bytes and decides between
// Content-Length framing and chunked framing (§4.3 rule 1 "send").
func (w *Writer) Send(status wire.Status, headers wire.Headers, body io.Reader) error {
	if body == nil {
		return w.Send0(status, headers)
	}
	prefix, complete, err := probeBody(body, probeMax)
	if err != nil {
		return err
	}
	if complete {
		return w.sendBuffered(status, headers, prefix)
	}
	return w.sendChunked(status, headers, prefix, body)
}

// SendSized sends body using identity (Content-Length: n) framing, the
// length being known a priori and so never probed.
func (w *Writer) SendSized(status wire.Status, headers wire.Headers, body io.Reader, n int64) error {
	if err := w.beginHead(); err != nil {
		return err
	}
	suppress := status.SuppressesBody()
	if suppress {
		if body != nil {
			w.log.Warn("discarding handler-supplied body for status that suppresses one", "status", status.Code)
		}
		return w.writeHeadAndBody(status, headers, 0, false, nil, nil)
	}
	if n < 0 {
		return errs.NewMalformed("negative body length")
	}
	if w.isHead {
		return w.writeHeadAndBody(status, headers, n, false, nil, nil)
	}
	return w.writeHeadAndBody(status, headers, n, false, nil, io.LimitReader(body, n))
}

// Ok sends a 200 OK with the general (probed) body strategy.
func (w *Writer) Ok(headers wire.Headers, body io.Reader) error {
	return w.Send(wire.OK, headers, body)
}

// Send0 sends status with an explicit empty body, Content-Length: 0.
func (w *Writer) Send0(status wire.Status, headers wire.Headers) error {
	if err := w.beginHead(); err != nil {
		return err
	}
	return w.writeHeadAndBody(status, headers, 0, false, nil, nil)
}

// OkR forces streamed/chunked encoding for a 200 OK response, bypassing
// the probe (§4.3 "okr").
func (w *Writer) OkR(headers wire.Headers, body io.Reader) error {
	if err := w.beginHead(); err != nil {
		return err
	}
	if wire.OK.SuppressesBody() {
		return w.writeHeadAndBody(wire.OK, headers, 0, false, nil, nil)
	}
	if w.isHead {
		return w.writeHeadAndBody(wire.OK, headers, 0, true, nil, nil)
	}
	return w.writeChunkedBody(wire.OK, headers, nil, body)
}

// SendContinue emits a bare "100 Continue" interim response, a
// convenience a handler may call before reading the body (SPEC_FULL.md
// §C.5). It does not consume the single-response guard: a final
// response must still follow.
func (w *Writer) SendContinue() error {
	_, err := io.WriteString(w.dst, "HTTP/1.1 100 Continue\r\n\r\n")
	return err
}

func (w *Writer) beginHead() error {
	if w.sent {
		return errs.ErrAlreadySent
	}
	w.sent = true
	return nil
}

func (w *Writer) sendBuffered(status wire.Status, headers wire.Headers, buf []byte) error {
	if err := w.beginHead(); err != nil {
		return err
	}
	if status.SuppressesBody() {
		if len(buf) > 0 {
			w.log.Warn("discarding handler-supplied body for status that suppresses one", "status", status.Code)
		}
		return w.writeHeadAndBody(status, headers, 0, false, nil, nil)
	}
	if w.isHead {
		return w.writeHeadAndBody(status, headers, int64(len(buf)), false, nil, nil)
	}
	return w.writeHeadAndBody(status, headers, int64(len(buf)), false, buf, nil)
}

func (w *Writer) sendChunked(status wire.Status, headers wire.Headers, prefix []byte, rest io.Reader) error {
	if err := w.beginHead(); err != nil {
		return err
	}
	if status.SuppressesBody() {
		w.log.Warn("discarding handler-supplied body for status that suppresses one", "status", status.Code)
		return w.writeHeadAndBody(status, headers, 0, false, nil, nil)
	}
	if w.isHead {
		return w.writeHeadAndBody(status, headers, 0, true, nil, nil)
	}
	return w.writeChunkedBody(status, headers, prefix, rest)
}

// writeHeadAndBody is the fast/identity path: a complete head, then at
// most one of a pre-buffered slice or a bounded reader.
func (w *Writer) writeHeadAndBody(status wire.Status, headers wire.Headers, contentLength int64, chunked bool, buffered []byte, streamed io.Reader) error {
	w.prepareFraming(headers)
	framed := w.framingHeaders(status, headers, contentLength, chunked)
	if err := w.writeStatusAndHeaders(status, framed); err != nil {
		return err
	}
	if buffered != nil {
		if _, err := w.dst.Write(buffered); err != nil {
			return err
		}
	}
	if streamed != nil {
		if _, err := io.CopyBuffer(w.dst, streamed, make([]byte, chunkCopyBufSize)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeChunkedBody(status wire.Status, headers wire.Headers, prefix []byte, rest io.Reader) error {
	w.prepareFraming(headers)
	framed := w.framingHeaders(status, headers, 0, true)
	if err := w.writeStatusAndHeaders(status, framed); err != nil {
		return err
	}
	if len(prefix) > 0 {
		if err := writeChunk(w.dst, prefix); err != nil {
			return err
		}
	}
	buf := make([]byte, chunkCopyBufSize)
	for {
		n, err := rest.Read(buf)
		if n > 0 {
			if werr := writeChunk(w.dst, buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	_, err := io.WriteString(w.dst, "0\r\n\r\n")
	return err
}

// prepareFraming decides closeConn per §4.3 rule 6, before any bytes hit
// the wire.
func (w *Writer) prepareFraming(headers wire.Headers) {
	w.closeConn = w.reqVersion == 0 || w.reqClose || headers.IsConnectionClose()
}

// framingHeaders strips any user-supplied Content-Length/Transfer-Encoding
// (rule 2) and installs the ones the writer computed (rules 3-4, 7), plus
// Date (rule 1) and Connection: close when applicable (rule 6).
func (w *Writer) framingHeaders(status wire.Status, headers wire.Headers, contentLength int64, chunked bool) wire.Headers {
	out := wire.Empty()
	headers.Each(func(name wire.HeaderName, value wire.HeaderValue) {
		if name.Equal(wire.HeaderContentLength) || name.Equal(wire.HeaderTransferEncoding) || name.Equal(wire.HeaderConnection) || name.Equal(wire.HeaderDate) {
			return
		}
		out.Add(name, value)
	})
	if v, hasDate := headers.Get(wire.HeaderDate); hasDate {
		out.Add(wire.HeaderNameString("Date"), v)
	} else {
		out.Add(wire.HeaderNameString("Date"), wire.NewHeaderValue(w.dates.Bytes()))
	}
	if !status.SuppressesBody() {
		if chunked {
			out.AddString("Transfer-Encoding", "chunked")
		} else {
			out.AddString("Content-Length", strconv.FormatInt(contentLength, 10))
		}
	}
	if w.closeConn {
		out.AddString("Connection", "close")
	}
	return out
}

func (w *Writer) writeStatusAndHeaders(status wire.Status, headers wire.Headers) error {
	if _, err := io.WriteString(w.dst, "HTTP/1.1 "+status.String()+"\r\n"); err != nil {
		return err
	}
	return wire.WriteHeaders(w.dst, headers)
}

// probeBody reads up to max+1 bytes from src, reporting whether the
// reader was exhausted within that bound (§4.3 rule 1's "opportunistic
// peek").
func probeBody(src io.Reader, max int) ([]byte, bool, error) {
	buf := make([]byte, 0, max+1)
	chunk := make([]byte, 4096)
	for len(buf) <= max {
		toRead := max + 1 - len(buf)
		if toRead > len(chunk) {
			toRead = len(chunk)
		}
		n, err := src.Read(chunk[:toRead])
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err == io.EOF {
			return buf, true, nil
		}
		if err != nil {
			return nil, false, err
		}
		if n == 0 {
			continue
		}
	}
	return buf, false, nil
}

func writeChunk(dst io.Writer, data []byte) error {
	if _, err := io.WriteString(dst, strconv.FormatInt(int64(len(data)), 16)+"\r\n"); err != nil {
		return err
	}
	if _, err := dst.Write(data); err != nil {
		return err
	}
	_, err := io.WriteString(dst, "\r\n")
	return err
}
