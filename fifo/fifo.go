// Package fifo implements the rendezvous transport between the bridge and
// the approver: one JSON line written to the request FIFO, one JSON line
// read back from the response FIFO.
//
// The FIFOs are created by the approver, never by this package. Opening the
// request FIFO for writing blocks until the approver has it open for
// reading, and opening the response FIFO for reading blocks until the
// approver writes — the kernel's pipe semantics provide the
// synchronization, so the protocol needs no locking and supports exactly
// one outstanding exchange per pair.
package fifo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/clod-tools/clod-bridge/logger"
)

const (
	// RequestName is the FIFO the bridge writes requests to (approver reads).
	RequestName = "permission_request.fifo"
	// ResponseName is the FIFO the bridge reads responses from (approver writes).
	ResponseName = "permission_response.fifo"
)

var (
	// ErrNoListener means one or both FIFOs are missing — no approver is
	// running. This is the expected state, not a fault.
	ErrNoListener = errors.New("permission FIFOs not found")

	// ErrEmptyResponse means the approver closed the response FIFO without
	// writing a decision.
	ErrEmptyResponse = errors.New("empty response from approver")

	// ErrTimeout means the approver did not answer within the configured
	// response timeout.
	ErrTimeout = errors.New("timed out waiting for approver")
)

// ChannelPair names the two FIFO endpoints of one rendezvous directory.
type ChannelPair struct {
	RequestPath  string
	ResponsePath string
}

// PairIn returns the channel pair for a runtime directory.
func PairIn(dir string) ChannelPair {
	return ChannelPair{
		RequestPath:  filepath.Join(dir, RequestName),
		ResponsePath: filepath.Join(dir, ResponseName),
	}
}

// Exists reports whether both endpoints exist. A missing endpoint on either
// side means no approver is listening; the two cases are not distinguished.
func (p ChannelPair) Exists() bool {
	if _, err := os.Stat(p.RequestPath); err != nil {
		return false
	}
	if _, err := os.Stat(p.ResponsePath); err != nil {
		return false
	}
	return true
}

// Exchanger performs blocking request/response exchanges over a channel
// pair. A zero Timeout waits for the approver indefinitely.
type Exchanger struct {
	Pair    ChannelPair
	Timeout time.Duration
}

// NewExchanger creates an Exchanger for the given pair.
func NewExchanger(pair ChannelPair, timeout time.Duration) *Exchanger {
	return &Exchanger{Pair: pair, Timeout: timeout}
}

// Exchange writes one newline-terminated line to the request FIFO and reads
// one line from the response FIFO. Returns ErrNoListener if the pair is
// absent, ErrEmptyResponse if the approver answered with a blank line, and
// ErrTimeout if the configured deadline expired first.
func (e *Exchanger) Exchange(line string) (string, error) {
	if !e.Pair.Exists() {
		return "", ErrNoListener
	}

	log := logger.WithComponent("fifo")
	exchangeID := uuid.NewString()
	log.Debug("starting exchange", "exchangeID", exchangeID, "request", e.Pair.RequestPath)

	var resp string
	var err error
	if e.Timeout == 0 {
		resp, err = e.doExchange(line)
	} else {
		resp, err = e.doExchangeDeadline(line, time.Now().Add(e.Timeout))
	}
	e.logOutcome(log, exchangeID, err)
	return resp, err
}

func (e *Exchanger) logOutcome(log *slog.Logger, exchangeID string, err error) {
	if err != nil {
		log.Warn("exchange failed", "exchangeID", exchangeID, "error", err)
		return
	}
	log.Debug("exchange complete", "exchangeID", exchangeID)
}

// doExchange is the blocking write-then-read cycle. Both endpoints are
// released on every path.
func (e *Exchanger) doExchange(line string) (string, error) {
	req, err := os.OpenFile(e.Pair.RequestPath, os.O_WRONLY, 0)
	if err != nil {
		return "", fmt.Errorf("open request fifo: %w", err)
	}
	_, werr := req.WriteString(line + "\n")
	if cerr := req.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return "", fmt.Errorf("write request fifo: %w", werr)
	}

	resp, err := os.Open(e.Pair.ResponsePath)
	if err != nil {
		return "", fmt.Errorf("open response fifo: %w", err)
	}
	defer resp.Close()

	raw, rerr := bufio.NewReader(resp).ReadString('\n')
	if rerr != nil && !errors.Is(rerr, io.EOF) {
		return "", fmt.Errorf("read response fifo: %w", rerr)
	}

	// EOF with no data means the approver closed without answering, which
	// is the same as a blank line.
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyResponse
	}
	return raw, nil
}

// doExchangeDeadline is the same cycle bounded by a deadline. Both
// endpoints are opened non-blocking so the exchange never outlives its
// caller: when the deadline expires, nothing is left attached to the pair
// and the next exchange starts clean.
func (e *Exchanger) doExchangeDeadline(line string, deadline time.Time) (string, error) {
	req, err := e.openRequestByDeadline(deadline)
	if err != nil {
		return "", err
	}
	if err := req.SetWriteDeadline(deadline); err != nil {
		req.Close()
		return "", fmt.Errorf("set request deadline: %w", err)
	}
	_, werr := req.WriteString(line + "\n")
	if cerr := req.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		if errors.Is(werr, os.ErrDeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("write request fifo: %w", werr)
	}

	// Read-write mode opens without blocking and keeps a write end on the
	// FIFO, so the read below waits for the approver's data instead of
	// hitting EOF before the approver attaches.
	resp, err := os.OpenFile(e.Pair.ResponsePath, os.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return "", fmt.Errorf("open response fifo: %w", err)
	}
	defer resp.Close()
	if err := resp.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("set response deadline: %w", err)
	}

	raw, rerr := bufio.NewReader(resp).ReadString('\n')
	if rerr != nil && !errors.Is(rerr, io.EOF) {
		if errors.Is(rerr, os.ErrDeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("read response fifo: %w", rerr)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyResponse
	}
	return raw, nil
}

// openRequestByDeadline opens the request FIFO for writing without ever
// blocking past the deadline. A non-blocking open fails with ENXIO until
// the approver holds the read end, so poll until it does.
func (e *Exchanger) openRequestByDeadline(deadline time.Time) (*os.File, error) {
	for {
		req, err := os.OpenFile(e.Pair.RequestPath, os.O_WRONLY|syscall.O_NONBLOCK, 0)
		if err == nil {
			return req, nil
		}
		if !errors.Is(err, syscall.ENXIO) {
			return nil, fmt.Errorf("open request fifo: %w", err)
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		time.Sleep(10 * time.Millisecond)
	}
}
