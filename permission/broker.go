package permission

import (
	"errors"
	"log/slog"

	"github.com/clod-tools/clod-bridge/config"
	"github.com/clod-tools/clod-bridge/fifo"
	"github.com/clod-tools/clod-bridge/logger"
	"github.com/clod-tools/clod-bridge/paths"
)

// Broker runs one full request/decision cycle for a front end: pre-allow
// check, runtime dir resolution, FIFO exchange, decision mapping. It is
// stateless; the hook and MCP front ends share one instance each per
// process.
type Broker struct {
	cfg *config.Config
	log *slog.Logger
}

// NewBroker creates a Broker using the given configuration.
func NewBroker(cfg *config.Config) *Broker {
	return &Broker{cfg: cfg, log: logger.WithComponent("broker")}
}

// Decide obtains a decision for the request. The returned error is non-nil
// only when no approver is listening (fifo.ErrNoListener); every other
// failure is already folded into a deny decision. The front ends differ in
// how they surface the no-listener case, so it stays an error here.
func (b *Broker) Decide(req Request, mode Mode) (Decision, error) {
	if b.cfg.IsToolAllowed(req.ToolName) {
		b.log.Debug("tool is pre-allowed", "tool", req.ToolName)
		return Decision{Behavior: BehaviorAllow, UpdatedInput: req.ToolInput}, nil
	}

	dir, err := b.runtimeDir()
	if err != nil {
		b.log.Warn("cannot resolve runtime dir", "error", err)
		return Decision{}, fifo.ErrNoListener
	}

	line, err := req.Encode(mode)
	if err != nil {
		b.log.Error("failed to encode request", "tool", req.ToolName, "error", err)
		return Decision{Behavior: BehaviorDeny, Message: "Permission system error: " + err.Error()}, nil
	}

	b.log.Info("requesting permission", "tool", req.ToolName, "runtimeDir", dir)

	ex := fifo.NewExchanger(fifo.PairIn(dir), b.cfg.Timeout())
	raw, err := ex.Exchange(string(line))
	if errors.Is(err, fifo.ErrNoListener) {
		b.log.Info("no approver listening", "runtimeDir", dir)
		return Decision{}, err
	}

	decision := DecodeResponse(raw, err, req.ToolInput)
	b.log.Info("permission decision", "tool", req.ToolName, "behavior", decision.Behavior)
	return decision, nil
}

// runtimeDir returns the configured rendezvous directory, or discovers it
// by walking upward from the working directory.
func (b *Broker) runtimeDir() (string, error) {
	if b.cfg.RuntimeDir != "" {
		return b.cfg.RuntimeDir, nil
	}
	return paths.RuntimeDir()
}
