package agent

import "github.com/dshills/jsinspect/internal/cdp"

// ConsoleAgent implements the Console protocol domain. Console messages are
// delivered through the Runtime domain, so only the lifecycle methods do
// anything.
type ConsoleAgent struct {
	isEnabled bool
}

// NewConsoleAgent creates the Console domain agent.
func NewConsoleAgent() *ConsoleAgent {
	return &ConsoleAgent{}
}

// Register wires the agent's methods into the dispatcher.
func (a *ConsoleAgent) Register(d *cdp.Dispatcher) {
	d.Register("Console.enable", a.enable)
	d.Register("Console.disable", a.disable)
	d.Register("Console.clearMessages", notImplemented)
}

func (a *ConsoleAgent) enable(*cdp.Request) (any, error) {
	a.isEnabled = true
	return nil, nil
}

func (a *ConsoleAgent) disable(*cdp.Request) (any, error) {
	a.isEnabled = false
	return nil, nil
}
