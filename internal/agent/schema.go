package agent

import "github.com/dshills/jsinspect/internal/cdp"

// Version announced for every supported protocol domain.
const domainVersion = "1.2"

// SchemaAgent implements the Schema protocol domain.
type SchemaAgent struct{}

// NewSchemaAgent creates the Schema domain agent.
func NewSchemaAgent() *SchemaAgent {
	return &SchemaAgent{}
}

// Register wires the agent's methods into the dispatcher.
func (a *SchemaAgent) Register(d *cdp.Dispatcher) {
	d.Register("Schema.getDomains", a.getDomains)
}

type getDomainsResult struct {
	Domains []cdp.Domain `json:"domains"`
}

func (a *SchemaAgent) getDomains(*cdp.Request) (any, error) {
	return getDomainsResult{
		Domains: []cdp.Domain{
			{Name: "Console", Version: domainVersion},
			{Name: "Debugger", Version: domainVersion},
			{Name: "Runtime", Version: domainVersion},
		},
	}, nil
}
