package cli

import (
	"github.com/Backland-Labs/outreach/internal/config"
	"github.com/Backland-Labs/outreach/internal/dify"
	"github.com/Backland-Labs/outreach/internal/logger"
	"github.com/Backland-Labs/outreach/internal/output"
	"github.com/Backland-Labs/outreach/internal/server"
	"github.com/Backland-Labs/outreach/internal/workflow"
)

// chatEndpoint is the endpoint name of the support-chat application
const chatEndpoint = "chat"

// Client is the workflow client the commands drive
type Client interface {
	server.Client
}

// ConfigLoader interface for dependency injection in tests
type ConfigLoader interface {
	Load(path string) (*config.Config, error)
}

// clientOptions carries what a command adds to the client it asks for
type clientOptions struct {
	metrics *dify.Metrics
}

// ClientFactory builds the workflow client from configuration
type ClientFactory func(cfg *config.Config, opts clientOptions) (Client, error)

// Dependencies struct for injection
type Dependencies struct {
	ConfigLoader ConfigLoader
	NewClient    ClientFactory
	Printer      *output.Printer
}

// RealConfigLoader implements ConfigLoader using the real config package
type RealConfigLoader struct{}

func (r *RealConfigLoader) Load(path string) (*config.Config, error) {
	return config.Load(path)
}

// NewRealDependencies creates production dependencies
func NewRealDependencies() *Dependencies {
	return &Dependencies{
		ConfigLoader: &RealConfigLoader{},
		NewClient:    newDifyClient,
		Printer:      output.NewPrinter(),
	}
}

// endpointsFromConfig registers every workflow kind that has an API key, plus
// the chat application
func endpointsFromConfig(cfg *config.Config) map[string]dify.Endpoint {
	endpoints := make(map[string]dify.Endpoint)
	for _, info := range workflow.Kinds() {
		ep := cfg.Dify.Endpoint(string(info.Kind))
		if ep.APIKey == "" {
			continue
		}
		endpoints[string(info.Kind)] = dify.Endpoint{URL: ep.URL, APIKey: ep.APIKey}
	}
	if ep := cfg.Dify.ChatEndpoint(); ep.APIKey != "" {
		endpoints[chatEndpoint] = dify.Endpoint{URL: ep.URL, APIKey: ep.APIKey}
	}
	return endpoints
}

func newDifyClient(cfg *config.Config, opts clientOptions) (Client, error) {
	client, err := dify.NewClient(endpointsFromConfig(cfg),
		dify.WithLogger(logger.GetLogger().WithField("component", "dify")),
		dify.WithMetrics(opts.metrics),
		dify.WithTimeout(cfg.Dify.Timeout),
		dify.WithDefaultUser(cfg.Dify.User),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}
