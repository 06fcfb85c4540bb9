// Package compiler transforms the manifest into an ordered set of steps.
// It provides the plan construction pipeline: Manifest → Provider → StepGraph.
package compiler

import (
	"errors"
	"fmt"
)

// Compiler orchestrates providers to build a StepGraph from a manifest.
type Compiler struct {
	providers []Provider
}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{
		providers: make([]Provider, 0),
	}
}

// RegisterProvider adds a provider to the compiler.
// Providers are called in registration order; that order is the first
// tie-break key of the topological sort.
func (c *Compiler) RegisterProvider(provider Provider) {
	c.providers = append(c.providers, provider)
}

// Providers returns all registered providers.
func (c *Compiler) Providers() []Provider {
	return c.providers
}

// Compile builds a validated StepGraph. Every failure is a *BuildError:
// a provider failure, a duplicate step ID, an unknown dependency or a cycle.
func (c *Compiler) Compile(ctx CompileContext) (*StepGraph, error) {
	graph := NewStepGraph()

	for _, provider := range c.providers {
		steps, err := provider.Compile(ctx)
		if err != nil {
			var be *BuildError
			if errors.As(err, &be) {
				return nil, be.WithProvider(provider.Name())
			}
			return nil, NewManifestInvalidError(fmt.Sprintf("cannot compile %s section", provider.Name()), err).
				WithProvider(provider.Name())
		}

		for _, step := range steps {
			if err := graph.Add(step); err != nil {
				return nil, NewDuplicateStepError(step.ID().String()).WithProvider(provider.Name())
			}
		}
	}

	if err := graph.Validate(); err != nil {
		return nil, err
	}

	if _, err := graph.TopologicalSort(); err != nil {
		return nil, err
	}

	return graph, nil
}
