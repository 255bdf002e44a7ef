package core

import (
	"strings"
)

// A CycleError describes a cycle in the module dependency graph.
type CycleError struct {
	Chain []string
}

// Error implements the error interface.
func (c *CycleError) Error() string {
	return "Dependency cycle found:\n " + strings.Join(c.Chain, "\n -> ") +
		"\nSorry, but you'll have to refactor your module definitions to avoid this cycle."
}

// A cycleDetector accumulates module dependencies one at a time, refusing any that would
// close a cycle.
type cycleDetector struct {
	deps map[string][]string
}

func newCycleDetector() *cycleDetector {
	return &cycleDetector{deps: map[string][]string{}}
}

// checkForCycle just checks to see if there's a dependency cycle. It doesn't compute the cycle to avoid excess
// allocations. buildCycle can be used to reconstruct the cycle once one has been found.
func (c *cycleDetector) checkForCycle(head, tail string, visited map[string]bool) bool {
	if visited[tail] {
		return false
	}
	visited[tail] = true
	for _, dep := range c.deps[tail] {
		if dep == head || c.checkForCycle(head, dep, visited) {
			return true
		}
	}
	return false
}

// buildCycle is used to actually reconstruct the cycle after we've found one
func (c *cycleDetector) buildCycle(chain []string) []string {
	tail := chain[len(chain)-1]
	head := chain[0]
	for _, dep := range c.deps[tail] {
		if dep == head {
			return append(chain, dep)
		}
		if newChain := c.buildCycle(append(chain, dep)); newChain != nil {
			return newChain
		}
	}
	return nil
}

// addDep records that 'from' depends on 'to', or returns a CycleError if that would create a cycle.
func (c *cycleDetector) addDep(from, to string) error {
	if from == to {
		return &CycleError{Chain: []string{from, to}}
	} else if c.checkForCycle(from, to, map[string]bool{}) {
		return &CycleError{Chain: c.buildCycle([]string{from, to})}
	}
	c.deps[from] = append(c.deps[from], to)
	return nil
}
