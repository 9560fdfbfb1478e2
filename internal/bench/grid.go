// internal/bench/grid.go
package bench

// BuildParameterGrid expands a base parameter set into the cartesian product
// of the three sweep axes. Iteration order is concurrency (outer), max
// tokens (middle), temperature (inner); callers index into the grid by that
// ordering, so it is part of the contract.
func BuildParameterGrid(base Parameters, concurrencyValues, maxTokenValues []int, temperatureValues []float64) []Parameters {
	grid := make([]Parameters, 0, len(concurrencyValues)*len(maxTokenValues)*len(temperatureValues))
	for _, concurrency := range concurrencyValues {
		for _, maxTokens := range maxTokenValues {
			for _, temperature := range temperatureValues {
				grid = append(grid, base.WithSweepPoint(concurrency, maxTokens, temperature))
			}
		}
	}
	return grid
}
