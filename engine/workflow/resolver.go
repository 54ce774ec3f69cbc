package workflow

// resolveOrder linearizes the step graph into execution waves. Each wave
// holds the indices of every step whose dependencies are satisfied by
// earlier waves, in declaration order, so the flattened order is
// deterministic regardless of map iteration. A scan that finds no ready
// step while steps remain means a cycle.
func resolveOrder(steps []StepConfig) ([][]int, error) {
	resolved := make(map[string]struct{}, len(steps))
	placed := make([]bool, len(steps))
	var waves [][]int
	remaining := len(steps)
	for remaining > 0 {
		var wave []int
		for i := range steps {
			if placed[i] {
				continue
			}
			if depsSatisfied(&steps[i], resolved) {
				wave = append(wave, i)
			}
		}
		if len(wave) == 0 {
			var names []string
			for i := range steps {
				if !placed[i] {
					names = append(names, steps[i].Name)
				}
			}
			return nil, &CycleError{Remaining: names}
		}
		// Steps in the same wave must not satisfy each other, so mark
		// them resolved only after the full scan.
		for _, i := range wave {
			placed[i] = true
			resolved[steps[i].Name] = struct{}{}
		}
		remaining -= len(wave)
		waves = append(waves, wave)
	}
	return waves, nil
}

func depsSatisfied(step *StepConfig, resolved map[string]struct{}) bool {
	for _, dep := range step.DependsOn {
		if _, ok := resolved[dep]; !ok {
			return false
		}
	}
	return true
}

func flattenWaves(waves [][]int) []int {
	var order []int
	for _, wave := range waves {
		order = append(order, wave...)
	}
	return order
}
