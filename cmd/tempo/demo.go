package main

import (
	"github.com/hfxlab/tempo/agent"
	"github.com/hfxlab/tempo/examples/multitask"
	"github.com/hfxlab/tempo/schedlang"
)

// demoSet builds a fresh demonstration panel and a schedule parser bound to
// it. Each agent gets its own set, so concurrent agents never share mutable
// state.
func demoSet() (*schedlang.Parser, []agent.Actuator) {
	system := multitask.NewSystemMonitoringActuator(6, 4)
	resources := multitask.NewResourceManagementActuator(
		[]string{"ab", "ba", "main-a", "main-b"},
		map[string]int{"a": 2000, "b": 2000, "main": 1000},
	)

	parser := schedlang.NewParser()
	system.Register(parser)
	resources.Register(parser)

	return parser, []agent.Actuator{system, resources}
}
