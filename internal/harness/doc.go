// Package harness runs conformance scenarios against the factory.
//
// A scenario is a YAML file that deploys a factory, drives it through a
// sequence of steps and then asserts on the final registry:
//
//	name: pause_blocks_creation
//	description: A paused factory issues no instantiations.
//	factory:
//	  deployer: admin
//	steps:
//	  - caller: admin
//	    execute:
//	      - set_status: {status: paused}
//	  - caller: admin
//	    execute:
//	      - create_instance: {msg: {}}
//	    expect:
//	      error: FACTORY_PAUSED
//	assertions:
//	  - type: registry_count
//	    count: 0
//	  - type: pending_empty
//
// Each execute step is one unit of work on a host.Host. Queries read
// committed state. Every run uses a fresh in-memory store, sequential
// child addresses ("child-<token>") and sequential unit ids ("unit-<n>"),
// so the trace of a scenario is deterministic and can be compared against
// a golden file with RunWithGolden.
//
// The host's code table holds the built-in echo child under code id 1 and
// a second copy under code id 2. An update_code command that leaves
// code_hash empty gets the hash of the stored code with that id.
package harness
