// Package harness runs scripted bridge sessions described in YAML and
// snapshots their result traces. Scenario files under testdata double as
// executable documentation of the host-facing result format.
package harness
