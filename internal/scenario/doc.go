// Package scenario replays scripted browsing sessions against the engine
// and checks the resulting attention ledger.
//
// A scenario is a YAML file: the settings and verified publishers to
// start from, a list of tab events with clock advances between them, and
// assertions on the final publisher table. Run drives a real engine over
// testutil.FakeHost, so the report reflects what the tracker actually
// computed. RunWithGolden snapshots the report under testdata/golden.
package scenario
