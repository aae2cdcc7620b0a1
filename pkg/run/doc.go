// Package run drives plan message sequences against concrete devices.
//
// The engine is the reference implementation of the interpreter-side
// contract: it executes set/trigger asynchronously under their block groups,
// joins them at the matching wait, routes read results back into the plan,
// and assembles create..save spans into event rows. Pause/resume/rewind at
// checkpoints is out of scope here; checkpoints are acknowledged and
// recorded only.
//
// An Engine is constructed and passed explicitly by the caller; there is no
// process-wide default.
package run
