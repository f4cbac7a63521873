// Package modver manages multiple registered versions of the same module
// pack: which one is active, loading any of them on demand, and temporarily
// overriding the active one within an explicit scope.
//
// The building blocks, smallest first:
//
//   - Record describes one version (label, path, metadata) and owns a small
//     single-slot load cache;
//   - Manager owns the labeled records for one package, the active-version
//     pointer, and every mutating operation, persisting its state to a JSON
//     file after each mutation;
//   - Directory maps package names to Managers, creating them lazily;
//   - Setup, Import and Scoped compose the above for common call sites.
//
// Loading goes through the pack.Loader capability; modver itself only
// decides which filesystem location a version label resolves to.
//
// # Scoped overrides
//
// Manager.Temporary hands out a Scope that holds the manager's lock for the
// caller's whole critical section:
//
//	sc, err := mgr.Temporary(ctx, "2.0.0-rc1")
//	if err != nil {
//		return err
//	}
//	defer sc.Close()
//	run(sc.Pack())
//
// Close restores the previously active version on every exit path. While a
// Scope is open, calling back into the same Manager deadlocks; pass the
// Scope (or its Pack) down the call chain instead.
package modver
