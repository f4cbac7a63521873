// Package pack implements the loadable code unit of modver: an HCL module
// pack. A pack is a manifest file (module.hcl, or any .hcl file) declaring
// the pack's identity and its runner definitions.
//
// The package provides three pieces:
//
//   - Pack, the parsed in-memory form of a manifest;
//   - Loader, the capability used by the version core to materialize a pack
//     either by installed name (Import) or from an explicit file (LoadFile);
//   - Table, the process-wide mapping of identifiers to already-loaded packs
//     that the loader consults to avoid duplicate loads.
//
// The core never parses HCL itself; everything it knows about manifests goes
// through the Loader interface, so alternative manifest dialects can be
// substituted in tests or by embedding applications.
package pack
