// Package capability detects which host tools the relay can use.
//
// # Overview
//
// Every logical action the relay offers (power off, reboot, lock, screenshot,
// speech, camera capture) maps onto one or more OS specific tools. A Catalog
// lists, per capability, the candidate Methods in order of preference. The
// Prober resolves each Method's executables with a non-destructive path lookup
// and produces a Set.
//
// # Core Concepts
//
// Name: a logical capability such as "screenshot" or "tts".
//
// Method: one concrete way of providing a capability, made of one or more
// Steps (for example pico2wave followed by aplay).
//
// Set: the read-only result of a probe. A capability with no resolved Method
// is unavailable. Sets are safe for concurrent reads.
//
// # Usage
//
//	prober := capability.NewProber(runner, platform.CatalogFor(runtime.GOOS)).
//	    WithDevices(platform.NewDeviceFinder(runner, runtime.GOOS))
//	set := prober.Probe(ctx)
//	if !set.Available(capability.Screenshot) {
//	    // reply "unavailable"
//	}
//	for _, m := range set.Methods(capability.Screenshot) {
//	    // try m in order
//	}
//
// Probing twice in the same environment yields equal Sets.
package capability
