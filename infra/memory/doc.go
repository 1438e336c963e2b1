// Package memory provides safe memory reclamation for values shared
// between one writer and many lock-free readers. It defines the
// four-operation Engine contract (RegisterReader, Pin, Retire,
// Collect) and two engines that satisfy it: an epoch-based domain
// and a reference-counting baseline.
//
// Values handed to an engine are reclaimed through a Reclaimer once
// no pinned reader can still observe them. Pool adapts sync.Pool so
// reclaimed values are recycled instead of left to the collector.
//
// Every domain is an independent object; there is no process-wide
// epoch, so containers built on separate domains never block each
// other's reclamation.
package memory
