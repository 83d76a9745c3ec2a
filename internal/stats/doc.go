// Package stats keeps the displayed container metrics consistent with the
// stats server.
//
// The Controller owns a State and wires five collaborators around it:
//
//	CacheClient         one snapshot load, tagged with a generation token
//	Reconcile/Rebuild   apply a snapshot onto the displayed EntitySet
//	CountdownScheduler  per-second countdowns and opportunistic refetch
//	RefreshCoordinator  POST a recompute, then poll until the snapshot changes
//	SystemPulse         independent host metrics poller with backoff
//
// Every method in this package except the Controller's public methods must be
// called on the scheduler's loop. Results reach the outside world only
// through the Surface and Notifier interfaces.
package stats
