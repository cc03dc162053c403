/*
Package workers provides utilities for determining worker pool sizes in
containerized environments.

When running in a container, the number of available CPUs may be limited
by cgroup constraints. Go 1.19+ sets GOMAXPROCS from the container CPU
limit automatically, while runtime.NumCPU() still reports the host CPU
count. The helpers in this package size worker pools from GOMAXPROCS so
that the thumbnail pipeline respects container limits.

Usage:

	// CPU-bound work (image decode/resize/encode), 1 worker per CPU
	n := workers.ForCPU(8)

	// I/O-bound work (file reads/writes), 2 workers per CPU
	n := workers.ForIO(16)

All functions respect the TRANSFORM_WORKERS environment variable as a
manual override.
*/
package workers
