// Package memory configures the Go runtime memory limit from container
// environment variables.
//
// Image decoding is the dominant memory consumer in this service: a
// single large PNG can expand to hundreds of megabytes of RGBA pixels.
// Setting GOMEMLIMIT below the container limit keeps the garbage
// collector ahead of decode spikes instead of letting the kernel OOM
// kill the process.
package memory
