// Package testsuite discovers policy tests and fixtures under a directory
// tree, loads them into a shared rule engine, and executes them serially
// or concurrently against per-worker engine clones.
package testsuite
