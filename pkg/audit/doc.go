// Package audit records the operations the platform performs against
// policies and instances: builds, deployments, rollbacks, and the
// authorization decisions evaluated at the data plane. Events flow
// through a pluggable Sink; pkg/audit/storage provides sqlite-backed
// and in-memory implementations.
package audit
