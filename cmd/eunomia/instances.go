package main

import (
	"encoding/json"
	"fmt"
	"os"

	"eunomia-hq/eunomia/pkg/distributor"
)

// instanceRecord is the on-disk shape of one entry in an --instances file:
// a flat JSON array, since the CLI always targets a single service per
// invocation (the service the bundle/deployment names).
type instanceRecord struct {
	ID       string            `json:"id"`
	Endpoint string            `json:"endpoint"`
	TLS      bool              `json:"tls"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// loadInstances reads a JSON array of instanceRecord from path and
// returns it as distributor.Instance values, seeded Unknown until the
// first push or health check-in updates them.
func loadInstances(path string) ([]distributor.Instance, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instances file %s: %w", path, err)
	}
	var records []instanceRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse instances file %s: %w", path, err)
	}
	instances := make([]distributor.Instance, 0, len(records))
	for _, r := range records {
		instances = append(instances, distributor.Instance{
			ID:       r.ID,
			Endpoint: r.Endpoint,
			TLS:      r.TLS,
			Metadata: r.Metadata,
			Status:   distributor.StatusUnknown,
		})
	}
	return instances, nil
}
