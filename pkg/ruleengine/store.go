package ruleengine

import (
	"github.com/open-policy-agent/opa/v1/storage"
	"github.com/open-policy-agent/opa/v1/storage/inmem"
)

// newDataStore builds an in-memory OPA store rooted at data.<key> for
// each entry, so static fixture/config documents registered via AddData
// are visible to policies as data.<root>.
func newDataStore(docs map[string]any) storage.Store {
	root := make(map[string]any, len(docs))
	for k, v := range docs {
		root[k] = v
	}
	return inmem.NewFromObject(root)
}
