// Eunomia is a GitOps-native authorization policy control plane.
//
// It validates, tests, bundles, signs, and distributes declarative Rego
// policies to a fleet of runtime enforcement instances, with health-driven
// rollout strategies and automatic rollback.
//
// Usage:
//
//	# Run every fixture/native test under a policy directory
//	eunomia test --dir policies/
//
//	# Assemble a signed-ready bundle archive
//	eunomia build --dir policies/ --service checkout --version 1.4.0
//
//	# Sign a bundle with the configured signing key
//	eunomia sign --bundle checkout-1.4.0.bundle --key-id default
//
//	# Publish a signed bundle to the configured OCI registry
//	eunomia publish --bundle checkout-1.4.0.bundle --service checkout
//
//	# Fetch a bundle back out of the registry
//	eunomia fetch --service checkout --version latest --output ./checkout.bundle
//
//	# Roll a published version out to a service's instances
//	eunomia push --bundle checkout-1.4.0.bundle --instances instances.json --service checkout --version 1.4.0 --strategy canary
//
//	# Roll a service back to its previous version
//	eunomia rollback --bundle checkout-1.3.2.bundle --instances instances.json --service checkout --version 1.3.2
//
//	# Inspect recent deployments and instance health
//	eunomia status --service checkout
//
// For complete documentation, see SPEC_FULL.md in the repository root.
package main

func main() {
	Execute()
}
