// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - KeyValueStore: Crop metadata and catalogue collections
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Uploader: Accepts image payloads and returns a locator. Without it, uploads fail.
//   - ImageProber: Resolves natural image size. Without it, renders skip the load check.
//   - ChangeNotifier: Broadcasts committed saves. Without it, saves are silent.
//   - Clock: Time source. Defaults to the system clock.
//   - SearchMetrics: Records queries and rebuilds. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
