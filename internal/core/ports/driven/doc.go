// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - PageFetcher: Retrieves one page of issues from the remote source
//   - IssueSink: Appends derived issue records to durable storage
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - RepositoryInspector: Pre-flight repository check. When nil the
//     export starts fetching immediately.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
