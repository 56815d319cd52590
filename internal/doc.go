// Package internal contains private implementation details of the transfer module.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - transfer: planning, pooling, resume and orchestration of multipart transfers
//   - validation: input validation logic
//   - pool: part buffer reuse
//   - metrics: Prometheus collectors for parts and sessions
//   - s3api: the narrow AWS SDK surface the S3 store calls
//   - config, logging: configuration and logging of the xfer command
//   - testutil: mocks, data generators and the LocalStack helper
package internal
