// Package validation provides centralized input validation logic.
// This includes bucket name validation, object key validation, and security checks.
//
// All user inputs are validated before any request reaches the store to prevent
// injection attacks and keep requests within S3 naming rules.
package validation
