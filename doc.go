// Package transfer uploads and copies large objects to S3-compatible stores
// as resumable, concurrent multipart sessions.
//
// A Client splits a local file, a stream, or a remote object into ordered
// parts, sends them through a bounded worker pool and finalizes the object
// only when every part is present on the store. A failed transfer aborts its
// session; an interrupted file upload leaves its session behind, and the next
// upload of the same file to the same key continues it after verifying every
// part the store already holds.
//
// Stores are pluggable through the store.Store interface. New talks to S3
// through the AWS SDK, NewMinIO through minio-go, and NewWithStore accepts any
// implementation, such as the in-memory store/memstore used in tests.
//
// Example usage:
//
//	client, err := transfer.New(transfer.WithRegion("eu-central-1"))
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.UploadFile(ctx, "my-bucket", "backups/db.tar", "/var/backups/db.tar")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.ETag, result.Resumed)
package transfer
