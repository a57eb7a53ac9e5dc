// Package storage provides read access to snapshots kept in S3-compatible
// object storage, addressed as s3://bucket/object.
//
// The Client interface is a narrow view over minio-go so loaders can be
// tested against mocks.Client.
package storage
