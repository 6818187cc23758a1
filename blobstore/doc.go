// Package blobstore provides assetstore.BlobStore implementations: in
// memory, on the local filesystem, on S3-compatible storage through MinIO,
// and on Google Cloud Storage.
//
// Every store returns assetstore.ErrBlobNotFound (wrapped) when a blob is
// absent, so the asset repository can treat repeated deletes as done.
// URL returns a source the renderer's image loader understands: a data URI,
// a file:// URL, or an http(s) URL.
package blobstore
