// Package file stores uploaded template images.
//
// Uploads are validated before they reach a backend: only image/* content is
// accepted, at most MaxImageSize bytes, and files land under ImageFolder with
// a unique, sanitized name. Backends:
//
//   - LocalStorage writes below a base directory and serves from a URL prefix.
//   - S3Storage puts objects into an S3 (or S3-compatible) bucket.
//   - CosmicUploader hands the file to the object store's media library.
//
// Storage backends are turned into an Uploader with NewStorageUploader; the
// Cosmic media library is an Uploader already.
//
//	up := file.NewStorageUploader(s3store)
//	img, err := up.Upload(ctx, file.Upload{Filename: "logo.png", ContentType: "image/png", Content: data})
//	fmt.Println(img.URL)
package file
