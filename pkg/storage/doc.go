// Package storage writes downloaded images to disk.
//
// The Manager never creates directories: the download directory must exist.
// Files are written to "<name>.<uuid>.part" and renamed on success, so an
// interrupted download leaves neither a truncated image nor a stray partial
// file behind.
//
// Usage:
//
//	manager, err := storage.NewManager(dir)
//	if err != nil {
//	    return err
//	}
//
//	name := storage.FileNameFromURL(imageURL, "APODdownload")
//	if !manager.Exists(name) {
//	    path, err := manager.Save(body, name)
//	}
package storage
