// Package storage lays out mirrored albums on disk.
//
// Each album lives in its own directory named "<YYYY-MM-DD> - <title>"
// under the save root, holding one "<image title>.jpg" per photo. The
// Manager decides whether an album needs downloading by counting the .jpg
// files already present and writes images atomically through a temporary
// file and rename.
//
//	manager, err := storage.NewManager("downloads", log)
//	if err != nil {
//	    return err
//	}
//	decision, existing, err := manager.Check(album)
//	if decision == storage.DecisionDownload {
//	    err = manager.SaveImage(album.TargetDirectory, "IMG_0001", data)
//	}
package storage
