// Package mediakey derives the logical identity shared by a CSV metadata row
// and every physical copy of the same exported item.
//
// The export process appends a "(N)" suffix before the extension when a file
// would otherwise overwrite an earlier extraction, and filename case can vary
// between the CSV reference and the file on disk. Both the catalog loader and
// the inventory scanner normalize through this package so their keys always
// agree.
package mediakey
