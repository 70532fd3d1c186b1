// Package tagging derives the EXIF/XMP tag set for a catalog record and
// applies it to a media file through the external tagging tool.
//
// Existing tag values on the file are respected: a tag is only written when
// the file has no value for it, or when the derived value is non-empty and
// differs from what is already there.
package tagging
