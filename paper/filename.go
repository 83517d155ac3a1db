package paper

import (
	"regexp"
	"strings"
)

// DocExt is the extension of every rendered document.
const DocExt = ".docx"

var unsafeChars = regexp.MustCompile(`[/\\:*?"<>|]`)

// Sanitize replaces characters that are not allowed in file names with "_".
func Sanitize(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// BaseName is the derived name of a record without extension:
// {category}-{date}-{title}. It is the dedup key for the record.
func BaseName(r Record) string {
	return Sanitize(r.Category + "-" + r.Date() + "-" + r.Title)
}

// FileName is the on-disk document name of a record.
func FileName(r Record) string {
	return BaseName(r) + DocExt
}

// AttachmentFileName is the on-disk name of a record's attachment
// document. The underscore sorts it directly after the article itself.
func AttachmentFileName(r Record) string {
	return BaseName(r) + "_" + AttachmentMarker + DocExt
}

// AttachmentCategory is the category line written into attachment
// documents.
func AttachmentCategory(category string) string {
	return category + "-" + AttachmentMarker
}

// CategoryOf returns the category prefix of a derived file name, which is
// everything before the first "-".
func CategoryOf(fileName string) string {
	name := strings.TrimSuffix(fileName, DocExt)
	if i := strings.Index(name, "-"); i >= 0 {
		return name[:i]
	}
	return name
}
