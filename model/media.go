package model

import "strings"

var extensionByContentType = map[string]string{
	"image/png":        ".png",
	"image/jpeg":       ".jpg",
	"video/webm":       ".webm",
	"video/mp4":        ".mp4",
	"text/plain":       ".txt",
	"text/html":        ".html",
	"application/json": ".json",
}

// ExtensionForContentType maps a MIME type to a file extension, or "" when
// unknown. Parameters such as charset are ignored.
func ExtensionForContentType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return extensionByContentType[strings.ToLower(strings.TrimSpace(mediaType))]
}

// ContentTypeForExtension maps a file extension back to its MIME type, or ""
// when unknown.
func ContentTypeForExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	for contentType, e := range extensionByContentType {
		if e == ext {
			return contentType
		}
	}
	return ""
}
