package profiles

import (
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// avatarExtensions maps each accepted avatar mime type to the object extension.
var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

var allowedAvatarDescription = describeAllowed()

func describeAllowed() string {
	names := make([]string, 0, len(avatarExtensions))
	for _, ext := range avatarExtensions {
		names = append(names, strings.ToUpper(ext))
	}
	sort.Strings(names)
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}

// sniffAvatar detects the image type from content. The declared content type
// is never trusted.
func sniffAvatar(data []byte) (mimeType, ext string, ok bool) {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if ext, ok := avatarExtensions[m.String()]; ok {
			return m.String(), ext, true
		}
	}
	return detected.String(), "", false
}
