package normalize

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// UploadedFileName extracts the stored file name from an upload response:
// file.savedName, then filename, then the last segment of url. A
// {success, data} envelope is unwrapped first.
func UploadedFileName(payload any) (string, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnrecognizedShape, describe(payload))
	}
	if isTrue(m["success"]) {
		if data, ok := m["data"].(map[string]any); ok {
			m = data
		}
	}
	rec := Record(m)
	if name := rec.Object("file").String("savedName"); name != "" {
		return name, nil
	}
	for _, key := range []string{"filename", "fileName", "savedName"} {
		if name := rec.String(key); name != "" {
			return name, nil
		}
	}
	if raw := rec.String("url"); raw != "" {
		if name := lastSegment(raw); name != "" {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: no file name in upload response", ErrUnrecognizedShape)
}

func lastSegment(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
