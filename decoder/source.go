package decoder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileSource treats keys as filesystem paths, with an optional "file://"
// prefix. It is the default Source of a Manager. Keys carrying any other
// URL scheme are rejected; supply a custom Source to fetch those.
func FileSource(key string) (io.ReadCloser, error) {
	path := key
	if strings.HasPrefix(path, "file://") {
		path = strings.TrimPrefix(path, "file://")
	} else if i := strings.Index(path, "://"); i >= 0 {
		return nil, fmt.Errorf("decoder: unsupported scheme in key %q", key)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("decoder: open %q: %w", key, err)
	}
	return f, nil
}
