package imagehost

import (
	"regexp"
	"strconv"
	"strings"

	"kasetinfo/internal/models"
)

const uploadSegment = "/upload/"

// Options are the display-time transformation hints.
type Options struct {
	// Width is the target display width in pixels; zero leaves it to the host.
	Width int
}

// Card is the transformation used for list cards.
var Card = Options{Width: 600}

// Detail is the transformation used for the detail view hero image.
var Detail = Options{Width: 1200}

// Transform inserts quality, format, and crop parameters into an image
// host delivery URL. URLs from other hosts, and URLs that already carry a
// transformation, are returned unchanged. Only the returned string is
// affected; stored URLs are never rewritten.
func Transform(rawURL string, opts Options) string {
	i := strings.Index(rawURL, uploadSegment)
	if i < 0 {
		return rawURL
	}
	rest := rawURL[i+len(uploadSegment):]
	if hasTransformation(rest) {
		return rawURL
	}

	params := "q_auto,f_auto,c_fill"
	if opts.Width > 0 {
		params += ",w_" + strconv.Itoa(opts.Width)
	}
	return rawURL[:i+len(uploadSegment)] + params + "/" + rest
}

// DisplayURL returns the transformed image URL, or the placeholder when
// the item has no image.
func DisplayURL(rawURL string, opts Options) string {
	if strings.TrimSpace(rawURL) == "" {
		return models.PlaceholderImageURL
	}
	return Transform(rawURL, opts)
}

// transformParam matches one transformation such as "w_600" or "ar_16:9".
var transformParam = regexp.MustCompile(`^(a|ar|b|bo|c|co|dpr|e|f|fl|g|h|l|o|q|r|t|u|w|x|y|z)_[^,/]+$`)

// hasTransformation reports whether the first path segment after /upload/
// is a transformation list. The last segment is always the public ID, so
// it never counts.
func hasTransformation(rest string) bool {
	seg, tail, found := strings.Cut(rest, "/")
	if !found || seg == "" || tail == "" {
		return false
	}
	for _, p := range strings.Split(seg, ",") {
		if !transformParam.MatchString(p) {
			return false
		}
	}
	return true
}
