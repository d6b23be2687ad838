package pose

import (
	"errors"
	"fmt"
	"image"
	"os"
	"regexp"
	"strconv"
)

var (
	ErrNoImage       = errors.New("no image filename detected in your command")
	ErrImageNotFound = errors.New("image file not found, check the name or path")
	ErrInvalidSize   = errors.New("invalid size")
)

var (
	sizePattern  = regexp.MustCompile(`\b(\d+)\s*x\s*(\d+)\b`)
	imagePattern = regexp.MustCompile(`(?i)([A-Za-z0-9_\-./]+\.(?:png|jpg|jpeg|gif))\b`)
)

// maxSide bounds a requested WxH to keep decode buffers sane.
const maxSide = 4096

type request struct {
	path string
	size image.Point // zero when no WxH token was given
}

func parseRequest(args string) (request, error) {
	var req request

	if m := sizePattern.FindStringSubmatch(args); m != nil {
		w, errW := strconv.Atoi(m[1])
		h, errH := strconv.Atoi(m[2])
		if errW != nil || errH != nil || w <= 0 || h <= 0 || w > maxSide || h > maxSide {
			return request{}, fmt.Errorf("%w %q: each side must be between 1 and %d", ErrInvalidSize, m[0], maxSide)
		}
		req.size = image.Pt(w, h)
	}

	m := imagePattern.FindStringSubmatch(args)
	if m == nil {
		return request{}, ErrNoImage
	}
	req.path = m[1]

	st, err := os.Stat(req.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return request{}, fmt.Errorf("%w: %s", ErrImageNotFound, req.path)
		}
		return request{}, fmt.Errorf("stat %s: %w", req.path, err)
	}
	if st.IsDir() {
		return request{}, fmt.Errorf("%w: %s is a directory", ErrImageNotFound, req.path)
	}
	return req, nil
}
