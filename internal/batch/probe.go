package batch

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/takeshy/ddsbatch/internal/fileutil"
	"github.com/takeshy/ddsbatch/internal/rules"
)

// SizeCheck is what a source header says about converting it to a format
type SizeCheck struct {
	Header fileutil.ImageHeader
	// Known is false when no registered decoder reads the header (tga, hdr, ...)
	Known bool
	// Warning is set when a block-compressed format meets a size that is not a multiple of 4
	Warning string
}

// Size returns WxH, or ? for unreadable headers
func (c SizeCheck) Size() string {
	if !c.Known {
		return "?"
	}
	return fmt.Sprintf("%dx%d", c.Header.Width, c.Header.Height)
}

// CheckSize reads the header of source and checks it against format.
// Undecodable image types are not an error.
func CheckSize(source string, format rules.Format) (SizeCheck, error) {
	h, err := fileutil.ProbeImage(source)
	if errors.Is(err, fileutil.ErrProbeUnsupported) {
		return SizeCheck{}, nil
	}
	if err != nil {
		return SizeCheck{}, err
	}

	c := SizeCheck{Header: h, Known: true}
	if format.Compressed() && !h.BlockAligned() {
		c.Warning = fmt.Sprintf("%s is %s; %s works on 4x4 blocks and texconv will pad or fail",
			filepath.Base(source), c.Size(), format)
	}
	return c, nil
}
