package thermal

import (
	"os"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
)

// DefaultControlPath is the thermal message node read by the vendor thermal engine.
const DefaultControlPath = "/sys/class/thermal/thermal_message/sconfig"

// Control writes profile codes to the thermal control node.
type Control struct {
	path string
}

// NewControl returns a Control for path; an empty path selects DefaultControlPath.
func NewControl(path string) *Control {
	if path == "" {
		path = DefaultControlPath
	}
	return &Control{path: path}
}

// Path returns the node path.
func (c *Control) Path() string { return c.path }

// Available reports whether the control node exists.
func (c *Control) Available() bool {
	_, err := os.Stat(c.path)
	return err == nil
}

// Write writes a single line to the node. A missing node is not an error.
func (c *Control) Write(code string) error {
	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_TRUNC, 0)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryDevice, "open thermal control node").
			Warning().
			WithContext("path", c.path).
			Build()
	}
	defer f.Close()
	if _, err := f.WriteString(code + "\n"); err != nil {
		return errors.WrapError(err, errors.CategoryDevice, "write thermal control node").
			Warning().
			WithContext("path", c.path).
			WithContext("value", code).
			Build()
	}
	return nil
}
