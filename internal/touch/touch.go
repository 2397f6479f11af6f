// Package touch switches touch controller modes through the vendor touch device.
package touch

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
)

const (
	// DefaultDevicePath is the vendor touch controller node.
	DefaultDevicePath = "/dev/xiaomi-touch"

	ioctlSetMode      = 0x5400 // TOUCH_IOC_SETMODE
	modeDoubleTapWake = 14
)

// Device drives the touch controller node.
type Device struct {
	path  string
	ioctl func(fd uintptr, req uint, arg unsafe.Pointer) error
}

func NewDevice(path string) *Device {
	if path == "" {
		path = DefaultDevicePath
	}
	return &Device{path: path, ioctl: ioctlPtr}
}

func ioctlPtr(fd uintptr, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// Supported reports whether the device node exists.
func (d *Device) Supported() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// SetDoubleTapToWake enables or disables double-tap-to-wake.
func (d *Device) SetDoubleTapToWake(enabled bool) error {
	value := int32(0)
	if enabled {
		value = 1
	}
	return d.setMode(modeDoubleTapWake, value)
}

func (d *Device) setMode(mode, value int32) error {
	f, err := os.OpenFile(d.path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NotFoundError("touch device not present").WithContext("path", d.path).Build()
		}
		return errors.WrapError(err, errors.CategoryDevice, "open touch device").
			Warning().
			WithContext("path", d.path).
			Build()
	}
	defer f.Close()

	args := [2]int32{mode, value}
	if err := d.ioctl(f.Fd(), ioctlSetMode, unsafe.Pointer(&args)); err != nil {
		return errors.WrapError(err, errors.CategoryDevice, "touch mode ioctl failed").
			Warning().
			WithContext("path", d.path).
			WithContext("mode", mode).
			WithContext("value", value).
			Build()
	}
	return nil
}
