//go:build linux

package uinput

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl request encoding (Linux _IOC macro).
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

const uinputIoctlBase = 'U'

// uinput requests (linux/uinput.h).
var (
	uiDevCreate  = ioc(iocNone, uinputIoctlBase, 1, 0)
	uiDevDestroy = ioc(iocNone, uinputIoctlBase, 2, 0)
	uiDevSetup   = ioc(iocWrite, uinputIoctlBase, 3, uint32(unsafe.Sizeof(setup{})))
	uiAbsSetup   = ioc(iocWrite, uinputIoctlBase, 4, uint32(unsafe.Sizeof(absSetup{})))

	uiSetEvBit  = ioc(iocWrite, uinputIoctlBase, 100, uint32(unsafe.Sizeof(int32(0))))
	uiSetKeyBit = ioc(iocWrite, uinputIoctlBase, 101, uint32(unsafe.Sizeof(int32(0))))
	uiSetAbsBit = ioc(iocWrite, uinputIoctlBase, 103, uint32(unsafe.Sizeof(int32(0))))
	uiSetFFBit  = ioc(iocWrite, uinputIoctlBase, 107, uint32(unsafe.Sizeof(int32(0))))

	uiBeginFFUpload = ioc(iocRead|iocWrite, uinputIoctlBase, 200, uint32(unsafe.Sizeof(FFUpload{})))
	uiEndFFUpload   = ioc(iocWrite, uinputIoctlBase, 201, uint32(unsafe.Sizeof(FFUpload{})))
	uiBeginFFErase  = ioc(iocRead|iocWrite, uinputIoctlBase, 202, uint32(unsafe.Sizeof(FFErase{})))
	uiEndFFErase    = ioc(iocWrite, uinputIoctlBase, 203, uint32(unsafe.Sizeof(FFErase{})))
)

func ioctlPtr(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlInt(fd int, req uintptr, arg int32) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
