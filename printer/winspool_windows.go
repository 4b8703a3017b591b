//go:build windows

package printer

// Resources:
//  https://learn.microsoft.com/en-us/windows/win32/printdocs/documentproperties
//  https://learn.microsoft.com/en-us/windows/win32/api/wingdi/nf-wingdi-devicecapabilitiesw
//  https://learn.microsoft.com/en-us/windows/win32/api/wingdi/nf-wingdi-stretchdibits

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/dancollins/labelprinter/bmp"
)

var (
	winspool = windows.NewLazySystemDLL("winspool.drv")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")

	procGetDefaultPrinter  = winspool.NewProc("GetDefaultPrinterW")
	procOpenPrinter        = winspool.NewProc("OpenPrinterW")
	procClosePrinter       = winspool.NewProc("ClosePrinter")
	procGetPrinter         = winspool.NewProc("GetPrinterW")
	procDocumentProperties = winspool.NewProc("DocumentPropertiesW")
	procDeviceCapabilities = winspool.NewProc("DeviceCapabilitiesW")

	procCreateDC         = gdi32.NewProc("CreateDCW")
	procDeleteDC         = gdi32.NewProc("DeleteDC")
	procGetDeviceCaps    = gdi32.NewProc("GetDeviceCaps")
	procSaveDC           = gdi32.NewProc("SaveDC")
	procRestoreDC        = gdi32.NewProc("RestoreDC")
	procSetMapMode       = gdi32.NewProc("SetMapMode")
	procSetWindowExtEx   = gdi32.NewProc("SetWindowExtEx")
	procSetViewportExtEx = gdi32.NewProc("SetViewportExtEx")
	procSetViewportOrgEx = gdi32.NewProc("SetViewportOrgEx")
	procStartDoc         = gdi32.NewProc("StartDocW")
	procStartPage        = gdi32.NewProc("StartPage")
	procEndPage          = gdi32.NewProc("EndPage")
	procEndDoc           = gdi32.NewProc("EndDoc")
	procStretchDIBits    = gdi32.NewProc("StretchDIBits")
)

const (
	dcPapers     = 2
	dcPaperSize  = 3
	dcPaperNames = 16

	dmOrientation = 0x00000001
	dmPaperSize   = 0x00000002

	dmOrientPortrait  = 1
	dmOrientLandscape = 2

	dmOutBuffer = 2
	dmInBuffer  = 8
	idOK        = 1

	capHorzRes         = 8
	capVertRes         = 10
	capLogPixelsX      = 88
	capLogPixelsY      = 90
	capPhysicalWidth   = 110
	capPhysicalHeight  = 111
	capPhysicalOffsetX = 112
	capPhysicalOffsetY = 113

	mmAnisotropic = 8

	dibRGBColors = 0
	srcCopy      = 0x00cc0020
)

// devmode is the fixed prefix of DEVMODEW. The driver's full structure is
// larger; it lives in a driver-sized buffer this struct overlays.
type devmode struct {
	DeviceName    [32]uint16
	SpecVersion   uint16
	DriverVersion uint16
	Size          uint16
	DriverExtra   uint16
	Fields        uint32
	Orientation   int16
	PaperSize     int16
	PaperLength   int16
	PaperWidth    int16
	Scale         int16
	Copies        int16
	DefaultSource int16
	PrintQuality  int16
	Color         int16
	Duplex        int16
	YResolution   int16
	TTOption      int16
	Collate       int16
	FormName      [32]uint16
}

// printerInfo2 is the leading pointers of PRINTER_INFO_2W, enough to reach
// the DEVMODE.
type printerInfo2 struct {
	ServerName  *uint16
	PrinterName *uint16
	ShareName   *uint16
	PortName    *uint16
	DriverName  *uint16
	Comment     *uint16
	Location    *uint16
	DevMode     *devmode
}

type point struct {
	X, Y int32
}

type docInfo struct {
	Size     int32
	DocName  *uint16
	Output   *uint16
	Datatype *uint16
	Type     uint32
}

// SystemBackend returns the host's printing backend.
func SystemBackend() (Backend, error) {
	return winspoolBackend{}, nil
}

type winspoolBackend struct{}

func (winspoolBackend) DefaultPrinter() (string, error) {
	var n uint32
	procGetDefaultPrinter.Call(0, uintptr(unsafe.Pointer(&n)))
	if n == 0 {
		return "", errors.New("failed to get default printer name")
	}
	buf := make([]uint16, n)
	r, _, err := procGetDefaultPrinter.Call(
		uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&n)))
	if r == 0 {
		return "", fmt.Errorf("failed to get default printer name: %v", err)
	}
	return windows.UTF16ToString(buf), nil
}

func openPrinter(name string) (windows.Handle, error) {
	wname, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	var h windows.Handle
	r, _, callErr := procOpenPrinter.Call(
		uintptr(unsafe.Pointer(wname)), uintptr(unsafe.Pointer(&h)), 0)
	if r == 0 {
		return 0, fmt.Errorf("failed to open printer %s: %v", name, callErr)
	}
	return h, nil
}

func (winspoolBackend) DefaultPaperName(printer string) (string, error) {
	h, err := openPrinter(printer)
	if err != nil {
		return "", err
	}
	defer procClosePrinter.Call(uintptr(h))

	// PRINTER_INFO_2 has the DEVMODE we need. Probe for the size first.
	var n uint32
	procGetPrinter.Call(uintptr(h), 2, 0, 0, uintptr(unsafe.Pointer(&n)))
	if n == 0 {
		return "", errors.New("failed to get printer info")
	}
	buf := make([]byte, n)
	r, _, callErr := procGetPrinter.Call(uintptr(h), 2,
		uintptr(unsafe.Pointer(&buf[0])), uintptr(n),
		uintptr(unsafe.Pointer(&n)))
	if r == 0 {
		return "", fmt.Errorf("failed to get printer info: %v", callErr)
	}

	info := (*printerInfo2)(unsafe.Pointer(&buf[0]))
	if info.DevMode == nil {
		return "", errors.New("DEVMODE not found in printer info")
	}
	return windows.UTF16ToString(info.DevMode.FormName[:]), nil
}

func (winspoolBackend) PaperSizes(printer string) ([]PaperSize, error) {
	wname, err := windows.UTF16PtrFromString(printer)
	if err != nil {
		return nil, err
	}

	// Three parallel queries sharing indices: size codes, dimensions in
	// tenths of a millimeter, and fixed-width names. Probe the count with
	// a nil output buffer first.
	r, _, _ := procDeviceCapabilities.Call(
		uintptr(unsafe.Pointer(wname)), 0, dcPapers, 0, 0)
	count := int(int32(r))
	if count <= 0 {
		return nil, errors.New("failed to get paper sizes")
	}

	codes := make([]uint16, count)
	r, _, _ = procDeviceCapabilities.Call(uintptr(unsafe.Pointer(wname)), 0,
		dcPapers, uintptr(unsafe.Pointer(&codes[0])), 0)
	if int32(r) <= 0 {
		return nil, errors.New("failed to get paper sizes")
	}

	dimensions := make([]point, count)
	r, _, _ = procDeviceCapabilities.Call(uintptr(unsafe.Pointer(wname)), 0,
		dcPaperSize, uintptr(unsafe.Pointer(&dimensions[0])), 0)
	if int32(r) <= 0 {
		return nil, errors.New("failed to get paper dimensions")
	}

	names := make([]uint16, count*PaperNameSize)
	r, _, _ = procDeviceCapabilities.Call(uintptr(unsafe.Pointer(wname)), 0,
		dcPaperNames, uintptr(unsafe.Pointer(&names[0])), 0)
	if int32(r) <= 0 {
		return nil, errors.New("failed to get paper names")
	}

	sizes := make([]PaperSize, 0, count)
	for i := 0; i < count; i++ {
		sizes = append(sizes, PaperSize{
			Name:     windows.UTF16ToString(names[i*PaperNameSize : (i+1)*PaperNameSize]),
			Code:     int16(codes[i]),
			WidthMM:  float64(dimensions[i].X) / 10,
			HeightMM: float64(dimensions[i].Y) / 10,
		})
	}
	return sizes, nil
}

// winspoolConfig owns the driver-sized DEVMODE buffer until the device
// context has been created from it.
type winspoolConfig struct {
	buf   []byte
	dmode *devmode
}

func (c *winspoolConfig) PaperCode() int16 {
	return c.dmode.PaperSize
}

func (c *winspoolConfig) Orientation() Orientation {
	if c.dmode.Orientation == dmOrientLandscape {
		return Landscape
	}
	return Portrait
}

func (winspoolBackend) ConfigurePage(printer string, paper PaperSize,
	o Orientation, apply bool) (PageConfig, error) {
	h, err := openPrinter(printer)
	if err != nil {
		return nil, err
	}
	defer procClosePrinter.Call(uintptr(h))

	wname, err := windows.UTF16PtrFromString(printer)
	if err != nil {
		return nil, err
	}

	r, _, _ := procDocumentProperties.Call(0, uintptr(h),
		uintptr(unsafe.Pointer(wname)), 0, 0, 0)
	size := int(int32(r))
	if size <= 0 {
		return nil, errors.New("failed to get printer properties size")
	}

	buf := make([]byte, size)
	dm := (*devmode)(unsafe.Pointer(&buf[0]))
	r, _, _ = procDocumentProperties.Call(0, uintptr(h),
		uintptr(unsafe.Pointer(wname)), uintptr(unsafe.Pointer(&buf[0])),
		0, dmOutBuffer)
	if int32(r) != idOK {
		return nil, errors.New("failed to get printer properties")
	}

	dm.Fields |= dmPaperSize | dmOrientation
	dm.PaperSize = paper.Code
	if o == Landscape {
		dm.Orientation = dmOrientLandscape
	} else {
		dm.Orientation = dmOrientPortrait
	}

	if apply {
		// A single driver call validates and applies both fields; the
		// driver may clamp combinations it cannot satisfy.
		r, _, _ = procDocumentProperties.Call(0, uintptr(h),
			uintptr(unsafe.Pointer(wname)), uintptr(unsafe.Pointer(&buf[0])),
			uintptr(unsafe.Pointer(&buf[0])), dmInBuffer|dmOutBuffer)
		if int32(r) != idOK {
			return nil, errors.New("failed to set paper size")
		}
	}
	return &winspoolConfig{buf: buf, dmode: dm}, nil
}

func (winspoolBackend) OpenContext(printer string,
	cfg PageConfig) (Context, error) {
	wc, ok := cfg.(*winspoolConfig)
	if !ok {
		return nil, errors.New("page settings from a different backend")
	}
	driver, err := windows.UTF16PtrFromString("WINSPOOL")
	if err != nil {
		return nil, err
	}
	wname, err := windows.UTF16PtrFromString(printer)
	if err != nil {
		return nil, err
	}

	hdc, _, callErr := procCreateDC.Call(uintptr(unsafe.Pointer(driver)),
		uintptr(unsafe.Pointer(wname)), 0,
		uintptr(unsafe.Pointer(&wc.buf[0])))
	if hdc == 0 {
		return nil, fmt.Errorf("failed to create printer context: %v", callErr)
	}
	return &winspoolContext{hdc: hdc}, nil
}

type winspoolContext struct {
	hdc   uintptr
	saved int32
}

func (c *winspoolContext) caps(index int) int {
	r, _, _ := procGetDeviceCaps.Call(c.hdc, uintptr(index))
	return int(int32(r))
}

func (c *winspoolContext) Metrics() (Metrics, error) {
	return Metrics{
		PageW:      c.caps(capPhysicalWidth),
		PageH:      c.caps(capPhysicalHeight),
		PrintableW: c.caps(capHorzRes),
		PrintableH: c.caps(capVertRes),
		ResX:       DPIToPixelsPerMeter(c.caps(capLogPixelsX)),
		ResY:       DPIToPixelsPerMeter(c.caps(capLogPixelsY)),
		OffsetX:    c.caps(capPhysicalOffsetX),
		OffsetY:    c.caps(capPhysicalOffsetY),
	}, nil
}

func (c *winspoolContext) SaveState() error {
	r, _, _ := procSaveDC.Call(c.hdc)
	if int32(r) <= 0 {
		return errors.New("failed to save printer context")
	}
	c.saved = int32(r)
	return nil
}

func (c *winspoolContext) RestoreState() error {
	if c.saved == 0 {
		return nil
	}
	r, _, _ := procRestoreDC.Call(c.hdc, uintptr(c.saved))
	c.saved = 0
	if r == 0 {
		return errors.New("failed to restore printer context")
	}
	return nil
}

func (c *winspoolContext) SetMapping(m Mapping) error {
	if r, _, _ := procSetMapMode.Call(c.hdc, mmAnisotropic); r == 0 {
		return errors.New("failed to set map mode")
	}
	if r, _, _ := procSetWindowExtEx.Call(c.hdc,
		uintptr(m.WindowW), uintptr(m.WindowH), 0); r == 0 {
		return errors.New("failed to set window extents")
	}
	if r, _, _ := procSetViewportExtEx.Call(c.hdc,
		uintptr(m.ViewportW), uintptr(m.ViewportH), 0); r == 0 {
		return errors.New("failed to set viewport extents")
	}
	if r, _, _ := procSetViewportOrgEx.Call(c.hdc,
		uintptr(m.OriginX), uintptr(m.OriginY), 0); r == 0 {
		return errors.New("failed to set viewport origin")
	}
	return nil
}

func (c *winspoolContext) StartDoc(name string) error {
	wname, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return err
	}
	di := docInfo{DocName: wname}
	di.Size = int32(unsafe.Sizeof(di))
	r, _, _ := procStartDoc.Call(c.hdc, uintptr(unsafe.Pointer(&di)))
	if int32(r) <= 0 {
		return errors.New("failed to start document")
	}
	return nil
}

func (c *winspoolContext) StartPage() error {
	r, _, _ := procStartPage.Call(c.hdc)
	if int32(r) <= 0 {
		return errors.New("failed to start page")
	}
	return nil
}

func (c *winspoolContext) DrawImage(img *bmp.Image) error {
	info, pixels := img.Info(), img.Pixels()
	r, _, _ := procStretchDIBits.Call(c.hdc,
		0, 0, uintptr(img.Width), uintptr(img.Height),
		0, 0, uintptr(img.Width), uintptr(img.Height),
		uintptr(unsafe.Pointer(&pixels[0])),
		uintptr(unsafe.Pointer(&info[0])),
		dibRGBColors, srcCopy)
	if int32(r) <= 0 {
		return errors.New("failed to draw label")
	}
	return nil
}

func (c *winspoolContext) EndPage() error {
	r, _, _ := procEndPage.Call(c.hdc)
	if int32(r) <= 0 {
		return errors.New("failed to end page")
	}
	return nil
}

func (c *winspoolContext) EndDoc() error {
	r, _, _ := procEndDoc.Call(c.hdc)
	if int32(r) <= 0 {
		return errors.New("failed to end document")
	}
	return nil
}

func (c *winspoolContext) Close() error {
	if r, _, _ := procDeleteDC.Call(c.hdc); r == 0 {
		return errors.New("failed to delete printer context")
	}
	return nil
}
