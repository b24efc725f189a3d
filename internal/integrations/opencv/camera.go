package opencv

import (
	"context"
	"fmt"
	"image"
	"sync"

	"registro-ponto/internal/core/capture"

	log "github.com/sirupsen/logrus"
	gocv "gocv.io/x/gocv"
)

// Camera liest Bilder von einem lokalen Videogerät
type Camera struct {
	deviceID int

	mutex sync.Mutex
	vc    *gocv.VideoCapture
	frame gocv.Mat
	gray  gocv.Mat
}

// NewCamera erstellt eine Kamera für den Geräteindex deviceID. Das Gerät wird erst mit Open belegt.
func NewCamera(deviceID int) *Camera {
	return &Camera{deviceID: deviceID}
}

// Open belegt das Videogerät
func (c *Camera) Open(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.vc != nil {
		return fmt.Errorf("camera %d is already open", c.deviceID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	vc, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("%w: device %d: %v", capture.ErrDeviceUnavailable, c.deviceID, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("%w: device %d could not be opened", capture.ErrDeviceUnavailable, c.deviceID)
	}

	c.vc = vc
	c.frame = gocv.NewMat()
	c.gray = gocv.NewMat()
	log.Infof("Kamera %d geöffnet", c.deviceID)
	return nil
}

// Next liest das nächste Bild. Ein leerer Lesevorgang liefert capture.ErrNoFrame.
func (c *Camera) Next() (*capture.Frame, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.vc == nil {
		return nil, fmt.Errorf("%w: camera %d is not open", capture.ErrDeviceUnavailable, c.deviceID)
	}
	if ok := c.vc.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, capture.ErrNoFrame
	}

	gocv.CvtColor(c.frame, &c.gray, gocv.ColorBGRToGray)

	grayImg, err := c.gray.ToImage()
	if err != nil {
		return nil, fmt.Errorf("konnte Graubild nicht konvertieren: %w", err)
	}
	gray, ok := grayImg.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected gray image type %T", grayImg)
	}
	colorImg, err := c.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("konnte Farbbild nicht konvertieren: %w", err)
	}

	return &capture.Frame{Gray: gray, Color: colorImg}, nil
}

// Close gibt das Videogerät frei. Mehrfacher Aufruf ist erlaubt.
func (c *Camera) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.frame.Close()
	c.gray.Close()
	c.vc = nil
	log.Infof("Kamera %d freigegeben", c.deviceID)
	return err
}
