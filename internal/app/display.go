package app

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/inertial_glove/internal/calibration"
	"github.com/relabs-tech/inertial_glove/internal/config"
	"github.com/relabs-tech/inertial_glove/internal/protocol"
)

// Panel geometry.
const (
	displayW = 128
	displayH = 64

	rowH      = 12 // one finger per row
	barX      = 10 // after the one-letter label
	barH      = 8
	barTopPad = 2
)

// DisplayData holds the latest report for display.
type DisplayData struct {
	mu       sync.RWMutex
	fields   []protocol.Field
	haveData bool
}

func (d *DisplayData) store(fields []protocol.Field) {
	d.mu.Lock()
	d.fields = fields
	d.haveData = true
	d.mu.Unlock()
}

func (d *DisplayData) snapshot() ([]protocol.Field, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fields, d.haveData
}

// RunDisplay shows curl bars for the latest report on an SSD1306 OLED.
func RunDisplay(ctx context.Context) error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	logrus.Infof("display: initialized on I2C bus %q", cfg.DisplayI2CBus)

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		logrus.Warnf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	client, err := connectMQTT(cfg, cfg.MQTTClientIDDisplay, "display")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	token := client.Subscribe(cfg.TopicReport, 0, func(_ mqtt.Client, msg mqtt.Message) {
		fields, err := protocol.Decode(string(msg.Payload()))
		if err != nil {
			logrus.Debugf("display: report decode error: %v", err)
			return
		}
		data.store(fields)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	logrus.Infof("display: subscribed to %s", cfg.TopicReport)

	out := calibration.Range{Min: cfg.OutputMin, Max: cfg.OutputMax}
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	logrus.Info("display: starting update loop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		fields, ok := data.snapshot()
		if err := dev.Draw(dev.Bounds(), renderHand(fields, ok, out), image.Point{}); err != nil {
			logrus.Warnf("display: error updating display: %v", err)
		}
	}
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

// renderHand draws one labelled curl bar per finger, thumb on top. Bar
// length is the curl's position in out.
func renderHand(fields []protocol.Field, haveData bool, out calibration.Range) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Glove"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
		return img
	}

	byFinger := protocol.GroupByFinger(fields)
	maxLen := displayW - barX
	for row, t := range protocol.Fingers {
		top := row * rowH
		drawer.Dot = fixed.P(0, top+rowH-1)
		drawer.DrawBytes([]byte{byte(t)})

		v, ok := byFinger[t]
		if !ok {
			continue
		}
		n := calibration.Remap(out.Clamp(v.Curl), out.Min, out.Max, 0, maxLen)
		for y := top + barTopPad; y < top+barTopPad+barH; y++ {
			for x := barX; x < barX+n; x++ {
				img.SetBit(x, y, image1bit.On)
			}
		}
	}
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newFrame()

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Inertial Glove"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Waiting for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("reports"))

	return img
}
