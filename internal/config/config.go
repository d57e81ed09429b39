package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/inertial_glove/internal/protocol"
)

// Transports selectable with COMMUNICATION.
const (
	CommUSB       = "usb"
	CommMQTT      = "mqtt"
	CommWebSocket = "websocket"
	CommNone      = "none"
)

// Input sources selectable with INPUT_SOURCE.
const (
	SourceADS1x15 = "ads1x15"
	SourceMock    = "mock"
)

// Config holds all glove configuration values.
type Config struct {
	// Analog domain
	AnalogMax int
	OutputMin int
	OutputMax int

	// Communication
	Communication  string
	SerialPort     string
	SerialBaudRate int
	CommDelay      int // milliseconds between reports

	// MQTT
	MQTTBroker          string
	MQTTClientIDGlove   string
	MQTTClientIDMonitor string
	MQTTClientIDDisplay string

	// Topics
	TopicReport  string
	TopicCommand string

	// WebSocket and web UI
	WebSocketAddr string
	WebServerAddr string

	// Fingers
	EnableThumb            bool
	EnableSplay            bool
	InvertCurl             bool
	InvertSplay            bool
	KnuckleCount           int
	KnuckleDependencyStart float64 // fraction of ANALOG_MAX
	KnuckleDependencyEnd   float64

	// Calibration
	CalibrationLoops    int // -1 = always calibrate
	CalibrationCurl     string
	CalibrationSplay    string
	CalibrationExponent float64 // exponential calibrator only
	DriverMaxSplay      int     // max deviation from center the driver accepts
	SensorMaxSplay      int     // full rotation range of the splay sensor

	// Filtering
	EnableMedianFilter bool
	MedianSamples      int

	// Inputs
	InputSource      string
	ADCI2CBus        string
	ADCMaxMillivolts int
	ADCSampleRateHz  int

	// Pins per finger in thumb..pinky order. A finger's value lists one
	// joint per knuckle, comma separated; a joint is an ADC channel
	// "0x48:0" or a Hall-effect pair "0x48:0+0x48:1".
	FingerPins [5]string
	SplayPins  [5]string

	// Calibration button
	CalibPin    string // GPIO name, "" disables the button
	InvertCalib bool

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns the configuration used for keys the file leaves out.
func Defaults() *Config {
	return &Config{
		AnalogMax: 4095,
		OutputMin: 0,
		OutputMax: 4095,

		Communication:  CommUSB,
		SerialPort:     "/dev/ttyGS0",
		SerialBaudRate: 115200,
		CommDelay:      4,

		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDGlove:   "inertial-glove",
		MQTTClientIDMonitor: "inertial-glove-monitor",
		MQTTClientIDDisplay: "inertial-glove-display",
		TopicReport:         "glove/report",
		TopicCommand:        "glove/command",

		WebSocketAddr: ":8081",
		WebServerAddr: ":8080",

		EnableThumb:            true,
		KnuckleCount:           1,
		KnuckleDependencyStart: 0.2,
		KnuckleDependencyEnd:   0.8,

		CalibrationLoops:    -1,
		CalibrationCurl:     "minmax",
		CalibrationSplay:    "center",
		CalibrationExponent: 3,
		DriverMaxSplay:      20,
		SensorMaxSplay:      270,

		MedianSamples: 20,

		InputSource:      SourceADS1x15,
		ADCMaxMillivolts: 3300,
		ADCSampleRateHz:  860,

		FingerPins: [5]string{"0x48:0", "0x48:1", "0x48:2", "0x48:3", "0x49:0"},
		SplayPins:  [5]string{"0x49:1", "0x49:2", "0x49:3", "0x4A:0", "0x4A:1"},

		DisplayUpdateInterval: 100,
	}
}

// Load reads the configuration file on top of Defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		if err := cfg.setValue(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var fingerPinKeys = map[string]int{
	"PIN_THUMB": 0, "PIN_INDEX": 1, "PIN_MIDDLE": 2, "PIN_RING": 3, "PIN_PINKY": 4,
}

var splayPinKeys = map[string]int{
	"PIN_THUMB_SPLAY": 0, "PIN_INDEX_SPLAY": 1, "PIN_MIDDLE_SPLAY": 2, "PIN_RING_SPLAY": 3, "PIN_PINKY_SPLAY": 4,
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	if i, ok := fingerPinKeys[key]; ok {
		c.FingerPins[i] = value
		return nil
	}
	if i, ok := splayPinKeys[key]; ok {
		c.SplayPins[i] = value
		return nil
	}

	var err error
	switch key {
	// Analog domain
	case "ANALOG_MAX":
		c.AnalogMax, err = parseInt(key, value)
	case "OUTPUT_MIN":
		c.OutputMin, err = parseInt(key, value)
	case "OUTPUT_MAX":
		c.OutputMax, err = parseInt(key, value)

	// Communication
	case "COMMUNICATION":
		c.Communication = strings.ToLower(value)
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parseInt(key, value)
	case "COMM_DELAY":
		c.CommDelay, err = parseInt(key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_GLOVE":
		c.MQTTClientIDGlove = value
	case "MQTT_CLIENT_ID_MONITOR":
		c.MQTTClientIDMonitor = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "TOPIC_REPORT":
		c.TopicReport = value
	case "TOPIC_COMMAND":
		c.TopicCommand = value

	case "WEBSOCKET_ADDR":
		c.WebSocketAddr = value
	case "WEB_SERVER_ADDR":
		c.WebServerAddr = value

	// Fingers
	case "ENABLE_THUMB":
		c.EnableThumb, err = parseBool(key, value)
	case "ENABLE_SPLAY":
		c.EnableSplay, err = parseBool(key, value)
	case "INVERT_CURL":
		c.InvertCurl, err = parseBool(key, value)
	case "INVERT_SPLAY":
		c.InvertSplay, err = parseBool(key, value)
	case "KNUCKLE_COUNT":
		c.KnuckleCount, err = parseInt(key, value)
	case "KNUCKLE_DEPENDENCY_START":
		c.KnuckleDependencyStart, err = parseFloat(key, value)
	case "KNUCKLE_DEPENDENCY_END":
		c.KnuckleDependencyEnd, err = parseFloat(key, value)

	// Calibration
	case "CALIBRATION_LOOPS":
		c.CalibrationLoops, err = parseInt(key, value)
	case "CALIBRATION_CURL":
		c.CalibrationCurl = strings.ToLower(value)
	case "CALIBRATION_SPLAY":
		c.CalibrationSplay = strings.ToLower(value)
	case "CALIBRATION_EXPONENT":
		c.CalibrationExponent, err = parseFloat(key, value)
	case "DRIVER_MAX_SPLAY":
		c.DriverMaxSplay, err = parseInt(key, value)
	case "SENSOR_MAX_SPLAY":
		c.SensorMaxSplay, err = parseInt(key, value)

	// Filtering
	case "ENABLE_MEDIAN_FILTER":
		c.EnableMedianFilter, err = parseBool(key, value)
	case "MEDIAN_SAMPLES":
		c.MedianSamples, err = parseInt(key, value)

	// Inputs
	case "INPUT_SOURCE":
		c.InputSource = strings.ToLower(value)
	case "ADC_I2C_BUS":
		c.ADCI2CBus = value
	case "ADC_MAX_MILLIVOLTS":
		c.ADCMaxMillivolts, err = parseInt(key, value)
	case "ADC_SAMPLE_RATE_HZ":
		c.ADCSampleRateHz, err = parseInt(key, value)

	case "CALIB_PIN":
		c.CalibPin = value
	case "INVERT_CALIB":
		c.InvertCalib, err = parseBool(key, value)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func parseFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

var calibrators = map[string]bool{
	"minmax": true, "exponential": true, "center": true, "fixed_center": true, "passthrough": true,
}

// Validate checks values that would otherwise fail deep inside hand
// assembly.
func (c *Config) Validate() error {
	if c.AnalogMax <= 0 {
		return fmt.Errorf("ANALOG_MAX must be positive, got %d", c.AnalogMax)
	}
	if c.OutputMin >= c.OutputMax {
		return fmt.Errorf("OUTPUT_MIN (%d) must be below OUTPUT_MAX (%d)", c.OutputMin, c.OutputMax)
	}

	switch c.Communication {
	case CommUSB:
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required for COMMUNICATION=%s", c.Communication)
		}
		if c.SerialBaudRate <= 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", c.SerialBaudRate)
		}
	case CommMQTT:
		if c.MQTTBroker == "" || c.TopicReport == "" {
			return fmt.Errorf("MQTT_BROKER and TOPIC_REPORT are required for COMMUNICATION=%s", c.Communication)
		}
	case CommWebSocket:
		if c.WebSocketAddr == "" {
			return fmt.Errorf("WEBSOCKET_ADDR is required for COMMUNICATION=%s", c.Communication)
		}
	case CommNone:
	default:
		return fmt.Errorf("unknown COMMUNICATION %q", c.Communication)
	}
	if c.CommDelay < 0 {
		return fmt.Errorf("COMM_DELAY must not be negative, got %d", c.CommDelay)
	}

	if c.KnuckleCount < 1 || c.KnuckleCount > 3 {
		return fmt.Errorf("KNUCKLE_COUNT must be 1, 2 or 3, got %d", c.KnuckleCount)
	}
	if c.KnuckleDependencyStart < 0 || c.KnuckleDependencyEnd > 1 || c.KnuckleDependencyStart >= c.KnuckleDependencyEnd {
		return fmt.Errorf("KNUCKLE_DEPENDENCY_START/END must satisfy 0 <= start < end <= 1, got %g/%g",
			c.KnuckleDependencyStart, c.KnuckleDependencyEnd)
	}

	if c.CalibrationLoops < -1 {
		return fmt.Errorf("CALIBRATION_LOOPS must be -1 or more, got %d", c.CalibrationLoops)
	}
	if !calibrators[c.CalibrationCurl] {
		return fmt.Errorf("unknown CALIBRATION_CURL %q", c.CalibrationCurl)
	}
	if !calibrators[c.CalibrationSplay] {
		return fmt.Errorf("unknown CALIBRATION_SPLAY %q", c.CalibrationSplay)
	}

	if c.EnableMedianFilter && c.MedianSamples < 1 {
		return fmt.Errorf("MEDIAN_SAMPLES must be positive when ENABLE_MEDIAN_FILTER is set, got %d", c.MedianSamples)
	}

	switch c.InputSource {
	case SourceMock:
	case SourceADS1x15:
		for _, t := range c.Fingers() {
			if c.PinsFor(t) == "" {
				return fmt.Errorf("PIN_%s is required", strings.ToUpper(t.String()))
			}
			if c.EnableSplay && c.SplayPinFor(t) == "" {
				return fmt.Errorf("PIN_%s_SPLAY is required when ENABLE_SPLAY is set", strings.ToUpper(t.String()))
			}
		}
		if c.ADCMaxMillivolts <= 0 || c.ADCSampleRateHz <= 0 {
			return fmt.Errorf("ADC_MAX_MILLIVOLTS and ADC_SAMPLE_RATE_HZ must be positive")
		}
	default:
		return fmt.Errorf("unknown INPUT_SOURCE %q", c.InputSource)
	}

	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayUpdateInterval)
	}
	return nil
}

// Fingers lists the tracked fingers in report order.
func (c *Config) Fingers() []protocol.Type {
	if c.EnableThumb {
		return protocol.Fingers
	}
	return protocol.Fingers[1:]
}

// PinsFor returns the joint pin list configured for finger t.
func (c *Config) PinsFor(t protocol.Type) string {
	return c.FingerPins[t-protocol.Thumb]
}

// SplayPinFor returns the splay pin configured for finger t.
func (c *Config) SplayPinFor(t protocol.Type) string {
	return c.SplayPins[t-protocol.Thumb]
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
