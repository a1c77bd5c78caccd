// Command beating-heart animates a heart on a 5x5 display at a rate driven by
// buttons, touch pads and motion gestures, and publishes its state to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/beating-heart/internal/animate"
	"github.com/sweeney/beating-heart/internal/config"
	"github.com/sweeney/beating-heart/internal/display"
	"github.com/sweeney/beating-heart/internal/gpio"
	"github.com/sweeney/beating-heart/internal/input"
	"github.com/sweeney/beating-heart/internal/logic"
	"github.com/sweeney/beating-heart/internal/mqtt"
	"github.com/sweeney/beating-heart/internal/status"
	"github.com/sweeney/beating-heart/internal/term"
	"github.com/sweeney/beating-heart/internal/web"
)

func main() {
	fs := flag.CommandLine
	configPath := fs.String("config", "", "YAML config file (flags override it)")
	printInputs := fs.Bool("print-inputs", false, "Print one input sample and exit (gpio input only)")
	registerFlags(fs)

	flag.Parse()

	cfg, err := resolveConfig(fs, *configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(cfg, *printInputs); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// registerFlags defines one flag per config field, defaulting to config.Default.
func registerFlags(fs *flag.FlagSet) {
	d := config.Default()
	fs.Int("bpm", d.BPM, "Baseline heart rate in beats per minute")
	fs.Int("panic-level", d.PanicLevel, "BPM added per active stimulus")
	fs.String("input", d.Input, `Stimulus source: "terminal" (keyboard) or "gpio"`)
	fs.String("display", d.Display, `Display: "terminal" or "headless"`)
	fs.String("gpio-chip", d.GPIO.Chip, "GPIO character device for the buttons")
	fs.Int("pin-a", d.GPIO.PinA, "GPIO line for button A")
	fs.Int("pin-b", d.GPIO.PinB, "GPIO line for button B")
	fs.String("iio", d.Pads.IIO, "IIO device directory for the touch pads")
	fs.Int("pad1-channel", d.Pads.Pad1Channel, "ADC channel of pad 1")
	fs.Int("pad2-channel", d.Pads.Pad2Channel, "ADC channel of pad 2")
	fs.String("broker", d.MQTT.Broker, `MQTT broker address ("off" disables MQTT)`)
	fs.Duration("gesture-ttl", d.MQTT.GestureTTL, "How long an MQTT gesture stays current")
	fs.String("http", d.HTTP, "HTTP status address (empty to disable)")
	fs.Duration("report", d.Report, "Status report interval (0 to disable)")
	fs.String("log", d.Log, "Log file (terminal display discards logs when empty)")
}

// resolveConfig layers defaults, the optional config file, then any flags
// set explicitly on the command line.
func resolveConfig(fs *flag.FlagSet, path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	fs.Visit(func(f *flag.Flag) { applyFlag(&cfg, f) })

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyFlag(cfg *config.Config, f *flag.Flag) {
	getter, ok := f.Value.(flag.Getter)
	if !ok {
		return
	}
	v := getter.Get()

	switch f.Name {
	case "bpm":
		cfg.BPM = v.(int)
	case "panic-level":
		cfg.PanicLevel = v.(int)
	case "input":
		cfg.Input = v.(string)
	case "display":
		cfg.Display = v.(string)
	case "gpio-chip":
		cfg.GPIO.Chip = v.(string)
	case "pin-a":
		cfg.GPIO.PinA = v.(int)
	case "pin-b":
		cfg.GPIO.PinB = v.(int)
	case "iio":
		cfg.Pads.IIO = v.(string)
	case "pad1-channel":
		cfg.Pads.Pad1Channel = v.(int)
	case "pad2-channel":
		cfg.Pads.Pad2Channel = v.(int)
	case "broker":
		cfg.MQTT.Broker = v.(string)
	case "gesture-ttl":
		cfg.MQTT.GestureTTL = v.(time.Duration)
	case "http":
		cfg.HTTP = v.(string)
	case "report":
		cfg.Report = v.(time.Duration)
	case "log":
		cfg.Log = v.(string)
	}
}

// screen is a display surface whose contents can be read back for the
// status page. display.Grid and term.Display both satisfy it.
type screen interface {
	display.Surface
	Frame() display.Image
}

func run(cfg *config.Config, printInputs bool) error {
	if printInputs {
		return printSample(cfg)
	}

	if cfg.Display == config.DisplayTerminal {
		out, closeLog, err := logOutput(cfg.Log)
		if err != nil {
			return err
		}
		defer closeLog()
		log.SetOutput(out)
	}

	// Display
	var (
		surface screen
		tty     *term.Display
		quit    <-chan struct{}
	)
	if cfg.Display == config.DisplayTerminal {
		d, err := term.New()
		if err != nil {
			return fmt.Errorf("init display: %w", err)
		}
		defer d.Close()
		tty, surface, quit = d, d, d.Quit()
	} else {
		surface = display.NewGrid()
	}

	// MQTT, with the gesture feed as an extra motion source
	var (
		publisher mqtt.Publisher        = mqtt.NopPublisher{}
		connected mqtt.ConnectionStatus = mqtt.NopPublisher{}
		gestures  input.Gestures
	)
	if cfg.MQTTEnabled() {
		feed := mqtt.NewGestureFeed(cfg.MQTT.GestureTTL)
		p, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, feed)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, connected = p, p
		gestures = append(gestures, feed)
	}

	// Inputs
	var sampler *input.Sampler
	if cfg.Input == config.InputGPIO {
		buttons, analog, err := openHardware(cfg)
		if err != nil {
			return err
		}
		defer buttons.Close()
		sampler = input.NewSampler(buttons, analog, cfg.Pads.Pad1Channel, cfg.Pads.Pad2Channel, gestures)
	} else {
		gestures = append(input.Gestures{tty}, gestures...)
		sampler = input.NewSampler(tty, tty, term.Pad1Channel, term.Pad2Channel, gestures)
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	start := time.Now()
	tracker := status.NewTracker(start, status.Config{
		BaselineBPM: cfg.BPM,
		PanicLevel:  cfg.PanicLevel,
		Input:       cfg.Input,
		Display:     cfg.Display,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP,
		ReportMs:    cfg.Report.Milliseconds(),
	})
	tracker.SetFrameSource(surface)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	h := &heart{
		sampler:    sampler,
		controller: logic.NewController(logic.Config{BaselineBPM: cfg.BPM, PanicLevel: cfg.PanicLevel}, start),
		renderer:   animate.NewRenderer(surface, animate.RealSleeper),
		sleeper:    animate.RealSleeper,
		publisher:  publisher,
		mqttStatus: connected,
		tracker:    tracker,
		panicLevel: cfg.PanicLevel,
		report:     cfg.Report,
		now:        time.Now,
	}
	if tty != nil {
		h.caption = tty.SetCaption
	}

	log.Printf("started: bpm=%d panic-level=%d input=%s display=%s broker=%s report=%v",
		cfg.BPM, cfg.PanicLevel, cfg.Input, cfg.Display, cfg.MQTT.Broker, cfg.Report)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	h.renderer.Prime()
	return runLoop(h, sigCh, quit)
}

// openHardware opens the GPIO buttons and, if present, the pad ADC.
// A missing ADC only disables the pads.
func openHardware(cfg *config.Config) (gpio.Reader, input.AnalogReader, error) {
	buttons, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.GPIO.PinA, cfg.GPIO.PinB)
	if err != nil {
		return nil, nil, fmt.Errorf("init gpio: %w", err)
	}

	adc, err := input.NewIIOAnalog(cfg.Pads.IIO)
	if err != nil {
		log.Printf("pads disabled: %v", err)
		return buttons, nil, nil
	}
	return buttons, adc, nil
}

// printSample reads the hardware inputs once and prints what it saw.
func printSample(cfg *config.Config) error {
	if cfg.Input != config.InputGPIO {
		return fmt.Errorf("-print-inputs requires -input %s", config.InputGPIO)
	}
	buttons, analog, err := openHardware(cfg)
	if err != nil {
		return err
	}
	defer buttons.Close()

	sampler := input.NewSampler(buttons, analog, cfg.Pads.Pad1Channel, cfg.Pads.Pad2Channel, nil)
	sample, err := sampler.Sample()
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}
	fmt.Printf("A: %s, B: %s, pad1: %s, pad2: %s, panic delta: %d\n",
		pressedString(sample.Has(input.ButtonA)),
		pressedString(sample.Has(input.ButtonB)),
		pressedString(sample.Has(input.Pad1)),
		pressedString(sample.Has(input.Pad2)),
		sample.PanicDelta(cfg.PanicLevel))
	return nil
}

func pressedString(on bool) string {
	if on {
		return "PRESSED"
	}
	return "RELEASED"
}

// logOutput returns where logs go while the terminal owns the screen.
func logOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
