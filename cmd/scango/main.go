package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/cjeanneret/ScanGo/internal/config"
	"github.com/cjeanneret/ScanGo/internal/debug"
	"github.com/cjeanneret/ScanGo/internal/hw/gpio"
	"github.com/cjeanneret/ScanGo/internal/hw/link"
	"github.com/cjeanneret/ScanGo/internal/hw/rangefinder"
	"github.com/cjeanneret/ScanGo/internal/hw/servo"
	"github.com/cjeanneret/ScanGo/internal/hw/stepper"
	"github.com/cjeanneret/ScanGo/internal/logic/geometry"
	"github.com/cjeanneret/ScanGo/internal/logic/motion"
	"github.com/cjeanneret/ScanGo/internal/logic/scanner"
	"github.com/cjeanneret/ScanGo/internal/web"
	"go.uber.org/multierr"
)

// stdioDevice selects stdin/stdout as the host link.
const stdioDevice = "stdio"

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start the read-only web monitor on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	serialDevice := flag.String("serial", "", "override serial device; \"stdio\" reads commands from stdin")
	debugLevel := flag.Int("debug", -1, "override debug level 0-4 (-1 keeps the config value)")
	listPorts := flag.Bool("list-ports", false, "list serial ports and exit")
	flag.Parse()

	if *listPorts {
		ports, err := link.Ports()
		if err != nil {
			log.Fatalf("list serial ports failed: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	// Load configuration
	if err := config.ValidateConfigPath(*cfgPath); err != nil {
		log.Fatalf("invalid config path: %v", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	overrides := cliOverrides{SerialDevice: *serialDevice, DebugLevel: *debugLevel}
	if err := validateCLIOverrides(overrides); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, overrides)

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", debug.Level())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, webPort.port()); err != nil {
		log.Fatalf("scanner stopped: %v", err)
	}
}

// run opens the hardware and the host link, then runs the main loop until
// ctx is cancelled or the link closes. Teardown errors are aggregated.
func run(ctx context.Context, cfg *config.Config, webPort int) (err error) {
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	debug.Step(1, "Initializing GPIO driver")
	g, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		return fmt.Errorf("init GPIO: %w", err)
	}
	defer func() { err = multierr.Append(err, g.Close()) }()

	debug.Step(2, "Opening host link")
	lnk, err := openLink(cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, lnk.Close()) }()

	return serve(ctx, cfg, g, lnk, webPort)
}

// serve wires the controller to an opened driver and link and runs the loop.
func serve(ctx context.Context, cfg *config.Config, g gpio.Driver, lnk link.Link, webPort int) (err error) {
	debug.Step(3, "Initializing motion")
	mc, err := newMotion(g, cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, mc.DisableMotors()) }()

	sensors := newSensorSet(cfg)
	defer func() { err = multierr.Append(err, sensors.Close()) }()

	limits := limitsFromConfig(cfg)
	debug.PrintStruct("Scan limits", limits)
	out := scanner.NewResponder(lnk)
	ctrl := scanner.New(mc, out, limits)

	if webPort > 0 {
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stderr, web.BroadcastWriter(broadcaster)))
		out.Tee(broadcaster.BroadcastLine)

		telemetry := web.NewTelemetry()
		cloud := geometry.NewCloud(limits)
		ctrl.AddObserver(telemetry)
		ctrl.AddObserver(cloud)

		webCtx, stopWeb := context.WithCancel(ctx)
		webErr := make(chan error, 1)
		srv := web.NewServer(fmt.Sprintf(":%d", webPort), broadcaster, telemetry, cloud)
		go func() { webErr <- srv.Run(webCtx) }()
		defer func() {
			stopWeb()
			if werr := <-webErr; werr != nil {
				err = multierr.Append(err, fmt.Errorf("web monitor: %w", werr))
			}
		}()
	}

	debug.Step(4, "Booting controller")
	ctrl.Boot(sensors.Name(), sensors.Open, func() error {
		return mc.SelfTest(cfg.BaseStepper.SelfTestSteps)
	})

	debug.Section("Main loop")
	loopErr := scanner.NewLoop(lnk, ctrl, cfg.PollInterval()).Run(ctx)
	switch {
	case errors.Is(loopErr, context.Canceled):
		debug.Info("Shutting down")
		return nil
	case errors.Is(loopErr, scanner.ErrLinkClosed):
		debug.Info("Host link closed")
		return nil
	}
	return loopErr
}

func newMotion(g gpio.Driver, cfg *config.Config) (*motion.Controller, error) {
	s := cfg.BaseStepper
	base := stepper.NewStepper(g, stepper.Config{
		StepPin:      s.StepPin,
		DirPin:       s.DirPin,
		EnablePin:    s.EnablePin,
		StepsPerRev:  s.StepsPerRev,
		MinDelay:     cfg.MinDelay(),
		MaxDelay:     cfg.MaxDelay(),
		RampFraction: s.RampFraction,
	})
	debug.PrintStruct("Base stepper config", s)

	tilt, err := servo.New(g, servo.Config{
		Pin:            cfg.TiltServo.Pin,
		FrequencyHz:    cfg.TiltServo.FrequencyHz,
		MinPulse:       cfg.MinPulse(),
		MaxPulse:       cfg.MaxPulse(),
		ActuationRange: cfg.TiltServo.ActuationRange,
	})
	if err != nil {
		return nil, fmt.Errorf("init tilt servo: %w", err)
	}
	debug.PrintStruct("Tilt servo config", cfg.TiltServo)

	return motion.NewController(base, tilt), nil
}

func openLink(cfg *config.Config) (link.Link, error) {
	if cfg.Serial.Device == stdioDevice {
		debug.Info("Host link on stdin/stdout")
		return link.NewStreamLink(os.Stdin, os.Stdout, cfg.PollInterval()), nil
	}
	return link.OpenSerial(cfg.Serial.Device, link.PortOptions{
		BaudRate: cfg.Serial.BaudRate,
		DataBits: cfg.Serial.DataBits,
		StopBits: cfg.Serial.StopBits,
		Parity:   cfg.Serial.Parity,
	}, cfg.PollInterval())
}

func limitsFromConfig(cfg *config.Config) scanner.Limits {
	return scanner.Limits{
		BaseIncrement: cfg.Scan.BaseIncrement,
		TiltIncrement: cfg.Scan.TiltIncrement,
		BaseRange:     cfg.Scan.BaseRange,
		TiltRange:     cfg.Scan.TiltRange,
	}
}

// sensorSet opens the configured range sensor for Boot and closes it on
// shutdown.
type sensorSet struct {
	cfg     config.RangeSensorConfig
	timeout time.Duration
	closer  io.Closer
}

func newSensorSet(cfg *config.Config) *sensorSet {
	return &sensorSet{cfg: cfg.RangeSensor, timeout: cfg.SensorTimeout()}
}

// Name is the sensor name reported when opening fails.
func (s *sensorSet) Name() string {
	if s.cfg.Type == config.SensorMock {
		return "Mock sensor"
	}
	return "VL53L1X"
}

// Open implements scanner.SensorInit.
func (s *sensorSet) Open() (scanner.Sensor, error) {
	switch s.cfg.Type {
	case config.SensorMock:
		return rangefinder.NewAdapter(&rangefinder.Mock{DistanceMm: s.cfg.MockDistanceMm}, s.cfg.OffsetMm), nil
	case config.SensorVL53L1X:
		dev, err := rangefinder.OpenVL53L1X(s.vl53l1xConfig())
		if err != nil {
			return nil, err
		}
		s.closer = dev
		return rangefinder.NewAdapter(dev, s.cfg.OffsetMm), nil
	}
	return nil, fmt.Errorf("unsupported range sensor type: %s", s.cfg.Type)
}

func (s *sensorSet) vl53l1xConfig() rangefinder.VL53L1XConfig {
	return rangefinder.VL53L1XConfig{
		Bus:          s.cfg.Bus,
		Address:      uint16(s.cfg.Address),
		TimingBudget: time.Duration(s.cfg.TimingBudgetUs) * time.Microsecond,
		Timeout:      s.timeout,
	}
}

func (s *sensorSet) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// cliOverrides holds flag values that replace config entries. Zero values
// (empty device, negative level) keep the config.
type cliOverrides struct {
	SerialDevice string
	DebugLevel   int
}

// validateCLIOverrides checks that set overrides are usable.
func validateCLIOverrides(o cliOverrides) error {
	if o.DebugLevel > debug.LevelTrace {
		return fmt.Errorf("debug level must be between 0 and %d, got %d", debug.LevelTrace, o.DebugLevel)
	}
	if o.SerialDevice != "" && o.SerialDevice != stdioDevice && filepath.Dir(o.SerialDevice) == "." {
		return fmt.Errorf("serial device must be a path or %q, got %q", stdioDevice, o.SerialDevice)
	}
	return nil
}

// applyOverrides mutates cfg with overrides. Only set values are applied.
func applyOverrides(cfg *config.Config, o cliOverrides) {
	if o.SerialDevice != "" {
		cfg.Serial.Device = o.SerialDevice
	}
	if o.DebugLevel >= 0 {
		cfg.Defaults.DebugLevel = o.DebugLevel
	}
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
