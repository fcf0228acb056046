package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dougsko/yaesutool/pkg/clone"
	"github.com/dougsko/yaesutool/pkg/codec"
	"github.com/dougsko/yaesutool/pkg/config"
	"github.com/dougsko/yaesutool/pkg/ft60"
	"github.com/dougsko/yaesutool/pkg/logging"
	"github.com/dougsko/yaesutool/pkg/verbose"
	"github.com/dougsko/yaesutool/pkg/vx2"
)

var (
	configPath = flag.String("config", "", "Configuration file path")
	device     = flag.String("port", "", "Serial port (overrides config)")
	model      = flag.String("model", "", "Radio model: ft-60 or vx-2")
	comments   = flag.Bool("verbose", false, "Add explanatory comments to printed configurations")
	debug      = flag.Bool("debug", false, "Log every serial transaction")
)

func main() {
	flag.Usage = showHelp
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *device != "" {
		cfg.Device.Port = *device
	}
	if *model != "" {
		cfg.Device.Model = *model
	}
	if *debug {
		cfg.Logging.Level = "debug"
		verbose.SetEnabled(true)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logging.InitGlobalLogger(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logging.CloseGlobalLogger()

	args := flag.Args()
	if len(args) == 0 {
		showHelp()
		return
	}

	var err error
	switch args[0] {
	case "download":
		err = requireArgs(args, 2, func() error { return download(cfg, args[1]) })
	case "upload":
		err = requireArgs(args, 2, func() error { return upload(cfg, args[1]) })
	case "print":
		err = requireArgs(args, 2, func() error { return printConfig(cfg, args[1]) })
	case "apply":
		err = requireArgs(args, 3, func() error { return applyConfig(cfg, args[1], args[2]) })
	case "remote":
		err = remoteCommand(cfg, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", args[0])
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func requireArgs(args []string, want int, fn func() error) error {
	if len(args) != want {
		return fmt.Errorf("command %q: wrong number of arguments", args[0])
	}
	return fn()
}

// newRadio builds a codec session for a model name.
func newRadio(model string) (codec.Radio, *clone.Protocol, error) {
	switch model {
	case "ft-60":
		return ft60.New(), &clone.FT60, nil
	case "vx-2":
		return vx2.New(), &clone.VX2, nil
	case "":
		return nil, nil, fmt.Errorf("radio model is required (use -model)")
	}
	return nil, nil, fmt.Errorf("unknown radio model %q", model)
}

// openRadioFile loads an image file, detecting the model from the file
// size and magic when none is configured.
func openRadioFile(model, path string) (codec.Radio, error) {
	if model == "" {
		return detectRadioFile(path)
	}
	radio, _, err := newRadio(model)
	if err != nil {
		return nil, err
	}
	if err := radio.Image().Load(path); err != nil {
		return nil, err
	}
	if !radio.Image().HasMagic(radio.Magic()) {
		return nil, fmt.Errorf("image %s is not a %s dump", path, radio.Name())
	}
	return radio, nil
}

func detectRadioFile(path string) (codec.Radio, error) {
	for _, model := range []string{"ft-60", "vx-2"} {
		radio, _, err := newRadio(model)
		if err != nil {
			return nil, err
		}
		if err := radio.Image().Load(path); err != nil {
			continue
		}
		if radio.Image().HasMagic(radio.Magic()) {
			logging.Infof("main", "detected %s image", radio.Name())
			return radio, nil
		}
	}
	return nil, fmt.Errorf("image %s does not match any supported model", path)
}

// openSession opens the serial port and installs a progress indicator.
func openSession(cfg *config.Config, proto *clone.Protocol) (*clone.Session, error) {
	session, err := clone.Open(cfg.Device.Port, proto.Baud,
		time.Duration(cfg.Device.ReadTimeout)*time.Millisecond)
	if err != nil {
		return nil, err
	}
	session.SetHandshakeRetries(cfg.Device.HandshakeRetries)
	blocks := 0
	session.OnProgress(func(transferred, total int) {
		blocks++
		if blocks%16 == 0 {
			fmt.Fprintf(os.Stderr, "#")
		}
		if transferred >= total {
			fmt.Fprintf(os.Stderr, " done.\n")
		}
	})
	return session, nil
}

func transferContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func download(cfg *config.Config, path string) error {
	radio, proto, err := newRadio(cfg.Device.Model)
	if err != nil {
		return err
	}
	session, err := openSession(cfg, proto)
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Fprintf(os.Stderr, "Start the clone send on the radio, or ^C to abort.\n")
	fmt.Fprintf(os.Stderr, "Waiting for data... ")
	ctx, cancel := transferContext()
	defer cancel()
	if err := proto.Download(ctx, session, radio.Image()); err != nil {
		return err
	}
	if !radio.Image().HasMagic(radio.Magic()) {
		return fmt.Errorf("received image is not a %s dump", radio.Name())
	}
	return radio.Image().Save(path)
}

func upload(cfg *config.Config, path string) error {
	radio, proto, err := newRadio(cfg.Device.Model)
	if err != nil {
		return err
	}
	if err := radio.Image().Load(path); err != nil {
		return err
	}
	if !radio.Image().HasMagic(radio.Magic()) {
		return fmt.Errorf("image %s is not a %s dump", path, radio.Name())
	}
	session, err := openSession(cfg, proto)
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Fprintf(os.Stderr, "Start the clone receive on the radio, then press <Enter>: ")
	fmt.Scanln()
	fmt.Fprintf(os.Stderr, "Sending data... ")
	ctx, cancel := transferContext()
	defer cancel()
	return proto.Upload(ctx, session, radio.Image())
}

func printConfig(cfg *config.Config, path string) error {
	radio, err := openRadioFile(cfg.Device.Model, path)
	if err != nil {
		return err
	}
	radio.PrintConfig(os.Stdout, *comments)
	return nil
}

// applyConfig merges a text configuration into an image file.
func applyConfig(cfg *config.Config, imagePath, configPath string) error {
	radio, err := openRadioFile(cfg.Device.Model, imagePath)
	if err != nil {
		return err
	}
	f, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	rejected, err := codec.ParseConfig(f, radio)
	for _, row := range rejected {
		fmt.Fprintf(os.Stderr, "Skipped line %d: %v: %s\n", row.Line, row.Err, row.Text)
	}
	if err != nil {
		return err
	}
	return radio.Image().Save(imagePath)
}

func showHelp() {
	fmt.Println("yaesutool - Yaesu handheld memory programmer")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options] <command> [arguments]\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config <path>    Configuration file")
	fmt.Println("  -port <device>    Serial port (default: /dev/ttyUSB0)")
	fmt.Println("  -model <name>     Radio model: ft-60 or vx-2")
	fmt.Println("  -verbose          Add explanatory comments when printing")
	fmt.Println("  -debug            Log every serial transaction")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  download <image>            Read the radio memory into an image file")
	fmt.Println("  upload <image>              Write an image file to the radio")
	fmt.Println("  print <image>               Show an image as a text configuration")
	fmt.Println("  apply <image> <config>      Merge a text configuration into an image")
	fmt.Println("  remote <url> <command>      Control a yaesud instance; commands are")
	fmt.Println("                              status, sessions, stats, config <id>,")
	fmt.Println("                              latest <file> [model],")
	fmt.Println("                              download [model], upload <id>")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s -model ft-60 download backup.img\n", os.Args[0])
	fmt.Printf("  %s print backup.img > radio.conf\n", os.Args[0])
	fmt.Printf("  %s apply backup.img radio.conf\n", os.Args[0])
	fmt.Printf("  %s -model ft-60 upload backup.img\n", os.Args[0])
}
