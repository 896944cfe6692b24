package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/kmorrill/xy-format-sub001/internal/corpus"
	"github.com/kmorrill/xy-format-sub001/pkg/logger"
	"github.com/kmorrill/xy-format-sub001/pkg/xy"
)

const opTimeout = 30 * time.Second

func initConfig() {
	viper.SetEnvPrefix("XYTOOL")
	viper.AutomaticEnv()
	viper.SetDefault("db", corpus.DefaultDBFile)

	viper.SetConfigName("xytool")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	// A missing config file is fine; env and flags cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger.Warn("config file ignored: %v", err)
		}
	}
}

func createService() (xy.Service, error) {
	return xy.NewService(xy.WithDBPath(viper.GetString("db")))
}

func main() {
	log := logger.GetLogger()
	initConfig()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debug("executing command: %s", command)

	switch command {
	case "inspect":
		handleInspect()
	case "activate":
		handleActivate()
	case "trig":
		handleTrig()
	case "index":
		handleIndex()
	case "list":
		handleList()
	case "compare":
		handleCompare()
	case "delete":
		handleDelete()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleInspect() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: xytool inspect <project.xy>")
		os.Exit(1)
	}
	path := os.Args[2]

	svc, err := createService()
	if err != nil {
		fatal("failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := svc.Inspect(ctx, path, os.Stdout); err != nil {
		fatal("inspect failed: %v", err)
	}
}

func handleActivate() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: xytool activate <project.xy> --track <n> [--out <path>]")
		os.Exit(1)
	}
	path := os.Args[2]

	cmd := flag.NewFlagSet("activate", flag.ExitOnError)
	track := cmd.Int("track", 1, "1-based track index")
	out := cmd.String("out", "", "output path (default: <input>.activated.xy)")
	cmd.Parse(os.Args[3:])

	if *out == "" {
		*out = path + ".activated.xy"
	}

	svc, err := createService()
	if err != nil {
		fatal("failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := svc.Activate(ctx, path, *out, *track); err != nil {
		fatal("activate failed: %v", err)
	}
	fmt.Printf("activated track %d -> %s\n", *track, *out)
}

func handleTrig() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: xytool trig <project.xy> --track <n> --step <n> --note <0-127> [--vel <n>] [--gate <pct>] [--gate-ticks <n>] [--out <path>]")
		os.Exit(1)
	}
	path := os.Args[2]

	cmd := flag.NewFlagSet("trig", flag.ExitOnError)
	track := cmd.Int("track", 1, "1-based track index")
	step := cmd.Int("step", 0, "0-based step")
	note := cmd.Int("note", 60, "MIDI note 0-127")
	vel := cmd.Int("vel", 100, "velocity 0-127")
	gate := cmd.Int("gate", 100, "gate as percent of one step")
	gateTicks := cmd.Int("gate-ticks", -1, "gate in absolute ticks (overrides --gate)")
	voice := cmd.Int("voice", 0, "voice id")
	out := cmd.String("out", "", "output path (default: <input>.trig.xy)")
	cmd.Parse(os.Args[3:])

	if *out == "" {
		*out = path + ".trig.xy"
	}

	trig := xy.Trig{
		Step:        *step,
		Note:        *note,
		Velocity:    *vel,
		GatePercent: *gate,
		Voice:       *voice,
	}
	if *gateTicks >= 0 {
		trig.GateTicks = *gateTicks
		trig.HasGateTicks = true
	}

	svc, err := createService()
	if err != nil {
		fatal("failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := svc.WriteTrig(ctx, path, *out, *track, trig); err != nil {
		fatal("trig failed: %v", err)
	}
	fmt.Printf("wrote trig step %d note %d on track %d -> %s\n", *step, *note, *track, *out)
}

func handleIndex() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: xytool index <project.xy> [--label <name>]")
		os.Exit(1)
	}
	path := os.Args[2]

	cmd := flag.NewFlagSet("index", flag.ExitOnError)
	label := cmd.String("label", "", "label for later lookup")
	cmd.Parse(os.Args[3:])

	svc, err := createService()
	if err != nil {
		fatal("failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	id, err := svc.Index(ctx, path, *label)
	if err != nil {
		fatal("index failed: %v", err)
	}
	fmt.Printf("indexed %s as %s\n", path, id)
}

func handleList() {
	svc, err := createService()
	if err != nil {
		fatal("failed to create service: %v", err)
	}
	defer svc.Close()

	caps, err := svc.ListCaptures()
	if err != nil {
		fatal("list failed: %v", err)
	}
	if len(caps) == 0 {
		fmt.Println("no captures indexed")
		return
	}
	for i, c := range caps {
		label := c.Label
		if label == "" {
			label = "-"
		}
		fmt.Printf("%d. %s  label=%s  tracks=%d  events=%d  tempo=%.1f\n",
			i+1, c.Path, label, c.TrackCount, c.EventCount, c.TempoBPM)
		fmt.Printf("   id=%s  indexed=%s\n", c.ID, c.CreatedAt.Format(time.RFC3339))
	}
}

func handleCompare() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: xytool compare <ref-a> <ref-b>  (id or label)")
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		fatal("failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := svc.Compare(ctx, os.Args[2], os.Args[3], os.Stdout); err != nil {
		fatal("compare failed: %v", err)
	}
}

func handleDelete() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: xytool delete <capture-id>")
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		fatal("failed to create service: %v", err)
	}
	defer svc.Close()

	if err := svc.DeleteCapture(os.Args[2]); err != nil {
		fatal("delete failed: %v", err)
	}
	fmt.Printf("deleted capture %s\n", os.Args[2])
}

func fatal(format string, args ...any) {
	logger.Error(format, args...)
	fmt.Printf("error: "+format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("xytool - groovebox project file toolkit")
	fmt.Println("\nConfiguration:")
	fmt.Println("  XYTOOL_DB          capture index path (default: xycorpus.sqlite3)")
	fmt.Println("  XY_LOG_LEVEL       DEBUG | INFO | WARN | FATAL")
	fmt.Println("  xytool.yaml        optional config file in . or $HOME")
	fmt.Println("\nUsage:")
	fmt.Println("  xytool inspect <project.xy>")
	fmt.Println("  xytool activate <project.xy> --track <n> [--out <path>]")
	fmt.Println("  xytool trig <project.xy> --track <n> --step <n> --note <0-127> [--vel <n>] [--gate <pct>] [--out <path>]")
	fmt.Println("  xytool index <project.xy> [--label <name>]")
	fmt.Println("  xytool list")
	fmt.Println("  xytool compare <ref-a> <ref-b>")
	fmt.Println("  xytool delete <capture-id>")
	fmt.Println("\nExamples:")
	fmt.Println("  xytool inspect captures/baseline.xy")
	fmt.Println("  xytool trig captures/baseline.xy --track 1 --step 8 --note 60 --vel 100")
	fmt.Println("  xytool index captures/baseline.xy --label baseline && xytool compare baseline edited")
}
