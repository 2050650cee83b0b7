package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"miditoarduino/config"
	"miditoarduino/dumpparse"
	"miditoarduino/headerout"
	"miditoarduino/inputpick"
	"miditoarduino/midipreview"
	"miditoarduino/pitching"
)

func main() {
	cmd := &cli.Command{
		Name:      "miditoarduino",
		Usage:     "Convert a disassembled MIDI text dump into an Arduino header",
		ArgsUsage: "[dump.txt]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "YAML settings file (ignored if missing)",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "folder listed for dumps (default: next to the executable)",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "folder for generated files (default: next to the dump)",
			},
			&cli.IntFlag{
				Name:  "pause",
				Usage: "silence in ms appended to both tracks",
			},
			&cli.StringFlag{
				Name:  "storage",
				Usage: "storage annotation for the arrays",
			},
			&cli.BoolFlag{
				Name:  "preview",
				Usage: "also write a .mid rendering of the converted tracks",
			},
			&cli.BoolFlag{
				Name:  "pitches",
				Usage: "also write pitches.h for the notes used",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log every note and rest",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logrus.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyFlags(c, &cfg)
	log := newLogger(cfg.LogLevel)

	printBanner()

	input := c.Args().First()
	if input == "" {
		dir, err := inputpick.WorkDir(cfg.Dir)
		if err != nil {
			return err
		}
		files, err := inputpick.List(dir)
		if err != nil {
			return err
		}
		input, err = inputpick.Choose(os.Stdin, os.Stdout, files)
		if err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println("Processing...")

	res, err := convert(input, cfg.PauseMS, log)
	if err != nil {
		return err
	}

	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	name := headerout.Name(inputpick.Stem(input))

	path, err := headerout.WriteFile(outDir, name, res, cfg.Storage)
	if err != nil {
		return err
	}

	if cfg.Preview {
		midPath := filepath.Join(outDir, name+".mid")
		if err := midipreview.WriteFile(midPath, res); err != nil {
			return err
		}
		fmt.Println("Preview:", midPath)
	}

	if cfg.Pitches {
		pitchPath, err := writePitches(outDir, res)
		if err != nil {
			return err
		}
		fmt.Println("Pitches:", pitchPath)
	}

	printSummary(path, res)
	return nil
}

func applyFlags(c *cli.Command, cfg *config.Config) {
	if c.IsSet("dir") {
		cfg.Dir = c.String("dir")
	}
	if c.IsSet("out") {
		cfg.OutputDir = c.String("out")
	}
	if c.IsSet("pause") {
		cfg.PauseMS = int(c.Int("pause"))
	}
	if c.IsSet("storage") {
		cfg.Storage = c.String("storage")
	}
	if c.IsSet("preview") {
		cfg.Preview = c.Bool("preview")
	}
	if c.IsSet("pitches") {
		cfg.Pitches = c.Bool("pitches")
	}
	if c.Bool("verbose") {
		cfg.LogLevel = "debug"
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

func convert(input string, pauseMS int, log logrus.FieldLogger) (*dumpparse.Result, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump: %w", err)
	}
	defer f.Close()

	fmt.Printf("Opened file: %s\n", input)
	return dumpparse.Parse(f, dumpparse.Options{PauseMS: pauseMS, Log: log})
}

func writePitches(dir string, res *dumpparse.Result) (string, error) {
	var tokens []string
	for _, t := range res.Tracks {
		tokens = append(tokens, t.Notes...)
	}

	path := filepath.Join(dir, "pitches.h")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create pitches: %w", err)
	}
	defer f.Close()

	if err := pitching.WritePitches(f, tokens); err != nil {
		return "", err
	}
	return path, f.Close()
}

func printBanner() {
	fmt.Println("-------------------------------------------------------")
	fmt.Println("Disassembled Midi file to Arduino header file converter")
	fmt.Println("-------------------------------------------------------")
	fmt.Println("Export a .txt dump with a MIDI file disassembler using default settings")
	fmt.Println("and place it in the dump folder, or pass its path as an argument.")
}

func printSummary(path string, res *dumpparse.Result) {
	length := time.Duration(res.Track(1).Total()) * time.Millisecond

	fmt.Println()
	fmt.Println("Export done!")
	if info, err := os.Stat(path); err == nil {
		fmt.Printf("%s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
	} else {
		fmt.Println(path)
	}
	fmt.Printf("Tracks: %d + %d events, length %s\n",
		len(res.Track(1).Notes), len(res.Track(2).Notes),
		durafmt.Parse(length).LimitFirstN(2).String())
}
