package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ankit-chaubey/shotmeta/core"
	"github.com/ankit-chaubey/shotmeta/core/canon"
	"github.com/ankit-chaubey/shotmeta/core/pipeline"
	"github.com/ankit-chaubey/shotmeta/core/server"
	"github.com/ankit-chaubey/shotmeta/core/source"
	"github.com/ankit-chaubey/shotmeta/core/tagdict"
)

const usage = `Usage:
  shotmeta view    [-json] [-v] <image>   shooting parameters of a photo
  shotmeta tags    [-json] [-v] <image>   every decoded metadata tag
  shotmeta artwork [-json] [-v] <audio>   shooting parameters of embedded cover art
  shotmeta serve   [-addr :8080]          run the RPC server`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	cfg := core.LoadConfig()
	log := core.NewLogger(cfg, os.Stderr)

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "view":
		err = runView(cfg, log, args, false)
	case "artwork":
		err = runView(cfg, log, args, true)
	case "tags":
		err = runTags(cfg, args)
	case "serve":
		err = runServe(cfg, log, args)
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		core.PrintError(err.Error())
		os.Exit(1)
	}
}

type viewOutput struct {
	File         string                       `json:"file"`
	Format       string                       `json:"format,omitempty"`
	State        string                       `json:"state"`
	Reason       string                       `json:"reason,omitempty"`
	Metadata     canon.CanonicalPhotoMetadata `json:"metadata"`
	Missing      []string                     `json:"missing,omitempty"`
	VendorErrors []string                     `json:"vendorErrors,omitempty"`
}

func runView(cfg core.Config, log zerolog.Logger, args []string, artwork bool) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "print JSON")
	verbose := fs.Bool("v", false, "verbose output")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one file")
	}
	path := fs.Arg(0)
	if !*verbose {
		log = log.Level(zerolog.WarnLevel)
	}

	var src source.Source = source.File{MaxBytes: cfg.MaxImageBytes}
	if artwork {
		src = source.Artwork{Audio: src}
	}
	out := pipeline.NewExtractor(src, log).Run(context.Background(), path)

	p := core.NewPrinter(*jsonOut, *verbose)
	state := string(out.State)
	if out.Reason != core.ReasonNone {
		state += " (" + string(out.Reason) + ")"
	}
	header := []core.Field{
		{Label: "File", Value: path},
		{Label: "Format", Value: string(out.Format)},
		{Label: "State", Value: state},
	}
	fields := make([]core.Field, 0, len(canon.Fields))
	for _, f := range canon.Fields {
		v, _ := out.Metadata.Value(f.Name)
		fields = append(fields, core.Field{Label: f.Label, Value: v})
	}
	err := p.PrintRecord(header, fields, viewOutput{
		File:         path,
		Format:       string(out.Format),
		State:        string(out.State),
		Reason:       string(out.Reason),
		Metadata:     out.Metadata,
		Missing:      out.Missing,
		VendorErrors: out.VendorErrors,
	})
	if err != nil {
		return err
	}
	if p.Verbose {
		for _, e := range out.VendorErrors {
			p.PrintInfo("vendor block skipped: " + e)
		}
	}
	return nil
}

func runTags(cfg core.Config, args []string) error {
	fs := flag.NewFlagSet("tags", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "print JSON")
	verbose := fs.Bool("v", false, "show machine values next to descriptions")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one file")
	}

	b, err := source.File{MaxBytes: cfg.MaxImageBytes}.Read(context.Background(), fs.Arg(0))
	if err != nil {
		return err
	}
	res, err := tagdict.Parse(b)
	if err != nil {
		return fmt.Errorf("%v (%s)", err, core.ReasonOf(err))
	}
	p := core.NewPrinter(*jsonOut, *verbose)
	if err := p.PrintTags(res.Tags); err != nil {
		return err
	}
	for _, e := range res.VendorErrors {
		p.PrintInfo("vendor block skipped: " + e.Error())
	}
	return nil
}

func runServe(cfg core.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Addr, "listen address")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(cfg, log).ListenAndServe(ctx, *addr)
}
