package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kwv/geofc/bridge"
	"github.com/kwv/geofc/codec"
	"github.com/kwv/geofc/render"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	mode       = flag.String("mode", "", "Operation mode: encode, decode, bridge, or render")
	configFile = flag.String("config", "config.yaml", "Path to configuration file")
	inputFile  = flag.String("in", "", "Input file (defaults to stdin)")
	outputFile = flag.String("out", "", "Output file (defaults to stdout)")
	srid       = flag.Uint("srid", 4326, "Coordinate reference system identifier to stamp on encode")
	scale      = flag.Uint("scale", 0, "Quantization scale (0 uses the configured default)")
	collection = flag.String("collection", "feature", "Collection kind for encode/decode/render: feature or geometry")
	renderFmt  = flag.String("render-format", "raster-png", "Render output: raster-png, vector-svg, or vector-png")
)

func main() {
	flag.Parse()
	log.Printf("geofc version %s", Version)

	if *mode == "" {
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfigOrDefault(*configFile)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	switch *mode {
	case "encode":
		runEncode(cfg)
	case "decode":
		runDecode()
	case "bridge":
		runBridge(cfg)
	case "render":
		runRender()
	default:
		log.Fatalf("unknown -mode %q", *mode)
	}
}

func usage() {
	fmt.Println("geofc: a lossy, bounded-precision binary codec for GeoJSON collections")
	fmt.Println()
	fmt.Println("  -mode encode    read GeoJSON, write wire bytes")
	fmt.Println("  -mode decode    read wire bytes, write GeoJSON")
	fmt.Println("  -mode bridge    run the MQTT translation bridge until interrupted")
	fmt.Println("  -mode render    read GeoJSON, write a debug PNG or SVG")
	fmt.Println()
	flag.PrintDefaults()
}

func loadConfigOrDefault(path string) (*codec.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &codec.Config{}, nil
		}
		return nil, err
	}
	return codec.LoadConfig(path)
}

func resolveScale(cfg *codec.Config) uint32 {
	if *scale != 0 {
		return uint32(*scale)
	}
	if cfg.DefaultScale != 0 {
		return cfg.DefaultScale
	}
	return codec.DefaultScale
}

func openInput() (*os.File, error) {
	if *inputFile == "" {
		return os.Stdin, nil
	}
	return os.Open(*inputFile)
}

func openOutput() (*os.File, error) {
	if *outputFile == "" {
		return os.Stdout, nil
	}
	return os.Create(*outputFile)
}

func runEncode(cfg *codec.Config) {
	in, err := openInput()
	if err != nil {
		log.Fatalf("opening input: %v", err)
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		log.Fatalf("reading input: %v", err)
	}

	s := resolveScale(cfg)
	var wire []byte
	switch *collection {
	case "feature":
		wire, err = codec.EncodeFeatureCollection(data, uint32(*srid), s)
	case "geometry":
		wire, err = codec.EncodeGeometryCollection(data, uint32(*srid), s)
	default:
		log.Fatalf("unknown -collection %q", *collection)
	}
	if err != nil {
		log.Fatalf("encoding: %v", err)
	}

	out, err := openOutput()
	if err != nil {
		log.Fatalf("opening output: %v", err)
	}
	defer out.Close()
	if _, err := out.Write(wire); err != nil {
		log.Fatalf("writing output: %v", err)
	}
}

func runDecode() {
	in, err := openInput()
	if err != nil {
		log.Fatalf("opening input: %v", err)
	}
	defer in.Close()
	wire, err := io.ReadAll(in)
	if err != nil {
		log.Fatalf("reading input: %v", err)
	}

	var data []byte
	switch *collection {
	case "feature":
		data, err = codec.DecodeFeatureCollection(wire)
	case "geometry":
		data, err = codec.DecodeGeometryCollection(wire)
	default:
		log.Fatalf("unknown -collection %q", *collection)
	}
	if err != nil {
		log.Fatalf("decoding: %v", err)
	}

	out, err := openOutput()
	if err != nil {
		log.Fatalf("opening output: %v", err)
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		log.Fatalf("writing output: %v", err)
	}
}

func runBridge(cfg *codec.Config) {
	s := resolveScale(cfg)
	client, err := bridge.Connect(cfg, uint32(*srid), s, func(correlationID, sourceTopic string, out []byte, err error) {
		if err != nil {
			log.Printf("bridge[%s]: %s failed: %v", correlationID, sourceTopic, err)
			return
		}
		log.Printf("bridge[%s]: translated %s (%d bytes out)", correlationID, sourceTopic, len(out))
	})
	if err != nil {
		log.Fatalf("starting bridge: %v", err)
	}
	if client == nil {
		log.Fatal("bridge mode requires MQTT_BROKER or config bridge.broker")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down bridge...")
	client.Disconnect()
}

func runRender() {
	in, err := openInput()
	if err != nil {
		log.Fatalf("opening input: %v", err)
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		log.Fatalf("reading input: %v", err)
	}

	out, err := openOutput()
	if err != nil {
		log.Fatalf("opening output: %v", err)
	}
	defer out.Close()

	r := render.NewRaster()
	v := render.NewVectorRenderer()

	switch *renderFmt {
	case "raster-png":
		if *collection == "geometry" {
			err = r.RenderGeometryCollection(data, out)
		} else {
			err = r.RenderFeatureCollection(data, out)
		}
	case "vector-svg":
		if *collection == "geometry" {
			log.Fatal("vector rendering currently supports -collection feature only")
		}
		err = v.RenderFeatureCollectionSVG(data, out)
	case "vector-png":
		if *collection == "geometry" {
			log.Fatal("vector rendering currently supports -collection feature only")
		}
		err = v.RenderFeatureCollectionPNG(data, out)
	default:
		log.Fatalf("unknown -render-format %q", *renderFmt)
	}
	if err != nil {
		log.Fatalf("rendering: %v", err)
	}
}
