// Command ldctl is a small operator CLI for manual smoke-testing of an
// ldstore deployment, modeled on the teacher's cmd/tools subcommand
// dispatch: a flag.NewFlagSet per subcommand, os.Args[1] switch, a
// printUsage helper. It exposes shape inspection (schema.Names/Lookup)
// and a one-shot retrieve runner against a store built from a JSON
// ldcore.Config, for poking at a deployment without writing Go.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lychee-technology/ldstore"
	"github.com/lychee-technology/ldstore/factory"
	"github.com/lychee-technology/ldstore/internal/schema"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "shapes":
		err = runShapes(os.Args[2:])
	case "get":
		err = runGet(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func printUsage() {
	fmt.Println("Usage: ldctl <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  shapes   Print a registered Shape's target class and properties")
	fmt.Println("  get      Retrieve one resource by id against a configured store")
}

func runShapes(args []string) error {
	flags := flag.NewFlagSet("shapes", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: ldctl shapes [-shape NAME]")
		fmt.Println()
		fmt.Println("With no -shape, lists every registered shape name.")
		fmt.Println()
		fmt.Println("Options:")
		flags.PrintDefaults()
	}
	name := flags.String("shape", "", "Shape name to describe (omit to list all registered names)")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if *name == "" {
		for _, n := range schema.Names() {
			fmt.Println(n)
		}
		return nil
	}

	shape, ok := schema.Lookup(*name)
	if !ok {
		return fmt.Errorf("no registered shape named %q (known: %v)", *name, schema.Names())
	}
	describeShape(shape)
	return nil
}

func describeShape(shape *ldcore.Shape) {
	fmt.Printf("targetClass: %s\n", shape.TargetClass())
	fmt.Println("properties:")
	for _, p := range shape.Properties() {
		kind := "any"
		switch p.Type.Kind() {
		case ldcore.TypeLiteral:
			kind = p.Type.Datatype()
		case ldcore.TypeShape:
			kind = "-> " + p.Type.Shape().TargetClass()
		}
		flags := ""
		if p.Embedded {
			flags += " embedded"
		}
		if p.Hidden {
			flags += " hidden"
		}
		fmt.Printf("  %-12s %-45s [%d..%s]%s\n", p.Name, kind, p.Cardinality.Min, maxLabel(p.Cardinality), flags)
	}
}

func maxLabel(c ldcore.Cardinality) string {
	if c.Unbounded() {
		return "*"
	}
	return fmt.Sprintf("%d", c.Max)
}

func runGet(args []string) error {
	flags := flag.NewFlagSet("get", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: ldctl get -config FILE -shape NAME -id URI")
		fmt.Println()
		fmt.Println("Options:")
		flags.PrintDefaults()
	}
	configPath := flags.String("config", "", "Path to a JSON-encoded ldcore.Config")
	shapeName := flags.String("shape", "", "Registered shape name the id is expected to conform to")
	id := flags.String("id", "", "Absolute URI of the resource to retrieve")
	timeout := flags.Duration("timeout", 30*time.Second, "Overall timeout for the retrieve call")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if *configPath == "" || *shapeName == "" || *id == "" {
		flags.Usage()
		return fmt.Errorf("-config, -shape, and -id are all required")
	}

	shape, ok := schema.Lookup(*shapeName)
	if !ok {
		return fmt.Errorf("no registered shape named %q (known: %v)", *shapeName, schema.Names())
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := factory.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer store.Close()

	model, err := ldcore.NewObject()
	if err != nil {
		return err
	}
	model, err = ldcore.WithID(model, *id)
	if err != nil {
		return err
	}
	model, err = ldcore.WithContext(model, shape)
	if err != nil {
		return err
	}

	result, err := store.Retrieve(ctx, model, nil)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	encoded, err := result.Encode(ldcore.Base(""))
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(encoded)
	return nil
}

func loadConfig(path string) (*ldcore.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := ldcore.DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}
	return cfg, nil
}
