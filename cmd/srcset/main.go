// srcset builds, parses and selects from responsive image candidate sets
// without running the HTTP server.
//
//	srcset build <id> [--type T] [--catalog sizes.yaml] [--template P] [--json]
//	srcset parse <descriptor> [--json]
//	srcset select <descriptor> [--width W] [--height H] [--density D]
//	srcset select --id <id> [--type T] [--width W] [--height H] [--density D]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/anime-shed/image-srcset-go/internal/logger"
	"github.com/anime-shed/image-srcset-go/internal/repository"
	"github.com/anime-shed/image-srcset-go/internal/storage"
	"github.com/anime-shed/image-srcset-go/internal/strategy"
	"github.com/anime-shed/image-srcset-go/pkg/models"
	"github.com/anime-shed/image-srcset-go/pkg/srcset"
	"github.com/anime-shed/image-srcset-go/pkg/validation"

	"github.com/sirupsen/logrus"
)

// errNoCandidate exits with status 2 so scripts can tell it from a usage error
var errNoCandidate = errors.New("no candidate available")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errNoCandidate) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "build":
		return runBuild(args[1:], stdout, stderr)
	case "parse":
		return runParse(args[1:], stdout, stderr)
	case "select":
		return runSelect(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: srcset <command> [flags]

Commands:
  build <id>            print the candidate set of an image
  parse <descriptor>    parse a srcset attribute value
  select [descriptor]   print the best candidate for a viewport
`)
}

// catalogFlags are shared by commands that read the size catalog
type catalogFlags struct {
	catalogPath string
	template    string
	variantType string
}

func (f *catalogFlags) add(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.catalogPath, "catalog", "", "YAML size catalog (default: built-in table)")
	flagSet.StringVar(&f.template, "template", srcset.DefaultURLPattern, "URL pattern with [id], [type] and [size] placeholders")
	flagSet.StringVarP(&f.variantType, "type", "t", "", "variant type, or auto to pick from the viewport")
}

func (f *catalogFlags) builder(ctx context.Context) (*srcset.Builder, error) {
	if err := validation.NewURLValidator().ValidateTemplate(f.template); err != nil {
		return nil, err
	}

	catalog := srcset.DefaultCatalog()
	if f.catalogPath != "" {
		repo := repository.NewFetchedCatalogRepository(storage.NewFileCatalogFetcher(), "local", f.catalogPath)
		loaded, err := repo.Catalog(ctx)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}
	return srcset.NewBuilder(catalog, srcset.PlaceholderTemplate(f.template)), nil
}

// viewportFlags describe the display to select for
type viewportFlags struct {
	vp srcset.Viewport
}

func (f *viewportFlags) add(flagSet *pflag.FlagSet) {
	flagSet.Float64Var(&f.vp.Width, "width", 1024, "viewport width in CSS pixels")
	flagSet.Float64Var(&f.vp.Height, "height", 768, "viewport height in CSS pixels")
	flagSet.Float64Var(&f.vp.Density, "density", 1, "device pixel ratio")
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	return flagSet
}

func runBuild(args []string, stdout, stderr io.Writer) error {
	var catalog catalogFlags
	var viewport viewportFlags
	var asJSON bool

	flagSet := newFlagSet("build", stderr)
	catalog.add(flagSet)
	viewport.add(flagSet)
	flagSet.BoolVar(&asJSON, "json", false, "print candidates as JSON")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("build takes exactly one image id")
	}

	builder, err := catalog.builder(context.Background())
	if err != nil {
		return err
	}

	requested := catalog.variantType
	if requested != "" && requested != srcset.VariantAuto && !builder.Catalog.Has(requested) {
		if suggestion := builder.Catalog.Suggest(requested); suggestion != "" {
			return fmt.Errorf("unknown variant type %q, did you mean %q?", requested, suggestion)
		}
		return fmt.Errorf("unknown variant type %q", requested)
	}

	id := flagSet.Arg(0)
	variantType := strategy.NewVariantContext().Resolve(requested, builder.Catalog, viewport.vp)
	cs := builder.Build(id, variantType)

	if asJSON {
		return writeJSON(stdout, models.SrcsetResponse{
			ID:          id,
			VariantType: variantType,
			Srcset:      srcset.WidthDescriptor(cs),
			Candidates:  models.FromCandidateSet(cs),
		})
	}
	fmt.Fprintln(stdout, srcset.WidthDescriptor(cs))
	return nil
}

func runParse(args []string, stdout, stderr io.Writer) error {
	var asJSON bool

	flagSet := newFlagSet("parse", stderr)
	flagSet.BoolVar(&asJSON, "json", false, "print candidates as JSON")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cs := parse(strings.Join(flagSet.Args(), " "), stderr)
	if asJSON {
		return writeJSON(stdout, models.FromCandidateSet(cs))
	}
	for _, c := range cs {
		fmt.Fprintln(stdout, c.Descriptor())
	}
	return nil
}

func runSelect(args []string, stdout, stderr io.Writer) error {
	var catalog catalogFlags
	var viewport viewportFlags
	var id string

	flagSet := newFlagSet("select", stderr)
	catalog.add(flagSet)
	viewport.add(flagSet)
	flagSet.StringVar(&id, "id", "", "select from the catalog candidates of this image instead of a descriptor")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	var cs srcset.CandidateSet
	if id != "" {
		builder, err := catalog.builder(context.Background())
		if err != nil {
			return err
		}
		variantType := strategy.NewVariantContext().Resolve(catalog.variantType, builder.Catalog, viewport.vp)
		cs = builder.Build(id, variantType)
	} else {
		if flagSet.NArg() == 0 {
			return fmt.Errorf("select needs a descriptor or --id")
		}
		cs = parse(strings.Join(flagSet.Args(), " "), stderr)
	}

	best, ok := srcset.SelectBest(cs, viewport.vp)
	if !ok {
		return errNoCandidate
	}
	fmt.Fprintln(stdout, best.URL)
	return nil
}

// parse reads descriptor, logging ignored tokens to stderr
func parse(descriptor string, stderr io.Writer) srcset.CandidateSet {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	return srcset.ParseWithDiagnostics(descriptor, logger.DiagnosticSink(logrus.NewEntry(log)))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
