package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"

	_ "github.com/carbocation/deconv/compileinfoprint"
	"github.com/carbocation/deconv/decompose"
	"github.com/carbocation/deconv/param"
)

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	var (
		paths       inputPaths
		idColumn    string
		outputFile  string
		markersFile string
	)
	opts := param.DefaultOptions()

	flag.StringVar(&paths.Bulk, "bulk", "", "Path to the bulk expression table (features x samples). Optionally, may be a google storage URL (gs://)")
	flag.StringVar(&paths.BulkAnnotation, "bulk-annotation", "", "Optional: bulk sample metadata holding the --batch-key column. Without it, every bulk sample is its own batch")
	flag.StringVar(&paths.SingleCell, "sc", "", "Path to the single-cell expression table (features x cells)")
	flag.StringVar(&paths.SingleCellAnnotation, "sc-annotation", "", "Path to the single-cell metadata holding the --batch-key and --celltype-key columns")
	flag.StringVar(&paths.Reference, "reference", "", "Optional: reference expression table (features x cell types). Built from the single-cell data when omitted")
	flag.StringVar(&paths.Independent, "independent", "", "Optional: bulk expression table of samples to hold out as independent")
	flag.StringVar(&paths.ScaleFactors, "scale-factors", "", "Optional: table with cell_type and scale_factor columns. Defaults to 1 for every cell type")
	flag.StringVar(&markersFile, "markers", "", "Optional: file with one marker feature per line. Restricts the features used for decomposition")
	flag.StringVar(&idColumn, "id-column", "", "Column holding sample or cell ids in the metadata tables. Defaults to the first column")
	flag.StringVar(&opts.Assay, "assay", param.DefaultAssay, "Name under which the expression tables are stored")
	flag.StringVar(&opts.BatchKey, "batch-key", param.DefaultBatchKey, "Metadata column holding batch ids")
	flag.StringVar(&opts.CellTypeKey, "celltype-key", param.DefaultCellTypeKey, "Single-cell metadata column holding cell-type labels")
	flag.BoolVar(&opts.UseOverlap, "use-overlap", false, "Fit the bulk transformation on samples whose batch is also present in the single-cell data")
	flag.BoolVar(&opts.ReturnInfo, "return-info", false, "Also print run metadata and an R-squared histogram to stderr")
	flag.StringVar(&outputFile, "out", "", "Optional: path to the output file. Defaults to stdout")
	flag.Parse()

	if paths.Bulk == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --bulk")
	}

	if paths.SingleCell == "" || paths.SingleCellAnnotation == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --sc and --sc-annotation")
	}

	ctx := context.Background()
	l := &loader{ctx: ctx, idColumn: idColumn}
	if paths.hasGoogleStorage() || strings.HasPrefix(markersFile, "gs://") {
		var err error
		l.client, err = storage.NewClient(ctx)
		if err != nil {
			log.Fatalln(err)
		}
		defer l.client.Close()
	}

	if markersFile != "" {
		markers, err := l.features(markersFile)
		if err != nil {
			log.Fatalln(err)
		}
		log.Printf("Read %d marker features from %s\n", len(markers), markersFile)
		opts.Markers = markers
	}

	in, err := l.inputs(paths, opts.Assay)
	if err != nil {
		log.Fatalln(err)
	}

	p, err := decompose.NewParameters(in, opts, nil)
	if err != nil {
		log.Fatalln(err)
	}

	out, err := decompose.Deconvolve(p)
	if err != nil {
		log.Fatalln(err)
	}

	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		STDOUT.Reset(f)
	}

	if err := writeOutcome(STDOUT, os.Stderr, out, p); err != nil {
		log.Fatalln(err)
	}

	// Before the output file is closed
	if err := STDOUT.Flush(); err != nil {
		log.Fatalln(err)
	}
}
