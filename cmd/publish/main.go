package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "net/http/pprof"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/thanos-io/objstore"
	"gopkg.in/alecthomas/kingpin.v2"

	"raybridge/dataset-exchange/dataset"
	"raybridge/dataset-exchange/schema"
	"raybridge/dataset-exchange/store"
)

type Options struct {
	// Number of partitions to generate.
	Partitions int
	// Rows per generated partition.
	RowsPerPartition int
	// Max rows per published batch, 0 for one batch per partition.
	MaxRowsPerBatch int64
	// Named ownership target, empty for default ownership.
	Owner string
	// Optional session config file.
	ConfigPath string
	// Expose metrics and pprof on localhost:8080.
	Debug bool
}

func main() {
	app := kingpin.New("publish", "Publish generated dataset partitions into a local object store.")
	opts := Options{}
	if err := (&opts).BindFlags(app); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := level.NewFilter(log.NewLogfmtLogger(os.Stderr), level.AllowInfo())
	if opts.Debug {
		logger = level.NewFilter(log.NewLogfmtLogger(os.Stderr), level.AllowDebug())
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			level.Error(logger).Log("err", http.ListenAndServe("localhost:8080", nil))
		}()
	}

	config := dataset.DefaultConfig()
	if opts.ConfigPath != "" {
		var err error
		config, err = dataset.LoadConfig(opts.ConfigPath)
		if err != nil {
			level.Error(logger).Log("msg", "failed loading config", "err", err)
			os.Exit(1)
		}
	}
	if opts.MaxRowsPerBatch > 0 {
		config.MaxRowsPerBatch = opts.MaxRowsPerBatch
	}

	objects := store.NewLocalStore(logger, objstore.NewInMemBucket())
	if opts.Owner != "" {
		objects.RegisterActor(opts.Owner, []byte("actor://"+opts.Owner))
	}
	manager := dataset.NewManager(logger, objects, config,
		dataset.WithMetricsRegisterer(prometheus.DefaultRegisterer),
	)

	src := dataset.NewSource(sampleSchema(), generatePartitions(opts.Partitions, opts.RowsPerPartition)...)
	defer manager.Cleanup(src.ID())

	descriptors, err := manager.Save(context.Background(), src, config.MaxRowsPerBatch > 0, opts.Owner)
	if err != nil {
		level.Error(logger).Log("msg", "save failed", "err", err)
		os.Exit(1)
	}

	for _, descriptor := range descriptors {
		fmt.Printf("object=%s owner=%s rows=%d\n",
			hex.EncodeToString(descriptor.ObjectID),
			string(descriptor.OwnerAddress),
			descriptor.NumRecords,
		)
	}
}

func sampleSchema() schema.Schema {
	return schema.New(
		schema.Field{Name: "id", Type: schema.Int64},
		schema.Field{Name: "payload", Type: schema.String},
		schema.Field{Name: "value", Type: schema.Float64},
		schema.Field{Name: "observed_at", Type: schema.Timestamp},
	)
}

func generatePartitions(numPartitions, rowsPerPartition int) []dataset.Partition {
	bar := progressbar.Default(int64(numPartitions * rowsPerPartition))
	now := time.Now().UTC().Truncate(time.Microsecond)

	partitions := make([]dataset.Partition, 0, numPartitions)
	for p := 0; p < numPartitions; p++ {
		rows := make([]schema.Row, 0, rowsPerPartition)
		for i := 0; i < rowsPerPartition; i++ {
			rows = append(rows, schema.Row{
				int64(p*rowsPerPartition + i),
				fmt.Sprintf("partition-%d-row-%d", p, i),
				float64(i) * 0.5,
				now.Add(time.Duration(i) * time.Second),
			})
			_ = bar.Add(1)
		}
		partitions = append(partitions, dataset.SlicePartition(rows))
	}
	return partitions
}

func (o *Options) BindFlags(app *kingpin.Application) error {
	app.Flag("partitions", "Number of partitions to generate.").
		Default("2").IntVar(&o.Partitions)
	app.Flag("rows-per-partition", "Rows per generated partition.").
		Default("1000").IntVar(&o.RowsPerPartition)
	app.Flag("max-rows-per-batch", "Max rows per published batch, 0 for one batch per partition.").
		Default("256").Int64Var(&o.MaxRowsPerBatch)
	app.Flag("owner", "Named ownership target, empty for default ownership.").
		Default("").StringVar(&o.Owner)
	app.Flag("config", "Optional session config file.").
		Default("").StringVar(&o.ConfigPath)
	app.Flag("debug", "Expose metrics and pprof on localhost:8080.").BoolVar(&o.Debug)

	_, err := app.Parse(os.Args[1:])
	if err != nil {
		return err
	}
	return nil
}
