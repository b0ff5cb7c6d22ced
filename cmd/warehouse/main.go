package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"warehouse/internal/config"
	"warehouse/internal/metrics"
	"warehouse/internal/metrics/datadog"
	"warehouse/internal/metrics/prompush"
	"warehouse/internal/pipeline"
	"warehouse/internal/storage"

	// register all backends with the storage factory.
	// config specifies which to use but we build in support for all of them.
	_ "warehouse/internal/storage/all"
)

// main is the entry point for the warehouse binary. It loads the job config,
// optionally initializes a metrics backend, and executes one full build.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		datadogAddrFlg    string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/sample.json", "job config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, datadog, none); falls back to env METRICS_BACKEND")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&datadogAddrFlg, "datadog-addr", "", "DogStatsD address (overrides env DATADOG_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	// .env is optional; explicit environment always wins.
	if err := godotenv.Load(); err == nil && *verbose {
		log.Printf("loaded .env")
	}

	job, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	if dsn := os.Getenv("WAREHOUSE_DSN"); dsn != "" {
		job.Storage.DB.DSN = dsn
	}

	issues := config.Validate(job)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	setupMetrics(job.Job, metricsBackendFlg, pushGatewayURLFlg, datadogAddrFlg, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()
	start := time.Now()

	repo, err := storage.New(ctx, storage.Config{Kind: job.Storage.Kind, DSN: job.Storage.DB.DSN})
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer repo.Close()

	rep, err := pipeline.New(job, repo).Run(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}

	for _, tr := range rep.Tables {
		if tr.Err != nil {
			log.Printf("%s: FAILED after %d rows: %v", tr.Table, tr.Loaded, tr.Err)
			continue
		}
		log.Printf("%s: %d rows loaded (%d duplicates dropped)", tr.Table, tr.Loaded, tr.Duplicates)
	}
	if *verbose {
		log.Printf("run %s completed in %s", rep.RunID, time.Since(start).Truncate(time.Millisecond))
	}
	if rep.Failed() {
		os.Exit(1)
	}
}

// setupMetrics installs the selected metrics backend: flag → env → default.
func setupMetrics(jobName, backendName, gwURLFlag, ddAddrFlag string, verbose bool) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	if jobName == "" {
		jobName = "warehouse"
	}

	switch backendName {
	case "pushgateway":
		gwURL := gwURLFlag
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%v job_name=%v", gwURL, jobName)
		metrics.SetBackend(b)

	case "datadog":
		addr := ddAddrFlag
		if addr == "" {
			addr = os.Getenv("DATADOG_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "warehouse.",
			GlobalTags: []string{"job:" + jobName},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=datadog addr=%v job_name=%v", addr, jobName)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
