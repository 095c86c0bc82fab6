package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"k8s.io/klog/v2"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/cluster"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/model"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/promquery"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/training"
)

var (
	version   = "0.3.0"
	buildTime = "2026-08-12"
)

func main() {
	klog.InitFlags(nil)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "train":
		err = runTrain(os.Args[2:])
	case "collect":
		err = runCollect(os.Args[2:])
	case "version":
		fmt.Printf("Trainer v%s (built %s)\n", version, buildTime)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		klog.Fatalf("%s failed: %s", os.Args[1], err.Error())
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: trainer <command> [flags]

Commands:
  train    fit a scoring model from a training CSV
  collect  harvest scheduling events into a training CSV
  version  show version information
`)
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	opts := training.DefaultOptions(model.ModelRandomForest)

	var (
		dataPath   string
		outputPath string
	)
	fs.StringVar(&dataPath, "data", "training_data.csv", "Path to the training CSV")
	fs.StringVar(&outputPath, "output", "scheduler_model.json", "Path for the model artifact")
	fs.StringVar(&opts.ModelType, "model-type", opts.ModelType,
		"Model type: random_forest or gradient_boosting")
	fs.IntVar(&opts.NumTrees, "trees", opts.NumTrees, "Number of trees in the ensemble")
	fs.IntVar(&opts.MaxDepth, "max-depth", 0, "Maximum tree depth (0 for the model-type default)")
	fs.Float64Var(&opts.LearningRate, "learning-rate", 0,
		"Learning rate for gradient boosting (0 for the default)")
	fs.Float64Var(&opts.TestFraction, "test-fraction", opts.TestFraction,
		"Fraction of rows held out for evaluation")
	fs.IntVar(&opts.CVFolds, "cv-folds", opts.CVFolds, "Number of cross-validation folds")
	fs.Int64Var(&opts.Seed, "seed", opts.Seed, "Random seed for reproducible runs")
	fs.StringVar(&opts.Version, "model-version", opts.Version, "Version string stored in the artifact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	defaults := training.DefaultOptions(opts.ModelType)
	if opts.MaxDepth == 0 {
		opts.MaxDepth = defaults.MaxDepth
	}
	if opts.LearningRate == 0 {
		opts.LearningRate = defaults.LearningRate
	}

	dataset, hasTarget, err := training.LoadCSV(dataPath)
	if err != nil {
		return err
	}
	if !hasTarget {
		klog.Info("No target column in dataset, deriving targets from features")
		training.DefaultTargetConfig().DeriveTargets(dataset)
	}

	artifact, metrics, err := training.Train(dataset, opts)
	if err != nil {
		return err
	}
	if err := artifact.Save(outputPath); err != nil {
		return err
	}
	klog.Infof("Saved %s model to %s (%s)", opts.ModelType, outputPath, metrics)
	return nil
}

func runCollect(args []string) error {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)

	var (
		kubeconfig    string
		master        string
		prometheusURL string
		outputPath    string
		days          int
		seed          int64
	)
	fs.StringVar(&kubeconfig, "kubeconfig", "", "Path to kubeconfig file")
	fs.StringVar(&master, "master", "", "The address of the Kubernetes API server")
	fs.StringVar(&prometheusURL, "prometheus-url",
		envOr("PROMETHEUS_URL", "http://prometheus.monitoring.svc.cluster.local:9090"),
		"Base URL of the Prometheus server")
	fs.StringVar(&outputPath, "output", "training_data.csv", "Path for the training CSV")
	fs.IntVar(&days, "days", 7, "How many days of scheduling history to harvest")
	fs.Int64Var(&seed, "seed", 42, "Random seed for synthetic rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	clientset, err := cluster.NewClientset(kubeconfig, master)
	if err != nil {
		return err
	}

	var metrics *promquery.Client
	if prometheusURL != "" {
		metrics, err = promquery.NewClient(prometheusURL, promquery.DefaultQueryTimeout)
		if err != nil {
			klog.Warningf("Metrics backend unavailable, rows use estimates: %v", err)
			metrics = nil
		}
	}

	collector := training.NewCollectorFrom(clientset, metrics, seed)
	rows, err := collector.Collect(context.Background(), time.Duration(days)*24*time.Hour, outputPath)
	if err != nil {
		return err
	}
	klog.Infof("Wrote %d rows to %s", rows, outputPath)
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
