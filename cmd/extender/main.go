package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/cluster"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/extender"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/promquery"
)

var (
	version   = "0.3.0"
	buildTime = "2026-08-12"
)

func main() {
	klog.InitFlags(nil)

	config := extender.NewDefaultConfig()

	var (
		configFile  string
		showVersion bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&config.Kubeconfig, "kubeconfig", "", "Path to kubeconfig file")
	flag.StringVar(&config.Master, "master", "", "The address of the Kubernetes API server")
	flag.IntVar(&config.ListenPort, "port", config.ListenPort, "Port for the extender HTTP server")
	flag.StringVar(&config.InferenceURL, "inference-url", config.InferenceURL,
		"Base URL of the inference service")
	flag.StringVar(&config.PrometheusURL, "prometheus-url", config.PrometheusURL,
		"Base URL of the Prometheus server")
	flag.DurationVar(&config.InferenceTimeout, "inference-timeout", config.InferenceTimeout,
		"Timeout for inference service calls")
	flag.DurationVar(&config.PrometheusTimeout, "prometheus-timeout", config.PrometheusTimeout,
		"Timeout for Prometheus queries")
	flag.Float64Var(&config.PriorityWeight, "priority-weight", config.PriorityWeight,
		"Weight applied to model scores before mapping to extender priorities")
	flag.BoolVar(&config.VerboseLogging, "verbose", config.VerboseLogging, "Enable verbose logging")
	flag.BoolVar(&showVersion, "version", false, "Show version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("Scheduler extender v%s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	if configFile != "" {
		if err := config.LoadFromFile(configFile); err != nil {
			klog.Fatalf("Failed to load configuration: %s", err.Error())
		}
	}
	config.LoadFromEnv()

	if config.VerboseLogging {
		if err := flag.Set("v", "4"); err != nil {
			klog.Warning("Failed to set verbose logging level")
		}
	}

	if err := config.Validate(); err != nil {
		klog.Fatalf("Invalid configuration: %s", err.Error())
	}
	klog.Infof("Starting scheduler extender with config: %s", config)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		klog.Infof("Received %s signal, initiating graceful shutdown", sig)
		cancel()
	}()

	inference := extender.NewInferenceClient(config.InferenceURL, config.InferenceTimeout)

	var metrics *promquery.Client
	if config.PrometheusURL != "" {
		client, err := promquery.NewClient(config.PrometheusURL, config.PrometheusTimeout)
		if err != nil {
			klog.Warningf("Metrics backend unavailable, latency stays neutral: %v", err)
		} else {
			metrics = client
		}
	}

	var snapshot *cluster.Snapshot
	clientset, err := cluster.NewClientset(config.Kubeconfig, config.Master)
	if err != nil {
		klog.Warningf("Kubernetes client unavailable, scheduling without pod snapshot: %v", err)
	} else {
		snapshot = cluster.NewSnapshot(clientset)
	}

	ext := extender.NewFrom(config, inference, metrics, snapshot)
	if err := ext.Run(ctx); err != nil {
		klog.Fatalf("Error running extender: %s", err.Error())
	}
	klog.Info("Extender shutdown complete")
}
