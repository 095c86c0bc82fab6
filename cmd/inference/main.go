package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/inference"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/promquery"
)

var (
	version   = "0.3.0"
	buildTime = "2026-08-12"
)

func main() {
	klog.InitFlags(nil)

	config := inference.NewDefaultConfig()

	var (
		configFile  string
		showVersion bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML)")
	flag.IntVar(&config.ListenPort, "port", config.ListenPort, "Port for the inference HTTP server")
	flag.StringVar(&config.ModelPath, "model-path", config.ModelPath,
		"Path to the trained model artifact")
	flag.StringVar(&config.PrometheusURL, "prometheus-url", config.PrometheusURL,
		"Base URL of the Prometheus server")
	flag.DurationVar(&config.PrometheusTimeout, "prometheus-timeout", config.PrometheusTimeout,
		"Timeout for Prometheus queries")
	flag.BoolVar(&showVersion, "version", false, "Show version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("Inference service v%s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	if configFile != "" {
		if err := config.LoadFromFile(configFile); err != nil {
			klog.Fatalf("Failed to load configuration: %s", err.Error())
		}
	}
	config.LoadFromEnv()

	if err := config.Validate(); err != nil {
		klog.Fatalf("Invalid configuration: %s", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		klog.Infof("Received %s signal, initiating graceful shutdown", sig)
		cancel()
	}()

	var metrics *promquery.Client
	if config.PrometheusURL != "" {
		client, err := promquery.NewClient(config.PrometheusURL, config.PrometheusTimeout)
		if err != nil {
			klog.Warningf("Metrics backend unavailable, features fall back to estimates: %v", err)
		} else {
			metrics = client
		}
	}

	server := inference.NewServerFrom(config, metrics)
	if err := server.Run(ctx); err != nil {
		klog.Fatalf("Error running inference service: %s", err.Error())
	}
	klog.Info("Inference service shutdown complete")
}
