package training

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/api"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/cluster"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/features"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/promquery"
)

// MinHistoricalSamples is the record count below which the collector tops
// the dataset up with synthetic samples, so a young cluster still yields
// enough rows to fit on.
const MinHistoricalSamples = 100

// MaxSyntheticSamples caps the synthetic top-up.
const MaxSyntheticSamples = 200

// nodeMetrics is the subset of the Prometheus client the collector uses.
type nodeMetrics interface {
	NodeCPULoad(ctx context.Context, nodeName string) (float64, bool)
	NodeMemoryLoad(ctx context.Context, nodeName string) (float64, bool)
	NodeNetworkLatency(ctx context.Context, nodeName string) (float64, bool)
}

// Collector harvests scheduling decisions from the cluster into feature
// rows for training. Each Scheduled event becomes one row describing the
// chosen node at collection time.
type Collector struct {
	clientset kubernetes.Interface
	metrics   nodeMetrics
	extractor *features.Extractor
	rng       *rand.Rand
}

func NewCollector(clientset kubernetes.Interface, metrics nodeMetrics, seed int64) *Collector {
	return &Collector{
		clientset: clientset,
		metrics:   metrics,
		extractor: features.NewExtractor(features.DefaultConfig()),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// NewCollectorFrom wires the concrete metrics client, treating a nil
// pointer as no backend.
func NewCollectorFrom(clientset kubernetes.Interface, metrics *promquery.Client, seed int64) *Collector {
	var iface nodeMetrics
	if metrics != nil {
		iface = metrics
	}
	return NewCollector(clientset, iface, seed)
}

// Collect gathers feature rows for every pod scheduled inside the window
// and writes them as a training CSV. When history is thin the dataset is
// topped up with synthetic rows drawn from realistic ranges.
func (c *Collector) Collect(ctx context.Context, since time.Duration, outputPath string) (int, error) {
	cutoff := time.Now().Add(-since)

	rows, err := c.harvestEvents(ctx, cutoff)
	if err != nil {
		klog.Errorf("Event harvest failed, continuing with synthetic data: %v", err)
	}
	klog.Infof("Collected %d rows from scheduling events", len(rows))

	if len(rows) < MinHistoricalSamples {
		synthetic := c.synthesize(MaxSyntheticSamples)
		klog.Infof("Topping up with %d synthetic rows", len(synthetic))
		rows = append(rows, synthetic...)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no training rows collected")
	}

	if err := WriteCSV(outputPath, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// harvestEvents turns each recent Scheduled event into a feature row for
// the node the pod landed on. Pods or nodes that have since disappeared
// are skipped.
func (c *Collector) harvestEvents(ctx context.Context, cutoff time.Time) ([]features.Vector, error) {
	events, err := c.clientset.CoreV1().Events(metav1.NamespaceAll).List(ctx, metav1.ListOptions{
		FieldSelector: "reason=Scheduled",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduling events: %w", err)
	}

	snapshot := cluster.NewSnapshot(c.clientset)
	existing, err := snapshot.ExistingPods(ctx)
	if err != nil {
		klog.Warningf("Pod listing failed, density features degrade to zero: %v", err)
		existing = nil
	}

	var rows []features.Vector
	for i := range events.Items {
		event := &events.Items[i]
		when := event.FirstTimestamp.Time
		if when.IsZero() || when.Before(cutoff) {
			continue
		}
		nodeName := scheduledNode(event.Message)
		if nodeName == "" {
			continue
		}

		pod, err := c.clientset.CoreV1().Pods(event.InvolvedObject.Namespace).
			Get(ctx, event.InvolvedObject.Name, metav1.GetOptions{})
		if err != nil {
			klog.V(3).Infof("Skipping event for vanished pod %s/%s: %v",
				event.InvolvedObject.Namespace, event.InvolvedObject.Name, err)
			continue
		}
		node, err := c.clientset.CoreV1().Nodes().Get(ctx, nodeName, metav1.GetOptions{})
		if err != nil {
			klog.V(3).Infof("Skipping event for vanished node %s: %v", nodeName, err)
			continue
		}

		descriptor := cluster.DescribeNode(node)
		c.attachMetrics(ctx, &descriptor)
		rows = append(rows, c.extractor.Extract(cluster.DescribePod(pod), descriptor, existing))
	}
	return rows, nil
}

// attachMetrics fills the optional load and latency fields from the
// metrics backend. Missing series leave the fields nil and the extractor
// falls back to its conservative estimates.
func (c *Collector) attachMetrics(ctx context.Context, node *api.NodeDescriptor) {
	if c.metrics == nil {
		return
	}
	if v, ok := c.metrics.NodeCPULoad(ctx, node.Name); ok {
		node.CPULoad = &v
	}
	if v, ok := c.metrics.NodeMemoryLoad(ctx, node.Name); ok {
		node.MemoryLoad = &v
	}
	if v, ok := c.metrics.NodeNetworkLatency(ctx, node.Name); ok {
		node.NetworkLatency = &v
	}
}

// synthesize fabricates rows spanning realistic operating ranges for the
// simulated network functions.
func (c *Collector) synthesize(count int) []features.Vector {
	podTypes := []string{"UPF", "SMF", "CU", "DU", ""}

	rows := make([]features.Vector, 0, count)
	for i := 0; i < count; i++ {
		cpuAvail := c.uniform(0.1, 0.9)
		memAvail := c.uniform(0.1, 0.9)
		rows = append(rows, features.Vector{
			CPUAvailableRatio:        cpuAvail,
			MemoryAvailableRatio:     memAvail,
			CPULoadAvg:               1.0 - cpuAvail,
			MemoryLoadAvg:            1.0 - memAvail,
			NetworkLatencyNormalized: c.uniform(0.0, 1.0),
			PodDensity:               c.uniform(0.0, 0.8),
			PodCPURequest:            c.uniform(0.05, 0.5),
			PodMemoryRequest:         c.uniform(64*1024*1024, 512*1024*1024),
			PodTypeScore:             c.extractor.PodTypeScore(podTypes[c.rng.Intn(len(podTypes))]),
		})
	}
	return rows
}

func (c *Collector) uniform(low, high float64) float64 {
	return low + c.rng.Float64()*(high-low)
}

// scheduledNode extracts the node name from a default-scheduler event
// message of the form "Successfully assigned ns/pod to node" or the
// older "... on node" phrasing.
func scheduledNode(message string) string {
	for _, sep := range []string{" to ", " on "} {
		if idx := strings.LastIndex(message, sep); idx >= 0 {
			return strings.TrimSpace(message[idx+len(sep):])
		}
	}
	return ""
}

// WriteCSV persists feature rows with the canonical header, ready for
// LoadCSV. Targets are derived at training time, so no target column is
// written.
func WriteCSV(path string, rows []features.Vector) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(features.FieldNames()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, features.Dim)
	for _, row := range rows {
		for i, v := range row.Values() {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush dataset: %w", err)
	}
	return nil
}
