package collector

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/miradorstack/incident-rca/internal/config"
	"github.com/miradorstack/incident-rca/internal/models"
)

// NewKubernetesClient builds a clientset from kubeconfig, or from the in-cluster service
// account when kubeconfig is empty.
func NewKubernetesClient(kubeconfig string) (kubernetes.Interface, error) {
	var (
		restCfg *rest.Config
		err     error
	)
	if kubeconfig == "" {
		restCfg, err = rest.InClusterConfig()
	} else {
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("load kubernetes config: %w", err)
	}
	return kubernetes.NewForConfig(restCfg)
}

// KubernetesSource collects pod events and restart counts.
type KubernetesSource struct {
	client    kubernetes.Interface
	namespace string
	lookback  time.Duration
	reasons   map[string]struct{}
}

// NewKubernetesSource constructs a KubernetesSource. The query namespace overrides the
// configured one when set.
func NewKubernetesSource(client kubernetes.Interface, cfg config.KubernetesConfig) *KubernetesSource {
	reasons := make(map[string]struct{}, len(cfg.Reasons))
	for _, r := range cfg.Reasons {
		reasons[r] = struct{}{}
	}
	lookback := cfg.Lookback
	if lookback <= 0 {
		lookback = 10 * time.Minute
	}
	return &KubernetesSource{
		client:    client,
		namespace: cfg.Namespace,
		lookback:  lookback,
		reasons:   reasons,
	}
}

// Name implements Source.
func (k *KubernetesSource) Name() string { return "kubernetes" }

// Collect implements Source.
func (k *KubernetesSource) Collect(ctx context.Context, q Query) (models.SignalBatch, error) {
	namespace := k.namespace
	if q.Namespace != "" {
		namespace = q.Namespace
	}
	at := q.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	events, err := k.events(ctx, namespace, at.Add(-k.lookback))
	if err != nil {
		return models.SignalBatch{}, err
	}
	restarts, err := k.restarts(ctx, namespace)
	if err != nil {
		return models.SignalBatch{}, err
	}
	return models.SignalBatch{Events: events, Restarts: restarts}, nil
}

func (k *KubernetesSource) events(ctx context.Context, namespace string, cutoff time.Time) ([]models.EventRecord, error) {
	list, err := k.client.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{
		FieldSelector: "involvedObject.kind=Pod",
	})
	if err != nil {
		return nil, fmt.Errorf("list events in %s: %w", namespace, err)
	}

	out := make([]models.EventRecord, 0, len(list.Items))
	for i := range list.Items {
		ev := &list.Items[i]
		if ev.InvolvedObject.Kind != "Pod" {
			continue
		}
		if len(k.reasons) > 0 {
			if _, ok := k.reasons[ev.Reason]; !ok {
				continue
			}
		}
		ts := eventTime(ev)
		if ts.IsZero() || ts.Before(cutoff) {
			continue
		}
		count := int(ev.Count)
		if count <= 0 {
			count = 1
		}
		out = append(out, models.EventRecord{
			Pod:       ev.InvolvedObject.Name,
			Namespace: ev.Namespace,
			Reason:    ev.Reason,
			Message:   ev.Message,
			Timestamp: ts.UTC().Format(time.RFC3339),
			Count:     count,
		})
	}
	return out, nil
}

// eventTime prefers eventTime, then lastTimestamp, then firstTimestamp.
func eventTime(ev *corev1.Event) time.Time {
	switch {
	case !ev.EventTime.IsZero():
		return ev.EventTime.Time
	case !ev.LastTimestamp.IsZero():
		return ev.LastTimestamp.Time
	case !ev.FirstTimestamp.IsZero():
		return ev.FirstTimestamp.Time
	default:
		return time.Time{}
	}
}

func (k *KubernetesSource) restarts(ctx context.Context, namespace string) ([]models.RestartRecord, error) {
	pods, err := k.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list pods in %s: %w", namespace, err)
	}

	out := make([]models.RestartRecord, 0)
	for i := range pods.Items {
		pod := &pods.Items[i]
		total := 0
		var lastTermination time.Time
		for _, cs := range pod.Status.ContainerStatuses {
			total += int(cs.RestartCount)
			if term := cs.LastTerminationState.Terminated; term != nil && term.FinishedAt.Time.After(lastTermination) {
				lastTermination = term.FinishedAt.Time
			}
		}
		if total == 0 {
			continue
		}

		ts := lastTermination
		if ts.IsZero() && pod.Status.StartTime != nil {
			ts = pod.Status.StartTime.Time
		}
		if ts.IsZero() {
			ts = pod.CreationTimestamp.Time
		}
		count := total
		out = append(out, models.RestartRecord{
			Pod:          pod.Name,
			Namespace:    pod.Namespace,
			RestartCount: &count,
			Timestamp:    ts.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}
