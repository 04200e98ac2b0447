// Package metrics exports sidecar operational counters, adapted from the
// teacher's internal/metrics package with the HTTP-request/token-usage
// dimensions swapped for the control-loop's own.
package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespaceDefault         = "ToneBridge/Sidecar"
	cloudwatchTimeoutSeconds = 5
)

// Client wraps a CloudWatch client for the sidecar's custom metrics.
type Client struct {
	client      *cloudwatch.Client
	enabled     bool
	environment string
	namespace   string
}

// NewClient creates a new CloudWatch metrics client. Only enabled in production,
// matching the teacher's policy of keeping metrics export off in dev.
func NewClient(ctx context.Context, environment, namespace string) (*Client, error) {
	if namespace == "" {
		namespace = namespaceDefault
	}
	if environment != "production" {
		log.Printf("cloudwatch metrics: disabled (environment=%s)", environment)
		return &Client{enabled: false, environment: environment, namespace: namespace}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("cloudwatch metrics: failed to load AWS config: %v", err)
		return &Client{enabled: false}, nil
	}

	client := cloudwatch.NewFromConfig(cfg)
	log.Printf("cloudwatch metrics: enabled (namespace=%s)", namespace)

	return &Client{client: client, enabled: true, environment: environment, namespace: namespace}, nil
}

// RecordTickDuration records how long one main-loop tick took to process.
func (m *Client) RecordTickDuration(duration time.Duration) {
	if !m.enabled {
		return
	}
	go func() {
		ms := float64(duration.Microseconds()) / 1000.0
		if err := m.putMetric(context.Background(), "TickDurationMs", ms, types.StandardUnitMilliseconds, m.envDimensions()); err != nil {
			log.Printf("cloudwatch: failed to record TickDurationMs: %v", err)
		}
	}()
}

// RecordSessionEvent records a session lifecycle transition (connected, rejected_busy, closed).
func (m *Client) RecordSessionEvent(event string) {
	if !m.enabled {
		return
	}
	go func() {
		dims := append(m.envDimensions(), types.Dimension{Name: aws.String("Event"), Value: aws.String(event)})
		if err := m.putMetric(context.Background(), "SessionEvents", 1, types.StandardUnitCount, dims); err != nil {
			log.Printf("cloudwatch: failed to record SessionEvents: %v", err)
		}
	}()
}

// RecordProbeDuration records how long a parameter probe sweep took.
func (m *Client) RecordProbeDuration(kind string, duration time.Duration) {
	if !m.enabled {
		return
	}
	go func() {
		dims := append(m.envDimensions(), types.Dimension{Name: aws.String("ProbeKind"), Value: aws.String(kind)})
		ms := float64(duration.Milliseconds())
		if err := m.putMetric(context.Background(), "ProbeDurationMs", ms, types.StandardUnitMilliseconds, dims); err != nil {
			log.Printf("cloudwatch: failed to record ProbeDurationMs: %v", err)
		}
	}()
}

// RecordCoalescedDrop records a queued set_tone command superseded before it was applied.
func (m *Client) RecordCoalescedDrop() {
	if !m.enabled {
		return
	}
	go func() {
		if err := m.putMetric(context.Background(), "CommandsCoalesced", 1, types.StandardUnitCount, m.envDimensions()); err != nil {
			log.Printf("cloudwatch: failed to record CommandsCoalesced: %v", err)
		}
	}()
}

// RecordBusyRejection records a second client rejected while a session is already active.
func (m *Client) RecordBusyRejection() {
	if !m.enabled {
		return
	}
	go func() {
		if err := m.putMetric(context.Background(), "BusyRejections", 1, types.StandardUnitCount, m.envDimensions()); err != nil {
			log.Printf("cloudwatch: failed to record BusyRejections: %v", err)
		}
	}()
}

func (m *Client) envDimensions() []types.Dimension {
	return []types.Dimension{
		{Name: aws.String("Environment"), Value: aws.String(m.environment)},
	}
}

func (m *Client) putMetric(_ context.Context, metricName string, value float64, unit types.StandardUnit, dimensions []types.Dimension) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})
	return err
}
