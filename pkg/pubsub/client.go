package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/linkcart/storefront-core/pkg/config"
	"github.com/linkcart/storefront-core/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	kindTopic        = "topics"
	kindSubscription = "subscriptions"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// Client hands out verified publishers and subscribers. Each handle is checked
// against the admin API when it is first requested; Ping re-checks all of them.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
	logg      *logger.Logger

	mu       sync.Mutex
	resolved []string
}

func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	psClient, err := pubsub.NewClient(ctx, projectID, gcp.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	return &Client{client: psClient, projectID: projectID, cfg: cfg, logg: logg}, nil
}

// ClicksPublisher verifies the clicks topic and returns a publisher for it.
func (c *Client) ClicksPublisher(ctx context.Context) (*TopicPublisher, error) {
	if c == nil {
		return nil, errNotInitialized
	}
	name, err := c.resolve(ctx, kindTopic, c.cfg.ClicksTopic)
	if err != nil {
		return nil, err
	}
	p := c.client.Publisher(name)
	if c.cfg.PublishDelay > 0 {
		p.PublishSettings.DelayThreshold = c.cfg.PublishDelay
	}
	return &TopicPublisher{publisher: p}, nil
}

// ClicksSubscription verifies the clicks subscription and returns its subscriber.
func (c *Client) ClicksSubscription(ctx context.Context) (*pubsub.Subscriber, error) {
	if c == nil {
		return nil, errNotInitialized
	}
	name, err := c.resolve(ctx, kindSubscription, c.cfg.ClicksSubscription)
	if err != nil {
		return nil, err
	}
	sub := c.client.Subscriber(name)
	if c.cfg.MaxOutstandingMessages > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = c.cfg.MaxOutstandingMessages
	}
	return sub, nil
}

func (c *Client) resolve(ctx context.Context, kind, name string) (string, error) {
	if c == nil || c.client == nil {
		return "", errNotInitialized
	}
	full := resourceName(c.projectID, kind, name)
	if full == "" {
		return "", fmt.Errorf("pubsub %s name is required", strings.TrimSuffix(kind, "s"))
	}
	if err := c.check(ctx, kind, full); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.resolved = append(c.resolved, full)
	c.mu.Unlock()

	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "resource", full), "pubsub resource verified")
	}
	return full, nil
}

func (c *Client) check(ctx context.Context, kind, full string) error {
	var err error
	switch kind {
	case kindTopic:
		_, err = c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: full})
	case kindSubscription:
		_, err = c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: full})
	default:
		return fmt.Errorf("unknown pubsub resource kind %q", kind)
	}
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s does not exist", full)
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", full, err)
	}
	return nil
}

// Ping re-checks every topic and subscription handed out so far.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	c.mu.Lock()
	names := append([]string(nil), c.resolved...)
	c.mu.Unlock()

	for _, full := range names {
		kind := kindTopic
		if strings.Contains(full, "/"+kindSubscription+"/") {
			kind = kindSubscription
		}
		if err := c.check(ctx, kind, full); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// resourceName accepts a bare id or a full projects/<p>/<kind>/<id> name.
func resourceName(projectID, kind, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/"+kind+"/") {
		return n
	}
	if projectID == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/%s/%s", projectID, kind, n)
}

// TopicPublisher publishes to one topic and waits for the server ack.
type TopicPublisher struct {
	publisher *pubsub.Publisher
}

func (p *TopicPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) error {
	if p == nil || p.publisher == nil {
		return errors.New("pubsub publisher not initialized")
	}
	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing message: %w", err)
	}
	return nil
}

// Stop flushes pending messages.
func (p *TopicPublisher) Stop() {
	if p == nil || p.publisher == nil {
		return
	}
	p.publisher.Stop()
}
