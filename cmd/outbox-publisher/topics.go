package main

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
	Stop()
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type publisherFactory func(topic string) publisher

// topicSet keeps one publisher per topic so Pub/Sub batching settings apply
// across rows and batches.
type topicSet struct {
	factory    publisherFactory
	publishers map[string]publisher
}

func newTopicSet(factory publisherFactory) *topicSet {
	return &topicSet{factory: factory, publishers: make(map[string]publisher)}
}

func (t *topicSet) get(topic string) publisher {
	if pub, ok := t.publishers[topic]; ok {
		return pub
	}
	pub := t.factory(topic)
	if pub != nil {
		t.publishers[topic] = pub
	}
	return pub
}

// stop flushes and releases every publisher.
func (t *topicSet) stop() {
	for topic, pub := range t.publishers {
		pub.Stop()
		delete(t.publishers, topic)
	}
}

func gcpPublisherFactory(client pubSubClient) publisherFactory {
	return func(topic string) publisher {
		p := client.Publisher(topic)
		if p == nil {
			return nil
		}
		return gcpPublisher{p}
	}
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return gcpPublishResult{g.p.Publish(ctx, msg)}
}

func (g gcpPublisher) Stop() { g.p.Stop() }

type gcpPublishResult struct {
	r *gcppubsub.PublishResult
}

func (g gcpPublishResult) Get(ctx context.Context) (string, error) {
	if g.r == nil {
		return "", errors.New("publish result is nil")
	}
	return g.r.Get(ctx)
}
