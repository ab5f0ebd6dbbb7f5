// internal/common/database/elasticsearch.go
package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"worth-it/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchClient wraps the Elasticsearch client
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearch creates a new Elasticsearch client
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}

	esCfg := elasticsearch.Config{
		Addresses: addresses,
	}

	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{Client: es}, nil
}

// Ping tests the Elasticsearch connection
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(
		c.Client.Ping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	return nil
}

// ElasticsearchKV stores each key as a document whose id is the key.
type ElasticsearchKV struct {
	client *elasticsearch.Client
	index  string
}

type kvDocument struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewElasticsearchKV(client *elasticsearch.Client, index string) *ElasticsearchKV {
	if index == "" {
		index = "worth-it-kv"
	}
	return &ElasticsearchKV{client: client, index: index}
}

func (e *ElasticsearchKV) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := e.client.Get(e.index, key, e.client.Get.WithContext(ctx))
	if err != nil {
		return "", false, fmt.Errorf("elasticsearch get %s: %w", key, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if res.IsError() {
		return "", false, fmt.Errorf("elasticsearch get %s: %s", key, res.Status())
	}

	var body struct {
		Found  bool       `json:"found"`
		Source kvDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", false, fmt.Errorf("elasticsearch decode %s: %w", key, err)
	}
	if !body.Found {
		return "", false, nil
	}
	return body.Source.Value, true, nil
}

// Set indexes the document with refresh so a following Get sees it.
func (e *ElasticsearchKV) Set(ctx context.Context, key, value string) error {
	payload, err := json.Marshal(kvDocument{Value: value, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	res, err := e.client.Index(e.index, bytes.NewReader(payload),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(key),
		e.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index %s: %w", key, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch index %s: %s", key, res.Status())
	}
	return nil
}

// Remove deletes the document; a missing document is not an error.
func (e *ElasticsearchKV) Remove(ctx context.Context, key string) error {
	res, err := e.client.Delete(e.index, key,
		e.client.Delete.WithContext(ctx),
		e.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete %s: %w", key, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch delete %s: %s", key, res.Status())
	}
	return nil
}
