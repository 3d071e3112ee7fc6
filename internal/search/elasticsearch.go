package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/config"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// ElasticClient indexes published events so the directory search can
// query them. Indexing is best-effort: the ledger transaction has
// already committed by the time a document is written.
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// IndexEvent indexes one published event
func (c *ElasticClient) IndexEvent(ctx context.Context, event *models.Event) error {
	if c == nil || c.client == nil {
		return nil
	}

	log.Info().Str("event_id", event.ID.String()).Msg("Indexing event")

	doc := map[string]interface{}{
		"id":              event.ID.String(),
		"title":           event.Title,
		"description":     event.Description,
		"start_date_time": event.StartDateTime,
		"end_date_time":   event.EndDateTime,
		"max_attendees":   event.MaxAttendees,
		"status":          event.Status,
		"location_name":   event.LocationName,
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event document")
	}

	req := esapi.IndexRequest{
		Index:      config.FormatIndex(c.config, c.config.Index),
		DocumentID: event.ID.String(),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch returned status %s indexing event %s", res.Status(), event.ID)
	}

	return nil
}
