// Package audit records one summary document per dispatch invocation.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"incident-notifier/internal/models"
)

// ElasticsearchSink indexes dispatch summaries keyed by invocation id.
type ElasticsearchSink struct {
	transport esapi.Transport
	index     string
}

// NewElasticsearchSink returns a sink writing to index. Pass an *elasticsearch.Client as transport.
func NewElasticsearchSink(transport esapi.Transport, index string) *ElasticsearchSink {
	return &ElasticsearchSink{transport: transport, index: index}
}

// Record indexes summary. Re-recording the same invocation overwrites the document.
func (s *ElasticsearchSink) Record(ctx context.Context, summary models.DispatchSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal dispatch summary: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: summary.InvocationID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, s.transport)
	if err != nil {
		return fmt.Errorf("index dispatch summary: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index dispatch summary: %s", res.String())
	}
	return nil
}
