// Package sink provides an Elasticsearch-backed implementation of the
// error sink and record sink collaborators a csv.Reader talks to
// through plain interfaces (ingest.Sink, and the ElasticWritable
// contract below for materialized rows).
package sink

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/olivere/elastic"

	"github.com/urbint/csvstream"
	"github.com/urbint/csvstream/utils"
)

// Opts configures an ElasticSink.
type Opts struct {
	// NumWorkers defaults to runtime.NumCPU() (set in New, not via tag,
	// since it depends on the running machine).
	NumWorkers int

	MaxPendingActions int           `default:"-1"`
	FlushInterval     time.Duration `default:"5m"`
	FlushSize         int           `default:"15000000"`

	// FaultIndex is where Record(fault) stores ingest.Fault documents.
	FaultIndex string `default:"csv-faults"`

	// AbortOnError is not read by ElasticSink: Elasticsearch write
	// errors are always logged in afterFlush and the bulk processor
	// keeps running.
	AbortOnError bool
}

// ElasticWritable is implemented by a materialized row that wants to be
// stored in Elasticsearch alongside the faults raised while producing
// it. ForElastic returning a nil data value skips the row.
type ElasticWritable interface {
	ForElastic() (index string, docType string, id string, data interface{})
}

// ElasticSink batches ingest.Fault records and ElasticWritable rows
// into Elasticsearch via a shared bulk processor. It implements
// ingest.Sink, so it can be plugged directly into csv.Options.ErrorSink.
type ElasticSink struct {
	Opts Opts
	Log  ingest.Logger

	es        *elastic.Client
	processor *elastic.BulkProcessor

	pendingCount uint32
}

// New builds an ElasticSink writing through client.
func New(client *elastic.Client) *ElasticSink {
	s := &ElasticSink{
		Log: ingest.DefaultLogger.WithField("task", "sink-elasticsearch"),
		es:  client,
	}
	defaults.SetDefaults(&s.Opts)
	s.Opts.NumWorkers = runtime.NumCPU()
	return s
}

// Start spins up the underlying bulk processor. Call once before
// feeding records or faults; call Stop when done.
func (s *ElasticSink) Start() error {
	s.Log.Debug("Starting BulkInserter")
	proc, err := s.es.BulkProcessor().
		Workers(s.Opts.NumWorkers).
		BulkActions(s.Opts.MaxPendingActions).
		BulkSize(s.Opts.FlushSize).
		FlushInterval(s.Opts.FlushInterval).
		After(s.afterFlush).
		Do()
	if err != nil {
		return err
	}
	s.processor = proc
	return nil
}

// Stop flushes any pending writes and stops the bulk processor.
func (s *ElasticSink) Stop() error {
	if s.processor == nil {
		return nil
	}
	if err := s.processor.Flush(); err != nil {
		return err
	}
	return s.processor.Stop()
}

// Record implements ingest.Sink: every Fault the Reader raises is
// indexed into Opts.FaultIndex, keyed by reader/line/record so repeated
// runs against the same input overwrite rather than accumulate.
func (s *ElasticSink) Record(f *ingest.Fault) {
	if f == nil || s.processor == nil {
		return
	}
	doc := map[string]interface{}{
		"reader":  f.Reader,
		"line":    f.Line,
		"record":  f.Record,
		"kind":    f.Kind.String(),
		"message": f.Message,
		"excerpt": f.Excerpt,
		"action":  f.Action.String(),
		"at":      f.At,
	}
	id := fmt.Sprintf("%s/%d/%d", f.Reader, f.Line, f.Record)
	s.processor.Add(elastic.NewBulkIndexRequest().Index(s.Opts.FaultIndex).Type("fault").Id(id).Doc(doc))
	atomic.AddUint32(&s.pendingCount, 1)
}

// StoreRow indexes one materialized record, skipping it if ForElastic
// reports a nil data value.
func (s *ElasticSink) StoreRow(rec ElasticWritable) {
	index, docType, id, data := rec.ForElastic()
	if data == nil {
		return
	}
	s.processor.Add(elastic.NewBulkIndexRequest().Index(index).Type(docType).Id(id).Doc(data))
	atomic.AddUint32(&s.pendingCount, 1)
}

// ApplySettings reads a JSON/YAML settings file via utils.ReadConfig
// and applies it to an existing index.
func (s *ElasticSink) ApplySettings(indexName, settingsPath string) error {
	settings, err := utils.ReadConfig(settingsPath)
	if err != nil {
		return err
	}
	_, err = s.es.IndexPutSettings(indexName).BodyJson(settings).Do()
	return err
}

// CreateIndexWithSettings creates indexName using the settings file at
// settingsPath, recreating it first if recreate is true and it already
// exists.
func (s *ElasticSink) CreateIndexWithSettings(indexName, settingsPath string, recreate bool) error {
	exists, err := s.es.IndexExists(indexName).Do()
	if err != nil {
		return err
	}

	settings, err := utils.ReadConfig(settingsPath)
	if err != nil {
		return err
	}

	if exists {
		if !recreate {
			return nil
		}
		if _, err = s.es.DeleteIndex(indexName).Do(); err != nil {
			return err
		}
	}

	_, err = s.es.CreateIndex(indexName).BodyJson(settings).Do()
	return err
}

func (s *ElasticSink) afterFlush(_ int64, _ []elastic.BulkableRequest, response *elastic.BulkResponse, err error) {
	if response != nil && response.Errors {
		for _, item := range response.Failed() {
			s.Log.WithField("reason", item.Error.Reason).WithField("type", item.Error.Type).Error("error in bulk insert")
		}
	}
	if err != nil {
		s.Log.WithError(err).Error("error writing to elasticsearch")
	}

	stored := atomic.LoadUint32(&s.pendingCount)
	s.Log.WithField("stored", stored).Debug("elasticsearch flushed")
	atomic.StoreUint32(&s.pendingCount, 0)
}
