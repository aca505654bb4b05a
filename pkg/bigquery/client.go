package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/linkcart/storefront-core/pkg/config"
	"github.com/linkcart/storefront-core/pkg/logger"
	"google.golang.org/api/googleapi"
)

const metadataTimeout = 10 * time.Second

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errDatasetRequired   = errors.New("bigquery dataset is required")
	errNoTables          = errors.New("at least one bigquery table is required")
	errTableNameRequired = errors.New("bigquery table name is required")
	errNotInitialized    = errors.New("bigquery client not initialized")
)

// TableSpec describes a table the client writes to. Schema and PartitionField
// are only used when the table has to be created.
type TableSpec struct {
	Name           string
	Schema         bigquery.Schema
	PartitionField string
}

// Client wraps a dataset handle plus the tables the process depends on.
type Client struct {
	client  *bigquery.Client
	dataset *bigquery.Dataset
	tables  []TableSpec
	logg    *logger.Logger
}

// NewClient connects to BigQuery and checks the dataset and every table in specs.
// With cfg.AutoCreate set, missing resources are created instead of failing startup.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, specs []TableSpec, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}
	tables, err := normalizeSpecs(specs)
	if err != nil {
		return nil, err
	}

	bqClient, err := bigquery.NewClient(ctx, projectID, gcp.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}

	c := &Client{
		client:  bqClient,
		dataset: bqClient.Dataset(datasetID),
		tables:  tables,
		logg:    logg,
	}
	if err := c.ensure(ctx, cfg.AutoCreate); err != nil {
		_ = bqClient.Close()
		return nil, err
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"dataset": datasetID, "tables": len(tables)})
		logg.Info(ctx, "bigquery client initialized")
	}
	return c, nil
}

func normalizeSpecs(specs []TableSpec) ([]TableSpec, error) {
	out := make([]TableSpec, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		spec.Name = strings.TrimSpace(spec.Name)
		if spec.Name == "" {
			return nil, errTableNameRequired
		}
		if _, dup := seen[spec.Name]; dup {
			continue
		}
		seen[spec.Name] = struct{}{}
		out = append(out, spec)
	}
	if len(out) == 0 {
		return nil, errNoTables
	}
	return out, nil
}

func (c *Client) ensure(ctx context.Context, create bool) error {
	if c == nil || c.dataset == nil {
		return errNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("checking dataset %q: %w", c.dataset.DatasetID, err)
		}
		if !create {
			return fmt.Errorf("dataset %q does not exist", c.dataset.DatasetID)
		}
		if err := c.dataset.Create(ctx, &bigquery.DatasetMetadata{}); err != nil && !isConflict(err) {
			return fmt.Errorf("creating dataset %q: %w", c.dataset.DatasetID, err)
		}
		c.logCreated(ctx, "bigquery.dataset_created", c.dataset.DatasetID)
	}

	for _, spec := range c.tables {
		table := c.dataset.Table(spec.Name)
		_, err := table.Metadata(ctx)
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return fmt.Errorf("checking table %q: %w", spec.Name, err)
		}
		if !create || len(spec.Schema) == 0 {
			return fmt.Errorf("table %q does not exist", spec.Name)
		}
		if err := table.Create(ctx, spec.metadata()); err != nil && !isConflict(err) {
			return fmt.Errorf("creating table %q: %w", spec.Name, err)
		}
		c.logCreated(ctx, "bigquery.table_created", spec.Name)
	}
	return nil
}

func (s TableSpec) metadata() *bigquery.TableMetadata {
	md := &bigquery.TableMetadata{Schema: s.Schema}
	if s.PartitionField != "" {
		md.TimePartitioning = &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: s.PartitionField,
		}
	}
	return md
}

func (c *Client) logCreated(ctx context.Context, msg, name string) {
	if c.logg == nil {
		return
	}
	c.logg.Info(c.logg.WithField(ctx, "resource", name), msg)
}

// Ping re-checks that the dataset and tables are reachable. It never creates.
func (c *Client) Ping(ctx context.Context) error {
	return c.ensure(ctx, false)
}

// InsertRows streams rows into a table of the configured dataset.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.dataset == nil {
		return errNotInitialized
	}
	name := strings.TrimSpace(table)
	if name == "" {
		return errTableNameRequired
	}
	if len(rows) == 0 {
		return nil
	}
	return c.dataset.Table(name).Inserter().Put(ctx, rows)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	return apiStatus(err) == http.StatusNotFound
}

func isConflict(err error) bool {
	return apiStatus(err) == http.StatusConflict
}

func apiStatus(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Code
	}
	return 0
}
