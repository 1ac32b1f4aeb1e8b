package loader

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// JobSpec describes one load job. A nil Schema lets the warehouse infer the
// schema from the source file.
type JobSpec struct {
	Dataset   string
	Table     string
	SourceURI string
	Schema    bigquery.Schema
}

// Job is a handle on a submitted load job.
type Job interface {
	// Wait blocks until the job reaches a terminal status and returns its
	// terminal error, if any.
	Wait(ctx context.Context) error
}

// JobRunner submits load jobs to the warehouse.
type JobRunner interface {
	Submit(ctx context.Context, spec JobSpec) (Job, error)
}

// BigQueryRunner submits Avro load jobs through the BigQuery client.
type BigQueryRunner struct {
	client *bigquery.Client
}

// NewBigQueryRunner wraps an existing client. The client is process-wide and
// safe for concurrent use.
func NewBigQueryRunner(client *bigquery.Client) *BigQueryRunner {
	return &BigQueryRunner{client: client}
}

// Submit creates and runs a load job from the source URI into the table,
// creating the table if needed and appending on every load.
func (r *BigQueryRunner) Submit(ctx context.Context, spec JobSpec) (Job, error) {
	gcsRef := bigquery.NewGCSReference(spec.SourceURI)
	gcsRef.SourceFormat = bigquery.Avro
	if spec.Schema != nil {
		gcsRef.Schema = spec.Schema
	}

	loader := r.client.Dataset(spec.Dataset).Table(spec.Table).LoaderFrom(gcsRef)
	loader.CreateDisposition = bigquery.CreateIfNeeded
	loader.WriteDisposition = bigquery.WriteAppend
	loader.JobIDConfig = bigquery.JobIDConfig{
		JobID:          fmt.Sprintf("avro_bridge_%s", spec.Table),
		AddJobIDSuffix: true,
	}

	job, err := loader.Run(ctx)
	if err != nil {
		return nil, err
	}
	return bqJob{job: job}, nil
}

type bqJob struct {
	job *bigquery.Job
}

func (j bqJob) Wait(ctx context.Context) error {
	status, err := j.job.Wait(ctx)
	if err != nil {
		return err
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job %s: %w", j.job.ID(), err)
	}
	return nil
}
